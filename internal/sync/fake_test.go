package sync

import (
	"context"
	gosync "sync"
	"time"

	"github.com/erazemk/zamrzovalnik/internal/remote"
)

// fakeRemote is an in-memory row store for one owner. Pushed rows become
// visible to pulls unless pullOnly is set.
type fakeRemote struct {
	mu         gosync.Mutex
	configured bool
	session    *remote.Session
	categories map[string]remote.CategoryRow
	items      map[string]remote.ItemRow

	// pullOnly keeps pushes out of the pulled rows.
	pullOnly bool
	pushed   []string

	sessions  int
	pullErr   error
	pushErr   error
	gate      chan struct{}
	entered   chan struct{}
	listeners []func(*remote.Session)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		configured: true,
		session:    &remote.Session{Token: "t", UserID: "owner-1"},
		categories: make(map[string]remote.CategoryRow),
		items:      make(map[string]remote.ItemRow),
	}
}

func (f *fakeRemote) Configured() bool { return f.configured }

func (f *fakeRemote) Session(context.Context) (*remote.Session, error) {
	f.mu.Lock()
	f.sessions++
	s := f.session
	f.mu.Unlock()
	return s, nil
}

func (f *fakeRemote) cycles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions
}

func (f *fakeRemote) UpsertCategories(_ context.Context, rows []remote.CategoryRow) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	for _, r := range rows {
		f.pushed = append(f.pushed, "category:"+r.ID)
		if !f.pullOnly {
			f.categories[r.ID] = r
		}
	}
	return nil
}

func (f *fakeRemote) UpsertItems(_ context.Context, rows []remote.ItemRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	for _, r := range rows {
		f.pushed = append(f.pushed, "item:"+r.ID)
		if !f.pullOnly {
			f.items[r.ID] = r
		}
	}
	return nil
}

func (f *fakeRemote) CategoriesSince(_ context.Context, owner string, since time.Time) ([]remote.CategoryRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	var out []remote.CategoryRow
	for _, r := range f.categories {
		if r.UserID == owner && r.UpdatedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRemote) ItemsSince(_ context.Context, owner string, since time.Time) ([]remote.ItemRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	var out []remote.ItemRow
	for _, r := range f.items {
		if r.UserID == owner && r.UpdatedAt.After(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRemote) OnAuthStateChange(fn func(*remote.Session)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeRemote) fireAuth() {
	f.mu.Lock()
	listeners := append([]func(*remote.Session){}, f.listeners...)
	s := f.session
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// wait blocks on the gate, if one is set, after announcing itself.
func (f *fakeRemote) wait() {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate == nil {
		return
	}
	select {
	case entered <- struct{}{}:
	default:
	}
	<-gate
}
