package sync

import (
	"errors"
	"fmt"
	"time"
)

// Status is the coarse state of the engine.
type Status string

// Statuses.
const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusError   Status = "error"
)

// ErrorKind classifies a failed cycle.
type ErrorKind string

// Error kinds. A missing remote configuration or session is not an error.
const (
	KindTransport ErrorKind = "transport"
	KindStorage   ErrorKind = "storage"
)

// State is a snapshot of the engine's observable state.
type State struct {
	Status       Status
	LastSyncedAt time.Time
	LastError    string
	ErrorKind    ErrorKind
}

// CycleError is the failure of one reconciliation cycle.
type CycleError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

func transportErr(op string, err error) error {
	return &CycleError{Kind: KindTransport, Op: op, Err: err}
}

func storageErr(op string, err error) error {
	return &CycleError{Kind: KindStorage, Op: op, Err: err}
}

// kindOf returns the kind of err, defaulting to storage for errors raised
// outside the remote calls.
func kindOf(err error) ErrorKind {
	var ce *CycleError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindStorage
}
