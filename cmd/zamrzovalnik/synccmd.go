package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/zamrzovalnik/internal/store"
	zsync "github.com/erazemk/zamrzovalnik/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local inventory with the remote store once",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if !a.client.Configured() {
			return errNotConfigured
		}
		s, err := a.client.Session(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return errors.New("not signed in; run \"zamrzovalnik login\" first")
		}

		st, err := a.engine.SyncNow(ctx)
		if err != nil {
			return err
		}
		printState(st)
		if st.Status == zsync.StatusError {
			return fmt.Errorf("sync failed (%s): %s", st.ErrorKind, st.LastError)
		}
		return nil
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account, sync and inventory status",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		tw := newTable(os.Stdout)

		remoteURL := styleMuted.Render("not configured")
		if a.client.Configured() {
			remoteURL = a.client.BaseURL()
		}
		fmt.Fprintf(tw, "Remote\t%s\n", remoteURL)

		account := styleMuted.Render("signed out")
		if s, err := a.client.Session(ctx); err != nil {
			return err
		} else if s != nil {
			account = fmt.Sprintf("%s (expires %s)", s.UserID, s.ExpiresAt.Local().Format(time.DateOnly))
		}
		fmt.Fprintf(tw, "Account\t%s\n", account)

		ss, err := store.GetSyncState(ctx, a.db)
		if err != nil {
			return err
		}
		last := styleMuted.Render("never")
		if ss.LastSyncedAt.UnixMilli() > 0 {
			last = ss.LastSyncedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "Last synced\t%s\n", last)
		fmt.Fprintf(tw, "Device\t%s\n", ss.DeviceID)

		if err := a.cache.Reload(ctx); err != nil {
			return err
		}
		now := time.Now()
		fmt.Fprintf(tw, "Items\t%d\n", len(a.cache.Items()))
		fmt.Fprintf(tw, "Expiring soon\t%s\n", styleExpiring.Render(fmt.Sprint(len(a.cache.ExpiringSoon(now)))))
		fmt.Fprintf(tw, "Expired\t%s\n", styleExpired.Render(fmt.Sprint(len(a.cache.Expired(now)))))
		return tw.Flush()
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep syncing in the foreground until interrupted",
	Args:  cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		verbose = true
	},
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if !a.client.Configured() {
			return errNotConfigured
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		changed := a.engine.Changed()
		a.engine.Start(ctx)

		for {
			select {
			case <-changed:
				changed = a.engine.Changed()
				if st := a.engine.State(); st.Status != zsync.StatusSyncing {
					printState(st)
				}
			case <-ctx.Done():
				return nil
			}
		}
	}),
}

func printState(st zsync.State) {
	switch st.Status {
	case zsync.StatusError:
		fmt.Printf("%s %s error: %s\n", styleExpired.Render("✗"), st.ErrorKind, st.LastError)
	case zsync.StatusSyncing:
		fmt.Println(styleMuted.Render("syncing..."))
	default:
		if st.LastSyncedAt.UnixMilli() <= 0 {
			fmt.Println(styleMuted.Render("idle (not synced)"))
			return
		}
		fmt.Printf("%s synced through %s\n", styleGood.Render("✓"), st.LastSyncedAt.Local().Format(time.DateTime))
	}
}
