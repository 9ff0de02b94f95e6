package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/erazemk/zamrzovalnik/internal/remote"
)

var errNotConfigured = errors.New("no remote_url configured; set it in the config file or ZAMRZOVALNIK_REMOTE_URL")

var signupCmd = &cobra.Command{
	Use:   "signup USERNAME",
	Short: "Create a remote account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		return authenticate(ctx, a, cmd, args[0], a.client.SignUp)
	}),
}

var loginCmd = &cobra.Command{
	Use:   "login USERNAME",
	Short: "Sign in to the remote store",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		return authenticate(ctx, a, cmd, args[0], a.client.Login)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out of the remote store",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if err := a.client.Logout(ctx); err != nil {
			// The local session is gone either way.
			fmt.Fprintf(os.Stderr, "Warning: server did not confirm logout: %v\n", err)
		}
		fmt.Println("Signed out.")
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().Bool("password-stdin", false, "read the password from stdin")
	}
}

type authFunc func(ctx context.Context, username, password string) (*remote.Session, error)

func authenticate(ctx context.Context, a *app, cmd *cobra.Command, username string, fn authFunc) error {
	if !a.client.Configured() {
		return errNotConfigured
	}

	fromStdin, _ := cmd.Flags().GetBool("password-stdin")
	password, err := readPassword(fromStdin)
	if err != nil {
		return err
	}

	_, err = fn(ctx, username, password)
	if errors.Is(err, remote.ErrUnauthorized) {
		return errors.New("wrong username or password")
	}
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s.\n", username)

	st, err := a.engine.SyncNow(ctx)
	if err != nil {
		return err
	}
	printState(st)
	return nil
}

func readPassword(fromStdin bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !fromStdin && term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
