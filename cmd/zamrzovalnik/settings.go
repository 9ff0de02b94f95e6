package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/zamrzovalnik/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change device settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show device settings",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		s, err := store.GetSettings(ctx, a.db)
		if err != nil {
			return err
		}

		tw := newTable(os.Stdout)
		fmt.Fprintf(tw, "%s\t%d\n", store.SettingDefaultExpirationDays, s.DefaultExpirationDays)
		fmt.Fprintf(tw, "%s\t%d\n", store.SettingExpirationWarningDays, s.ExpirationWarningDays)
		fmt.Fprintf(tw, "%s\t%s\n", store.SettingTheme, s.Theme)
		fmt.Fprintf(tw, "%s\t%s\n", store.SettingLastBackup, formatDate(s.LastBackup))
		fmt.Fprintf(tw, "%s\t%s\n", store.SettingVersion, s.Version)
		return tw.Flush()
	}),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change a device setting",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if err := store.UpdateSetting(ctx, a.db, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	}),
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
}
