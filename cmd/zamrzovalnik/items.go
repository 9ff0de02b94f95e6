package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/zamrzovalnik/internal/model"
	"github.com/erazemk/zamrzovalnik/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add an item to the freezer",
	Long: `Add an item to the freezer.

Without --expires the item expires after the configured default number of
days (settings key default_expiration_days). Use --no-expiry for items
without a date.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		qty, _ := flags.GetFloat64("qty")
		unit, _ := flags.GetString("unit")
		category, _ := flags.GetString("category")
		notes, _ := flags.GetString("notes")
		expires, _ := flags.GetString("expires")
		noExpiry, _ := flags.GetBool("no-expiry")

		in := store.NewItem{
			Name:       strings.Join(args, " "),
			Quantity:   qty,
			Unit:       unit,
			CategoryID: category,
			Notes:      notes,
		}

		now := time.Now()
		switch {
		case noExpiry:
		case expires != "":
			t, err := parseExpiry(expires, now)
			if err != nil {
				return err
			}
			in.ExpirationDate = &t
		default:
			settings, err := store.GetSettings(ctx, a.db)
			if err != nil {
				return err
			}
			t := midnight(now.AddDate(0, 0, settings.DefaultExpirationDays))
			in.ExpirationDate = &t
		}

		item, err := store.CreateItem(ctx, a.db, in)
		if err != nil {
			return err
		}

		fmt.Printf("Added %s (%s)\n", item.Name, item.ID)
		return nil
	}),
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List items, soonest expiry first",
	Args:    cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")

		if err := a.cache.Reload(ctx); err != nil {
			return err
		}

		now := time.Now()
		var items []model.Item
		switch status {
		case "all", "":
			var err error
			items, err = store.ListItems(ctx, a.db, store.ItemFilter{CategoryID: category, Search: search})
			if err != nil {
				return err
			}
		case "expiring":
			items = filterItems(a.cache.ExpiringSoon(now), category, search)
		case "expired":
			items = filterItems(a.cache.Expired(now), category, search)
		default:
			return fmt.Errorf("unknown status %q (want all, expiring or expired)", status)
		}

		if len(items) == 0 {
			fmt.Println(styleMuted.Render("Nothing in the freezer."))
			return nil
		}

		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, styleHeading.Render("NAME")+"\t"+styleHeading.Render("QTY")+"\t"+
			styleHeading.Render("CATEGORY")+"\t"+styleHeading.Render("EXPIRES")+"\t"+
			styleHeading.Render("STATUS")+"\t"+styleHeading.Render("ID"))
		for _, it := range items {
			label, text := renderExpiry(it.ExpirationDate, now)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				it.Name, formatQuantity(it.Quantity, it.Unit), categoryName(a, it.CategoryID),
				text, label, styleMuted.Render(shortID(it.ID)))
		}
		return tw.Flush()
	}),
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one item",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		item, err := findItem(ctx, a, args[0])
		if err != nil {
			return err
		}
		if err := a.cache.Reload(ctx); err != nil {
			return err
		}

		now := time.Now()
		label, text := renderExpiry(item.ExpirationDate, now)
		tw := newTable(os.Stdout)
		fmt.Fprintf(tw, "Name:\t%s\n", item.Name)
		fmt.Fprintf(tw, "Quantity:\t%s\n", formatQuantity(item.Quantity, item.Unit))
		fmt.Fprintf(tw, "Category:\t%s\n", categoryName(a, item.CategoryID))
		fmt.Fprintf(tw, "Expires:\t%s (%s, %s)\n", formatDate(item.ExpirationDate), label, text)
		fmt.Fprintf(tw, "Added:\t%s\n", formatDate(&item.AddedDate))
		if item.Notes != "" {
			fmt.Fprintf(tw, "Notes:\t%s\n", item.Notes)
		}
		fmt.Fprintf(tw, "ID:\t%s\n", item.ID)
		return tw.Flush()
	}),
}

var editCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of an item",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		item, err := findItem(ctx, a, args[0])
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		var patch model.ItemPatch
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("qty") {
			v, _ := flags.GetFloat64("qty")
			patch.Quantity = &v
		}
		if flags.Changed("unit") {
			v, _ := flags.GetString("unit")
			patch.Unit = &v
		}
		if flags.Changed("category") {
			v, _ := flags.GetString("category")
			patch.CategoryID = &v
		}
		if flags.Changed("notes") {
			v, _ := flags.GetString("notes")
			patch.Notes = &v
		}
		if flags.Changed("expires") {
			v, _ := flags.GetString("expires")
			t, err := parseExpiry(v, time.Now())
			if err != nil {
				return err
			}
			patch.ExpirationDate = &t
		}
		patch.ClearExpiry, _ = flags.GetBool("no-expiry")

		if patch.Empty() {
			return errors.New("nothing to change")
		}

		updated, err := store.UpdateItem(ctx, a.db, item.ID, patch)
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s\n", updated.Name)
		return nil
	}),
}

var rmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove"},
	Short:   "Remove an item",
	Args:    cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		item, err := findItem(ctx, a, args[0])
		if err != nil {
			return err
		}
		if err := store.DeleteItem(ctx, a.db, item.ID); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", item.Name)
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{addCmd, editCmd} {
		f := c.Flags()
		f.Float64P("qty", "q", 1, "quantity")
		f.StringP("unit", "u", "", "unit, e.g. kg or pcs")
		f.StringP("category", "c", "", "category ID (default: other)")
		f.StringP("expires", "e", "", `expiration date: YYYY-MM-DD, days from now, or "in 3 months"`)
		f.Bool("no-expiry", false, "no expiration date")
		f.StringP("notes", "n", "", "free-form notes")
	}
	editCmd.Flags().String("name", "", "new name")

	listCmd.Flags().StringP("category", "c", "", "only this category")
	listCmd.Flags().StringP("search", "s", "", "match name or notes")
	listCmd.Flags().String("status", "all", "all, expiring or expired")
}

// findItem resolves a full ID or a unique prefix of one.
func findItem(ctx context.Context, a *app, ref string) (*model.Item, error) {
	item, err := store.GetItem(ctx, a.db, ref)
	if err != nil {
		return nil, err
	}
	if item != nil && !item.Deleted() {
		return item, nil
	}

	items, err := store.ListItems(ctx, a.db, store.ItemFilter{})
	if err != nil {
		return nil, err
	}
	var match *model.Item
	for i := range items {
		if strings.HasPrefix(items[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one item", ref)
			}
			match = &items[i]
		}
	}
	if match == nil {
		return nil, store.ErrItemNotFound
	}
	return match, nil
}

func filterItems(items []model.Item, category, search string) []model.Item {
	search = strings.ToLower(search)
	var out []model.Item
	for _, it := range items {
		if category != "" && it.CategoryID != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(it.Name), search) &&
			!strings.Contains(strings.ToLower(it.Notes), search) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func categoryName(a *app, id string) string {
	if c, ok := a.cache.Category(id); ok {
		return c.Icon + " " + c.Name
	}
	return id
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
