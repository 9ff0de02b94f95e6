package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/erazemk/zamrzovalnik/internal/model"
	"github.com/erazemk/zamrzovalnik/internal/store"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"categories", "cat"},
	Short:   "Manage categories",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories in sort order",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		categories, err := store.ListCategories(ctx, a.db)
		if err != nil {
			return err
		}
		items, err := store.ListItems(ctx, a.db, store.ItemFilter{})
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, it := range items {
			counts[it.CategoryID]++
		}

		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, styleHeading.Render("ID")+"\t"+styleHeading.Render("NAME")+"\t"+
			styleHeading.Render("ITEMS")+"\t"+styleHeading.Render("DEFAULT"))
		for _, c := range categories {
			def := ""
			if c.IsDefault {
				def = styleMuted.Render("yes")
			}
			fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\n", c.ID, c.Icon, c.Name, strconv.Itoa(counts[c.ID]), def)
		}
		return tw.Flush()
	}),
}

var categoryAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		icon, _ := cmd.Flags().GetString("icon")
		color, _ := cmd.Flags().GetString("color")

		c, err := store.CreateCategory(ctx, a.db, args[0], icon, color)
		if err != nil {
			return err
		}
		fmt.Printf("Added category %s (%s)\n", c.Name, c.ID)
		return nil
	}),
}

var categoryEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Rename or restyle a category",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var patch store.CategoryPatch
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("icon") {
			v, _ := flags.GetString("icon")
			patch.Icon = &v
		}
		if flags.Changed("color") {
			v, _ := flags.GetString("color")
			patch.Color = &v
		}
		if patch.Name == nil && patch.Icon == nil && patch.Color == nil {
			return errors.New("nothing to change")
		}

		c, err := store.UpdateCategory(ctx, a.db, args[0], patch)
		if err != nil {
			return err
		}
		fmt.Printf("Updated category %s\n", c.Name)
		return nil
	}),
}

var categoryRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Remove a category, moving its items to Other",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		err := store.DeleteCategory(ctx, a.db, args[0])
		if errors.Is(err, store.ErrDefaultCategory) {
			return fmt.Errorf("%s is a default category and cannot be removed", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Removed category %s; its items moved to %q\n", args[0], model.OtherCategoryID)
		return nil
	}),
}

func init() {
	categoryAddCmd.Flags().String("icon", "", "emoji icon")
	categoryAddCmd.Flags().String("color", "gray", "display color")
	categoryEditCmd.Flags().String("name", "", "new name")
	categoryEditCmd.Flags().String("icon", "", "emoji icon")
	categoryEditCmd.Flags().String("color", "", "display color")

	categoryCmd.AddCommand(categoryListCmd, categoryAddCmd, categoryEditCmd, categoryRmCmd)
}
