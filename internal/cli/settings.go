package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/resolve"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

// settingsCommand creates the settings command.
func (c *CLI) settingsCommand() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write site and entity settings",
		Long: `Settings manages the values the option cascade reads. The site scope holds
the defaults; an entity scope (base/type/id) holds per-entity overrides.

Writes are validated against the option schema: unknown keys, keys that
an entity cannot override and malformed values are rejected.`,
		Example: `  ogbrand settings set color '#ff0000'
  ogbrand settings set --scope content/post/42 text 'Custom text'
  ogbrand settings list --scope content/post/42`,
	}
	cmd.PersistentFlags().StringVar(&scope, "scope", "site", "settings scope (site or base/type/id)")

	// with opens the store and runs fn against the parsed scope.
	with := func(cmd *cobra.Command, fn func(ctx context.Context, r *resolve.Resolver, sc settings.Scope) error) error {
		sc, err := settings.ParseScope(scope)
		if err != nil {
			return err
		}
		r, _, err := c.openResolver(cmd.Context())
		if err != nil {
			return err
		}
		defer r.Close()
		return fn(cmd.Context(), r, sc)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, r *resolve.Resolver, sc settings.Scope) error {
				v, ok, err := r.Store.Get(ctx, sc, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return errors.New(errors.ErrCodeNotFound, "%s is not set for %s", args[0], sc)
				}
				fmt.Fprintln(stdout, v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, r *resolve.Resolver, sc settings.Scope) error {
				if err := settings.Guard(r.Store, r.Cascade.Schema).Set(ctx, sc, args[0], args[1]); err != nil {
					return err
				}
				printSuccess("Stored %s for %s", args[0], sc)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "unset <key>",
		Aliases: []string{"rm"},
		Short:   "Remove a value",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, r *resolve.Resolver, sc settings.Scope) error {
				if err := r.Store.Delete(ctx, sc, args[0]); err != nil {
					return err
				}
				printSuccess("Removed %s from %s", args[0], sc)
				return nil
			})
		},
	})

	var asJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the stored values of a scope",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, r *resolve.Resolver, sc settings.Scope) error {
				values, err := r.Store.List(ctx, sc)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(values)
				}
				if len(values) == 0 {
					printInfo("Nothing stored for %s", sc)
					return nil
				}
				printSettings(r.Cascade.Schema, sc, values)
				return nil
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "print the values as JSON")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List the keys a scope accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := settings.ParseScope(scope)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			schema := options.NewSchema(cfg.Features)
			ctx := options.Admin
			if !sc.IsSite() {
				ctx = options.Meta
			}
			rows := [][]string{}
			for _, f := range schema.Fields(ctx) {
				rows = append(rows, []string{string(f.Key), string(f.Type), orDash(f.Default), f.Label})
			}
			printTable([]string{"Key", "Type", "Default", "Label"}, rows, nil)
			return nil
		},
	})

	return cmd
}

func printSettings(schema *options.Schema, sc settings.Scope, values map[string]string) {
	printTitle("Settings for %s", sc)
	keys := slices.Sorted(maps.Keys(values))
	rows := make([][]string, len(keys))
	for i, k := range keys {
		kind := "option"
		switch {
		case settings.Reserved(k):
			kind = "reserved"
		case !schema.Known(options.Key(k)):
			kind = "unknown"
		}
		rows[i] = []string{k, values[k], kind}
	}
	printTable([]string{"Key", "Value", "Kind"}, rows, func(row int) bool {
		return rows[row][2] == "option"
	})
}
