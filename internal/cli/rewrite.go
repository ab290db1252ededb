package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ogbrand/pkg/resolve"
	"github.com/matzehuels/ogbrand/pkg/rewrite"
)

// rewriteOpts holds rewrite command options.
type rewriteOpts struct {
	rules     string
	structure string
	output    string
	json      bool
	flush     bool
}

// rewriteCommand creates the rewrite command.
func (c *CLI) rewriteCommand() *cobra.Command {
	var opts rewriteOpts
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Add the image endpoint to a URL rule table",
		Long: `Rewrite reads a site's URL rule table (a JSON array of {pattern, target}
objects, or an object mapping patterns to targets), adds archive and
taxonomy endpoint rules, collapses endpoint rules so the endpoint query
variable acts as a flag, and moves endpoint rules to the front.

The transformed table is cached by the signature of its input.`,
		Example: `  ogbrand rewrite --rules rules.json
  ogbrand rewrite --rules rules.json --structure /blog/%postname%/ -o out.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, cfg, err := c.openResolver(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			if opts.rules != "" {
				cfg.Site.Rules = opts.rules
			}
			if cmd.Flags().Changed("structure") {
				cfg.Site.PermalinkStructure = opts.structure
			}
			r.RouteInput = func() (rewrite.Input, error) { return resolve.RouteInput(cfg) }

			if opts.flush {
				// Publish first so Invalidate knows which cached table to drop.
				if err := r.RebuildRoutes(ctx); err != nil {
					return err
				}
				if err := r.Routes.Invalidate(ctx); err != nil {
					return err
				}
			}
			prog := newProgress(loggerFromContext(ctx))
			if err := r.RebuildRoutes(ctx); err != nil {
				return err
			}
			snap := r.Routes.Current()
			prog.done(fmt.Sprintf("Rewrote %d rules", len(snap.Table)))

			if opts.output != "" {
				if err := rewrite.ExportJSON(snap.Table, opts.output); err != nil {
					return err
				}
				printSuccess("Wrote %d rules", len(snap.Table))
				printFile(opts.output)
				return nil
			}
			if opts.json {
				return rewrite.WriteJSON(snap.Table, stdout)
			}
			printSnapshot(snap)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.rules, "rules", "", "rule table JSON file (default site.rules)")
	cmd.Flags().StringVar(&opts.structure, "structure", "", "permalink structure (default site.permalink_structure)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the transformed table to a file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the transformed table as JSON")
	cmd.Flags().BoolVar(&opts.flush, "flush", false, "drop the cached table before rebuilding")
	return cmd
}

func printSnapshot(snap *rewrite.Snapshot) {
	rows := make([][]string, len(snap.Table))
	for i, rule := range snap.Table {
		rows[i] = []string{strconv.Itoa(i), rule.Pattern, rule.Target}
	}
	printTable([]string{"#", "Pattern", "Target"}, rows, func(row int) bool {
		return strings.Contains(snap.Table[row].Pattern, snap.Endpoint.Name)
	})
	endpoints := snap.Table.Count(snap.Endpoint.Name)
	printStats(snap.Cached,
		fmt.Sprintf("%d rules", len(snap.Table)),
		fmt.Sprintf("%d endpoint rules", endpoints),
		snap.Signature[:min(12, len(snap.Signature))])
}

// routeCommand creates the route command.
func (c *CLI) routeCommand() *cobra.Command {
	var opts resolveOpts
	cmd := &cobra.Command{
		Use:   "route <path>",
		Short: "Match a URL path against the transformed rule table",
		Long: `Route finds the first rule of the transformed table matching a path and
derives the entity from its target. When the path asks for the image
endpoint, the entity is resolved as well.`,
		Example: `  ogbrand route /hello-world/social-image.jpg
  ogbrand route /genre/jazz/ --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, _, err := c.openResolver(ctx)
			if err != nil {
				return err
			}
			defer r.Close()
			if opts.noScrape {
				r.Fallback.ScrapeTitles = false
			}

			out, err := r.Route(ctx, args[0])
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(out)
			}
			printRoute(out)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

func printRoute(out *resolve.Routed) {
	printTitle("Route for %s", out.Path)
	if out.Route.Index >= 0 {
		printKeyValue("Rule", fmt.Sprintf("#%d %s", out.Route.Index, out.Route.Rule.Pattern))
	}
	printKeyValue("Target", out.Route.Target)
	printKeyValue("Entity", out.Entity.String())
	printKeyValue("Endpoint", onOff(out.Route.Flag))
	if out.Route.FrontPage {
		printDetail("front page")
	}
	if out.Bundle != nil {
		printNewline()
		printBundle(out.Bundle)
	}
}
