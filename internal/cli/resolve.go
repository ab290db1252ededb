package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ogbrand/pkg/fallback"
	"github.com/matzehuels/ogbrand/pkg/geometry"
	"github.com/matzehuels/ogbrand/pkg/media"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/resolve"
)

// resolveOpts holds flags shared by resolve and route.
type resolveOpts struct {
	json     bool
	noScrape bool
}

func (o *resolveOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&o.noScrape, "no-scrape", false, "skip fetching page titles")
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOpts
	cmd := &cobra.Command{
		Use:   "resolve <base/type/id>",
		Short: "Resolve the social image parameters of an entity",
		Long: `Resolve picks the image and the text of an entity's social image and expands
every rendering option into pixel geometry.

Entities are written as base/type/id, e.g. content/post/42 or
term/category/news. A bare id is a post.`,
		Example: `  ogbrand resolve 42
  ogbrand resolve term/category/news --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			r, _, err := c.openResolver(ctx)
			if err != nil {
				return err
			}
			defer r.Close()
			if opts.noScrape {
				r.Fallback.ScrapeTitles = false
			}

			var spin *Spinner
			if r.Fallback.ScrapeTitles && !opts.json {
				spin = newSpinner(ctx, "Resolving "+ref.String())
				spin.Start()
			}
			b, err := r.Resolve(ctx, ref)
			if spin != nil {
				spin.Stop()
				if spin.Interrupted() {
					return ctx.Err()
				}
			}
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(b)
			}
			printBundle(b)
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}

// printBundle prints the human readable form of a bundle.
func printBundle(b *resolve.Bundle) {
	printTitle("Social image for %s", b.Entity)
	if !b.Enabled {
		printWarning("Social images are disabled for this entity")
		return
	}

	if b.HasImage() {
		printKeyValue("Image", b.ImageSource)
		printDetail("from the %s layer", b.ImageLayer)
	} else {
		printKeyValue("Image", "—")
		printDetail("no layer produced an image")
	}
	printKeyValue("Text", orDash(b.Text))
	if b.TextLayer != "" {
		printDetail("from the %s layer", b.TextLayer)
	}

	printNewline()
	printKeyValue("Overlay", onOff(b.Render.Text.Enabled)+" at "+string(b.Render.Text.Position))
	printKeyValue("Font", fmt.Sprintf("%s %d %s, %dpx", b.Render.Text.FontFamily, b.Render.Text.FontWeight, b.Render.Text.FontStyle, b.Render.Text.FontSize))
	printKeyValue("Color", b.Render.Text.Color)
	printKeyValue("Background", b.Render.Text.BackgroundColor+" "+onOff(b.Render.Text.BackgroundEnabled))
	printKeyValue("Placement", placement(b.Render.Text.Placement))
	if s := b.Render.Text.Stroke; s != nil {
		printKeyValue("Stroke", fmt.Sprintf("%dpx %s", s.Width, s.Color))
	}
	if s := b.Render.Text.Shadow; s != nil {
		printKeyValue("Shadow", fmt.Sprintf("%s %+d/%+d %s", s.Color, s.Left, s.Top, s.Type))
	}

	printNewline()
	logo := b.Render.Logo
	if logo.Enabled {
		printKeyValue("Logo", logo.File)
		printKeyValue("Logo box", fmt.Sprintf("%.0fx%.0f at %s (%d%%)", logo.W, logo.H, logo.Position, logo.Size))
		printKeyValue("Placement", placement(logo.Placement))
	} else {
		printKeyValue("Logo", "off")
		if logo.Error != "" {
			printDetail("%s", logo.Error)
		}
	}

	if n := b.Diagnostics.Len(); n > 0 {
		printNewline()
		for _, tag := range b.Diagnostics.Tags() {
			msg, _ := b.Diagnostics.Get(tag)
			printWarning("%s: %s", tag, msg)
		}
	}
	printNewline()
	printStats(false, "pass "+b.Pass, b.Duration.Round(time.Microsecond).String())
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// placement renders the set edges of a placement.
func placement(p geometry.Placement) string {
	edge := func(name string, v *int) string {
		if v == nil {
			return ""
		}
		return name + "=" + strconv.Itoa(*v) + " "
	}
	return edge("top", p.Top) + edge("right", p.Right) + edge("bottom", p.Bottom) + edge("left", p.Left) +
		fmt.Sprintf("(%s/%s)", p.VAlign, p.HAlign)
}

// traceCommand creates the trace command.
func (c *CLI) traceCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "trace <base/type/id>",
		Short: "Show how every layer and option of an entity resolves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			r, _, err := c.openResolver(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()

			tr := r.Trace(cmd.Context(), ref)
			if asJSON {
				return printJSON(tr)
			}
			printTrace(tr)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the trace as JSON")
	return cmd
}

func printTrace(tr *resolve.Trace) {
	printTitle("Image layers, highest priority first")
	printTable([]string{"Layer", "Attachment", "Error"}, imageRows(tr.Image), firstNonEmpty(tr.Image))

	printTitle("Text layers, highest priority first")
	rows := make([][]string, len(tr.Text))
	for i, s := range tr.Text {
		rows[i] = []string{s.Layer, orDash(s.Value), s.Err}
	}
	printTable([]string{"Layer", "Text", "Error"}, rows, firstNonEmpty(tr.Text))

	printTitle("Options")
	keys := options.SortedKeys(tr.Values)
	rows = make([][]string, len(keys))
	for i, k := range keys {
		v := tr.Values[k]
		rows[i] = []string{string(k), orDash(v.Raw), string(v.Source)}
	}
	printTable([]string{"Option", "Value", "Source"}, rows, func(row int) bool {
		return tr.Values[keys[row]].Source != options.SourceDefault
	})

	if tr.Errors.Len() > 0 {
		for _, tag := range tr.Errors.Tags() {
			msg, _ := tr.Errors.Get(tag)
			printWarning("%s: %s", tag, msg)
		}
	}
}

func imageRows(steps []fallback.Step[media.Attachment]) [][]string {
	rows := make([][]string, len(steps))
	for i, s := range steps {
		src := s.Value.Path
		if src == "" {
			src = s.Value.URL
		}
		rows[i] = []string{s.Layer, orDash(src), s.Err}
	}
	return rows
}

// firstNonEmpty highlights the winning step of a trace.
func firstNonEmpty[T comparable](steps []fallback.Step[T]) func(int) bool {
	var zero T
	win := -1
	for i, s := range steps {
		if s.Value != zero {
			win = i
			break
		}
	}
	return func(row int) bool { return row == win }
}
