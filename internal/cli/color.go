package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ogbrand/pkg/color"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/geometry"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

// colorCommand creates the color command.
func (c *CLI) colorCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "color <hex>",
		Short: "Decode a hex color in both alpha conventions",
		Long: `Color decodes #RGB, #RGBA, #RRGGBB or #RRGGBBAA and shows the value with web
alpha (0 transparent, 255 opaque) and raster alpha (0 opaque, 127
transparent).`,
		Example: `  ogbrand color '#f80'
  ogbrand color '#66666666' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			web, err := color.Decode(args[0], color.Web)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidColor, err, "decode %s", args[0])
			}
			raster := web.In(color.Raster)
			if asJSON {
				return printJSON(map[string]any{
					"hex":    web.String(),
					"web":    channels(web),
					"raster": channels(raster),
				})
			}

			swatch := lipgloss.NewStyle().
				Background(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", web.R, web.G, web.B))).
				Render("      ")
			printTitle("%s %s", web.String(), swatch)
			printKeyValue("Web", fmt.Sprintf("rgba(%d, %d, %d, %d)", web.R, web.G, web.B, web.A))
			printKeyValue("Raster", fmt.Sprintf("rgba(%d, %d, %d, %d)", raster.R, raster.G, raster.B, raster.A))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the channels as JSON")
	return cmd
}

func channels(v color.Value) map[string]uint8 {
	return map[string]uint8{"r": v.R, "g": v.G, "b": v.B, "a": v.A}
}

// positionOpts holds position command options.
type positionOpts struct {
	pick    bool
	padding int
	set     string
	scope   string
}

// positionCommand creates the position command.
func (c *CLI) positionCommand() *cobra.Command {
	opts := positionOpts{padding: geometry.Padding}
	cmd := &cobra.Command{
		Use:   "position [keyword]",
		Short: "Show where a placement keyword lands on the canvas",
		Long: `Position resolves one of the nine placement keywords (top-left ... bottom-right)
to pixel edges on the configured canvas.

With --pick an interactive grid selects the keyword; with --set the result
is stored as logo_position or text_position.`,
		Example: `  ogbrand position bottom-right
  ogbrand position --pick --set logo_position`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			pos := geometry.BottomRight
			if len(args) == 1 {
				if pos, err = geometry.ParsePosition(args[0]); err != nil {
					return err
				}
			}
			if opts.pick {
				picked, ok, err := pickPosition(pos)
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Cancelled")
					return nil
				}
				pos = picked
			}

			pl := geometry.Resolve(pos, opts.padding, cfg.Canvas)
			printTitle("%s on %dx%d", pos, cfg.Canvas.Width, cfg.Canvas.Height)
			printKeyValue("Edges", placement(pl))
			printGrid(pos)

			if opts.set == "" {
				return nil
			}
			if key := options.Key(opts.set); key != options.KeyLogoPosition && key != options.KeyTextPosition {
				return errors.New(errors.ErrCodeInvalidInput, "--set takes %s or %s", options.KeyLogoPosition, options.KeyTextPosition)
			}
			scope, err := settings.ParseScope(opts.scope)
			if err != nil {
				return err
			}
			r, _, err := c.openResolver(cmd.Context())
			if err != nil {
				return err
			}
			defer r.Close()
			if err := settings.Guard(r.Store, r.Cascade.Schema).Set(cmd.Context(), scope, opts.set, string(pos)); err != nil {
				return err
			}
			printSuccess("Stored %s = %s for %s", opts.set, pos, scope)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "pick the keyword on an interactive grid")
	cmd.Flags().IntVar(&opts.padding, "padding", opts.padding, "edge padding in pixels")
	cmd.Flags().StringVar(&opts.set, "set", "", "store the keyword under this option (logo_position or text_position)")
	cmd.Flags().StringVar(&opts.scope, "scope", "site", "settings scope for --set (site or base/type/id)")
	return cmd
}

// pickPosition runs the interactive grid. ok is false when the user quit.
func pickPosition(initial geometry.Position) (geometry.Position, bool, error) {
	final, err := tea.NewProgram(NewPositionPicker(initial)).Run()
	if err != nil {
		return "", false, err
	}
	m := final.(PositionPicker)
	if m.Selected == "" {
		return "", false, nil
	}
	return m.Selected, true, nil
}
