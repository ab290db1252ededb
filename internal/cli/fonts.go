package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ogbrand/pkg/fonts"
	"github.com/matzehuels/ogbrand/pkg/options"
)

// fontsCommand creates the fonts command.
func (c *CLI) fontsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "Inspect the font catalogue",
		Long: `Fonts lists the packaged fonts with their rendering tweaks. Tweaks stored as
<name>.json in the font directory override the packaged ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(fonts.Packaged()))
			for _, name := range fonts.Packaged() {
				tw := cat.Tweaks(name)
				rows = append(rows, []string{
					name,
					tw.Family,
					strconv.Itoa(tw.Weight),
					orDash(tw.LetterSpacing),
					strconv.FormatFloat(tw.LineHeightFactor(), 'f', 2, 64),
					strconv.FormatFloat(tw.TextAreaFactor(), 'f', 2, 64),
				})
			}
			printTable([]string{"Name", "Family", "Weight", "Spacing", "Line height", "Text area"}, rows, func(row int) bool {
				return rows[row][0] == options.DefaultFont
			})
			if cat.Dir() != "" {
				printDetail("Font directory: %s", cat.Dir())
			}
			return nil
		},
	}
	cmd.AddCommand(c.fontsResolveCommand())
	cmd.AddCommand(c.fontsTweaksCommand())
	return cmd
}

func (c *CLI) catalog() (*fonts.Catalog, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return fonts.NewCatalog(cfg.Fonts.Dir), nil
}

// fontsResolveCommand creates the "fonts resolve" subcommand.
func (c *CLI) fontsResolveCommand() *cobra.Command {
	var (
		weight int
		style  string
	)
	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Locate a font file the way the cascade does",
		Example: `  ogbrand fonts resolve Roboto-Bold
  ogbrand fonts resolve google:Lato --weight 400 --style italic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			face, err := cat.Resolve(args[0], weight, style)
			if err != nil {
				return err
			}
			printTitle("%s", face.Name)
			printKeyValue("File", orDash(face.File))
			printKeyValue("Family", face.Family)
			printKeyValue("Variant", fmt.Sprintf("%d %s", face.Weight, face.Style))
			printKeyValue("Line height", strconv.FormatFloat(face.Tweaks.LineHeightFactor(), 'f', 2, 64))
			return nil
		},
	}
	cmd.Flags().IntVar(&weight, "weight", 700, "font weight")
	cmd.Flags().StringVar(&style, "style", "normal", "font style (normal or italic)")
	return cmd
}

// fontsTweaksCommand creates the "fonts tweaks" subcommand.
func (c *CLI) fontsTweaksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tweaks",
		Short: "Write the packaged tweaks into the font directory for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			written, err := cat.WriteTweaks()
			if err != nil {
				return err
			}
			printSuccess("Wrote %d tweak files", len(written))
			for _, p := range written {
				printFile(p)
			}
			return nil
		},
	}
}
