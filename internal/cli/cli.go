// Package cli implements the ogbrand command-line interface.
//
// # Commands
//
// The main commands are:
//   - resolve, trace: Resolve the social image parameters of an entity
//   - rewrite, route: Transform the URL rule table and match paths against it
//   - color, position: Inspect colors and placement keywords
//   - settings: Read and write site and entity settings
//   - fonts: Inspect the font catalogue
//   - serve: Run the HTTP API
//   - config, cache: Manage the configuration file and the byte cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so library code logs with the CLI's level.
package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ogbrand/pkg/buildinfo"
	"github.com/matzehuels/ogbrand/pkg/config"
	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/resolve"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "ogbrand"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ogbrand resolves branded social image parameters",
		Long: `ogbrand resolves everything needed to draw a branded Open Graph image for a
page: the background image, the overlay text, colors, fonts and the logo
box. It also rewrites a site's URL rule table so every page gets an image
endpoint, and routes paths against the result.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./ogbrand.toml or the user config dir)")

	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.rewriteCommand())
	root.AddCommand(c.routeCommand())
	root.AddCommand(c.colorCommand())
	root.AddCommand(c.positionCommand())
	root.AddCommand(c.settingsCommand())
	root.AddCommand(c.fontsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Resolver Factory
// =============================================================================

// loadConfig reads the configuration named by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path() != "" {
		c.Logger.Debug("config loaded", "path", cfg.Path())
	}
	return cfg, nil
}

// openResolver loads the configuration and wires a resolver for CLI use.
// The caller closes the resolver.
func (c *CLI) openResolver(ctx context.Context) (*resolve.Resolver, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	r, err := resolve.Open(ctx, cfg, loggerFromContext(ctx))
	if err != nil {
		return nil, nil, err
	}
	return r, cfg, nil
}

// =============================================================================
// Argument Helpers
// =============================================================================

// parseRef parses "base/type/id". A bare id means a post.
func parseRef(s string) (entity.Ref, error) {
	parts := strings.SplitN(s, "/", 3)
	var ref entity.Ref
	switch len(parts) {
	case 1:
		ref = entity.Ref{Base: entity.Content, Type: "post", ID: parts[0]}
	case 3:
		base, err := entity.ParseBase(parts[0])
		if err != nil {
			return entity.Ref{}, err
		}
		ref = entity.Ref{Base: base, Type: parts[1], ID: parts[2]}
	default:
		return entity.Ref{}, errors.New(errors.ErrCodeInvalidEntity, "invalid entity %q (want base/type/id)", s)
	}
	if err := ref.Validate(); err != nil {
		return entity.Ref{}, err
	}
	return ref, nil
}

// stdout is where command output goes.
var stdout io.Writer = os.Stdout
