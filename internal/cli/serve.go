package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/ogbrand/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolution results and rewrite tables over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, cfg, err := c.openResolver(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			if addr == "" {
				addr = cfg.Server.Addr
			}
			printInfo("Serving on %s", StyleLink.Render("http://"+addr))
			printNextStep("Try", "curl http://"+addr+"/v1/resolve/content/post/1")
			return api.New(r, loggerFromContext(ctx)).ListenAndServe(ctx, addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
