package cli

import (
	"github.com/spf13/cobra"

	"github.com/rxportal/patientkit/internal/app"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API",
		Example: `  patientd serve --addr :9000
  STORE_DRIVER=redis REDIS_URL=redis://localhost:6379/0 patientd serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.openApp(cmd, func(cfg *app.Config) {
				if addr != "" {
					cfg.HTTP.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			return a.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}
