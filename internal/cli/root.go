package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rxportal/patientkit/internal/app"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type globalFlags struct {
	envFiles []string
	store    string
}

// Execute runs the root command and exits non-zero on failure.
func Execute(info BuildInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(info).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "patientd",
		Short:         "Patient portal session service",
		Long:          "patientd serves the patient session over HTTP and manages the persisted session from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", []string{".env"}, "dotenv files to load; missing files are skipped")
	root.PersistentFlags().StringVar(&g.store, "store", "", "store driver override (memory, file, redis, postgres, mongo, s3)")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newSessionCmd(g))
	root.AddCommand(newVersionCmd(info))

	return root
}

// loadConfig reads the configuration and applies flag overrides.
func (g *globalFlags) loadConfig() (app.Config, error) {
	cfg, err := app.LoadConfig(g.envFiles...)
	if err != nil {
		return cfg, err
	}
	if g.store != "" {
		cfg.StoreDriver = g.store
	}
	return cfg, nil
}

// openApp loads config, applies mutate and wires the application.
func (g *globalFlags) openApp(cmd *cobra.Command, mutate func(*app.Config)) (*app.App, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return app.New(cmd.Context(), cfg, app.WithLogOutput(cmd.ErrOrStderr()))
}
