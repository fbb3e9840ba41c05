// Package commands implements the go-params command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-params/app"
	"github.com/gaborage/go-params/config"
	"github.com/gaborage/go-params/internal/orders"
	"github.com/gaborage/go-params/logger"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	ConfigDir string
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo order service",
		Long: `Starts the demo order service. Configuration is read from config.yaml,
config.<env>.yaml and environment variables in the config directory.`,
		Example: `  # Serve with ./config.yaml
  go-params serve

  # Override the port
  SERVER_PORT=9090 go-params serve -c ./deploy`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigDir, "config-dir", "c", ".", "Directory holding config.yaml")
	return cmd
}

func runServe(opts *ServeOptions) error {
	a, err := newApp(opts.ConfigDir, nil)
	if err != nil {
		return err
	}
	return a.Run()
}

// newApp builds the demo application. A nil log logs at the configured level.
func newApp(configDir string, log logger.Logger) (*app.App, error) {
	if _, err := os.Stat(configDir); err != nil {
		return nil, fmt.Errorf("config directory: %w", err)
	}
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}

	a, err := app.NewWithConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := a.RegisterModule(orders.NewModule()); err != nil {
		return nil, err
	}
	return a, nil
}
