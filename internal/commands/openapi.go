package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-params/logger"
	"github.com/gaborage/go-params/openapi"
)

// OpenAPIOptions holds options for the openapi command.
type OpenAPIOptions struct {
	ConfigDir  string
	OutputFile string
	Format     string
}

// NewOpenAPICommand creates the openapi command.
func NewOpenAPICommand() *cobra.Command {
	opts := &OpenAPIOptions{}

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate the OpenAPI document of the demo service",
		Long: `Registers the demo routes without starting a server and writes an
OpenAPI 3.1 document derived from their declared parameters.`,
		Example: `  # Write openapi.yaml
  go-params openapi

  # Generate JSON
  go-params openapi -f json -o docs/openapi.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := runOpenAPI(opts); err != nil {
				return err
			}
			cmd.Printf("OpenAPI document written to %s\n", opts.OutputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigDir, "config-dir", "c", ".", "Directory holding config.yaml")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "openapi.yaml", "Output file path")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "yaml", "Output format (yaml|json)")
	return cmd
}

func runOpenAPI(opts *OpenAPIOptions) error {
	if err := validateOpenAPIOptions(opts); err != nil {
		return err
	}

	a, err := newApp(opts.ConfigDir, logger.Nop())
	if err != nil {
		return err
	}
	cfg := a.Config()
	gen := openapi.New(cfg.App.Name, cfg.App.Version, "Generated from declared route parameters")

	var out []byte
	if opts.Format == "json" {
		out, err = gen.GenerateJSON(a.Routes())
	} else {
		out, err = gen.Generate(a.Routes())
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.OutputFile), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(opts.OutputFile, out, 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func validateOpenAPIOptions(opts *OpenAPIOptions) error {
	switch opts.Format {
	case "yml":
		opts.Format = "yaml"
	case "yaml", "json":
	default:
		return fmt.Errorf("unsupported format: %s (supported: yaml, json)", opts.Format)
	}

	if filepath.Ext(opts.OutputFile) == "" {
		opts.OutputFile += "." + opts.Format
	}
	return nil
}
