package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-params/openapi"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("go-params version %s\n", version)
			cmd.Printf("Built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			cmd.Printf("OpenAPI specification version: %s\n", openapi.Version)
		},
	}
}

// NewRootCommand assembles the command tree.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "go-params",
		Short:         "Declarative request parameter validation for Echo services",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		NewServeCommand(),
		NewOpenAPICommand(),
		NewVersionCommand(version),
	)
	return root
}
