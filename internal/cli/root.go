// Package cli implements the diffpack command-line interface.
//
// The CLI exposes a single serve command that boots the HTTP API for
// package search, version listing, and tarball diffing. Logging uses
// the charmbracelet/log library; the logger is passed through
// context.Context.
//
// # Example
//
//	import "github.com/philfreshman/diffpack/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/philfreshman/diffpack/pkg/buildinfo"
)

// Execute runs the diffpack CLI and returns an error if any command
// fails. Logging defaults to info level; --verbose enables debug.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "diffpack",
		Short:        "diffpack serves package search and version diffing for npm, crates.io, and zig",
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())

	return root.ExecuteContext(ctx)
}
