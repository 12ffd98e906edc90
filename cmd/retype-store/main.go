// Retype-store serves retype components over HTTP.
//
// It exposes the component store API, read-only preview pages and the
// websocket bridge browsers use to edit typography in place. Components
// live in memory, in a directory of text files, or in a SQLite database.
//
// Usage:
//
//	retype-store serve [flags]
//	retype-store import <id> <file> [flags]
//
// See 'retype-store --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "retype-store",
	Short: "Retype component store server",
	Long: `A component store for the retype typography editor.

The server keeps each component's current markup next to its original
version so edits can always be reset. Browsers open /preview/<id> to edit
visually; the retype CLI talks to the same API.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "retype-store %s\n", version.Full())
	},
}
