// Retype edits the typography of stored HTML components.
//
// Components live on a retype-store server. The CLI opens them in an
// interactive terminal editor, prints their element tree, applies class
// changes from the command line, and resets them to their original
// version.
//
// Usage:
//
//	retype [command] [flags]
//
// See 'retype --help' for available commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/config"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options holds the persistent flags.
type options struct {
	store    string
	logLevel string
	timeout  time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "retype",
		Short: "Typography editor for stored HTML components",
		Long: `Retype edits the typography classes of HTML components kept on a
retype-store server: font size, weight, alignment, decoration, italic and
color, as utility class tokens.

Stores are configured with 'retype stores add' or discovered on the local
network with 'retype scan'. --store accepts a configured name or a URL.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := opts.logLevel
			if level == "" {
				if reg, err := config.LoadRegistry(); err == nil && reg.Preferences != nil {
					level = reg.Preferences.LogLevel
				}
			}
			return logging.Initialize(level)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&opts.store, "store", "", "Store name or URL (default: configured default store)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Store request timeout")

	root.AddCommand(
		newEditCmd(opts),
		newShowCmd(opts),
		newStyleCmd(opts),
		newResetCmd(opts),
		newScanCmd(),
		newStoresCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "retype %s\n", version.Full())
		},
	}
}
