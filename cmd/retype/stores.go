package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/config"
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/ui"
)

func newStoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stores",
		Short: "List configured stores",
		Long: `List the stores in the configuration file, the default store, and the
recently opened components. Use the subcommands to add or remove stores.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := config.LoadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			printStores(cmd, reg)
			return nil
		},
	}
	cmd.AddCommand(newStoresAddCmd(), newStoresRemoveCmd())
	return cmd
}

func printStores(cmd *cobra.Command, reg *config.Registry) {
	p := ui.NewPrinter(cmd.OutOrStdout())
	names := reg.StoreNames()
	if len(names) == 0 {
		p.PrintWarning("No stores configured", map[string]string{
			"Add":  "retype stores add <name> <url>",
			"Scan": "retype scan --save",
		})
		return
	}

	def := ""
	if reg.Preferences != nil {
		def = reg.Preferences.DefaultStore
	}

	stores := table.New().Headers("", "NAME", "URL", "BACKEND", "LAST SEEN")
	for _, name := range names {
		s := reg.GetStore(name)
		marker := ""
		if name == def {
			marker = "*"
		}
		seen := "never"
		if !s.LastSeen.IsZero() {
			seen = humanize.Time(s.LastSeen)
		}
		stores.Row(marker, name, s.URL, s.Backend, seen)
	}
	p.Println(stores.Render())

	if len(reg.Recent) == 0 {
		return
	}
	p.Newline()
	recent := table.New().Headers("COMPONENT", "STORE", "OPENED")
	for _, rc := range reg.Recent {
		recent.Row(rc.ID, rc.Store, humanize.Time(rc.OpenedAt))
	}
	p.Println(recent.Render())
}

func newStoresAddCmd() *cobra.Command {
	var makeDefault bool

	cmd := &cobra.Command{
		Use:     "add <name> <url>",
		Short:   "Add or update a store",
		Example: `  retype stores add studio http://studio.local:7070 --default`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, url := args[0], args[1]
			if !hasScheme(url) {
				return editerr.Validationf("store URL %q must start with http:// or https://", url)
			}

			reg, err := config.LoadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			s := reg.AddStore(name, url)
			if makeDefault {
				reg.Preferences.DefaultStore = name
			}
			if err := reg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			details := map[string]string{"URL": s.URL}
			if reg.Preferences.DefaultStore == name {
				details["Default"] = "yes"
			}
			ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Store "+name+" saved", details)
			return nil
		},
	}
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default store")
	return cmd
}

func newStoresRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			reg, err := config.LoadRegistry()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if reg.GetStore(name) == nil {
				return editerr.NotFound(fmt.Sprintf("unknown store %q", name))
			}
			reg.RemoveStore(name)
			if err := reg.Save(); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Store "+name+" removed", nil)
			return nil
		},
	}
}

func hasScheme(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
