package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/config"
	"github.com/muurk/retype/internal/discovery"
	"github.com/muurk/retype/internal/ui"
)

func newScanCmd() *cobra.Command {
	var (
		timeout  time.Duration
		save     bool
		instance string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Find retype stores on the local network",
		Long: `Browse mDNS for retype-store servers that advertise themselves with
'retype-store serve --advertise'. With --save every store found is added
to the configuration under its instance name.`,
		Example: `  retype scan
  retype scan --timeout 10s --save
  retype scan --instance studio --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Second)
			defer cancel()

			scanner := discovery.NewScanner()
			scanner.Timeout = timeout
			if instance != "" {
				st, err := scanner.Find(ctx, instance)
				if err != nil {
					return err
				}
				return printScan(cmd, []*discovery.Store{st}, save)
			}
			stores, err := scanner.Scan(ctx)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}
			return printScan(cmd, stores, save)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultScanTimeout, "How long to browse")
	cmd.Flags().BoolVar(&save, "save", false, "Add discovered stores to the configuration")
	cmd.Flags().StringVar(&instance, "instance", "", "Wait for one store by instance name")
	return cmd
}

func printScan(cmd *cobra.Command, stores []*discovery.Store, save bool) error {
	p := ui.NewPrinter(cmd.OutOrStdout())
	if len(stores) == 0 {
		p.PrintWarning("No stores found", map[string]string{
			"Hint": "start one with 'retype-store serve --advertise'",
		})
		return nil
	}

	var reg *config.Registry
	if save {
		var err error
		if reg, err = config.LoadRegistry(); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	for _, s := range stores {
		details := map[string]string{
			"URL":     s.BaseURL(),
			"Host":    s.Hostname,
			"Version": s.Version,
			"Backend": s.Backend,
		}
		if reg != nil {
			reg.AddStore(s.Instance, s.BaseURL())
			reg.MarkSeen(s.Instance, s.Backend)
			details["Saved as"] = s.Instance
		}
		p.PrintSuccess(s.Instance, details)
	}
	p.Println(fmt.Sprintf("%s %s found", humanize.Comma(int64(len(stores))), plural(len(stores), "store", "stores")))

	if reg != nil {
		if err := reg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func humanBytes(n int) string {
	return humanize.Bytes(uint64(n))
}
