package main

import (
	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/ui"
)

func newResetCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <id>",
		Short: "Restore a component to its original version",
		Long: `Replace a component's current markup with the version it was created
with. Every saved edit is lost. You are asked to type the component ID
unless --yes is given.`,
		Example: `  retype reset hero-banner
  retype reset hero-banner --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			p := ui.NewPrinter(cmd.OutOrStdout())

			t, err := resolveStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if !yes && !ui.ConfirmReset(cmd.InOrStdin(), cmd.OutOrStdout(), id) {
				return nil
			}

			code, err := t.client.Reset(cmd.Context(), id)
			if err != nil {
				p.PrintError("Reset failed", err, []string{
					"Check the component ID with 'retype show " + id + "'",
					"Check the store is reachable: " + t.url,
				})
				return err
			}
			remember(t, id)
			p.PrintSuccess("Component reset", map[string]string{
				"Component": id,
				"Store":     t.url,
				"Size":      humanBytes(len(code)),
			})
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
