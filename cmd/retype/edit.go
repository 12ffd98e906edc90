package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/tui"
	"github.com/muurk/retype/internal/ui"
)

func newEditCmd(opts *options) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a component in the terminal",
		Long: `Open a component in the interactive terminal editor.

Move the hover with tab or the mouse, press enter or click to select an
element, then change its typography:

  + / -      font size          i        italic
  w / W      font weight        u x o    underline, strike, overline
  a          alignment          c / C    color
  s          save               R        reset to original
  p          preview            ?        all keys`,
		Example: `  # Edit with the default store
  retype edit hero-banner

  # Only allow selecting inside the article body
  retype edit hero-banner --region "article"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !ui.IsTerminal() {
				return editerr.Validation("retype edit needs an interactive terminal; use 'retype style' in scripts")
			}
			t, err := resolveStore(cmd.Context(), opts)
			if err != nil {
				return err
			}
			m, err := tui.New(tui.Config{
				ComponentID:  args[0],
				Store:        t.client,
				Region:       region,
				StoreTimeout: opts.timeout,
			})
			if err != nil {
				return err
			}

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("editor failed: %w", err)
			}
			remember(t, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "CSS selector limiting which elements can be selected")
	return cmd
}
