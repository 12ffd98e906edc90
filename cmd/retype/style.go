package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/retype/internal/classify"
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/editor"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/typography"
	"github.com/muurk/retype/internal/ui"
)

type styleOptions struct {
	selector   string
	region     string
	fontSize   string
	weight     string
	align      string
	decoration string
	color      string
	italic     bool
	noItalic   bool
	dryRun     bool
}

func newStyleCmd(opts *options) *cobra.Command {
	so := &styleOptions{}

	cmd := &cobra.Command{
		Use:   "style <id>",
		Short: "Change the typography of one element",
		Long: `Select one text element with a CSS selector and set its typography
tokens. The first element matching --select is edited; it must be a text
element. Use --dry-run to print the resulting markup without saving.

Tokens must come from each property's set, for example text-2xl,
font-bold, text-center, underline, text-blue-500. --decoration none
removes the decoration.`,
		Example: `  retype style hero-banner --select h1 --font-size text-4xl --weight font-bold
  retype style hero-banner --select "p.lead" --italic --dry-run
  retype style hero-banner --select a --decoration none`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStyle(cmd, opts, so, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&so.selector, "select", "", "CSS selector of the element to edit (required)")
	f.StringVar(&so.region, "region", "", "CSS selector limiting which elements can be selected")
	f.StringVar(&so.fontSize, "font-size", "", "Font size token")
	f.StringVar(&so.weight, "weight", "", "Font weight token")
	f.StringVar(&so.align, "align", "", "Text alignment token")
	f.StringVar(&so.decoration, "decoration", "", "Decoration token, or none")
	f.StringVar(&so.color, "color", "", "Text color token")
	f.BoolVar(&so.italic, "italic", false, "Make the text italic")
	f.BoolVar(&so.noItalic, "no-italic", false, "Make the text upright")
	f.BoolVar(&so.dryRun, "dry-run", false, "Print the result without saving")
	return cmd
}

// edit is one typography change to apply to the locked element.
type edit struct {
	control classify.Control
	label   string
	apply   func(*editor.Session) error
}

func (so *styleOptions) edits() ([]edit, error) {
	if so.italic && so.noItalic {
		return nil, editerr.Validation("--italic and --no-italic are mutually exclusive")
	}

	var out []edit
	exclusive := func(ctl classify.Control, g typography.Group, token string) {
		if token == "" {
			return
		}
		out = append(out, edit{ctl, token, func(s *editor.Session) error { return s.SetExclusive(g, token) }})
	}
	exclusive(classify.ControlFontSize, typography.FontSize, so.fontSize)
	exclusive(classify.ControlFontWeight, typography.FontWeight, so.weight)
	exclusive(classify.ControlAlign, typography.Align, so.align)
	exclusive(classify.ControlColor, typography.Color, so.color)

	if so.decoration != "" {
		token := so.decoration
		if token == "none" {
			token = ""
		}
		out = append(out, edit{classify.ControlDecoration, "decoration " + so.decoration, func(s *editor.Session) error {
			cur := s.Snapshot().Typography.Tokens[typography.Decoration]
			if token != "" && cur == token {
				return nil
			}
			return s.CycleDecoration(token)
		}})
	}
	if so.italic || so.noItalic {
		on := so.italic
		label := "not-italic"
		if on {
			label = "italic"
		}
		out = append(out, edit{classify.ControlItalic, label, func(s *editor.Session) error { return s.ToggleBinary(typography.Italic, on) }})
	}

	if len(out) == 0 {
		return nil, editerr.Validation("nothing to change; pass at least one typography flag")
	}
	return out, nil
}

func runStyle(cmd *cobra.Command, opts *options, so *styleOptions, id string) error {
	if so.selector == "" {
		return editerr.Validation("--select is required")
	}
	edits, err := so.edits()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	t, err := resolveStore(ctx, opts)
	if err != nil {
		return err
	}

	session, err := editor.New(editor.Config{
		ComponentID:  id,
		Store:        t.client,
		Region:       so.region,
		StoreTimeout: opts.timeout,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if err := await(ctx, session, session.Load); err != nil {
		return err
	}

	refs, err := session.Select(so.selector)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return editerr.Validationf("no element matches %q", so.selector)
	}
	session.OnHover(refs[0])
	if !session.OnConfirm(refs[0]) {
		return editerr.Validationf("element %q is outside the editable region", so.selector)
	}

	el, _ := session.Document().Resolve(refs[0])
	tag := el.Tag()
	snap := session.Snapshot()
	if snap.Role != classify.RoleText {
		return editerr.Validationf("<%s> is a %s element; only text elements take typography", tag, snap.Role)
	}

	applied := make([]string, 0, len(edits))
	for _, e := range edits {
		if !hasControl(snap.Controls, e.control) {
			return editerr.Validationf("%s cannot be changed on this element", e.control)
		}
		if err := e.apply(session); err != nil {
			return err
		}
		applied = append(applied, e.label)
	}
	logging.Debug("Applied typography",
		zap.String("component_id", id),
		zap.String("selector", so.selector),
		zap.Strings("tokens", applied),
	)

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintHeader("Retype Style", "style "+id, map[string]string{
		"Select": so.selector,
		"Tokens": strings.Join(applied, " "),
	})
	if so.dryRun {
		code, err := session.Code()
		if err != nil {
			return err
		}
		p.PrintCode(id+" (dry run)", code)
		return nil
	}

	if !session.Snapshot().Save.Dirty {
		p.PrintWarning("No changes", map[string]string{
			"Component": id,
			"Element":   so.selector,
		})
		return nil
	}
	if err := await(ctx, session, session.Save); err != nil {
		return err
	}
	remember(t, id)

	final := session.Snapshot()
	p.PrintSuccess("Component saved", map[string]string{
		"Component": id,
		"Element":   "<" + tag + "> " + so.selector,
		"Classes":   strings.Join(activeTokens(final.Typography), " "),
		"Store":     t.url,
	})
	return nil
}

// await starts a store call and waits for it to resolve.
func await(ctx context.Context, s *editor.Session, start func() error) error {
	if err := start(); err != nil {
		return err
	}
	if err := s.Await(ctx); err != nil {
		return fmt.Errorf("%s: %w", s.ComponentID(), err)
	}
	return nil
}

func hasControl(controls []classify.Control, c classify.Control) bool {
	for _, have := range controls {
		if have == c {
			return true
		}
	}
	return false
}

func activeTokens(s typography.Summary) []string {
	var out []string
	for _, g := range typography.Groups() {
		if tok, ok := s.Tokens[g]; ok {
			out = append(out, tok)
		}
	}
	if s.Italic {
		out = append(out, "italic")
	}
	return out
}
