package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/muurk/retype/internal/chromelayout"
	"github.com/muurk/retype/internal/classify"
	"github.com/muurk/retype/internal/config"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/markup"
	"github.com/muurk/retype/internal/typography"
	"github.com/muurk/retype/internal/ui"
)

type showOptions struct {
	tree   bool
	boxes  bool
	chrome bool
	width  int
}

func newShowCmd(opts *options) *cobra.Command {
	so := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a component",
		Long: `Print a component's markup, its element tree, or element boxes.

--tree lists every element with its ref, editing role and active
typography tokens. --boxes lists the layout box of each element, in
terminal cells or, with --chrome, in CSS pixels measured by headless
Chrome.`,
		Example: `  retype show hero-banner
  retype show hero-banner --tree
  retype show hero-banner --boxes --chrome`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, so, args[0])
		},
	}
	cmd.Flags().BoolVar(&so.tree, "tree", false, "Print the element tree")
	cmd.Flags().BoolVar(&so.boxes, "boxes", false, "Print element layout boxes")
	cmd.Flags().BoolVar(&so.chrome, "chrome", false, "Measure boxes in headless Chrome")
	cmd.Flags().IntVar(&so.width, "width", 80, "Layout width in cells for --boxes")
	return cmd
}

func runShow(cmd *cobra.Command, opts *options, so *showOptions, id string) error {
	ctx := cmd.Context()
	t, err := resolveStore(ctx, opts)
	if err != nil {
		return err
	}
	code, err := t.client.Load(ctx, id)
	if err != nil {
		return err
	}
	doc, err := markup.Parse(code)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case so.tree:
		_, err = fmt.Fprint(out, elementTree(id, doc))
	case so.boxes:
		err = printBoxes(ctx, out, doc, so)
	default:
		ui.NewPrinter(out).PrintCode(id, code)
	}
	return err
}

// elementTree renders doc as an indented tree of elements.
func elementTree(id string, doc *markup.Document) string {
	tree := treeprint.New()
	tree.SetValue(id)
	for _, e := range doc.Roots() {
		addElement(tree, e)
	}
	return tree.String()
}

func addElement(parent treeprint.Tree, e *markup.Element) {
	label := describe(e)
	children := e.Children()
	if len(children) == 0 {
		parent.AddNode(label)
		return
	}
	branch := parent.AddBranch(label)
	for _, c := range children {
		addElement(branch, c)
	}
}

func describe(e *markup.Element) string {
	parts := []string{"<" + e.Tag() + ">", e.Ref().String(), string(classify.Classify(e))}
	parts = append(parts, activeTokens(typography.Summarize(e))...)
	return strings.Join(parts, " ")
}

func printBoxes(ctx context.Context, out io.Writer, doc *markup.Document, so *showOptions) error {
	rects := map[markup.ElementRef]geometry.Rect{}
	unit := "cells"

	if so.chrome {
		vp := &config.Viewport{Width: 1280, Height: 800}
		stylesheet := ""
		if reg, err := config.LoadRegistry(); err == nil && reg.Preferences != nil {
			if reg.Preferences.Viewport != nil {
				vp = reg.Preferences.Viewport
			}
			stylesheet = reg.Preferences.Stylesheet
		}
		b, err := chromelayout.New(ctx, chromelayout.Options{Width: vp.Width, Height: vp.Height, Stylesheet: stylesheet})
		if err != nil {
			return err
		}
		defer b.Close()
		if rects, err = b.Measure(doc); err != nil {
			return err
		}
		unit = "px"
	} else {
		frame := geometry.BlockLayout{Width: so.width, Indent: 2}.Compute(doc)
		for _, ref := range frame.Refs() {
			rects[ref], _ = frame.Rect(ref)
		}
	}

	tbl := table.New().Headers("REF", "TAG", "X", "Y", "W", "H")
	for _, e := range doc.Elements() {
		r, ok := rects[e.Ref()]
		if !ok {
			tbl.Row(e.Ref().String(), e.Tag(), "-", "-", "-", "-")
			continue
		}
		tbl.Row(e.Ref().String(), e.Tag(), num(r.X), num(r.Y), num(r.W), num(r.H))
	}
	_, err := fmt.Fprintf(out, "%s\nunits: %s\n", tbl.Render(), unit)
	return err
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}
