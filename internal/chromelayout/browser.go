// Package chromelayout measures component elements in headless Chrome.
//
// Browser implements geometry.Layout: each Rect call renders the current
// annotated markup when it changed since the last call, then asks the page
// for the element's getBoundingClientRect plus scroll offset. Nothing is
// cached between samples except the rendered page itself.
package chromelayout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/markup"
)

// Options configures the headless browser.
type Options struct {
	// Width and Height are the viewport size in CSS pixels.
	Width  int
	Height int
	// Stylesheet is a URL linked into every rendered page.
	Stylesheet string
	// Timeout bounds each round trip to the browser.
	Timeout time.Duration
	// ExecPath overrides Chrome discovery.
	ExecPath string
}

// Browser is a headless Chrome tab holding the rendered component.
type Browser struct {
	opts     Options
	ctx      context.Context
	cancel   context.CancelFunc
	rendered string
	gen      uint64
}

// New starts headless Chrome. It fails when no browser is installed.
func New(ctx context.Context, opts Options) (*Browser, error) {
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	b := &Browser{opts: opts, ctx: tabCtx, cancel: cancel}
	if err := b.run(
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate("about:blank"),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start headless chrome: %w", err)
	}
	logging.Debug("Headless chrome started",
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
	)
	return b, nil
}

// Close stops the browser.
func (b *Browser) Close() {
	b.cancel()
}

func (b *Browser) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(b.ctx, b.opts.Timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Render loads doc into the page when its markup changed.
func (b *Browser) Render(doc *markup.Document) error {
	code, err := doc.RenderAnnotated()
	if err != nil {
		return err
	}
	if code == b.rendered && doc.Generation() == b.gen {
		return nil
	}

	head := `<meta charset="utf-8">`
	if b.opts.Stylesheet != "" {
		href, _ := json.Marshal(b.opts.Stylesheet)
		head += `<link rel="stylesheet" href=` + string(href) + `>`
	}
	headJS, _ := json.Marshal(head)
	bodyJS, _ := json.Marshal(code)
	script := fmt.Sprintf(`document.head.innerHTML = %s; document.body.innerHTML = %s; true`, headJS, bodyJS)

	var ok bool
	if err := b.run(chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("failed to render component: %w", err)
	}
	b.rendered = code
	b.gen = doc.Generation()
	return nil
}

type measured struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

const rectScript = `(() => {
  const el = document.querySelector(%s);
  if (!el) return {found: false};
  const r = el.getBoundingClientRect();
  return {found: true, x: r.left + window.scrollX, y: r.top + window.scrollY, w: r.width, h: r.height};
})()`

// Rect implements geometry.Layout.
func (b *Browser) Rect(doc *markup.Document, ref markup.ElementRef) (geometry.Rect, bool) {
	if doc == nil || !doc.Valid(ref) {
		return geometry.Rect{}, false
	}
	if err := b.Render(doc); err != nil {
		logging.Debug("Chrome render failed", zap.Error(err))
		return geometry.Rect{}, false
	}

	selector, _ := json.Marshal(fmt.Sprintf(`[%s="%s"]`, markup.RefAttr, ref))
	var m measured
	if err := b.run(chromedp.Evaluate(fmt.Sprintf(rectScript, selector), &m)); err != nil {
		logging.Debug("Chrome measure failed", zap.String("ref", ref.String()), zap.Error(err))
		return geometry.Rect{}, false
	}
	if !m.Found {
		return geometry.Rect{}, false
	}
	return geometry.Rect{X: m.X, Y: m.Y, W: m.W, H: m.H}, true
}

// Measure returns the page rect of every element in doc.
func (b *Browser) Measure(doc *markup.Document) (map[markup.ElementRef]geometry.Rect, error) {
	if err := b.Render(doc); err != nil {
		return nil, err
	}

	var all map[string]measured
	script := fmt.Sprintf(`(() => {
  const out = {};
  document.querySelectorAll("[%s]").forEach(el => {
    const r = el.getBoundingClientRect();
    out[el.getAttribute("%s")] = {found: true, x: r.left + window.scrollX, y: r.top + window.scrollY, w: r.width, h: r.height};
  });
  return out;
})()`, markup.RefAttr, markup.RefAttr)
	if err := b.run(chromedp.Evaluate(script, &all)); err != nil {
		return nil, fmt.Errorf("failed to measure component: %w", err)
	}

	rects := make(map[markup.ElementRef]geometry.Rect, len(all))
	for key, m := range all {
		ref, err := markup.ParseRef(key)
		if err != nil {
			continue
		}
		rects[ref] = geometry.Rect{X: m.X, Y: m.Y, W: m.W, H: m.H}
	}
	return rects, nil
}
