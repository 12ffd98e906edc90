package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/retype/internal/classify"
	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/editor"
	"github.com/muurk/retype/internal/geometry"
	"github.com/muurk/retype/internal/markup"
	"github.com/muurk/retype/internal/persist"
	"github.com/muurk/retype/internal/selection"
	"github.com/muurk/retype/internal/typography"
	"github.com/muurk/retype/internal/ui"
)

// bodyTop is the screen row where the component starts.
const bodyTop = 1

// Config configures the editor.
type Config struct {
	ComponentID  string
	Store        editor.Store
	Region       string
	StoreTimeout time.Duration
	// Now is the clock used for the "Saved N ago" label.
	Now func() time.Time
}

type outcomeMsg struct{ outcome editor.Outcome }

type tickMsg time.Time

// Model is the bubbletea model for one editing session.
type Model struct {
	session *editor.Session
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	snap  editor.Snapshot
	frame *geometry.Frame

	width   int
	height  int
	scrollY int

	status      string
	statusErr   bool
	confirmQuit bool
	quitting    bool
	now         func() time.Time
}

// New creates the model and starts loading the component.
func New(cfg Config) (Model, error) {
	if cfg.ComponentID == "" {
		return Model{}, editerr.Validation("Component ID is required.")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	width, height := 80, 24
	session, err := editor.New(editor.Config{
		ComponentID:  cfg.ComponentID,
		Store:        cfg.Store,
		Layout:       geometry.BlockLayout{Width: width, Indent: 2},
		Viewport:     geometry.Viewport{Width: float64(width), Height: float64(height)},
		Region:       cfg.Region,
		StoreTimeout: cfg.StoreTimeout,
	})
	if err != nil {
		return Model{}, err
	}
	if err := session.Load(); err != nil {
		session.Close()
		return Model{}, err
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ui.WarningColor)

	m := Model{
		session: session,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		width:   width,
		height:  height,
		now:     cfg.Now,
	}
	m.refresh()
	return m, nil
}

// Session returns the underlying editor session.
func (m Model) Session() *editor.Session {
	return m.session
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitOutcome(), m.spinner.Tick, tick())
}

func (m Model) waitOutcome() tea.Cmd {
	pending := m.session.Pending()
	return func() tea.Msg {
		return outcomeMsg{outcome: <-pending}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()

	case outcomeMsg:
		m.resolve(msg.outcome)
		cmd = m.waitOutcome()

	case tickMsg:
		cmd = tick()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	}

	m.refresh()
	return m, cmd
}

func (m *Model) refresh() {
	m.snap = m.session.Snapshot()
	m.frame = m.layout().Compute(m.session.Document())
	m.clampScroll()
}

func (m *Model) layout() geometry.BlockLayout {
	if bl, ok := m.session.Layout().(geometry.BlockLayout); ok {
		return bl
	}
	return geometry.BlockLayout{Width: m.width, Indent: 2}
}

func (m *Model) bodyHeight() int {
	chrome := bodyTop + 1 + lipgloss.Height(m.help.View(m.keys))
	return max(m.height-chrome, 1)
}

func (m *Model) resize() {
	m.help.Width = m.width
	m.session.Resize(float64(m.width), float64(m.bodyHeight()))
	m.frame = m.layout().Compute(m.session.Document())
	m.clampScroll()
}

func (m *Model) clampScroll() {
	limit := max(len(m.frame.Lines)-m.bodyHeight(), 0)
	y := min(max(m.scrollY, 0), limit)
	if y != m.scrollY {
		m.scrollY = y
		m.session.Scroll(0, float64(y))
	}
}

func (m *Model) scrollBy(delta int) {
	m.scrollY += delta
	m.clampScroll()
	m.session.Scroll(0, float64(m.scrollY))
}

// ensureVisible scrolls the body so ref's first row is on screen.
func (m *Model) ensureVisible(ref markup.ElementRef) {
	r, ok := m.frame.Rect(ref)
	if !ok {
		return
	}
	row := int(r.Y)
	switch {
	case row < m.scrollY:
		m.scrollBy(row - m.scrollY)
	case row >= m.scrollY+m.bodyHeight():
		m.scrollBy(row - m.scrollY - m.bodyHeight() + 1)
	}
}

func (m *Model) resolve(o editor.Outcome) {
	if !m.session.Resolve(o) {
		return
	}
	st := m.session.Snapshot().Save
	if st.Err != nil {
		m.setStatus(o.Request.Op.String()+" failed: "+editerr.ShortMessage(st.Err), true)
		return
	}
	switch o.Request.Op {
	case persist.OpSave:
		m.setStatus("Saved "+m.session.ComponentID(), false)
	case persist.OpReset:
		m.scrollY = 0
		m.session.Scroll(0, 0)
		m.setStatus("Reset to original", false)
	case persist.OpLoad:
		m.scrollY = 0
		m.session.Scroll(0, 0)
		m.setStatus("", false)
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

// report shows err in the status line, or clears a previous message.
func (m *Model) report(err error) {
	if err != nil {
		m.setStatus(editerr.ShortMessage(err), true)
		return
	}
	m.setStatus("", false)
}

// hit maps a screen cell to the innermost element drawn there.
func (m *Model) hit(x, y int) (markup.ElementRef, bool) {
	row := y - bodyTop
	if row < 0 || row >= m.bodyHeight() {
		return markup.ElementRef{}, false
	}
	return m.frame.HitTest(float64(x), float64(row+m.scrollY))
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(-3)
	case msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(3)
	case msg.Action == tea.MouseActionMotion:
		if ref, ok := m.hit(msg.X, msg.Y); ok {
			m.session.OnHover(ref)
		} else {
			m.session.OnLeave()
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if ref, ok := m.hit(msg.X, msg.Y); ok {
			m.session.OnHover(ref)
			m.session.OnConfirm(ref)
		}
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if !key.Matches(msg, m.keys.Quit) {
		m.confirmQuit = false
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		if m.snap.Save.Dirty && !m.confirmQuit {
			m.confirmQuit = true
			m.setStatus("Unsaved changes. Press q again to quit without saving.", true)
			return nil
		}
		return m.quit()

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()

	case key.Matches(msg, k.Next):
		m.moveHover(1)
	case key.Matches(msg, k.Prev):
		m.moveHover(-1)
	case key.Matches(msg, k.Confirm):
		if !m.snap.Hover.IsZero() {
			m.session.OnConfirm(m.snap.Hover)
		}
	case key.Matches(msg, k.Clear):
		m.session.ClearLocked()
		m.setStatus("", false)

	case key.Matches(msg, k.Preview):
		if m.session.Mode() == selection.ModePreview {
			m.session.SetMode(selection.ModeEdit)
		} else {
			m.session.SetMode(selection.ModePreview)
		}
	case key.Matches(msg, k.Save):
		m.report(m.session.Save())
	case key.Matches(msg, k.Reset):
		m.report(m.session.Reset())

	case key.Matches(msg, k.Bigger):
		m.mutate(classify.ControlFontSize, func() error { return m.session.Step(typography.FontSize, 1) })
	case key.Matches(msg, k.Smaller):
		m.mutate(classify.ControlFontSize, func() error { return m.session.Step(typography.FontSize, -1) })
	case key.Matches(msg, k.Bolder):
		m.mutate(classify.ControlFontWeight, func() error { return m.session.Step(typography.FontWeight, 1) })
	case key.Matches(msg, k.Lighter):
		m.mutate(classify.ControlFontWeight, func() error { return m.session.Step(typography.FontWeight, -1) })
	case key.Matches(msg, k.Align):
		m.mutate(classify.ControlAlign, func() error { return m.session.Cycle(typography.Align, 1) })
	case key.Matches(msg, k.Italic):
		on := !m.snap.Typography.Italic
		m.mutate(classify.ControlItalic, func() error { return m.session.ToggleBinary(typography.Italic, on) })
	case key.Matches(msg, k.Underline):
		m.mutate(classify.ControlDecoration, func() error { return m.session.CycleDecoration("underline") })
	case key.Matches(msg, k.Strike):
		m.mutate(classify.ControlDecoration, func() error { return m.session.CycleDecoration("line-through") })
	case key.Matches(msg, k.Overline):
		m.mutate(classify.ControlDecoration, func() error { return m.session.CycleDecoration("overline") })
	case key.Matches(msg, k.ColorNext):
		m.mutate(classify.ControlColor, func() error { return m.session.Cycle(typography.Color, 1) })
	case key.Matches(msg, k.ColorPrev):
		m.mutate(classify.ControlColor, func() error { return m.session.Cycle(typography.Color, -1) })
	}
	return nil
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.session.Close()
	return tea.Quit
}

var errNoControls = errors.New("select a text element in edit mode first")

// mutate runs apply when ctl is among the controls offered for the locked
// element.
func (m *Model) mutate(ctl classify.Control, apply func() error) {
	for _, c := range m.snap.Controls {
		if c == ctl {
			m.report(apply())
			return
		}
	}
	m.setStatus(errNoControls.Error(), true)
}

// moveHover steps the hover through elements in document order.
func (m *Model) moveHover(delta int) {
	refs := m.frame.Refs()
	if len(refs) == 0 {
		return
	}
	idx := -1
	for i, ref := range refs {
		if ref == m.snap.Hover {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta > 0:
		idx = 0
	case idx < 0:
		idx = len(refs) - 1
	default:
		idx = (idx + delta + len(refs)) % len(refs)
	}
	m.session.OnHover(refs[idx])
	m.ensureVisible(refs[idx])
}
