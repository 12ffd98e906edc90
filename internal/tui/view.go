package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/overlay"
	"github.com/muurk/retype/internal/persist"
	"github.com/muurk/retype/internal/selection"
	"github.com/muurk/retype/internal/typography"
	"github.com/muurk/retype/internal/ui"
)

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderBody(),
		m.renderStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) renderTitle() string {
	title := "retype  " + m.snap.ComponentID
	if m.snap.Save.Dirty {
		title += " " + ui.DirtyMarker
	}
	mode := modeStyle.Render(string(m.snap.Mode))
	bar := titleBarStyle.Render(title)
	gap := max(m.width-lipgloss.Width(bar)-lipgloss.Width(mode), 0)
	return bar + titleBarStyle.UnsetPadding().Render(strings.Repeat(" ", gap)) + mode
}

func (m Model) renderBody() string {
	height := m.bodyHeight()
	rows := make([]string, height)

	if m.snap.Busy {
		msg := m.spinner.View() + " Loading component..."
		if m.snap.Save.Pending == persist.OpReset {
			msg = m.spinner.View() + " Resetting component..."
		}
		rows[min(height/2, height-1)] = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, msg)
		return strings.Join(rows, "\n")
	}

	for i := range rows {
		page := m.scrollY + i
		var line []rune
		if page < len(m.frame.Lines) {
			line = []rune(m.frame.Lines[page])
		}
		rows[i] = paintRow(line, i, m.snap.Overlay, m.width)
	}
	return strings.Join(rows, "\n")
}

// paintRow styles the cells of one viewport row covered by overlay boxes.
// Boxes come lowest Z first, so the locked box paints over the hover box.
func paintRow(line []rune, row int, boxes []overlay.Box, width int) string {
	if width <= 0 {
		return ""
	}
	if len(line) > width {
		line = line[:width]
	}

	marks := make([]overlay.Kind, width)
	end := len(line)
	for _, b := range boxes {
		top := int(b.Bounds.Top)
		if row < top || row >= top+int(b.Bounds.Height) {
			continue
		}
		left := int(b.Bounds.Left)
		right := min(left+int(b.Bounds.Width), width)
		for c := max(left, 0); c < right; c++ {
			marks[c] = b.Kind
		}
		end = max(end, right)
	}
	for len(line) < end {
		line = append(line, ' ')
	}

	var sb strings.Builder
	for start := 0; start < len(line); {
		stop := start + 1
		for stop < len(line) && marks[stop] == marks[start] {
			stop++
		}
		seg := string(line[start:stop])
		switch marks[start] {
		case overlay.KindLocked:
			sb.WriteString(lockedCellStyle.Render(seg))
		case overlay.KindHover:
			sb.WriteString(hoverCellStyle.Render(seg))
		default:
			sb.WriteString(seg)
		}
		start = stop
	}
	return sb.String()
}

func (m Model) renderStatus() string {
	left := m.describeSelection()
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = statusErrorStyle
		}
		left += "  " + style.Render(m.status)
	}
	right := saveLabel(m.snap.Save, m.spinner.View(), m.now())
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) describeSelection() string {
	if m.snap.Mode == selection.ModePreview {
		return statusStyle.Render("Preview (p to edit)")
	}
	if m.snap.Locked.IsZero() || m.snap.LockedBox == nil {
		if m.snap.HoverBox != nil {
			return ui.TagStyle.Render("<"+m.snap.HoverBox.Tag+">") + statusStyle.Render("  enter to select")
		}
		return statusStyle.Render("tab or click to pick an element")
	}

	parts := []string{
		ui.TagStyle.Render("<" + m.snap.LockedBox.Tag + ">"),
		ui.RoleStyle.Render(string(m.snap.Role)),
	}
	if tokens := activeTokens(m.snap.Typography); len(tokens) > 0 {
		parts = append(parts, ui.TokenStyle.Render(strings.Join(tokens, " ")))
	}
	return strings.Join(parts, " ")
}

// activeTokens lists the summary's tokens in group order.
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

// saveLabel is the save affordance: Save, Saving..., Saved N ago, or the
// last error.
func saveLabel(st persist.SaveState, spin string, now time.Time) string {
	switch {
	case st.Loading:
		return spin + " Loading..."
	case st.Saving && st.Pending == persist.OpReset:
		return spin + " Resetting..."
	case st.Saving:
		return spin + " Saving..."
	case st.State == persist.StateError:
		return statusErrorStyle.Render(fmt.Sprintf("%s %s", ui.FailureMarker, editerr.ShortMessage(st.Err)))
	case st.State == persist.StateDirty:
		return dirtyStyle.Render(ui.DirtyMarker + " Save (s)")
	case st.State == persist.StateSuccess:
		return savedStyle.Render(ui.SuccessMarker + " Saved " + humanize.RelTime(st.SavedAt, now, "ago", "from now"))
	default:
		return statusStyle.Render("No changes")
	}
}
