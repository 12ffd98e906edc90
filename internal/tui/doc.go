// Package tui is the interactive terminal editor.
//
// The Model owns one editor.Session and drives it from bubbletea's update
// loop, so every session call happens on a single goroutine. Store
// outcomes arrive as messages from a command that waits on
// Session.Pending.
//
// The component is drawn with geometry.BlockLayout: block elements on
// their own rows, nested blocks indented, inline elements flowing inside
// their block. The mouse and keyboard both feed the selection tracker:
//
//	tab / shift+tab   move hover through elements
//	enter, click      lock the hovered element
//	esc               clear the lock
//	+ / -             font size
//	w / W             font weight
//	a                 cycle alignment
//	i                 italic
//	u / x / o         underline, line-through, overline
//	c / C             cycle color
//	p                 toggle preview
//	s / R             save, reset to original
//
// Usage:
//
//	m, err := tui.New(tui.Config{ComponentID: "hero", Store: client})
//	if err != nil {
//	    return err
//	}
//	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
package tui
