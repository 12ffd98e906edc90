package typography

import (
	"slices"

	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/markup"
)

// Classes is the subset of markup.Element the engine reads and writes.
type Classes interface {
	Classes() []string
	SetClasses([]string)
}

var _ Classes = (*markup.Element)(nil)

// InvalidOption reports a token outside its group's enumerated set.
func InvalidOption(g Group, token string) *editerr.Error {
	return editerr.Validationf("invalid option %q for %s", token, g)
}

// Current returns the active token of g on e.
func Current(e Classes, g Group) (string, bool) {
	tokens, ok := groupTokens[g]
	if !ok {
		return "", false
	}
	for _, c := range e.Classes() {
		if slices.Contains(tokens, c) {
			return c, true
		}
	}
	return "", false
}

// FlagSet reports whether f is on.
func FlagSet(e Classes, f Flag) bool {
	ft, ok := flags[f]
	if !ok {
		return false
	}
	return slices.Contains(e.Classes(), ft.on)
}

// SetExclusive makes token the only member of g on e. The token takes the
// position of the first existing member, or is appended. It reports
// whether class membership changed.
func SetExclusive(e Classes, g Group, token string) (bool, error) {
	tokens, ok := groupTokens[g]
	if !ok {
		return false, editerr.Validationf("unknown property group %q", g)
	}
	if !slices.Contains(tokens, token) {
		return false, InvalidOption(g, token)
	}

	old := e.Classes()
	next := make([]string, 0, len(old)+1)
	placed := false
	for _, c := range old {
		if !slices.Contains(tokens, c) {
			next = append(next, c)
			continue
		}
		if !placed {
			next = append(next, token)
			placed = true
		}
	}
	if !placed {
		next = append(next, token)
	}
	return write(e, old, next), nil
}

// Clear removes every member of g from e.
func Clear(e Classes, g Group) (bool, error) {
	tokens, ok := groupTokens[g]
	if !ok {
		return false, editerr.Validationf("unknown property group %q", g)
	}
	old := e.Classes()
	next := slices.DeleteFunc(slices.Clone(old), func(c string) bool {
		return slices.Contains(tokens, c)
	})
	return write(e, old, next), nil
}

// ToggleBinary turns f on or off. Turning on also drops the flag's
// counterpart token (not-italic for italic).
func ToggleBinary(e Classes, f Flag, on bool) (bool, error) {
	ft, ok := flags[f]
	if !ok {
		return false, editerr.Validationf("unknown flag %q", f)
	}
	old := e.Classes()
	next := slices.Clone(old)
	if on {
		next = slices.DeleteFunc(next, func(c string) bool { return c == ft.off })
		if !slices.Contains(next, ft.on) {
			next = append(next, ft.on)
		}
	} else {
		next = slices.DeleteFunc(next, func(c string) bool { return c == ft.on })
	}
	return write(e, old, next), nil
}

// CycleDecoration treats decoration as a single-select toggle: picking a
// new token replaces the active one, picking the active token turns it
// off, and an empty token clears the group.
func CycleDecoration(e Classes, token string) (bool, error) {
	if token == "" {
		return Clear(e, Decoration)
	}
	if !Valid(Decoration, token) {
		return false, InvalidOption(Decoration, token)
	}
	if cur, ok := Current(e, Decoration); ok && cur == token {
		return Clear(e, Decoration)
	}
	return SetExclusive(e, Decoration, token)
}

// Summary is the active typography of one element.
type Summary struct {
	Tokens map[Group]string
	Italic bool
}

// Summarize reads every group and flag from e.
func Summarize(e Classes) Summary {
	s := Summary{Tokens: make(map[Group]string)}
	for _, g := range Groups() {
		if tok, ok := Current(e, g); ok {
			s.Tokens[g] = tok
		}
	}
	s.Italic = FlagSet(e, Italic)
	return s
}

func write(e Classes, old, next []string) bool {
	if slices.Equal(old, next) {
		return false
	}
	e.SetClasses(next)
	return true
}
