package typography

import "slices"

// Group names a mutually exclusive family of class tokens.
type Group string

const (
	FontSize   Group = "fontSize"
	FontWeight Group = "fontWeight"
	Align      Group = "align"
	Decoration Group = "decoration"
	Color      Group = "color"
)

// Flag names a binary, non-exclusive token.
type Flag string

const (
	Italic Flag = "italic"
)

var groupTokens = map[Group][]string{
	FontSize: {
		"text-xs", "text-sm", "text-base", "text-lg", "text-xl",
		"text-2xl", "text-3xl", "text-4xl", "text-5xl", "text-6xl",
		"text-7xl", "text-8xl", "text-9xl",
	},
	FontWeight: {
		"font-thin", "font-extralight", "font-light", "font-normal",
		"font-medium", "font-semibold", "font-bold", "font-extrabold",
		"font-black",
	},
	Align: {
		"text-left", "text-center", "text-right", "text-justify",
	},
	Decoration: {
		"underline", "line-through", "overline",
	},
	Color: {
		"text-inherit", "text-black", "text-white",
		"text-slate-500", "text-gray-500", "text-gray-600", "text-gray-700",
		"text-gray-800", "text-gray-900", "text-zinc-500", "text-neutral-500",
		"text-stone-500", "text-red-500", "text-orange-500", "text-amber-500",
		"text-yellow-500", "text-lime-500", "text-green-500", "text-emerald-500",
		"text-teal-500", "text-cyan-500", "text-sky-500", "text-blue-500",
		"text-indigo-500", "text-violet-500", "text-purple-500",
		"text-fuchsia-500", "text-pink-500", "text-rose-500",
	},
}

type flagTokens struct {
	on  string
	off string
}

var flags = map[Flag]flagTokens{
	Italic: {on: "italic", off: "not-italic"},
}

// Groups returns the exclusive groups in display order.
func Groups() []Group {
	return []Group{FontSize, FontWeight, Align, Decoration, Color}
}

// Tokens returns a copy of the group's enumerated set, or nil for an
// unknown group.
func Tokens(g Group) []string {
	return slices.Clone(groupTokens[g])
}

// Valid reports whether token belongs to g.
func Valid(g Group, token string) bool {
	return slices.Contains(groupTokens[g], token)
}

// Step returns the token delta positions away from current within g,
// clamped to the ends of the scale. An empty current starts before the
// first token for positive steps and after the last for negative ones.
func Step(g Group, current string, delta int) (string, bool) {
	tokens := groupTokens[g]
	if len(tokens) == 0 {
		return "", false
	}
	i := slices.Index(tokens, current)
	switch {
	case i < 0 && delta > 0:
		i = delta - 1
	case i < 0 && delta < 0:
		i = len(tokens) + delta
	default:
		i += delta
	}
	i = max(0, min(i, len(tokens)-1))
	return tokens[i], true
}

// Cycle returns the token after current in g, wrapping around.
func Cycle(g Group, current string, delta int) (string, bool) {
	tokens := groupTokens[g]
	if len(tokens) == 0 {
		return "", false
	}
	i := slices.Index(tokens, current)
	if i < 0 {
		if delta < 0 {
			return tokens[len(tokens)-1], true
		}
		return tokens[0], true
	}
	n := len(tokens)
	return tokens[((i+delta)%n+n)%n], true
}
