// Package bridge connects an editing browser to an editor session over a
// websocket.
//
// The browser renders the annotated component markup, where every element
// carries a data-retype-ref attribute, and reports pointer events by ref.
// After each render, scroll or resize it reports the page rect of every
// element; those rects become the session's geometry.ReportedLayout.
//
// # Messages
//
// Browser to server, as JSON objects with a "type" field:
//
//	hover {ref}            pointer over an element
//	leave                  pointer left the component
//	confirm {ref}          click; the script already suppressed the default
//	clear                  drop the locked selection
//	mode {mode}            "edit" or "preview"
//	viewport {viewport}    scroll, size and rects keyed by ref
//	set {group, token}     exclusive typography token on the locked element
//	toggle {flag, on}      binary flag (italic)
//	decoration {token}     decoration pick, toggle off, or clear
//	edit {code}            replace the whole source
//	save, reset
//
// Server to browser:
//
//	markup {markup, generation}  re-render after load, mutation or reset
//	snapshot {snapshot}          selection, overlay and save state
//	error {error}                a rejected message or failed call
//
// Each connection owns its session on a single goroutine that selects over
// inbound messages and the session's pending store outcomes.
package bridge

import _ "embed"

// ClientScript is the browser half of the bridge. It expects a
// #retype-root element whose data-socket holds the websocket path.
//
//go:embed client.js
var ClientScript string
