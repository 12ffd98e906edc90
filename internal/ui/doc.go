// Package ui renders styled, run-once terminal output for the retype CLIs.
//
// Commands print a header box, then either a success box with details or an
// error box with troubleshooting tips. The interactive editor lives in
// package tui; this package only prints and exits.
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Style Component", "retype style hero", map[string]string{"Store": url})
//	p.PrintSuccess("Saved", map[string]string{"Classes": "text-xl font-bold"})
//
// Logging is silent unless RETYPE_LOG_LEVEL is set, so the curated output
// is not interleaved with zap lines.
package ui
