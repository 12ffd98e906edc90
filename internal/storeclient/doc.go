// Package storeclient talks to a retype-store server over HTTP.
//
// Load, List and Ping retry transient failures with exponential backoff. Save,
// Reset and Create never retry. Responses map onto editerr kinds: 404 is
// NotFound, 400 is Validation, other statuses are HTTP errors, and a body
// that does not decode is a Parse error.
//
//	c := storeclient.New("http://studio.local:7070")
//	c.SetTimeout(10 * time.Second)
//	code, err := c.Load(ctx, "hero")
package storeclient
