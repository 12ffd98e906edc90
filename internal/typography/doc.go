// Package typography edits the utility class tokens that set an element's
// font size, weight, alignment, decoration, italic style and color.
//
// Each Group is mutually exclusive: SetExclusive removes the group's other
// tokens and adds the new one in a single class write, leaving unrelated
// classes in place. Italic is a binary Flag with a not-italic counterpart.
// Tokens outside a group's set are rejected before anything is written.
package typography
