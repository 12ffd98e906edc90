// Package markup holds a component's HTML as an arena of elements.
//
// Elements are addressed by ElementRef, a weak {generation, index} handle.
// Replace re-parses the source and bumps the generation, so every earlier
// ref becomes stale; Detach makes a single ref stale. Resolve is the only
// way from a ref to an Element.
//
// RenderAnnotated adds a data-retype-ref attribute to each element so a
// browser host can report events and rects by ref.
package markup
