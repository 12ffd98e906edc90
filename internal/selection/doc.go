// Package selection tracks the hovered and locked elements.
package selection
