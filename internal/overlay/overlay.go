// Package overlay turns the hover and locked bounding boxes into the two
// visual boxes drawn over the rendered component.
package overlay

import "github.com/muurk/retype/internal/geometry"

// Kind distinguishes the two overlay boxes.
type Kind string

const (
	KindHover  Kind = "hover"
	KindLocked Kind = "locked"
)

// Border is the stroke style of a box.
type Border string

const (
	BorderDashed Border = "dashed"
	BorderSolid  Border = "solid"
)

// Box is one overlay rectangle. Boxes never take pointer input so events
// reach the element underneath.
type Box struct {
	Kind        Kind                 `json:"kind"`
	Border      Border               `json:"border"`
	Bounds      geometry.BoundingBox `json:"bounds"`
	Label       string               `json:"label"`
	Z           int                  `json:"z"`
	Interactive bool                 `json:"interactive"`
}

// Render returns the boxes to draw, lowest Z first. The locked box is
// solid and drawn above the dashed hover box, including when both cover
// the same element.
func Render(hover, locked *geometry.BoundingBox) []Box {
	var boxes []Box
	if hover != nil {
		boxes = append(boxes, Box{
			Kind:   KindHover,
			Border: BorderDashed,
			Bounds: *hover,
			Label:  hover.Tag,
			Z:      1,
		})
	}
	if locked != nil {
		boxes = append(boxes, Box{
			Kind:   KindLocked,
			Border: BorderSolid,
			Bounds: *locked,
			Label:  locked.Tag,
			Z:      2,
		})
	}
	return boxes
}
