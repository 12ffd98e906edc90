// Package geometry answers where elements are: a Layout gives page rects,
// and a Sampler turns them into viewport-relative bounding boxes on every
// call. BlockLayout lays a document out in terminal cells; ReportedLayout
// holds rects reported by a browser.
package geometry
