package render

import (
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
)

// Renderer draws and removes the visual representation of annotations. It
// receives data and hands back opaque visual handles; it never owns the
// annotation records themselves. Draw calls for pending visuals carry no
// label because the annotation is not committed yet.
type Renderer interface {
	// DrawKeypoint draws a committed keypoint and returns its visual handle
	DrawKeypoint(kp domain.Keypoint, labelName string) string

	// DrawBoundingBox draws a committed bounding box and returns its visual handle
	DrawBoundingBox(bb domain.BoundingBox, labelName string) string

	// DrawPendingMarker draws the unlabeled marker shown between first click
	// and label confirmation
	DrawPendingMarker(p geometry.Point) string

	// DrawPendingPolygon draws the unlabeled rectangle shown between second
	// corner click and label confirmation
	DrawPendingPolygon(points [4]geometry.Point) string

	// SetLabel updates the label text shown next to a visual
	SetLabel(handle, labelName string)

	// Remove erases a visual
	Remove(handle string)
}

// Classifier is an optional Renderer capability: classify a visual handle by
// inspecting the drawn object (e.g. whether it has a polygon child). Used as
// a fallback when the handle index has no back-reference for a clicked
// visual.
type Classifier interface {
	Classify(handle string) (domain.Kind, bool)
}
