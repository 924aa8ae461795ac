package domain

import (
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
)

// Kind discriminates the two annotation variants. Dispatch on it is kept to
// the few switch sites in canvas and history rather than string literals at
// every call site.
type Kind int

const (
	KindKeypoint Kind = iota
	KindBoundingBox
)

func (k Kind) String() string {
	switch k {
	case KindKeypoint:
		return "keypoint"
	case KindBoundingBox:
		return "bounding-box"
	default:
		return "unknown"
	}
}

// Keypoint is a labeled single-point annotation on an image. ID is assigned
// by the backend and is empty only while the annotation is transient creation
// state; committed records always carry a non-empty ID.
type Keypoint struct {
	ID        string
	ProjectID string
	ImageID   string
	LabelID   string
	Position  geometry.Point
}

// BoundingBox is a labeled axis-aligned rectangle annotation. Points run
// clockwise from the top-left corner, in image-pixel coordinates.
type BoundingBox struct {
	ID        string
	ProjectID string
	ImageID   string
	LabelID   string
	Points    [4]geometry.Point
}

// Label is a project-scoped annotation label. IDs are unique within a
// (project, kind) pair.
type Label struct {
	ID   string
	Name string
}
