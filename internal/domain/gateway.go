package domain

import "context"

// AnnotationGateway defines the backend operations for annotation records.
// Create calls return the backend-assigned annotation id. When the passed
// annotation already carries an ID the backend is asked to restore it under
// that id (used by undo/redo of deletions).
type AnnotationGateway interface {
	// CreateKeypoint persists a keypoint and returns its assigned id
	CreateKeypoint(ctx context.Context, kp Keypoint) (string, error)

	// CreateBoundingBox persists a bounding box and returns its assigned id
	CreateBoundingBox(ctx context.Context, bb BoundingBox) (string, error)

	// RenameKeypoint changes the label of an existing keypoint
	RenameKeypoint(ctx context.Context, id, labelID string) error

	// RenameBoundingBox changes the label of an existing bounding box
	RenameBoundingBox(ctx context.Context, id, labelID string) error

	// DeleteKeypoint removes a keypoint by id
	DeleteKeypoint(ctx context.Context, id string) error

	// DeleteBoundingBox removes a bounding box by id
	DeleteBoundingBox(ctx context.Context, id string) error

	// ListKeypoints retrieves all keypoints for an image
	ListKeypoints(ctx context.Context, projectID, imageID string) ([]Keypoint, error)

	// ListBoundingBoxes retrieves all bounding boxes for an image
	ListBoundingBoxes(ctx context.Context, projectID, imageID string) ([]BoundingBox, error)
}

// LabelGateway defines the backend operations for project label listings.
// Each call returns the full label set; callers replace their local state
// wholesale rather than merging.
type LabelGateway interface {
	// ListKeypointLabels retrieves every keypoint label for a project
	ListKeypointLabels(ctx context.Context, projectID string) ([]Label, error)

	// ListBoundingBoxLabels retrieves every bounding-box label for a project
	ListBoundingBoxLabels(ctx context.Context, projectID string) ([]Label, error)
}

// ImageGateway defines the backend operations for batch image listings and
// image pixel data.
type ImageGateway interface {
	// ListBatchImages retrieves the ordered image listing for a batch
	ListBatchImages(ctx context.Context, batchID string) ([]BatchImage, error)

	// FetchImage downloads the raw image bytes behind a batch image URL
	FetchImage(ctx context.Context, url string) ([]byte, error)
}
