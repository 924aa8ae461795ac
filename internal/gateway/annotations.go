package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
)

type keypointPayload struct {
	ID       string         `json:"id,omitempty"`
	LabelID  string         `json:"labelID"`
	Position geometry.Point `json:"position"`
}

type boundingBoxPayload struct {
	ID      string           `json:"id,omitempty"`
	LabelID string           `json:"labelID"`
	Points  []geometry.Point `json:"points"`
}

type createResponse struct {
	ID string `json:"id"`
}

type renameRequest struct {
	LabelID string `json:"labelID"`
}

// CreateKeypoint persists a keypoint and returns its backend-assigned id.
// If kp.ID is already set the backend is asked to restore that id (the
// undo/redo restore path).
func (c *Client) CreateKeypoint(ctx context.Context, kp domain.Keypoint) (string, error) {
	endpoint := fmt.Sprintf("/projects/%s/images/%s/keypoints", kp.ProjectID, kp.ImageID)
	body := keypointPayload{ID: kp.ID, LabelID: kp.LabelID, Position: kp.Position}
	var resp createResponse
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", fmt.Errorf("while creating keypoint: %w", err)
	}
	return resp.ID, nil
}

// CreateBoundingBox persists a bounding box and returns its assigned id.
func (c *Client) CreateBoundingBox(ctx context.Context, bb domain.BoundingBox) (string, error) {
	endpoint := fmt.Sprintf("/projects/%s/images/%s/boundingboxes", bb.ProjectID, bb.ImageID)
	body := boundingBoxPayload{ID: bb.ID, LabelID: bb.LabelID, Points: bb.Points[:]}
	var resp createResponse
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", fmt.Errorf("while creating bounding box: %w", err)
	}
	return resp.ID, nil
}

// RenameKeypoint changes the label of an existing keypoint.
func (c *Client) RenameKeypoint(ctx context.Context, id, labelID string) error {
	err := c.doRequest(ctx, http.MethodPatch, "/keypoints/"+id, renameRequest{LabelID: labelID}, nil)
	if err != nil {
		return fmt.Errorf("while renaming keypoint %s: %w", id, err)
	}
	return nil
}

// RenameBoundingBox changes the label of an existing bounding box.
func (c *Client) RenameBoundingBox(ctx context.Context, id, labelID string) error {
	err := c.doRequest(ctx, http.MethodPatch, "/boundingboxes/"+id, renameRequest{LabelID: labelID}, nil)
	if err != nil {
		return fmt.Errorf("while renaming bounding box %s: %w", id, err)
	}
	return nil
}

// DeleteKeypoint removes a keypoint.
func (c *Client) DeleteKeypoint(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/keypoints/"+id, nil, nil); err != nil {
		return fmt.Errorf("while deleting keypoint %s: %w", id, err)
	}
	return nil
}

// DeleteBoundingBox removes a bounding box.
func (c *Client) DeleteBoundingBox(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/boundingboxes/"+id, nil, nil); err != nil {
		return fmt.Errorf("while deleting bounding box %s: %w", id, err)
	}
	return nil
}

// ListKeypoints retrieves all keypoints for an image.
func (c *Client) ListKeypoints(ctx context.Context, projectID, imageID string) ([]domain.Keypoint, error) {
	endpoint := fmt.Sprintf("/projects/%s/images/%s/keypoints", projectID, imageID)
	var payloads []keypointPayload
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &payloads); err != nil {
		return nil, fmt.Errorf("while listing keypoints: %w", err)
	}

	result := make([]domain.Keypoint, len(payloads))
	for i, p := range payloads {
		result[i] = domain.Keypoint{
			ID:        p.ID,
			ProjectID: projectID,
			ImageID:   imageID,
			LabelID:   p.LabelID,
			Position:  p.Position,
		}
	}
	return result, nil
}

// ListBoundingBoxes retrieves all bounding boxes for an image.
func (c *Client) ListBoundingBoxes(ctx context.Context, projectID, imageID string) ([]domain.BoundingBox, error) {
	endpoint := fmt.Sprintf("/projects/%s/images/%s/boundingboxes", projectID, imageID)
	var payloads []boundingBoxPayload
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &payloads); err != nil {
		return nil, fmt.Errorf("while listing bounding boxes: %w", err)
	}

	result := make([]domain.BoundingBox, len(payloads))
	for i, p := range payloads {
		bb := domain.BoundingBox{
			ID:        p.ID,
			ProjectID: projectID,
			ImageID:   imageID,
			LabelID:   p.LabelID,
		}
		copy(bb.Points[:], p.Points)
		result[i] = bb
	}
	return result, nil
}

var _ domain.AnnotationGateway = (*Client)(nil)
