package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

type labelPayload struct {
	LabelID   string `json:"labelID"`
	LabelName string `json:"labelName"`
}

func (c *Client) listLabels(ctx context.Context, endpoint string) ([]domain.Label, error) {
	var payloads []labelPayload
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &payloads); err != nil {
		return nil, err
	}
	result := make([]domain.Label, len(payloads))
	for i, p := range payloads {
		result[i] = domain.Label{ID: p.LabelID, Name: p.LabelName}
	}
	return result, nil
}

// ListKeypointLabels retrieves every keypoint label configured for a project.
func (c *Client) ListKeypointLabels(ctx context.Context, projectID string) ([]domain.Label, error) {
	labels, err := c.listLabels(ctx, fmt.Sprintf("/projects/%s/keypoint-labels", projectID))
	if err != nil {
		return nil, fmt.Errorf("while listing keypoint labels: %w", err)
	}
	return labels, nil
}

// ListBoundingBoxLabels retrieves every bounding-box label configured for a
// project.
func (c *Client) ListBoundingBoxLabels(ctx context.Context, projectID string) ([]domain.Label, error) {
	labels, err := c.listLabels(ctx, fmt.Sprintf("/projects/%s/boundingbox-labels", projectID))
	if err != nil {
		return nil, fmt.Errorf("while listing bounding box labels: %w", err)
	}
	return labels, nil
}

var _ domain.LabelGateway = (*Client)(nil)
