package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

type batchImagePayload struct {
	ImageID  string `json:"imageID"`
	ImageURL string `json:"imageURL"`
}

// ListBatchImages retrieves the ordered image listing for a batch.
func (c *Client) ListBatchImages(ctx context.Context, batchID string) ([]domain.BatchImage, error) {
	var payloads []batchImagePayload
	if err := c.doRequest(ctx, http.MethodGet, "/batches/"+batchID+"/images", nil, &payloads); err != nil {
		return nil, fmt.Errorf("while listing batch images: %w", err)
	}
	result := make([]domain.BatchImage, len(payloads))
	for i, p := range payloads {
		result[i] = domain.BatchImage{ImageID: p.ImageID, ImageURL: p.ImageURL}
	}
	return result, nil
}

// FetchImage downloads raw image bytes. Relative URLs are resolved against
// the backend base URL; absolute URLs are fetched as-is.
func (c *Client) FetchImage(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = c.baseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("while creating image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("while fetching image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	return io.ReadAll(resp.Body)
}

var _ domain.ImageGateway = (*Client)(nil)
