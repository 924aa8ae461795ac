package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

// ErrNotFound is returned for empty batches and out-of-range image indices.
var ErrNotFound = errors.New("image not found")

// Navigator tracks the current position inside a batch and caches the
// batch's ordered image listing plus downloaded pixel data. Both caches
// live for the page session and never evict; they are bounded by batch
// size, so that is acceptable. Indices are 1-based, and next/prev wrap
// around the ends of the batch.
type Navigator struct {
	mu      sync.Mutex
	gw      domain.ImageGateway
	batches map[string][]domain.BatchImage
	pixels  map[string][]byte
	current int
	total   int
}

// New creates a Navigator fetching through the given gateway.
func New(gw domain.ImageGateway) *Navigator {
	return &Navigator{
		gw:      gw,
		batches: make(map[string][]domain.BatchImage),
		pixels:  make(map[string][]byte),
	}
}

// LoadImageURL resolves the index-th image of a batch (1-based) and makes it
// the current position. The batch listing is fetched once and served from
// cache afterwards. Returns the image and the batch's total image count.
func (n *Navigator) LoadImageURL(ctx context.Context, batchID string, index int) (domain.BatchImage, int, error) {
	n.mu.Lock()
	images, ok := n.batches[batchID]
	n.mu.Unlock()

	if !ok {
		fetched, err := n.gw.ListBatchImages(ctx, batchID)
		if err != nil {
			return domain.BatchImage{}, 0, fmt.Errorf("while loading batch %s: %w", batchID, err)
		}
		n.mu.Lock()
		// A concurrent load may have won; keep the first listing.
		if cached, again := n.batches[batchID]; again {
			images = cached
		} else {
			n.batches[batchID] = fetched
			images = fetched
		}
		n.mu.Unlock()
	}

	if len(images) == 0 {
		return domain.BatchImage{}, 0, fmt.Errorf("batch %s has no images: %w", batchID, ErrNotFound)
	}
	if index < 1 || index > len(images) {
		return domain.BatchImage{}, 0, fmt.Errorf("image %d of batch %s (%d images): %w", index, batchID, len(images), ErrNotFound)
	}

	n.mu.Lock()
	n.current = index
	n.total = len(images)
	n.mu.Unlock()
	return images[index-1], len(images), nil
}

// Images returns a copy of the cached listing for a batch, or nil when the
// batch has not been loaded yet.
func (n *Navigator) Images(batchID string) []domain.BatchImage {
	n.mu.Lock()
	defer n.mu.Unlock()
	images, ok := n.batches[batchID]
	if !ok {
		return nil
	}
	out := make([]domain.BatchImage, len(images))
	copy(out, images)
	return out
}

// Position returns the current 1-based image number and the batch total.
func (n *Navigator) Position() (current, total int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, n.total
}

// Next advances the current image number, wrapping past the last image back
// to 1, and returns the new number.
func (n *Navigator) Next() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.total == 0 {
		return 0
	}
	n.current++
	if n.current > n.total {
		n.current = 1
	}
	return n.current
}

// Prev moves back one image, wrapping before image 1 to the last image.
func (n *Navigator) Prev() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.total == 0 {
		return 0
	}
	n.current--
	if n.current < 1 {
		n.current = n.total
	}
	return n.current
}

// LoadPixels downloads the image bytes behind a URL, serving revisits from
// cache to avoid re-fetching when the user navigates back to an image.
func (n *Navigator) LoadPixels(ctx context.Context, url string) ([]byte, error) {
	n.mu.Lock()
	data, ok := n.pixels[url]
	n.mu.Unlock()
	if ok {
		return data, nil
	}

	data, err := n.gw.FetchImage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("while fetching image %s: %w", url, err)
	}

	n.mu.Lock()
	n.pixels[url] = data
	n.mu.Unlock()
	return data, nil
}
