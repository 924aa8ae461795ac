package canvas

import (
	"context"
	"fmt"
	"log"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/render"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/store"
)

// LoadImage makes imageKey the active image, fetches its annotations from
// the backend, replaces the store collection wholesale and redraws. Every
// fetch is tagged with the active image key at request time; if navigation
// has moved on by the time the response arrives, the response is discarded
// so a slow fetch can never apply to the wrong image.
func (c *Canvas) LoadImage(ctx context.Context, imageKey string) error {
	c.mu.Lock()
	c.imageKey = imageKey
	c.loadGen++
	gen := c.loadGen
	c.mu.Unlock()

	return c.fetchAndRedraw(ctx, imageKey, gen)
}

// Refresh re-fetches the current image's annotations. Session snapshot
// messages funnel through here: the whole collection is replaced rather
// than applying a diff, trading efficiency for simplicity since per-image
// annotation counts stay small.
func (c *Canvas) Refresh(ctx context.Context) error {
	c.mu.Lock()
	imageKey := c.imageKey
	gen := c.loadGen
	c.mu.Unlock()

	if imageKey == "" {
		return nil
	}
	return c.fetchAndRedraw(ctx, imageKey, gen)
}

func (c *Canvas) fetchAndRedraw(ctx context.Context, imageKey string, gen uint64) error {
	kps, err := c.gw.ListKeypoints(ctx, c.projectID, imageKey)
	if err != nil {
		return fmt.Errorf("while fetching keypoints for %s: %w", imageKey, err)
	}
	boxes, err := c.gw.ListBoundingBoxes(ctx, c.projectID, imageKey)
	if err != nil {
		return fmt.Errorf("while fetching bounding boxes for %s: %w", imageKey, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imageKey != imageKey || c.loadGen != gen {
		log.Printf("canvas: discarding stale annotation fetch for %s", imageKey)
		return nil
	}

	c.store.ReplaceAll(imageKey, store.Collection{Keypoints: kps, BoundingBoxes: boxes})
	c.redrawLocked()
	return nil
}

// redrawLocked removes every committed visual and draws the store's current
// collection for the active image. Pending visuals are not tracked in
// c.drawn, so an in-progress marker or polygon survives the redraw.
func (c *Canvas) redrawLocked() {
	for _, h := range c.drawn {
		c.renderer.Remove(h)
		c.handles.Delete(h)
	}
	c.drawn = nil

	col := c.store.Get(c.imageKey)
	for _, kp := range col.Keypoints {
		name, _ := c.registry.Name(domain.KindKeypoint, kp.LabelID)
		handle := c.renderer.DrawKeypoint(kp, name)
		c.handles.Put(handle, render.Ref{AnnotationID: kp.ID, Kind: domain.KindKeypoint})
		c.drawn = append(c.drawn, handle)
	}
	for _, bb := range col.BoundingBoxes {
		name, _ := c.registry.Name(domain.KindBoundingBox, bb.LabelID)
		handle := c.renderer.DrawBoundingBox(bb, name)
		c.handles.Put(handle, render.Ref{AnnotationID: bb.ID, Kind: domain.KindBoundingBox})
		c.drawn = append(c.drawn, handle)
	}
}
