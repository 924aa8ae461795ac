package canvas

import (
	"context"
	"fmt"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/history"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/render"
)

// The canvas is the history log's applier: replayed actions go through the
// same backend, store and renderer wiring as live edits.
var _ history.Applier = (*Canvas)(nil)

// validateAction gates replays against the current store state, so an
// action invalidated by a remote change (e.g. the annotation was deleted by
// the session peer) is dropped instead of being applied blindly.
func (c *Canvas) validateAction(a history.Action, effect history.Effect) bool {
	exists := c.annotationExists(a)
	if effect == history.EffectRestore {
		return !exists
	}
	return exists
}

func (c *Canvas) annotationExists(a history.Action) bool {
	switch a.Kind {
	case domain.KindKeypoint:
		_, ok := c.store.FindKeypoint(a.Keypoint.ImageID, a.Keypoint.ID)
		return ok
	default:
		_, ok := c.store.FindBoundingBox(a.Box.ImageID, a.Box.ID)
		return ok
	}
}

// Restore re-creates an annotation, keeping its original backend id so a
// redo after an undo round-trips to the identical record.
func (c *Canvas) Restore(ctx context.Context, a history.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch a.Kind {
	case domain.KindKeypoint:
		kp := a.Keypoint
		id, err := c.gw.CreateKeypoint(ctx, kp)
		if err != nil {
			return fmt.Errorf("while restoring keypoint %s: %w", kp.ID, err)
		}
		if kp.ID == "" {
			kp.ID = id
		}
		c.store.AddKeypoint(kp.ImageID, kp)
		if kp.ImageID == c.imageKey {
			name, _ := c.registry.Name(a.Kind, kp.LabelID)
			handle := c.renderer.DrawKeypoint(kp, name)
			c.handles.Put(handle, render.Ref{AnnotationID: kp.ID, Kind: a.Kind})
			c.drawn = append(c.drawn, handle)
		}

	default:
		bb := a.Box
		id, err := c.gw.CreateBoundingBox(ctx, bb)
		if err != nil {
			return fmt.Errorf("while restoring bounding box %s: %w", bb.ID, err)
		}
		if bb.ID == "" {
			bb.ID = id
		}
		c.store.AddBoundingBox(bb.ImageID, bb)
		if bb.ImageID == c.imageKey {
			name, _ := c.registry.Name(a.Kind, bb.LabelID)
			handle := c.renderer.DrawBoundingBox(bb, name)
			c.handles.Put(handle, render.Ref{AnnotationID: bb.ID, Kind: a.Kind})
			c.drawn = append(c.drawn, handle)
		}
	}
	return nil
}

// Discard removes an annotation from backend, store and screen.
func (c *Canvas) Discard(ctx context.Context, a history.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := a.AnnotationID()
	switch a.Kind {
	case domain.KindKeypoint:
		if err := c.gw.DeleteKeypoint(ctx, id); err != nil {
			return fmt.Errorf("while discarding keypoint %s: %w", id, err)
		}
		c.store.RemoveKeypoint(a.Keypoint.ImageID, id)
	default:
		if err := c.gw.DeleteBoundingBox(ctx, id); err != nil {
			return fmt.Errorf("while discarding bounding box %s: %w", id, err)
		}
		c.store.RemoveBoundingBox(a.Box.ImageID, id)
	}

	// Redraws may have replaced the handle recorded in the action.
	if handle, ok := c.handles.HandleFor(id); ok {
		c.removeVisualLocked(handle)
	}
	return nil
}

// Relabel renames an annotation to the given label id.
func (c *Canvas) Relabel(ctx context.Context, a history.Action, labelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := a.AnnotationID()
	switch a.Kind {
	case domain.KindKeypoint:
		if err := c.gw.RenameKeypoint(ctx, id, labelID); err != nil {
			return fmt.Errorf("while relabeling keypoint %s: %w", id, err)
		}
		c.store.UpdateKeypointLabel(a.Keypoint.ImageID, id, labelID)
	default:
		if err := c.gw.RenameBoundingBox(ctx, id, labelID); err != nil {
			return fmt.Errorf("while relabeling bounding box %s: %w", id, err)
		}
		c.store.UpdateBoundingBoxLabel(a.Box.ImageID, id, labelID)
	}

	if handle, ok := c.handles.HandleFor(id); ok {
		name, _ := c.registry.Name(a.Kind, labelID)
		c.renderer.SetLabel(handle, name)
	}
	return nil
}
