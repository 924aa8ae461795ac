package canvas

import (
	"context"
	"fmt"
	"log"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/render"
)

// ConfirmLabel resolves the active pending state with the given label text.
// With no pending state it is a no-op. An unknown label name returns an
// error and leaves the pending state in place so the prompt can retry.
//
// Backend failures on the rename path are logged and the local mutation is
// kept (the optimistic log-and-continue semantics of the original tool). On
// the create path a backend failure discards the pending annotation instead
// of storing a record without a backend id.
func (c *Canvas) ConfirmLabel(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.pendingEd != nil:
		return c.confirmEditLocked(ctx, text)
	case c.pendingKP != nil:
		return c.confirmKeypointLocked(ctx, text)
	case c.pendingBB != nil:
		return c.confirmBoundingBoxLocked(ctx, text)
	default:
		log.Printf("canvas: confirm ignored, no pending annotation")
		return nil
	}
}

func (c *Canvas) confirmEditLocked(ctx context.Context, text string) error {
	ed := c.pendingEd
	labelID, ok := c.registry.ID(ed.kind, text)
	if !ok {
		return fmt.Errorf("unknown %s label %q", ed.kind, text)
	}

	var before string
	switch ed.kind {
	case domain.KindKeypoint:
		kp, found := c.store.FindKeypoint(c.imageKey, ed.annotationID)
		if !found {
			log.Printf("canvas: rename target keypoint %s no longer exists", ed.annotationID)
			c.pendingEd = nil
			return nil
		}
		before = kp.LabelID
		if err := c.gw.RenameKeypoint(ctx, ed.annotationID, labelID); err != nil {
			log.Printf("canvas: backend rename failed for keypoint %s: %v", ed.annotationID, err)
		}
		c.store.UpdateKeypointLabel(c.imageKey, ed.annotationID, labelID)
		kp.LabelID = labelID
		c.renderer.SetLabel(ed.handle, text)
		c.hist.PushEdit(ed.kind, kp, domain.BoundingBox{}, before, labelID, ed.handle)

	case domain.KindBoundingBox:
		bb, found := c.store.FindBoundingBox(c.imageKey, ed.annotationID)
		if !found {
			log.Printf("canvas: rename target bounding box %s no longer exists", ed.annotationID)
			c.pendingEd = nil
			return nil
		}
		before = bb.LabelID
		if err := c.gw.RenameBoundingBox(ctx, ed.annotationID, labelID); err != nil {
			log.Printf("canvas: backend rename failed for bounding box %s: %v", ed.annotationID, err)
		}
		c.store.UpdateBoundingBoxLabel(c.imageKey, ed.annotationID, labelID)
		bb.LabelID = labelID
		c.renderer.SetLabel(ed.handle, text)
		c.hist.PushEdit(ed.kind, domain.Keypoint{}, bb, before, labelID, ed.handle)
	}

	c.pendingEd = nil
	return nil
}

func (c *Canvas) confirmKeypointLocked(ctx context.Context, text string) error {
	labelID, ok := c.registry.ID(domain.KindKeypoint, text)
	if !ok {
		return fmt.Errorf("unknown keypoint label %q", text)
	}

	pending := c.pendingKP
	c.renderer.Remove(pending.handle)
	c.pendingKP = nil

	kp := domain.Keypoint{
		ProjectID: c.projectID,
		ImageID:   c.imageKey,
		LabelID:   labelID,
		Position:  pending.pos,
	}
	id, err := c.gw.CreateKeypoint(ctx, kp)
	if err != nil {
		log.Printf("canvas: backend create failed for keypoint at (%v, %v): %v", pending.pos.X, pending.pos.Y, err)
		return nil
	}
	kp.ID = id

	c.store.AddKeypoint(c.imageKey, kp)
	handle := c.renderer.DrawKeypoint(kp, text)
	c.handles.Put(handle, render.Ref{AnnotationID: kp.ID, Kind: domain.KindKeypoint})
	c.drawn = append(c.drawn, handle)
	c.hist.PushAdd(domain.KindKeypoint, kp, domain.BoundingBox{}, handle)
	return nil
}

func (c *Canvas) confirmBoundingBoxLocked(ctx context.Context, text string) error {
	labelID, ok := c.registry.ID(domain.KindBoundingBox, text)
	if !ok {
		return fmt.Errorf("unknown bounding-box label %q", text)
	}

	pending := c.pendingBB
	c.renderer.Remove(pending.handle)
	c.pendingBB = nil

	bb := domain.BoundingBox{
		ProjectID: c.projectID,
		ImageID:   c.imageKey,
		LabelID:   labelID,
		Points:    pending.points,
	}
	id, err := c.gw.CreateBoundingBox(ctx, bb)
	if err != nil {
		log.Printf("canvas: backend create failed for bounding box: %v", err)
		return nil
	}
	bb.ID = id

	c.store.AddBoundingBox(c.imageKey, bb)
	handle := c.renderer.DrawBoundingBox(bb, text)
	c.handles.Put(handle, render.Ref{AnnotationID: bb.ID, Kind: domain.KindBoundingBox})
	c.drawn = append(c.drawn, handle)
	c.hist.PushAdd(domain.KindBoundingBox, domain.Keypoint{}, bb, handle)
	return nil
}

// CancelLabel discards the active pending state without touching the
// backend: transient visuals (unlabeled marker, in-progress polygon,
// rectangle corner markers) are removed, and a pending edit is simply
// cleared since the annotation itself was never changed.
func (c *Canvas) CancelLabel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingKP != nil {
		c.renderer.Remove(c.pendingKP.handle)
		c.pendingKP = nil
	}
	if c.pendingBB != nil {
		c.renderer.Remove(c.pendingBB.handle)
		c.pendingBB = nil
	}
	for _, m := range c.boxMarkers {
		c.renderer.Remove(m)
	}
	c.boxClicks = nil
	c.boxMarkers = nil
	c.pendingEd = nil
}

// DeletePending removes the annotation currently selected for edit. It is
// only available during a pending edit; during create-mode pending states a
// cancel discards the unpersisted placeholder instead.
func (c *Canvas) DeletePending(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ed := c.pendingEd
	if ed == nil {
		log.Printf("canvas: delete ignored, no annotation selected for edit")
		return nil
	}
	c.pendingEd = nil

	switch ed.kind {
	case domain.KindKeypoint:
		kp, found := c.store.FindKeypoint(c.imageKey, ed.annotationID)
		if !found {
			log.Printf("canvas: delete target keypoint %s no longer exists", ed.annotationID)
			return nil
		}
		if err := c.gw.DeleteKeypoint(ctx, ed.annotationID); err != nil {
			log.Printf("canvas: backend delete failed for keypoint %s: %v", ed.annotationID, err)
		}
		c.store.RemoveKeypoint(c.imageKey, ed.annotationID)
		c.removeVisualLocked(ed.handle)
		c.hist.PushDelete(ed.kind, kp, domain.BoundingBox{}, ed.handle)

	case domain.KindBoundingBox:
		bb, found := c.store.FindBoundingBox(c.imageKey, ed.annotationID)
		if !found {
			log.Printf("canvas: delete target bounding box %s no longer exists", ed.annotationID)
			return nil
		}
		if err := c.gw.DeleteBoundingBox(ctx, ed.annotationID); err != nil {
			log.Printf("canvas: backend delete failed for bounding box %s: %v", ed.annotationID, err)
		}
		c.store.RemoveBoundingBox(c.imageKey, ed.annotationID)
		c.removeVisualLocked(ed.handle)
		c.hist.PushDelete(ed.kind, domain.Keypoint{}, bb, ed.handle)
	}
	return nil
}

func (c *Canvas) removeVisualLocked(handle string) {
	c.renderer.Remove(handle)
	c.handles.Delete(handle)
	for i, h := range c.drawn {
		if h == handle {
			c.drawn = append(c.drawn[:i], c.drawn[i+1:]...)
			break
		}
	}
}
