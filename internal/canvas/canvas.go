package canvas

import (
	"context"
	"log"
	"sync"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/history"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/labels"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/render"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/store"
)

// Tool is the currently selected annotation tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolKeypoint
	ToolBoundingBox
)

func (t Tool) String() string {
	switch t {
	case ToolKeypoint:
		return "keypoint"
	case ToolBoundingBox:
		return "bounding-box"
	default:
		return "none"
	}
}

// RequestMode distinguishes label prompts for new annotations from prompts
// for renaming existing ones.
type RequestMode int

const (
	RequestCreate RequestMode = iota
	RequestEdit
)

// LabelRequest asks the surrounding UI to prompt for a label. Position is
// where the prompt should appear: the click point for keypoints and edits,
// the polygon centroid for bounding boxes.
type LabelRequest struct {
	Kind         domain.Kind
	Mode         RequestMode
	Position     geometry.Point
	CurrentLabel string
}

type pendingKeypoint struct {
	pos    geometry.Point
	handle string
}

type pendingBox struct {
	points [4]geometry.Point
	handle string
}

type pendingEdit struct {
	annotationID string
	kind         domain.Kind
	handle       string
}

// Deps wires the collaborators a Canvas needs. All fields are required
// except Registry-backed lookups failing softly.
type Deps struct {
	ProjectID string
	Gateway   domain.AnnotationGateway
	Store     *store.Store
	Registry  *labels.Registry
	Renderer  render.Renderer
}

// Canvas is the interactive tool state machine. A single tool is active at a
// time; clicks are interpreted by the active tool unless they land on an
// existing annotation's visual, which always takes precedence and opens the
// edit flow. At most one pending creation or pending edit exists at any
// moment; the surrounding UI serializes them through its modal label prompt,
// and the canvas guards against violations by ignoring the extra trigger.
type Canvas struct {
	mu        sync.Mutex
	projectID string
	imageKey  string
	tool      Tool

	gw       domain.AnnotationGateway
	store    *store.Store
	registry *labels.Registry
	renderer render.Renderer
	handles  *render.HandleIndex
	hist     *history.Log

	pendingKP   *pendingKeypoint
	pendingBB   *pendingBox
	pendingEd   *pendingEdit
	boxClicks   []geometry.Point
	boxMarkers  []string
	drawn       []string
	loadGen     uint64
	requests    chan LabelRequest
}

// New creates a Canvas wired to its collaborators.
func New(deps Deps) *Canvas {
	c := &Canvas{
		projectID: deps.ProjectID,
		gw:        deps.Gateway,
		store:     deps.Store,
		registry:  deps.Registry,
		renderer:  deps.Renderer,
		handles:   render.NewHandleIndex(),
		requests:  make(chan LabelRequest, 1),
	}
	c.hist = history.NewLog(c, c.validateAction)
	return c
}

// LabelRequests delivers the label prompts raised by clicks. The channel is
// buffered for one request; the UI is expected to drain it before the next
// click, matching the modal prompt flow.
func (c *Canvas) LabelRequests() <-chan LabelRequest {
	return c.requests
}

// SelectTool switches the active tool.
func (c *Canvas) SelectTool(t Tool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tool = t
}

// Tool returns the active tool.
func (c *Canvas) Tool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tool
}

// CurrentImage returns the canonical key of the image being annotated.
func (c *Canvas) CurrentImage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageKey
}

// HandleFor returns the visual handle currently drawn for an annotation id.
func (c *Canvas) HandleFor(annotationID string) (string, bool) {
	return c.handles.HandleFor(annotationID)
}

// HasPending reports whether a pending creation or edit is active.
func (c *Canvas) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *Canvas) pendingLocked() bool {
	return c.pendingKP != nil || c.pendingBB != nil || c.pendingEd != nil
}

func (c *Canvas) emit(req LabelRequest) {
	select {
	case c.requests <- req:
	default:
		log.Printf("canvas: label request dropped, previous prompt not resolved")
	}
}

// Click handles a canvas click that did not land on an existing annotation.
func (c *Canvas) Click(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingLocked() {
		log.Printf("canvas: click ignored, a label prompt is pending")
		return
	}

	p := geometry.Point{X: x, Y: y}
	switch c.tool {
	case ToolKeypoint:
		handle := c.renderer.DrawPendingMarker(p)
		c.pendingKP = &pendingKeypoint{pos: p, handle: handle}
		c.emit(LabelRequest{Kind: domain.KindKeypoint, Mode: RequestCreate, Position: p})

	case ToolBoundingBox:
		c.boxClicks = append(c.boxClicks, p)
		c.boxMarkers = append(c.boxMarkers, c.renderer.DrawPendingMarker(p))
		if len(c.boxClicks) < 2 {
			return
		}

		rect := geometry.RectangleFromTwoCorners(c.boxClicks[0], c.boxClicks[1])
		for _, m := range c.boxMarkers {
			c.renderer.Remove(m)
		}
		c.boxClicks = nil
		c.boxMarkers = nil

		handle := c.renderer.DrawPendingPolygon(rect)
		c.pendingBB = &pendingBox{points: rect, handle: handle}
		c.emit(LabelRequest{
			Kind:     domain.KindBoundingBox,
			Mode:     RequestCreate,
			Position: geometry.Centroid(rect[:]),
		})

	default:
		log.Printf("canvas: click ignored, no tool selected")
	}
}

// ClickAnnotation handles a click that hit an existing annotation's visual.
// It takes precedence over the active tool and opens the rename flow. The
// handle index supplies the back-reference; if that is missing the renderer
// is asked to classify the visual and the record is located by geometry.
func (c *Canvas) ClickAnnotation(handle string, x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingLocked() {
		log.Printf("canvas: annotation click ignored, a label prompt is pending")
		return
	}

	ref, ok := c.handles.Get(handle)
	if !ok {
		ref, ok = c.classifyFallback(handle, geometry.Point{X: x, Y: y})
		if !ok {
			log.Printf("canvas: no annotation found for visual %s", handle)
			return
		}
	}

	currentLabel := c.currentLabelLocked(ref)
	c.pendingEd = &pendingEdit{annotationID: ref.AnnotationID, kind: ref.Kind, handle: handle}
	c.emit(LabelRequest{
		Kind:         ref.Kind,
		Mode:         RequestEdit,
		Position:     geometry.Point{X: x, Y: y},
		CurrentLabel: currentLabel,
	})
}

// classifyFallback recovers a back-reference for a visual the index does not
// know: the renderer classifies the visual's kind, then the record is found
// by matching the click position against the store.
func (c *Canvas) classifyFallback(handle string, p geometry.Point) (render.Ref, bool) {
	cl, ok := c.renderer.(render.Classifier)
	if !ok {
		return render.Ref{}, false
	}
	kind, ok := cl.Classify(handle)
	if !ok {
		return render.Ref{}, false
	}

	col := c.store.Get(c.imageKey)
	switch kind {
	case domain.KindBoundingBox:
		for _, bb := range col.BoundingBoxes {
			if p.X >= bb.Points[0].X && p.X <= bb.Points[2].X &&
				p.Y >= bb.Points[0].Y && p.Y <= bb.Points[2].Y {
				return render.Ref{AnnotationID: bb.ID, Kind: kind}, true
			}
		}
	default:
		for _, kp := range col.Keypoints {
			if kp.Position == p {
				return render.Ref{AnnotationID: kp.ID, Kind: kind}, true
			}
		}
	}
	return render.Ref{}, false
}

func (c *Canvas) currentLabelLocked(ref render.Ref) string {
	var labelID string
	switch ref.Kind {
	case domain.KindKeypoint:
		if kp, ok := c.store.FindKeypoint(c.imageKey, ref.AnnotationID); ok {
			labelID = kp.LabelID
		}
	case domain.KindBoundingBox:
		if bb, ok := c.store.FindBoundingBox(c.imageKey, ref.AnnotationID); ok {
			labelID = bb.LabelID
		}
	}
	name, _ := c.registry.Name(ref.Kind, labelID)
	return name
}

// Undo replays the inverse of the most recent action.
func (c *Canvas) Undo(ctx context.Context) error {
	return c.hist.Undo(ctx)
}

// Redo re-applies the most recently undone action.
func (c *Canvas) Redo(ctx context.Context) error {
	return c.hist.Redo(ctx)
}

// CanUndo reports whether there is anything to undo.
func (c *Canvas) CanUndo() bool { return c.hist.CanUndo() }

// CanRedo reports whether there is anything to redo.
func (c *Canvas) CanRedo() bool { return c.hist.CanRedo() }
