package render

import (
	"sync"

	"github.com/google/uuid"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
)

// Visual is one drawn object as seen by the Recorder.
type Visual struct {
	Handle  string
	Kind    domain.Kind
	Pending bool
	Label   string
	Points  []geometry.Point
}

// Recorder is a Renderer that keeps every drawn visual in memory. It backs
// the canvas tests and any headless caller that wants to inspect what would
// be on screen. Handles are minted as UUIDs, like a real canvas layer would
// assign object ids.
type Recorder struct {
	mu      sync.Mutex
	visuals map[string]*Visual
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{visuals: make(map[string]*Visual)}
}

func (r *Recorder) add(v *Visual) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.Handle = uuid.NewString()
	r.visuals[v.Handle] = v
	return v.Handle
}

func (r *Recorder) DrawKeypoint(kp domain.Keypoint, labelName string) string {
	return r.add(&Visual{
		Kind:   domain.KindKeypoint,
		Label:  labelName,
		Points: []geometry.Point{kp.Position},
	})
}

func (r *Recorder) DrawBoundingBox(bb domain.BoundingBox, labelName string) string {
	return r.add(&Visual{
		Kind:   domain.KindBoundingBox,
		Label:  labelName,
		Points: append([]geometry.Point(nil), bb.Points[:]...),
	})
}

func (r *Recorder) DrawPendingMarker(p geometry.Point) string {
	return r.add(&Visual{
		Kind:    domain.KindKeypoint,
		Pending: true,
		Points:  []geometry.Point{p},
	})
}

func (r *Recorder) DrawPendingPolygon(points [4]geometry.Point) string {
	return r.add(&Visual{
		Kind:    domain.KindBoundingBox,
		Pending: true,
		Points:  append([]geometry.Point(nil), points[:]...),
	})
}

func (r *Recorder) SetLabel(handle, labelName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.visuals[handle]; ok {
		v.Label = labelName
	}
}

func (r *Recorder) Remove(handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.visuals, handle)
}

// Classify reports the kind of a drawn visual, mirroring the polygon-child
// fallback a canvas layer offers when a back-reference is missing.
func (r *Recorder) Classify(handle string) (domain.Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visuals[handle]
	if !ok {
		return 0, false
	}
	return v.Kind, true
}

// Visual returns a copy of one drawn visual.
func (r *Recorder) Visual(handle string) (Visual, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visuals[handle]
	if !ok {
		return Visual{}, false
	}
	return *v, true
}

// Count returns how many visuals are currently drawn, optionally counting
// only pending ones.
func (r *Recorder) Count(pendingOnly bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !pendingOnly {
		return len(r.visuals)
	}
	n := 0
	for _, v := range r.visuals {
		if v.Pending {
			n++
		}
	}
	return n
}

var _ Renderer = (*Recorder)(nil)
var _ Classifier = (*Recorder)(nil)
