package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/render"
)

// textRenderer narrates draw operations to the terminal. It is the CLI's
// stand-in for a graphical canvas layer: handles are minted the same way
// and the back-reference rules are identical, the output just goes to text.
type textRenderer struct {
	out io.Writer

	mu      sync.Mutex
	visuals map[string]domain.Kind
}

func newTextRenderer(out io.Writer) *textRenderer {
	return &textRenderer{out: out, visuals: make(map[string]domain.Kind)}
}

func (r *textRenderer) mint(kind domain.Kind) string {
	handle := uuid.NewString()
	r.mu.Lock()
	r.visuals[handle] = kind
	r.mu.Unlock()
	return handle
}

func (r *textRenderer) DrawKeypoint(kp domain.Keypoint, labelName string) string {
	handle := r.mint(domain.KindKeypoint)
	fmt.Fprintf(r.out, "  * keypoint %s %q at (%g, %g)\n", kp.ID, labelName, kp.Position.X, kp.Position.Y)
	return handle
}

func (r *textRenderer) DrawBoundingBox(bb domain.BoundingBox, labelName string) string {
	handle := r.mint(domain.KindBoundingBox)
	fmt.Fprintf(r.out, "  * box %s %q from (%g, %g) to (%g, %g)\n",
		bb.ID, labelName, bb.Points[0].X, bb.Points[0].Y, bb.Points[2].X, bb.Points[2].Y)
	return handle
}

func (r *textRenderer) DrawPendingMarker(p geometry.Point) string {
	handle := r.mint(domain.KindKeypoint)
	fmt.Fprintf(r.out, "  * pending marker at (%g, %g)\n", p.X, p.Y)
	return handle
}

func (r *textRenderer) DrawPendingPolygon(points [4]geometry.Point) string {
	handle := r.mint(domain.KindBoundingBox)
	fmt.Fprintf(r.out, "  * pending box from (%g, %g) to (%g, %g)\n",
		points[0].X, points[0].Y, points[2].X, points[2].Y)
	return handle
}

func (r *textRenderer) SetLabel(handle, labelName string) {
	fmt.Fprintf(r.out, "  * relabeled to %q\n", labelName)
}

func (r *textRenderer) Remove(handle string) {
	r.mu.Lock()
	delete(r.visuals, handle)
	r.mu.Unlock()
}

func (r *textRenderer) Classify(handle string) (domain.Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kind, ok := r.visuals[handle]
	return kind, ok
}

var _ render.Renderer = (*textRenderer)(nil)
var _ render.Classifier = (*textRenderer)(nil)
