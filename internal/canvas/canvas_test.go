package canvas

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/geometry"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/labels"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/render"
	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/store"
)

// fakeGateway is an in-memory backend. Create honors a pre-set id so the
// restore path round-trips, like the real backend does.
type fakeGateway struct {
	mu         sync.Mutex
	nextID     int
	kps        map[string]domain.Keypoint
	boxes      map[string]domain.BoundingBox
	failCreate bool
	deletes    int
	renames    int
	listGate   func(imageID string)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		kps:   make(map[string]domain.Keypoint),
		boxes: make(map[string]domain.BoundingBox),
	}
}

func (f *fakeGateway) CreateKeypoint(_ context.Context, kp domain.Keypoint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", errors.New("create rejected")
	}
	if kp.ID == "" {
		f.nextID++
		kp.ID = fmt.Sprintf("kp-%d", f.nextID)
	}
	f.kps[kp.ID] = kp
	return kp.ID, nil
}

func (f *fakeGateway) CreateBoundingBox(_ context.Context, bb domain.BoundingBox) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", errors.New("create rejected")
	}
	if bb.ID == "" {
		f.nextID++
		bb.ID = fmt.Sprintf("bb-%d", f.nextID)
	}
	f.boxes[bb.ID] = bb
	return bb.ID, nil
}

func (f *fakeGateway) RenameKeypoint(_ context.Context, id, labelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renames++
	kp, ok := f.kps[id]
	if !ok {
		return errors.New("no such keypoint")
	}
	kp.LabelID = labelID
	f.kps[id] = kp
	return nil
}

func (f *fakeGateway) RenameBoundingBox(_ context.Context, id, labelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renames++
	bb, ok := f.boxes[id]
	if !ok {
		return errors.New("no such bounding box")
	}
	bb.LabelID = labelID
	f.boxes[id] = bb
	return nil
}

func (f *fakeGateway) DeleteKeypoint(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.kps, id)
	return nil
}

func (f *fakeGateway) DeleteBoundingBox(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.boxes, id)
	return nil
}

func (f *fakeGateway) ListKeypoints(_ context.Context, _, imageID string) ([]domain.Keypoint, error) {
	if f.listGate != nil {
		f.listGate(imageID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Keypoint
	for _, kp := range f.kps {
		if kp.ImageID == imageID {
			out = append(out, kp)
		}
	}
	return out, nil
}

func (f *fakeGateway) ListBoundingBoxes(_ context.Context, _, imageID string) ([]domain.BoundingBox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BoundingBox
	for _, bb := range f.boxes {
		if bb.ImageID == imageID {
			out = append(out, bb)
		}
	}
	return out, nil
}

type fixture struct {
	canvas   *Canvas
	gw       *fakeGateway
	store    *store.Store
	registry *labels.Registry
	recorder *render.Recorder
}

func setup(t *testing.T) *fixture {
	t.Helper()

	gw := newFakeGateway()
	st := store.NewStore()
	reg := labels.NewRegistry()
	reg.Replace(domain.KindKeypoint, []domain.Label{
		{ID: "1", Name: "beak"},
		{ID: "2", Name: "tail"},
	})
	reg.Replace(domain.KindBoundingBox, []domain.Label{
		{ID: "10", Name: "bird"},
		{ID: "11", Name: "nest"},
	})
	rec := render.NewRecorder()

	c := New(Deps{
		ProjectID: "p1",
		Gateway:   gw,
		Store:     st,
		Registry:  reg,
		Renderer:  rec,
	})
	require.NoError(t, c.LoadImage(context.Background(), "img1"))
	return &fixture{canvas: c, gw: gw, store: st, registry: reg, recorder: rec}
}

func drainRequest(t *testing.T, c *Canvas) LabelRequest {
	t.Helper()
	select {
	case req := <-c.LabelRequests():
		return req
	default:
		t.Fatal("expected a label request")
		return LabelRequest{}
	}
}

func TestKeypointCreateConfirmUndoRedo(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolKeypoint)
	c.Click(100, 50)

	req := drainRequest(t, c)
	assert.Equal(t, domain.KindKeypoint, req.Kind)
	assert.Equal(t, RequestCreate, req.Mode)
	assert.Equal(t, geometry.Point{X: 100, Y: 50}, req.Position)
	assert.Equal(t, 1, f.recorder.Count(true), "optimistic unlabeled marker drawn")
	assert.Empty(t, f.store.Get("img1").Keypoints, "pending annotations never enter the store")

	require.NoError(t, c.ConfirmLabel(ctx, "beak"))

	col := f.store.Get("img1")
	require.Len(t, col.Keypoints, 1)
	kp := col.Keypoints[0]
	assert.NotEmpty(t, kp.ID)
	assert.Equal(t, geometry.Point{X: 100, Y: 50}, kp.Position)
	name, ok := f.registry.Name(domain.KindKeypoint, kp.LabelID)
	require.True(t, ok)
	assert.Equal(t, "beak", name)
	assert.Equal(t, 0, f.recorder.Count(true), "marker replaced by committed visual")
	assert.False(t, c.HasPending())

	require.NoError(t, c.Undo(ctx))
	assert.Empty(t, f.store.Get("img1").Keypoints)
	assert.Equal(t, 0, f.recorder.Count(false))

	require.NoError(t, c.Redo(ctx))
	col = f.store.Get("img1")
	require.Len(t, col.Keypoints, 1)
	assert.Equal(t, kp.ID, col.Keypoints[0].ID, "redo restores the same backend id")
	assert.Equal(t, kp.Position, col.Keypoints[0].Position)
}

func TestBoundingBoxTwoClicksThenCancel(t *testing.T) {
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolBoundingBox)
	c.Click(10, 10)
	assert.False(t, c.HasPending(), "rectangle is not pending until the second corner")
	assert.Equal(t, 1, f.recorder.Count(true), "first corner marker drawn")

	c.Click(50, 40)
	req := drainRequest(t, c)
	assert.Equal(t, domain.KindBoundingBox, req.Kind)
	assert.Equal(t, geometry.Point{X: 30, Y: 25}, req.Position, "prompt at polygon centroid")

	require.True(t, c.HasPending())
	assert.Equal(t, 1, f.recorder.Count(true), "corner markers replaced by one polygon")

	c.CancelLabel()
	assert.False(t, c.HasPending())
	assert.Equal(t, 0, f.recorder.Count(false))
	assert.Empty(t, f.store.Get("img1").BoundingBoxes, "nothing persisted")
	assert.Empty(t, f.gw.boxes)
}

func TestBoundingBoxNormalizationFromAnyClickOrder(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolBoundingBox)
	// Bottom-right corner clicked first.
	c.Click(50, 40)
	c.Click(10, 10)
	drainRequest(t, c)

	require.NoError(t, c.ConfirmLabel(ctx, "bird"))

	col := f.store.Get("img1")
	require.Len(t, col.BoundingBoxes, 1)
	want := [4]geometry.Point{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 40}, {X: 10, Y: 40}}
	assert.Equal(t, want, col.BoundingBoxes[0].Points)
}

func TestClickGuardedWhilePending(t *testing.T) {
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolKeypoint)
	c.Click(1, 1)
	drainRequest(t, c)

	// A second click before the prompt resolves must not start anything.
	c.Click(2, 2)
	assert.Equal(t, 1, f.recorder.Count(true))
	select {
	case <-c.LabelRequests():
		t.Fatal("no second label request expected")
	default:
	}
}

func TestConfirmWithNoPendingIsNoOp(t *testing.T) {
	f := setup(t)
	assert.NoError(t, f.canvas.ConfirmLabel(context.Background(), "beak"))
	assert.Empty(t, f.store.Get("img1").Keypoints)
}

func TestUnknownLabelKeepsPending(t *testing.T) {
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolKeypoint)
	c.Click(5, 5)
	drainRequest(t, c)

	err := c.ConfirmLabel(context.Background(), "no-such-label")
	assert.Error(t, err)
	assert.True(t, c.HasPending(), "prompt can retry with a valid label")
}

func TestCreateFailureDiscardsPending(t *testing.T) {
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolKeypoint)
	c.Click(5, 5)
	drainRequest(t, c)

	f.gw.failCreate = true
	require.NoError(t, c.ConfirmLabel(context.Background(), "beak"))

	assert.False(t, c.HasPending())
	assert.Empty(t, f.store.Get("img1").Keypoints, "no record without a backend id")
	assert.Equal(t, 0, f.recorder.Count(false))
}

func createKeypoint(t *testing.T, f *fixture, x, y float64, label string) domain.Keypoint {
	t.Helper()
	f.canvas.SelectTool(ToolKeypoint)
	f.canvas.Click(x, y)
	drainRequest(t, f.canvas)
	require.NoError(t, f.canvas.ConfirmLabel(context.Background(), label))
	col := f.store.Get("img1")
	require.NotEmpty(t, col.Keypoints)
	return col.Keypoints[len(col.Keypoints)-1]
}

func TestEditRenameUndo(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	kp := createKeypoint(t, f, 100, 50, "beak")
	handle, ok := f.canvas.handles.HandleFor(kp.ID)
	require.True(t, ok)

	c.ClickAnnotation(handle, 100, 50)
	req := drainRequest(t, c)
	assert.Equal(t, RequestEdit, req.Mode)
	assert.Equal(t, "beak", req.CurrentLabel)

	require.NoError(t, c.ConfirmLabel(ctx, "tail"))
	got, _ := f.store.FindKeypoint("img1", kp.ID)
	assert.Equal(t, "2", got.LabelID)
	v, _ := f.recorder.Visual(handle)
	assert.Equal(t, "tail", v.Label)

	require.NoError(t, c.Undo(ctx))
	got, _ = f.store.FindKeypoint("img1", kp.ID)
	assert.Equal(t, "1", got.LabelID, "undo of an edit restores the previous label")

	require.NoError(t, c.Redo(ctx))
	got, _ = f.store.FindKeypoint("img1", kp.ID)
	assert.Equal(t, "2", got.LabelID)
}

func TestDeleteDuringEditAndUndo(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	kp := createKeypoint(t, f, 7, 8, "beak")
	handle, _ := f.canvas.handles.HandleFor(kp.ID)

	c.ClickAnnotation(handle, 7, 8)
	drainRequest(t, c)

	require.NoError(t, c.DeletePending(ctx))
	assert.False(t, c.HasPending())
	assert.Empty(t, f.store.Get("img1").Keypoints)
	assert.NotContains(t, f.gw.kps, kp.ID)
	assert.Equal(t, 0, f.recorder.Count(false))

	require.NoError(t, c.Undo(ctx))
	got, ok := f.store.FindKeypoint("img1", kp.ID)
	require.True(t, ok, "undo of a delete restores the annotation")
	assert.Equal(t, kp.Position, got.Position)
}

func TestDeleteUnavailableDuringCreate(t *testing.T) {
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolKeypoint)
	c.Click(5, 5)
	drainRequest(t, c)

	require.NoError(t, c.DeletePending(context.Background()))
	assert.True(t, c.HasPending(), "delete only applies to pending edits")
	assert.Equal(t, 1, f.recorder.Count(true))
}

func TestNewActionAfterUndoClearsRedo(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	createKeypoint(t, f, 1, 1, "beak")
	require.NoError(t, c.Undo(ctx))
	require.True(t, c.CanRedo())

	createKeypoint(t, f, 2, 2, "tail")
	assert.False(t, c.CanRedo())

	// Redo is a no-op now.
	require.NoError(t, c.Redo(ctx))
	assert.Len(t, f.store.Get("img1").Keypoints, 1)
}

func TestStaleUndoDroppedAfterRemoteDelete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	kp := createKeypoint(t, f, 3, 3, "beak")

	// The session peer deletes the annotation remotely.
	delete(f.gw.kps, kp.ID)
	require.NoError(t, c.Refresh(ctx))

	deletesBefore := f.gw.deletes
	require.NoError(t, c.Undo(ctx))
	assert.Equal(t, deletesBefore, f.gw.deletes, "stale action must not reach the backend")
	assert.False(t, c.CanUndo())
	assert.False(t, c.CanRedo())
}

func TestSessionRefreshPreservesPendingMarker(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	// A committed keypoint from earlier, plus one placed remotely.
	createKeypoint(t, f, 1, 1, "beak")
	_, err := f.gw.CreateKeypoint(ctx, domain.Keypoint{
		ProjectID: "p1", ImageID: "img1", LabelID: "2",
		Position: geometry.Point{X: 9, Y: 9},
	})
	require.NoError(t, err)

	// A keypoint placement is mid-flight when the snapshot arrives.
	c.SelectTool(ToolKeypoint)
	c.Click(100, 50)
	drainRequest(t, c)

	require.NoError(t, c.Refresh(ctx))

	assert.Len(t, f.store.Get("img1").Keypoints, 2, "persisted annotations overwritten from snapshot")
	assert.Equal(t, 1, f.recorder.Count(true), "in-progress marker untouched")
	assert.True(t, c.HasPending())

	// The pending placement still confirms normally afterwards.
	require.NoError(t, c.ConfirmLabel(ctx, "beak"))
	assert.Len(t, f.store.Get("img1").Keypoints, 3)
}

func TestStaleFetchDiscardedAfterNavigation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	_, err := f.gw.CreateKeypoint(ctx, domain.Keypoint{
		ProjectID: "p1", ImageID: "img1", LabelID: "1",
		Position: geometry.Point{X: 1, Y: 1},
	})
	require.NoError(t, err)
	_, err = f.gw.CreateKeypoint(ctx, domain.Keypoint{
		ProjectID: "p1", ImageID: "img2", LabelID: "2",
		Position: geometry.Point{X: 2, Y: 2},
	})
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	f.gw.listGate = func(imageID string) {
		if imageID == "img1" {
			close(started)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() { done <- c.LoadImage(ctx, "img1") }()
	<-started

	// Navigation moves on while img1's fetch is in flight.
	f.gw.listGate = nil
	require.NoError(t, c.LoadImage(ctx, "img2"))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "img2", c.CurrentImage())
	assert.Empty(t, f.store.Get("img1").Keypoints, "late response for img1 discarded")
	require.Len(t, f.store.Get("img2").Keypoints, 1)
	assert.Equal(t, 1, f.recorder.Count(false), "only img2's visuals drawn")
}

func TestClassifyFallbackFindsBoxByGeometry(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	c := f.canvas

	c.SelectTool(ToolBoundingBox)
	c.Click(10, 10)
	c.Click(50, 40)
	drainRequest(t, c)
	require.NoError(t, c.ConfirmLabel(ctx, "bird"))

	bb := f.store.Get("img1").BoundingBoxes[0]
	handle, _ := f.canvas.handles.HandleFor(bb.ID)

	// Simulate a lost back-reference; classification falls back to the
	// renderer plus geometry lookup.
	f.canvas.handles.Delete(handle)
	c.ClickAnnotation(handle, 30, 25)

	req := drainRequest(t, c)
	assert.Equal(t, RequestEdit, req.Mode)
	assert.Equal(t, domain.KindBoundingBox, req.Kind)
	assert.Equal(t, "bird", req.CurrentLabel)
}
