package history

import (
	"context"
	"log"
	"sync"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

// Op tags what a recorded action originally did.
type Op int

const (
	OpAdd Op = iota
	OpEdit
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpEdit:
		return "edit"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Effect is the concrete operation a replay is about to apply, passed to the
// validation predicate so it can check the precondition that matters:
// restoring needs the annotation absent, discarding and relabeling need it
// present.
type Effect int

const (
	EffectRestore Effect = iota
	EffectDiscard
	EffectRelabel
)

// Action is one recorded user action. Exactly one of Keypoint/Box is
// meaningful, selected by Kind. For OpEdit, BeforeLabelID/AfterLabelID hold
// the label ids around the rename.
type Action struct {
	Op            Op
	Kind          domain.Kind
	Keypoint      domain.Keypoint
	Box           domain.BoundingBox
	BeforeLabelID string
	AfterLabelID  string
	Handle        string
}

// AnnotationID returns the backend id of the annotation the action refers to.
func (a Action) AnnotationID() string {
	if a.Kind == domain.KindKeypoint {
		return a.Keypoint.ID
	}
	return a.Box.ID
}

// Applier replays actions against the backend, the annotation store and the
// rendering layer. The log itself never touches those directly.
type Applier interface {
	// Restore re-creates an annotation (inverse of a delete, redo of an add)
	Restore(ctx context.Context, a Action) error

	// Discard removes an annotation (inverse of an add, redo of a delete)
	Discard(ctx context.Context, a Action) error

	// Relabel renames an annotation to the given label id
	Relabel(ctx context.Context, a Action, labelID string) error
}

// Log is the two-stack undo/redo history. Pushing any new action clears the
// redo stack. Replays pop first, validate second and apply third; a failed
// validation drops the action without touching the other stack, so the
// stacks never hold a popped-but-unapplied entry. A replay already in
// flight causes further Undo/Redo calls to be ignored.
type Log struct {
	mu       sync.Mutex
	undo     []Action
	redo     []Action
	applier  Applier
	validate func(Action, Effect) bool
	inFlight bool
}

// NewLog creates a Log. validate may be nil, in which case every action is
// considered applicable.
func NewLog(applier Applier, validate func(Action, Effect) bool) *Log {
	return &Log{applier: applier, validate: validate}
}

// Push records a new user action and clears the redo stack.
func (l *Log) Push(a Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.undo = append(l.undo, a)
	l.redo = nil
}

// PushAdd records an annotation creation.
func (l *Log) PushAdd(kind domain.Kind, kp domain.Keypoint, bb domain.BoundingBox, handle string) {
	l.Push(Action{Op: OpAdd, Kind: kind, Keypoint: kp, Box: bb, Handle: handle})
}

// PushEdit records a rename.
func (l *Log) PushEdit(kind domain.Kind, kp domain.Keypoint, bb domain.BoundingBox, before, after, handle string) {
	l.Push(Action{Op: OpEdit, Kind: kind, Keypoint: kp, Box: bb, BeforeLabelID: before, AfterLabelID: after, Handle: handle})
}

// PushDelete records a deletion.
func (l *Log) PushDelete(kind domain.Kind, kp domain.Keypoint, bb domain.BoundingBox, handle string) {
	l.Push(Action{Op: OpDelete, Kind: kind, Keypoint: kp, Box: bb, Handle: handle})
}

// CanUndo reports whether the undo stack is non-empty.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.undo) > 0
}

// CanRedo reports whether the redo stack is non-empty.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.redo) > 0
}

// Undo replays the inverse of the most recent action and moves it to the
// redo stack. An empty stack or an in-flight replay makes this a no-op.
func (l *Log) Undo(ctx context.Context) error {
	return l.replay(ctx, true)
}

// Redo re-applies the most recently undone action and moves it back to the
// undo stack.
func (l *Log) Redo(ctx context.Context) error {
	return l.replay(ctx, false)
}

func (l *Log) replay(ctx context.Context, isUndo bool) error {
	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		log.Printf("history: replay ignored, another undo/redo is in flight")
		return nil
	}

	src := &l.undo
	dst := &l.redo
	if !isUndo {
		src, dst = dst, src
	}
	if len(*src) == 0 {
		l.mu.Unlock()
		return nil
	}

	a := (*src)[len(*src)-1]
	*src = (*src)[:len(*src)-1]

	effect, labelID := a.effect(isUndo)
	if l.validate != nil && !l.validate(a, effect) {
		// Stale action, e.g. the annotation was deleted remotely. Drop it.
		l.mu.Unlock()
		log.Printf("history: dropping stale %s action for %s %s", a.Op, a.Kind, a.AnnotationID())
		return nil
	}

	l.inFlight = true
	l.mu.Unlock()

	err := l.apply(ctx, a, effect, labelID)

	l.mu.Lock()
	l.inFlight = false
	if err == nil {
		*dst = append(*dst, a)
	}
	l.mu.Unlock()

	if err != nil {
		log.Printf("history: %s replay failed for %s %s: %v", a.Op, a.Kind, a.AnnotationID(), err)
	}
	return err
}

// effect resolves which operation replaying the action means in the given
// direction: Add and Delete are each other's inverse, Edit inverts by
// swapping before and after.
func (a Action) effect(isUndo bool) (Effect, string) {
	switch a.Op {
	case OpAdd:
		if isUndo {
			return EffectDiscard, ""
		}
		return EffectRestore, ""
	case OpDelete:
		if isUndo {
			return EffectRestore, ""
		}
		return EffectDiscard, ""
	default: // OpEdit
		if isUndo {
			return EffectRelabel, a.BeforeLabelID
		}
		return EffectRelabel, a.AfterLabelID
	}
}

func (l *Log) apply(ctx context.Context, a Action, effect Effect, labelID string) error {
	switch effect {
	case EffectRestore:
		return l.applier.Restore(ctx, a)
	case EffectDiscard:
		return l.applier.Discard(ctx, a)
	default:
		return l.applier.Relabel(ctx, a, labelID)
	}
}
