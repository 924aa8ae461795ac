package render

import (
	"sync"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

// Ref is the non-owning back-reference from a visual handle to the
// annotation it represents. The store remains the sole owner of annotation
// lifetime; a Ref only carries enough to find the record again.
type Ref struct {
	AnnotationID string
	Kind         domain.Kind
}

// HandleIndex maps visual handles to annotation back-references for
// hit-testing. Entries are purged when the visual is removed.
type HandleIndex struct {
	mu       sync.RWMutex
	byHandle map[string]Ref
}

// NewHandleIndex creates an empty HandleIndex.
func NewHandleIndex() *HandleIndex {
	return &HandleIndex{byHandle: make(map[string]Ref)}
}

// Put registers the back-reference for a handle.
func (h *HandleIndex) Put(handle string, ref Ref) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byHandle[handle] = ref
}

// Get looks up the back-reference for a handle.
func (h *HandleIndex) Get(handle string) (Ref, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ref, ok := h.byHandle[handle]
	return ref, ok
}

// Delete purges the back-reference for a removed visual.
func (h *HandleIndex) Delete(handle string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byHandle, handle)
}

// HandleFor finds the handle currently mapped to an annotation id, for
// removing or relabeling its visual.
func (h *HandleIndex) HandleFor(annotationID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for handle, ref := range h.byHandle {
		if ref.AnnotationID == annotationID {
			return handle, true
		}
	}
	return "", false
}
