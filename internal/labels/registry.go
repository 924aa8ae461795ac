package labels

import (
	"sort"
	"sync"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

// Registry holds the bidirectional id<->name label maps for the active
// project, one pair per annotation kind. Maps are swapped wholesale on every
// project label fetch so that labels removed on the backend stop resolving
// immediately; merging stale entries in is never correct here.
type Registry struct {
	mu       sync.RWMutex
	idToName map[domain.Kind]map[string]string
	nameToID map[domain.Kind]map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.resetLocked()
	return r
}

func (r *Registry) resetLocked() {
	r.idToName = map[domain.Kind]map[string]string{
		domain.KindKeypoint:    {},
		domain.KindBoundingBox: {},
	}
	r.nameToID = map[domain.Kind]map[string]string{
		domain.KindKeypoint:    {},
		domain.KindBoundingBox: {},
	}
}

// Replace atomically swaps the label maps for one kind with the given set.
func (r *Registry) Replace(kind domain.Kind, labels []domain.Label) {
	idToName := make(map[string]string, len(labels))
	nameToID := make(map[string]string, len(labels))
	for _, l := range labels {
		idToName[l.ID] = l.Name
		nameToID[l.Name] = l.ID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.idToName[kind] = idToName
	r.nameToID[kind] = nameToID
}

// Reset clears both kinds. Called on project or session change before the
// new project's labels are fetched.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// Name resolves a label id to its display name.
func (r *Registry) Name(kind domain.Kind, id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.idToName[kind][id]
	return name, ok
}

// ID resolves a label name to its id.
func (r *Registry) ID(kind domain.Kind, name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.nameToID[kind][name]
	return id, ok
}

// Names returns the sorted label names for one kind, for prompt listings.
func (r *Registry) Names(kind domain.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.nameToID[kind]))
	for name := range r.nameToID[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns how many labels are registered for one kind.
func (r *Registry) Len(kind domain.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.idToName[kind])
}
