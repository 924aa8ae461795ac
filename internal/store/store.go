package store

import (
	"sync"

	"github.com/maxcraig112/FIT3162-Canary-sub000/internal/domain"
)

// Collection groups every committed annotation for a single image.
type Collection struct {
	Keypoints     []domain.Keypoint
	BoundingBoxes []domain.BoundingBox
}

// Store is the in-memory source of truth for committed annotations, keyed by
// canonical image key (backend image id or URL). Collections are created
// lazily and live for the page session; a session-driven refresh replaces a
// collection wholesale while tool-driven edits mutate single records. Both
// paths serialize on the same mutex, so the last write wins.
type Store struct {
	mu      sync.Mutex
	byImage map[string]*Collection
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{byImage: make(map[string]*Collection)}
}

// Get returns a copy of the collection for an image, or an empty collection
// if the image has never been populated.
func (s *Store) Get(imageKey string) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byImage[imageKey]
	if !ok {
		return Collection{}
	}
	out := Collection{
		Keypoints:     make([]domain.Keypoint, len(c.Keypoints)),
		BoundingBoxes: make([]domain.BoundingBox, len(c.BoundingBoxes)),
	}
	copy(out.Keypoints, c.Keypoints)
	copy(out.BoundingBoxes, c.BoundingBoxes)
	return out
}

// ReplaceAll swaps the whole collection for an image. Used by session-driven
// refreshes.
func (s *Store) ReplaceAll(imageKey string, c Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byImage[imageKey] = &Collection{
		Keypoints:     append([]domain.Keypoint(nil), c.Keypoints...),
		BoundingBoxes: append([]domain.BoundingBox(nil), c.BoundingBoxes...),
	}
}

func (s *Store) collection(imageKey string) *Collection {
	c, ok := s.byImage[imageKey]
	if !ok {
		c = &Collection{}
		s.byImage[imageKey] = c
	}
	return c
}

// AddKeypoint appends a committed keypoint to an image's collection.
func (s *Store) AddKeypoint(imageKey string, kp domain.Keypoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(imageKey)
	c.Keypoints = append(c.Keypoints, kp)
}

// AddBoundingBox appends a committed bounding box to an image's collection.
func (s *Store) AddBoundingBox(imageKey string, bb domain.BoundingBox) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(imageKey)
	c.BoundingBoxes = append(c.BoundingBoxes, bb)
}

// RemoveKeypoint deletes a keypoint by id. Returns false if no such record
// exists (e.g. already removed by a session refresh).
func (s *Store) RemoveKeypoint(imageKey, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byImage[imageKey]
	if !ok {
		return false
	}
	for i := range c.Keypoints {
		if c.Keypoints[i].ID == id {
			c.Keypoints = append(c.Keypoints[:i], c.Keypoints[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveBoundingBox deletes a bounding box by id.
func (s *Store) RemoveBoundingBox(imageKey, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byImage[imageKey]
	if !ok {
		return false
	}
	for i := range c.BoundingBoxes {
		if c.BoundingBoxes[i].ID == id {
			c.BoundingBoxes = append(c.BoundingBoxes[:i], c.BoundingBoxes[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateKeypointLabel rewrites the label of a keypoint in place.
func (s *Store) UpdateKeypointLabel(imageKey, id, labelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byImage[imageKey]
	if !ok {
		return false
	}
	for i := range c.Keypoints {
		if c.Keypoints[i].ID == id {
			c.Keypoints[i].LabelID = labelID
			return true
		}
	}
	return false
}

// UpdateBoundingBoxLabel rewrites the label of a bounding box in place.
func (s *Store) UpdateBoundingBoxLabel(imageKey, id, labelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byImage[imageKey]
	if !ok {
		return false
	}
	for i := range c.BoundingBoxes {
		if c.BoundingBoxes[i].ID == id {
			c.BoundingBoxes[i].LabelID = labelID
			return true
		}
	}
	return false
}

// FindKeypoint looks up a keypoint by id.
func (s *Store) FindKeypoint(imageKey, id string) (domain.Keypoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byImage[imageKey]
	if !ok {
		return domain.Keypoint{}, false
	}
	for _, kp := range c.Keypoints {
		if kp.ID == id {
			return kp, true
		}
	}
	return domain.Keypoint{}, false
}

// FindBoundingBox looks up a bounding box by id.
func (s *Store) FindBoundingBox(imageKey, id string) (domain.BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byImage[imageKey]
	if !ok {
		return domain.BoundingBox{}, false
	}
	for _, bb := range c.BoundingBoxes {
		if bb.ID == id {
			return bb, true
		}
	}
	return domain.BoundingBox{}, false
}
