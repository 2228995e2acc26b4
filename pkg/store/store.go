package store

import (
	"context"
	"sync"

	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/utils"
)

// Persistence is the remote annotation table.
type Persistence interface {
	List(ctx context.Context, documentID string) ([]annotation.Annotation, error)
	Create(ctx context.Context, request annotation.CreateRequest) (annotation.Annotation, error)
	Update(ctx context.Context, id string, request annotation.UpdateRequest) (annotation.Annotation, error)
	Delete(ctx context.Context, id string) error
}

// Store mirrors the persisted annotations of one document. Local state only
// changes after the persistence layer confirms an operation; concurrent
// operations are not serialized and the last response wins.
type Store struct {
	persistence Persistence
	documentID  string

	mu          sync.Mutex
	annotations []annotation.Annotation
	activeID    string
	listeners   []func([]annotation.Annotation)
}

func New(persistence Persistence, documentID string) *Store {
	return &Store{
		persistence: persistence,
		documentID:  documentID,
		annotations: []annotation.Annotation{},
	}
}

func (s *Store) DocumentID() string {
	return s.documentID
}

// Subscribe registers fn to be called with a snapshot after every confirmed change.
func (s *Store) Subscribe(fn func([]annotation.Annotation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Load replaces local state with the server's list, ordered by creation time.
// On failure the previous list is kept.
func (s *Store) Load(ctx context.Context) ([]annotation.Annotation, error) {
	annotations, err := s.persistence.List(ctx, s.documentID)
	if err != nil {
		return nil, err
	}
	s.mutate(func() {
		s.annotations = append([]annotation.Annotation{}, annotations...)
		if _, ok := s.findLocked(s.activeID); !ok {
			s.activeID = ""
		}
	})
	return s.Annotations(), nil
}

// Create validates the request locally before sending it and appends the
// server's record on success.
func (s *Store) Create(ctx context.Context, request annotation.CreateRequest) (annotation.Annotation, error) {
	if request.DocumentID == "" {
		request.DocumentID = s.documentID
	}
	request = request.Normalized()
	if err := request.Validate(); err != nil {
		return annotation.Annotation{}, err
	}

	created, err := s.persistence.Create(ctx, request)
	if err != nil {
		return annotation.Annotation{}, err
	}
	if created.DocumentID == s.documentID {
		s.mutate(func() {
			s.annotations = append(s.annotations, created)
		})
	}
	return created, nil
}

// Update changes the comment or priority of an annotation. Ownership is
// enforced by the persistence layer.
func (s *Store) Update(ctx context.Context, id string, request annotation.UpdateRequest) (annotation.Annotation, error) {
	request = request.Normalized()
	if err := request.Validate(); err != nil {
		return annotation.Annotation{}, err
	}

	updated, err := s.persistence.Update(ctx, id, request)
	if err != nil {
		return annotation.Annotation{}, err
	}
	s.mutate(func() {
		if i := s.indexLocked(id); i >= 0 {
			s.annotations[i] = updated
		}
	})
	return updated, nil
}

// Delete removes an annotation and clears it as the active one.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.persistence.Delete(ctx, id); err != nil {
		return err
	}
	s.mutate(func() {
		if i := s.indexLocked(id); i >= 0 {
			s.annotations = append(s.annotations[:i:i], s.annotations[i+1:]...)
		}
		if s.activeID == id {
			s.activeID = ""
		}
	})
	return nil
}

// Annotations returns a copy of the local list.
func (s *Store) Annotations() []annotation.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]annotation.Annotation{}, s.annotations...)
}

// ByPage returns the annotations anchored to page.
func (s *Store) ByPage(page int) []annotation.Annotation {
	return utils.Filter(s.Annotations(), func(a annotation.Annotation) bool {
		return a.OnPage(page)
	})
}

func (s *Store) Get(id string) (annotation.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

// SetActive selects an annotation, or clears the selection when id is empty
// or unknown.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findLocked(id); !ok {
		id = ""
	}
	s.activeID = id
}

func (s *Store) Active() (annotation.Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(s.activeID)
}

func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Store) findLocked(id string) (annotation.Annotation, bool) {
	if id == "" {
		return annotation.Annotation{}, false
	}
	return utils.Find(s.annotations, func(a annotation.Annotation) bool {
		return a.ID == id
	})
}

func (s *Store) indexLocked(id string) int {
	return utils.IndexOf(s.annotations, func(a annotation.Annotation) bool {
		return a.ID == id
	})
}

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	snapshot := append([]annotation.Annotation{}, s.annotations...)
	listeners := append([]func([]annotation.Annotation){}, s.listeners...)
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}
