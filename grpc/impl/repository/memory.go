package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagenote-project/pagenote/pkg/annotation"
)

// Memory is an in-process Repository for local development and tests.
type Memory struct {
	mu          sync.Mutex
	now         func() time.Time
	documents   map[string]annotation.Document
	annotations map[string]annotation.Annotation
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		now:         now,
		documents:   map[string]annotation.Document{},
		annotations: map[string]annotation.Annotation{},
	}
}

// PutDocument registers or replaces a document.
func (m *Memory) PutDocument(document annotation.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if document.CreatedAt.IsZero() {
		document.CreatedAt = m.now()
	}
	m.documents[document.ID] = document
}

func (m *Memory) GetDocument(_ context.Context, id string) (annotation.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	document, ok := m.documents[id]
	if !ok {
		return annotation.Document{}, ErrNotFound
	}
	return document, nil
}

func (m *Memory) ListAnnotations(_ context.Context, documentID string) ([]annotation.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []annotation.Annotation{}
	for _, a := range m.annotations {
		if a.DocumentID == documentID {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) GetAnnotation(_ context.Context, id string) (annotation.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.annotations[id]
	if !ok {
		return annotation.Annotation{}, ErrNotFound
	}
	return a, nil
}

func (m *Memory) CreateAnnotation(_ context.Context, a annotation.Annotation) (annotation.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.annotations[a.ID] = a
	return a, nil
}

func (m *Memory) UpdateAnnotation(_ context.Context, id string, request annotation.UpdateRequest) (annotation.Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.annotations[id]
	if !ok {
		return annotation.Annotation{}, ErrNotFound
	}
	a = request.Apply(a)
	a.UpdatedAt = m.now()
	m.annotations[id] = a
	return a, nil
}

func (m *Memory) DeleteAnnotation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.annotations[id]; !ok {
		return ErrNotFound
	}
	delete(m.annotations, id)
	return nil
}
