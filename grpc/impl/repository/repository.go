package repository

import (
	"context"
	"errors"

	"github.com/pagenote-project/pagenote/pkg/annotation"
)

var ErrNotFound = errors.New("not found")

// Repository stores documents and their annotations. List returns
// annotations ordered by creation time, oldest first.
type Repository interface {
	GetDocument(ctx context.Context, id string) (annotation.Document, error)
	ListAnnotations(ctx context.Context, documentID string) ([]annotation.Annotation, error)
	GetAnnotation(ctx context.Context, id string) (annotation.Annotation, error)
	// Assigns the id and both timestamps.
	CreateAnnotation(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error)
	// Applies request and refreshes updatedAt.
	UpdateAnnotation(ctx context.Context, id string, request annotation.UpdateRequest) (annotation.Annotation, error)
	DeleteAnnotation(ctx context.Context, id string) error
}
