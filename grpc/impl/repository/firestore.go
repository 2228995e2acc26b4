package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pagenote-project/pagenote/pkg/annotation"
)

const (
	documentsCollection   = "documents"
	annotationsCollection = "annotations"
)

// Firestore stores documents and annotations in two top-level collections.
// Listing needs a composite index on (documentId, createdAt).
type Firestore struct {
	client *firestore.Client
	now    func() time.Time
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client, now: time.Now}
}

func (f *Firestore) GetDocument(ctx context.Context, id string) (annotation.Document, error) {
	snapshot, err := f.client.Collection(documentsCollection).Doc(id).Get(ctx)
	if err != nil {
		return annotation.Document{}, translate(err, "failed to get document %s", id)
	}
	var document annotation.Document
	if err := snapshot.DataTo(&document); err != nil {
		return annotation.Document{}, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	document.ID = snapshot.Ref.ID
	return document, nil
}

func (f *Firestore) ListAnnotations(ctx context.Context, documentID string) ([]annotation.Annotation, error) {
	iter := f.client.Collection(annotationsCollection).
		Where("documentId", "==", documentID).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	result := []annotation.Annotation{}
	for {
		snapshot, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list annotations of %s: %w", documentID, err)
		}
		a, err := decodeAnnotation(snapshot)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

func (f *Firestore) GetAnnotation(ctx context.Context, id string) (annotation.Annotation, error) {
	snapshot, err := f.client.Collection(annotationsCollection).Doc(id).Get(ctx)
	if err != nil {
		return annotation.Annotation{}, translate(err, "failed to get annotation %s", id)
	}
	return decodeAnnotation(snapshot)
}

func (f *Firestore) CreateAnnotation(ctx context.Context, a annotation.Annotation) (annotation.Annotation, error) {
	ref := f.client.Collection(annotationsCollection).NewDoc()
	now := f.now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := ref.Create(ctx, a); err != nil {
		return annotation.Annotation{}, fmt.Errorf("failed to create annotation: %w", err)
	}
	a.ID = ref.ID
	return a, nil
}

func (f *Firestore) UpdateAnnotation(ctx context.Context, id string, request annotation.UpdateRequest) (annotation.Annotation, error) {
	updates := []firestore.Update{{Path: "updatedAt", Value: f.now().UTC()}}
	if request.Comment != nil {
		updates = append(updates, firestore.Update{Path: "comment", Value: *request.Comment})
	}
	if request.IsHighPriority != nil {
		updates = append(updates, firestore.Update{Path: "isHighPriority", Value: *request.IsHighPriority})
	}

	ref := f.client.Collection(annotationsCollection).Doc(id)
	if _, err := ref.Update(ctx, updates); err != nil {
		return annotation.Annotation{}, translate(err, "failed to update annotation %s", id)
	}
	return f.GetAnnotation(ctx, id)
}

func (f *Firestore) DeleteAnnotation(ctx context.Context, id string) error {
	ref := f.client.Collection(annotationsCollection).Doc(id)
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return translate(err, "failed to delete annotation %s", id)
	}
	return nil
}

func decodeAnnotation(snapshot *firestore.DocumentSnapshot) (annotation.Annotation, error) {
	var a annotation.Annotation
	if err := snapshot.DataTo(&a); err != nil {
		return annotation.Annotation{}, fmt.Errorf("failed to decode annotation %s: %w", snapshot.Ref.ID, err)
	}
	a.ID = snapshot.Ref.ID
	return a, nil
}

func translate(err error, format string, args ...any) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
