package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
)

// fakePersistence enforces ownership like the server does.
type fakePersistence struct {
	actorID string
	records map[string]annotation.Annotation
	order   []string
	nextID  int
	err     error
	calls   int
}

func newFakePersistence(actorID string) *fakePersistence {
	return &fakePersistence{actorID: actorID, records: map[string]annotation.Annotation{}}
}

func (f *fakePersistence) seed(a annotation.Annotation) {
	f.records[a.ID] = a
	f.order = append(f.order, a.ID)
}

func (f *fakePersistence) List(_ context.Context, documentID string) ([]annotation.Annotation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	result := []annotation.Annotation{}
	for _, id := range f.order {
		if a, ok := f.records[id]; ok && a.DocumentID == documentID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (f *fakePersistence) Create(_ context.Context, request annotation.CreateRequest) (annotation.Annotation, error) {
	f.calls++
	if f.err != nil {
		return annotation.Annotation{}, f.err
	}
	f.nextID++
	now := time.Date(2026, 1, 15, 11, 0, f.nextID, 0, time.UTC)
	created := annotation.Annotation{
		ID:             fmt.Sprintf("ann-%d", f.nextID),
		DocumentID:     request.DocumentID,
		SelectedText:   request.SelectedText,
		Comment:        request.Comment,
		Position:       request.Position,
		IsHighPriority: request.IsHighPriority,
		CreatorID:      f.actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.seed(created)
	return created, nil
}

func (f *fakePersistence) Update(_ context.Context, id string, request annotation.UpdateRequest) (annotation.Annotation, error) {
	f.calls++
	if f.err != nil {
		return annotation.Annotation{}, f.err
	}
	existing, ok := f.records[id]
	if !ok {
		return annotation.Annotation{}, &annotation.NotFoundError{Message: "Annotation not found"}
	}
	if existing.CreatorID != f.actorID {
		return annotation.Annotation{}, &annotation.AuthorizationError{Status: http.StatusForbidden, Message: "You can only edit your own annotations"}
	}
	updated := request.Apply(existing)
	f.records[id] = updated
	return updated, nil
}

func (f *fakePersistence) Delete(_ context.Context, id string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	existing, ok := f.records[id]
	if !ok {
		return &annotation.NotFoundError{Message: "Annotation not found"}
	}
	if existing.CreatorID != f.actorID {
		return &annotation.AuthorizationError{Status: http.StatusForbidden, Message: "You can only delete your own annotations"}
	}
	delete(f.records, id)
	return nil
}

func resumeRequest() annotation.CreateRequest {
	return annotation.CreateRequest{
		SelectedText: "Managed a team of 8 developers",
		Comment:      "Quantify impact",
		Position: annotation.Position{
			PageNumber: 1,
			Rects:      []geometry.Rect{{X: 72, Y: 300, Width: 250, Height: 14}},
		},
	}
}

func TestCreateAppendsConfirmedRecord(t *testing.T) {
	persistence := newFakePersistence("reviewer")
	s := New(persistence, "doc-1")
	var notified [][]annotation.Annotation
	s.Subscribe(func(snapshot []annotation.Annotation) {
		notified = append(notified, snapshot)
	})

	created, err := s.Create(context.Background(), resumeRequest())
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}

	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("Create() = %+v, want a server-assigned id and timestamp", created)
	}
	if created.DocumentID != "doc-1" {
		t.Errorf("DocumentID = %q, want the store's document", created.DocumentID)
	}
	if diff := cmp.Diff([]annotation.Annotation{created}, s.Annotations()); diff != "" {
		t.Errorf("Annotations() mismatch (-want +got):\n%s", diff)
	}
	if len(notified) != 1 {
		t.Errorf("got %d notifications, want 1", len(notified))
	}

	listed, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if diff := cmp.Diff([]annotation.Annotation{created}, listed); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateValidatesBeforeDispatch(t *testing.T) {
	persistence := newFakePersistence("reviewer")
	s := New(persistence, "doc-1")
	request := resumeRequest()
	request.Comment = " "

	_, err := s.Create(context.Background(), request)

	var validationErr *annotation.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Create() = %v, want *annotation.ValidationError", err)
	}
	if persistence.calls != 0 {
		t.Errorf("persistence called %d times, want 0", persistence.calls)
	}
}

func TestFailedOperationsLeaveLocalStateUnchanged(t *testing.T) {
	persistence := newFakePersistence("reviewer")
	s := New(persistence, "doc-1")
	created, err := s.Create(context.Background(), resumeRequest())
	if err != nil {
		t.Fatalf("Create() = %v", err)
	}
	before := s.Annotations()

	persistence.err = &annotation.FetchError{Err: errors.New("connection reset")}
	comment := "changed"

	if _, err := s.Create(context.Background(), resumeRequest()); err == nil {
		t.Error("Create() succeeded against a failing backend")
	}
	if _, err := s.Update(context.Background(), created.ID, annotation.UpdateRequest{Comment: &comment}); err == nil {
		t.Error("Update() succeeded against a failing backend")
	}
	if err := s.Delete(context.Background(), created.ID); err == nil {
		t.Error("Delete() succeeded against a failing backend")
	}
	_, err = s.Load(context.Background())
	var fetchErr *annotation.FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("Load() = %v, want *annotation.FetchError", err)
	}

	if diff := cmp.Diff(before, s.Annotations()); diff != "" {
		t.Errorf("local state changed (-before +after):\n%s", diff)
	}
}

func TestUpdateAndDeleteEnforceOwnership(t *testing.T) {
	persistence := newFakePersistence("intruder")
	original := annotation.Annotation{
		ID:         "ann-owned",
		DocumentID: "doc-1",
		Comment:    "Original",
		CreatorID:  "reviewer",
		Position:   annotation.Position{PageNumber: 1, Rects: []geometry.Rect{{X: 1, Y: 1, Width: 1, Height: 1}}},
	}
	persistence.seed(original)
	s := New(persistence, "doc-1")
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() = %v", err)
	}

	comment := "Hijacked"
	priority := true
	_, err := s.Update(context.Background(), original.ID, annotation.UpdateRequest{Comment: &comment, IsHighPriority: &priority})
	var authErr *annotation.AuthorizationError
	if !errors.As(err, &authErr) || authErr.Status != http.StatusForbidden {
		t.Fatalf("Update() = %v, want forbidden *annotation.AuthorizationError", err)
	}

	err = s.Delete(context.Background(), original.ID)
	if !errors.As(err, &authErr) || authErr.Status != http.StatusForbidden {
		t.Fatalf("Delete() = %v, want forbidden *annotation.AuthorizationError", err)
	}

	if diff := cmp.Diff(original, persistence.records[original.ID]); diff != "" {
		t.Errorf("stored record changed (-want +got):\n%s", diff)
	}
	if got, _ := s.Get(original.ID); got.Comment != "Original" || got.IsHighPriority {
		t.Errorf("local record changed: %+v", got)
	}
}

func TestUpdateReplacesLocalRecord(t *testing.T) {
	persistence := newFakePersistence("reviewer")
	s := New(persistence, "doc-1")
	created, _ := s.Create(context.Background(), resumeRequest())

	priority := true
	updated, err := s.Update(context.Background(), created.ID, annotation.UpdateRequest{IsHighPriority: &priority})
	if err != nil {
		t.Fatalf("Update() = %v", err)
	}

	if !updated.IsHighPriority {
		t.Error("Update() did not set the priority")
	}
	if got, _ := s.Get(created.ID); !got.IsHighPriority || got.Comment != "Quantify impact" {
		t.Errorf("Get() = %+v, want the updated record", got)
	}
}

func TestUpdateRequiresAField(t *testing.T) {
	persistence := newFakePersistence("reviewer")
	s := New(persistence, "doc-1")

	_, err := s.Update(context.Background(), "ann-1", annotation.UpdateRequest{})

	var validationErr *annotation.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Update() = %v, want *annotation.ValidationError", err)
	}
	if persistence.calls != 0 {
		t.Errorf("persistence called %d times, want 0", persistence.calls)
	}
}

func TestDeleteClearsActive(t *testing.T) {
	persistence := newFakePersistence("reviewer")
	s := New(persistence, "doc-1")
	first, _ := s.Create(context.Background(), resumeRequest())
	second, _ := s.Create(context.Background(), resumeRequest())
	s.SetActive(first.ID)

	if err := s.Delete(context.Background(), first.ID); err != nil {
		t.Fatalf("Delete() = %v", err)
	}

	if _, ok := s.Active(); ok {
		t.Error("deleted annotation is still active")
	}
	if diff := cmp.Diff([]annotation.Annotation{second}, s.Annotations()); diff != "" {
		t.Errorf("Annotations() mismatch (-want +got):\n%s", diff)
	}
}

func TestByPage(t *testing.T) {
	persistence := newFakePersistence("reviewer")
	s := New(persistence, "doc-1")
	onFirst, _ := s.Create(context.Background(), resumeRequest())
	request := resumeRequest()
	request.Position.PageNumber = 2
	onSecond, _ := s.Create(context.Background(), request)

	if diff := cmp.Diff([]annotation.Annotation{onFirst}, s.ByPage(1)); diff != "" {
		t.Errorf("ByPage(1) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]annotation.Annotation{onSecond}, s.ByPage(2)); diff != "" {
		t.Errorf("ByPage(2) mismatch (-want +got):\n%s", diff)
	}
	if got := s.ByPage(3); len(got) != 0 {
		t.Errorf("ByPage(3) = %+v, want none", got)
	}
}

func TestSetActiveIgnoresUnknownIDs(t *testing.T) {
	s := New(newFakePersistence("reviewer"), "doc-1")

	s.SetActive("missing")

	if got := s.ActiveID(); got != "" {
		t.Errorf("ActiveID() = %q, want empty", got)
	}
}
