package annotation

import (
	"time"

	"github.com/pagenote-project/pagenote/pkg/geometry"
)

// Position anchors an annotation to one page. Rects are in page-space and
// ordered top-to-bottom, then left-to-right.
type Position struct {
	// 1-indexed page number. E.g., 1
	PageNumber int `json:"pageNumber" firestore:"pageNumber"`
	// One rect per visual line. E.g., [{x: 72, y: 300, width: 250, height: 14}]
	Rects []geometry.Rect `json:"rects" firestore:"rects"`
}

// Annotation is a comment anchored to a span of text. Position and
// SelectedText never change after creation.
type Annotation struct {
	ID             string    `json:"id" firestore:"-"`
	DocumentID     string    `json:"documentId" firestore:"documentId"`
	SelectedText   string    `json:"selectedText" firestore:"selectedText"`
	Comment        string    `json:"comment" firestore:"comment"`
	Position       Position  `json:"positionData" firestore:"positionData"`
	IsHighPriority bool      `json:"isHighPriority" firestore:"isHighPriority"`
	CreatorID      string    `json:"creatorId" firestore:"creatorId"`
	CreatedAt      time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// OnPage reports whether the annotation is anchored to page.
func (a Annotation) OnPage(page int) bool {
	return a.Position.PageNumber == page
}

// Document is a reviewable PDF. The bytes live in object storage under StorageKey.
type Document struct {
	ID         string    `json:"id" firestore:"-"`
	Title      string    `json:"title" firestore:"title"`
	StorageKey string    `json:"-" firestore:"storageKey"`
	PageCount  int       `json:"pageCount" firestore:"pageCount"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
}

type CreateRequest struct {
	DocumentID     string   `json:"documentId"`
	SelectedText   string   `json:"selectedText"`
	Comment        string   `json:"comment"`
	Position       Position `json:"positionData"`
	IsHighPriority bool     `json:"isHighPriority"`
}

// UpdateRequest changes the mutable fields of an annotation. Nil fields are left as they are.
type UpdateRequest struct {
	Comment        *string `json:"comment,omitempty"`
	IsHighPriority *bool   `json:"isHighPriority,omitempty"`
}

// Apply returns a copy of a with the requested fields replaced.
func (r UpdateRequest) Apply(a Annotation) Annotation {
	if r.Comment != nil {
		a.Comment = *r.Comment
	}
	if r.IsHighPriority != nil {
		a.IsHighPriority = *r.IsHighPriority
	}
	return a
}
