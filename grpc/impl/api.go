package impl

import (
	"bytes"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/pagenote-project/pagenote/grpc/impl/repository"
	"github.com/pagenote-project/pagenote/grpc/impl/storage"
	"github.com/pagenote-project/pagenote/pkg/annotation"
	pkgAuth "github.com/pagenote-project/pagenote/pkg/auth"
	"github.com/pagenote-project/pagenote/pkg/geometry"
	yaHttp "github.com/pagenote-project/pagenote/pkg/http"
	"github.com/pagenote-project/pagenote/pkg/overlay"
	"github.com/pagenote-project/pagenote/pkg/utils"
)

const (
	messageMissingDocumentID = "Missing documentId query parameter"
	messageDocumentNotFound  = "Document not found"
	messageNotFound          = "Annotation not found"
	messageUnauthorized      = "Unauthorized"
	messageEditForbidden     = "You can only edit your own annotations"
	messageDeleteForbidden   = "You can only delete your own annotations"
	messageDeleted           = "Annotation deleted"
	messageInternal          = "Internal server error"
	messageInvalidPage       = "page must be a positive integer"
	messageInvalidScale      = "scale must be a number within the zoom bounds"
	messageInvalidSize       = "width and height must be integers between 1 and 8192"

	maxOverlaySide = 8192
)

func (s *server) listAnnotations(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("documentId")
	if documentID == "" {
		yaHttp.WriteError(w, http.StatusBadRequest, messageMissingDocumentID)
		return
	}

	if _, err := s.repository.GetDocument(r.Context(), documentID); err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}
	annotations, err := s.repository.ListAnnotations(r.Context(), documentID)
	if err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, map[string]any{"annotations": annotations})
}

func (s *server) createAnnotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := pkgAuth.ActorFrom(r.Context())
	if !ok {
		yaHttp.WriteError(w, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		yaHttp.WriteError(w, http.StatusBadRequest, messageInvalidJSON)
		return
	}
	request, err := decodeCreateRequest(body)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if _, err := s.repository.GetDocument(r.Context(), request.DocumentID); err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}
	created, err := s.repository.CreateAnnotation(r.Context(), annotation.Annotation{
		DocumentID:     request.DocumentID,
		SelectedText:   request.SelectedText,
		Comment:        request.Comment,
		Position:       request.Position,
		IsHighPriority: request.IsHighPriority,
		CreatorID:      actor.ID,
	})
	if err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}
	log.Printf("Created annotation %s on document %s page %d", created.ID, created.DocumentID, created.Position.PageNumber)
	yaHttp.WriteJSON(w, http.StatusCreated, map[string]any{"annotation": created})
}

func (s *server) getAnnotation(w http.ResponseWriter, r *http.Request) {
	found, err := s.repository.GetAnnotation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepositoryError(w, err, messageNotFound)
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, map[string]any{"annotation": found})
}

func (s *server) updateAnnotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := pkgAuth.ActorFrom(r.Context())
	if !ok {
		yaHttp.WriteError(w, http.StatusUnauthorized, messageUnauthorized)
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		yaHttp.WriteError(w, http.StatusBadRequest, messageInvalidJSON)
		return
	}
	request, err := decodeUpdateRequest(body)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	id := r.PathValue("id")
	existing, err := s.repository.GetAnnotation(r.Context(), id)
	if err != nil {
		writeRepositoryError(w, err, messageNotFound)
		return
	}
	if existing.CreatorID != actor.ID {
		yaHttp.WriteError(w, http.StatusForbidden, messageEditForbidden)
		return
	}

	updated, err := s.repository.UpdateAnnotation(r.Context(), id, request)
	if err != nil {
		writeRepositoryError(w, err, messageNotFound)
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, map[string]any{"annotation": updated})
}

func (s *server) deleteAnnotation(w http.ResponseWriter, r *http.Request) {
	actor, ok := pkgAuth.ActorFrom(r.Context())
	if !ok {
		yaHttp.WriteError(w, http.StatusUnauthorized, messageUnauthorized)
		return
	}

	id := r.PathValue("id")
	existing, err := s.repository.GetAnnotation(r.Context(), id)
	if err != nil {
		writeRepositoryError(w, err, messageNotFound)
		return
	}
	if existing.CreatorID != actor.ID {
		yaHttp.WriteError(w, http.StatusForbidden, messageDeleteForbidden)
		return
	}

	if err := s.repository.DeleteAnnotation(r.Context(), id); err != nil {
		writeRepositoryError(w, err, messageNotFound)
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, map[string]string{"message": messageDeleted})
}

func (s *server) getDocument(w http.ResponseWriter, r *http.Request) {
	document, err := s.repository.GetDocument(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, map[string]any{"document": document})
}

func (s *server) getDocumentPDF(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	document, err := s.repository.GetDocument(r.Context(), id)
	if err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}

	url, err := s.storage.Client.SignedURL(r.Context(), s.storage.DocumentBucket, document.StorageKey, s.storage.SignedURLTTL)
	if errors.Is(err, storage.ErrNotFound) {
		log.Printf("PDF of document %s is missing from %s", id, s.storage.DocumentBucket)
		yaHttp.WriteError(w, http.StatusNotFound, messageDocumentNotFound)
		return
	}
	if err != nil {
		log.Printf("Failed to generate signed URL for document %s: %v", id, err)
		yaHttp.WriteError(w, http.StatusInternalServerError, messageInternal)
		return
	}
	yaHttp.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// getOverlayImage draws the highlights of one page as a transparent PNG.
// Query: scale (default 1), width and height in pixels (default: the extent
// of the highlights), active and hovered annotation ids.
func (s *server) getOverlayImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 {
		yaHttp.WriteError(w, http.StatusBadRequest, messageInvalidPage)
		return
	}
	query := r.URL.Query()
	scale, ok := s.parseScale(query.Get("scale"))
	if !ok {
		yaHttp.WriteError(w, http.StatusBadRequest, messageInvalidScale)
		return
	}

	if _, err := s.repository.GetDocument(r.Context(), id); err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}
	annotations, err := s.repository.ListAnnotations(r.Context(), id)
	if err != nil {
		writeRepositoryError(w, err, messageDocumentNotFound)
		return
	}

	rects := overlay.Render(annotations, page, scale, nil, overlay.Interaction{
		ActiveID:  query.Get("active"),
		HoveredID: query.Get("hovered"),
	})
	width, height, ok := overlaySize(query.Get("width"), query.Get("height"), rects)
	if !ok {
		yaHttp.WriteError(w, http.StatusBadRequest, messageInvalidSize)
		return
	}

	canvas := overlay.Canvas{Palette: s.palette, Face: s.fontProvider.LabelFace()}
	var image bytes.Buffer
	if err := canvas.DrawPNG(&image, width, height, rects); err != nil {
		log.Printf("Failed to draw overlay of document %s page %d: %v", id, page, err)
		yaHttp.WriteError(w, http.StatusInternalServerError, messageInternal)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(image.Bytes()); err != nil {
		log.Printf("Failed to write overlay: %v", err)
	}
}

func (s *server) getViewerConfig(w http.ResponseWriter, _ *http.Request) {
	yaHttp.WriteJSON(w, http.StatusOK, s.viewer)
}

func (s *server) parseScale(raw string) (float64, bool) {
	if raw == "" {
		return 1, true
	}
	scale, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(scale) || scale < s.viewer.Zoom.MinScale || scale > s.viewer.Zoom.MaxScale {
		return 0, false
	}
	return scale, true
}

// overlaySize defaults to the highlight bounds clamped to the canvas limit.
// Only explicitly requested sides are validated against it.
func overlaySize(rawWidth string, rawHeight string, rects []overlay.Rect) (int, int, bool) {
	width, height := 1, 1
	if bounds, ok := geometry.Bounds(overlayGeometry(rects)); ok {
		width = clampSide(int(math.Ceil(bounds.Right())))
		height = clampSide(int(math.Ceil(bounds.Bottom())))
	}
	for _, side := range []struct {
		raw   string
		value *int
	}{{rawWidth, &width}, {rawHeight, &height}} {
		if side.raw == "" {
			continue
		}
		parsed, err := strconv.Atoi(side.raw)
		if err != nil || parsed < 1 || parsed > maxOverlaySide {
			return 0, 0, false
		}
		*side.value = parsed
	}
	return width, height, true
}

func clampSide(side int) int {
	return max(1, min(side, maxOverlaySide))
}

func overlayGeometry(rects []overlay.Rect) []geometry.Rect {
	return utils.Map(rects, func(rect overlay.Rect) geometry.Rect {
		return rect.Rect
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *annotation.ValidationError
	if errors.As(err, &validationErr) {
		yaHttp.WriteError(w, http.StatusBadRequest, validationErr.Message, validationErr.Details...)
		return
	}
	log.Printf("Unexpected validation failure: %v", err)
	yaHttp.WriteError(w, http.StatusInternalServerError, messageInternal)
}

func writeRepositoryError(w http.ResponseWriter, err error, notFoundMessage string) {
	if errors.Is(err, repository.ErrNotFound) {
		yaHttp.WriteError(w, http.StatusNotFound, notFoundMessage)
		return
	}
	log.Printf("Repository failure: %v", err)
	yaHttp.WriteError(w, http.StatusInternalServerError, messageInternal)
}
