package impl

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pagenote-project/pagenote/grpc/impl/font"
	"github.com/pagenote-project/pagenote/grpc/impl/repository"
	"github.com/pagenote-project/pagenote/grpc/impl/storage"
	"github.com/pagenote-project/pagenote/pkg/config"
	"github.com/pagenote-project/pagenote/pkg/overlay"
)

type server struct {
	repository repository.Repository

	// Storage is a collection of Google Cloud Storage related configurations.
	storage Storage

	// Zoom bounds, line tolerance and highlight colors shared with clients.
	viewer  config.Viewer
	palette overlay.Palette

	// Used for drawing the ordinal labels on overlay images.
	fontProvider font.FontProvider
}

type Storage struct {
	// A client for Google Cloud Storage.
	Client storage.Client

	// The bucket holding the PDF of every document.
	DocumentBucket string

	// How long a signed PDF URL stays valid. E.g., 15 minutes
	SignedURLTTL time.Duration
}

func New(
	repository repository.Repository,
	storage Storage,
	viewer config.Viewer,
	fontProvider font.FontProvider,
) (*server, error) {
	if err := viewer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viewer config: %w", err)
	}
	palette, err := viewer.Palette()
	if err != nil {
		return nil, err
	}
	if storage.SignedURLTTL <= 0 {
		storage.SignedURLTTL = 15 * time.Minute
	}
	return &server{
		repository:   repository,
		storage:      storage,
		viewer:       viewer,
		palette:      palette,
		fontProvider: fontProvider,
	}, nil
}

// Routes returns the REST API. Handlers read the actor placed in the request
// context by the auth middleware.
func (s *server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/annotations", s.listAnnotations)
	mux.HandleFunc("POST /api/annotations", s.createAnnotation)
	mux.HandleFunc("GET /api/annotations/{id}", s.getAnnotation)
	mux.HandleFunc("PATCH /api/annotations/{id}", s.updateAnnotation)
	mux.HandleFunc("DELETE /api/annotations/{id}", s.deleteAnnotation)
	mux.HandleFunc("GET /api/documents/{id}", s.getDocument)
	mux.HandleFunc("GET /api/documents/{id}/pdf", s.getDocumentPDF)
	mux.HandleFunc("GET /api/documents/{id}/pages/{page}/overlay.png", s.getOverlayImage)
	mux.HandleFunc("GET /api/viewer/config", s.getViewerConfig)
	return mux
}
