package impl

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pagenote-project/pagenote/grpc/impl/repository"
	"github.com/pagenote-project/pagenote/grpc/viewer"
	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
	"github.com/pagenote-project/pagenote/pkg/overlay"
	"github.com/pagenote-project/pagenote/pkg/utils"
	"github.com/pagenote-project/pagenote/pkg/zoom"
)

// Normalize converts selection fragments from device pixels into merged page-space rects.
func (s *server) Normalize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var request viewer.NormalizeRequest
	if err := viewer.Decode(req, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if request.Scale <= 0 {
		return nil, status.Error(codes.InvalidArgument, "scale must be positive")
	}

	normalizer := s.viewer.Normalizer()
	if request.LineTolerance > 0 {
		normalizer = geometry.Normalizer{LineTolerance: request.LineTolerance}
	}
	rects := normalizer.Normalize(request.Fragments, request.Scale, request.Origin)
	return encodeResponse(viewer.NormalizeResponse{Rects: rects})
}

func (s *server) ComputeFitScale(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var request viewer.FitScaleRequest
	if err := viewer.Decode(req, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if request.Mode != zoom.FitModeWidth && request.Mode != zoom.FitModePage {
		return nil, status.Errorf(codes.InvalidArgument, "mode must be %q or %q", zoom.FitModeWidth, zoom.FitModePage)
	}

	scale, ok := zoom.FitScale(request.Mode, request.Container, request.Page, s.viewer.Zoom)
	return encodeResponse(viewer.FitScaleResponse{Scale: scale, OK: ok})
}

// RenderOverlay returns the screen-space highlights of one page with their fill colors.
func (s *server) RenderOverlay(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var request viewer.RenderOverlayRequest
	if err := viewer.Decode(req, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if request.DocumentID == "" {
		return nil, status.Error(codes.InvalidArgument, annotation.MessageDocumentIDRequired)
	}
	if request.PageNumber < 1 {
		return nil, status.Error(codes.InvalidArgument, "pageNumber must be a positive integer")
	}
	if request.Scale <= 0 {
		return nil, status.Error(codes.InvalidArgument, "scale must be positive")
	}
	if request.Pending != nil {
		if message := annotation.ValidatePosition(*request.Pending); message != "" {
			return nil, status.Error(codes.InvalidArgument, message)
		}
	}

	annotations, err := s.documentAnnotations(ctx, request.DocumentID)
	if err != nil {
		return nil, err
	}

	rects := overlay.Render(annotations, request.PageNumber, request.Scale, request.Pending, overlay.Interaction{
		ActiveID:  request.ActiveID,
		HoveredID: request.HoveredID,
	})
	return encodeResponse(viewer.RenderOverlayResponse{
		Rects: utils.Map(rects, func(rect overlay.Rect) viewer.OverlayRect {
			return viewer.OverlayRect{Rect: rect, Fill: s.palette.CSS(rect.ColorClass, rect.Style)}
		}),
	})
}

func (s *server) documentAnnotations(ctx context.Context, documentID string) ([]annotation.Annotation, error) {
	_, err := s.repository.GetDocument(ctx, documentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, status.Error(codes.NotFound, messageDocumentNotFound)
	}
	if err != nil {
		log.Printf("Failed to get document %s: %v", documentID, err)
		return nil, status.Error(codes.Internal, "failed to get the document")
	}

	annotations, err := s.repository.ListAnnotations(ctx, documentID)
	if err != nil {
		log.Printf("Failed to list annotations of %s: %v", documentID, err)
		return nil, status.Error(codes.Internal, "failed to list annotations")
	}
	return annotations, nil
}

func encodeResponse(response any) (*structpb.Struct, error) {
	message, err := viewer.Encode(response)
	if err != nil {
		log.Printf("Failed to encode response: %v", err)
		return nil, status.Error(codes.Internal, "failed to encode the response")
	}
	return message, nil
}
