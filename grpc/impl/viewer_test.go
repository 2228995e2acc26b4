package impl

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/pagenote-project/pagenote/grpc/viewer"
	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
	"github.com/pagenote-project/pagenote/pkg/overlay"
	"github.com/pagenote-project/pagenote/pkg/zoom"
)

func mustEncode(t *testing.T, v any) *structpb.Struct {
	t.Helper()
	message, err := viewer.Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	return message
}

func TestNormalize(t *testing.T) {
	env := newTestEnv(t)

	// Two fragments of one line and one of the next, captured at scale 1.5
	// with the page container at (40, 120).
	request := viewer.NormalizeRequest{
		Fragments: []geometry.Rect{
			{X: 148, Y: 570, Width: 200, Height: 21},
			{X: 348, Y: 572, Width: 175, Height: 21},
			{X: 148, Y: 594, Width: 90, Height: 21},
		},
		Scale:  1.5,
		Origin: geometry.Point{X: 40, Y: 120},
	}
	out, err := env.impl.Normalize(context.Background(), mustEncode(t, request))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	var response viewer.NormalizeResponse
	if err := viewer.Decode(out, &response); err != nil {
		t.Fatal(err)
	}

	want := []geometry.Rect{
		{X: 72, Y: 300, Width: 250, Height: 14},
		{X: 72, Y: 316, Width: 60, Height: 14},
	}
	if diff := cmp.Diff(want, response.Rects, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	request.Scale = 0
	if _, err := env.impl.Normalize(context.Background(), mustEncode(t, request)); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Normalize() with zero scale error = %v, want InvalidArgument", err)
	}
}

func TestNormalizeToleranceOverride(t *testing.T) {
	env := newTestEnv(t)
	request := viewer.NormalizeRequest{
		Fragments: []geometry.Rect{
			{X: 0, Y: 0, Width: 10, Height: 10},
			{X: 10, Y: 8, Width: 10, Height: 10},
		},
		Scale:         1,
		LineTolerance: 1,
	}
	out, err := env.impl.Normalize(context.Background(), mustEncode(t, request))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	var response viewer.NormalizeResponse
	if err := viewer.Decode(out, &response); err != nil {
		t.Fatal(err)
	}
	if len(response.Rects) != 1 {
		t.Errorf("Normalize() = %v, want one merged line", response.Rects)
	}
}

func TestComputeFitScale(t *testing.T) {
	env := newTestEnv(t)
	page := zoom.Dimensions{Width: 612, Height: 792}

	tests := []struct {
		name     string
		request  viewer.FitScaleRequest
		want     viewer.FitScaleResponse
		wantCode codes.Code
	}{
		{
			name:    "fit width",
			request: viewer.FitScaleRequest{Mode: zoom.FitModeWidth, Container: zoom.Dimensions{Width: 950, Height: 700}, Page: page},
			want:    viewer.FitScaleResponse{Scale: 1.5, OK: true},
		},
		{
			name:    "fit page",
			request: viewer.FitScaleRequest{Mode: zoom.FitModePage, Container: zoom.Dimensions{Width: 950, Height: 824}, Page: page},
			want:    viewer.FitScaleResponse{Scale: 1, OK: true},
		},
		{
			name:    "container too small",
			request: viewer.FitScaleRequest{Mode: zoom.FitModeWidth, Container: zoom.Dimensions{Width: 20, Height: 20}, Page: page},
			want:    viewer.FitScaleResponse{},
		},
		{
			name:     "manual",
			request:  viewer.FitScaleRequest{Mode: zoom.FitModeManual, Page: page},
			wantCode: codes.InvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.impl.ComputeFitScale(context.Background(), mustEncode(t, tt.request))
			if status.Code(err) != tt.wantCode {
				t.Fatalf("ComputeFitScale() error = %v, want %v", err, tt.wantCode)
			}
			if err != nil {
				return
			}
			var got viewer.FitScaleResponse
			if err := viewer.Decode(out, &got); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("ComputeFitScale() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderOverlay(t *testing.T) {
	env := newTestEnv(t)
	created, err := env.repository.CreateAnnotation(context.Background(), annotation.Annotation{
		DocumentID:     "resume",
		SelectedText:   "Managed a team of 8 developers",
		Comment:        "Quantify impact",
		Position:       resumeRequest().Position,
		IsHighPriority: true,
		CreatorID:      "uid-reviewer",
	})
	if err != nil {
		t.Fatal(err)
	}

	request := viewer.RenderOverlayRequest{
		DocumentID: "resume",
		PageNumber: 1,
		Scale:      1.5,
		ActiveID:   created.ID,
		Pending: &annotation.Position{
			PageNumber: 1,
			Rects:      []geometry.Rect{{X: 72, Y: 400, Width: 100, Height: 14}},
		},
	}
	out, err := env.impl.RenderOverlay(context.Background(), mustEncode(t, request))
	if err != nil {
		t.Fatalf("RenderOverlay() error = %v", err)
	}
	var got viewer.RenderOverlayResponse
	if err := viewer.Decode(out, &got); err != nil {
		t.Fatal(err)
	}

	want := []viewer.OverlayRect{
		{
			Rect: overlay.Rect{
				Rect:         geometry.Rect{X: 108, Y: 450, Width: 375, Height: 21},
				AnnotationID: created.ID,
				Style:        overlay.StyleActive,
				ColorClass:   overlay.ColorClassHigh,
			},
			Fill: overlay.DefaultPalette().CSS(overlay.ColorClassHigh, overlay.StyleActive),
		},
		{
			Rect: overlay.Rect{
				Rect:       geometry.Rect{X: 108, Y: 600, Width: 150, Height: 21},
				Style:      overlay.StylePending,
				ColorClass: overlay.ColorClassPending,
			},
			Fill: overlay.DefaultPalette().CSS(overlay.ColorClassPending, overlay.StylePending),
		},
	}
	if diff := cmp.Diff(want, got.Rects); diff != "" {
		t.Errorf("RenderOverlay() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderOverlayErrors(t *testing.T) {
	env := newTestEnv(t)
	valid := viewer.RenderOverlayRequest{DocumentID: "resume", PageNumber: 1, Scale: 1}

	tests := []struct {
		name   string
		mutate func(r *viewer.RenderOverlayRequest)
		want   codes.Code
	}{
		{name: "missing document id", mutate: func(r *viewer.RenderOverlayRequest) { r.DocumentID = "" }, want: codes.InvalidArgument},
		{name: "page zero", mutate: func(r *viewer.RenderOverlayRequest) { r.PageNumber = 0 }, want: codes.InvalidArgument},
		{name: "negative scale", mutate: func(r *viewer.RenderOverlayRequest) { r.Scale = -1 }, want: codes.InvalidArgument},
		{name: "empty pending", mutate: func(r *viewer.RenderOverlayRequest) { r.Pending = &annotation.Position{PageNumber: 1} }, want: codes.InvalidArgument},
		{name: "unknown document", mutate: func(r *viewer.RenderOverlayRequest) { r.DocumentID = "unknown" }, want: codes.NotFound},
		{name: "valid", mutate: func(r *viewer.RenderOverlayRequest) {}, want: codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := valid
			tt.mutate(&request)
			_, err := env.impl.RenderOverlay(context.Background(), mustEncode(t, request))
			if status.Code(err) != tt.want {
				t.Errorf("RenderOverlay() error = %v, want %v", err, tt.want)
			}
		})
	}
}
