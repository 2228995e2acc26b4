package overlay

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
)

func sampleAnnotations() []annotation.Annotation {
	return []annotation.Annotation{
		{
			ID:           "ann_001",
			SelectedText: "Managed a team of 8 developers",
			Position: annotation.Position{
				PageNumber: 1,
				Rects:      []geometry.Rect{{X: 72, Y: 300, Width: 250, Height: 14}},
			},
		},
		{
			ID:             "ann_002",
			IsHighPriority: true,
			Position: annotation.Position{
				PageNumber: 1,
				Rects: []geometry.Rect{
					{X: 72, Y: 420, Width: 320, Height: 14},
					{X: 72, Y: 436, Width: 100, Height: 14},
				},
			},
		},
		{
			ID: "ann_003",
			Position: annotation.Position{
				PageNumber: 2,
				Rects:      []geometry.Rect{{X: 72, Y: 200, Width: 100, Height: 14}},
			},
		},
	}
}

func TestRenderScalesAnnotationsOnTheCurrentPage(t *testing.T) {
	got := Render(sampleAnnotations(), 1, 1.5, nil, Interaction{ActiveID: "ann_002", HoveredID: "ann_001"})

	want := []Rect{
		{
			Rect:         geometry.Rect{X: 108, Y: 450, Width: 375, Height: 21},
			AnnotationID: "ann_001",
			Style:        StyleHovered,
			ColorClass:   ColorClassNormal,
		},
		{
			Rect:         geometry.Rect{X: 108, Y: 630, Width: 480, Height: 21},
			AnnotationID: "ann_002",
			Style:        StyleActive,
			ColorClass:   ColorClassHigh,
		},
		{
			Rect:         geometry.Rect{X: 108, Y: 654, Width: 150, Height: 21},
			AnnotationID: "ann_002",
			RectIndex:    1,
			Style:        StyleActive,
			ColorClass:   ColorClassHigh,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderAppendsPendingSelectionOnTheSamePage(t *testing.T) {
	pending := &annotation.Position{
		PageNumber: 2,
		Rects:      []geometry.Rect{{X: 10, Y: 20, Width: 30, Height: 10}},
	}

	got := Render(sampleAnnotations(), 2, 2, pending, Interaction{})

	want := []Rect{
		{
			Rect:         geometry.Rect{X: 144, Y: 400, Width: 200, Height: 28},
			AnnotationID: "ann_003",
			Style:        StyleDefault,
			ColorClass:   ColorClassNormal,
		},
		{
			Rect:       geometry.Rect{X: 20, Y: 40, Width: 60, Height: 20},
			Style:      StylePending,
			ColorClass: ColorClassPending,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render() mismatch (-want +got):\n%s", diff)
	}

	if got := Render(nil, 1, 2, pending, Interaction{}); len(got) != 0 {
		t.Errorf("pending selection on another page was rendered: %+v", got)
	}
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	annotations := sampleAnnotations()

	Render(annotations, 1, 3, nil, Interaction{})

	if diff := cmp.Diff(sampleAnnotations(), annotations); diff != "" {
		t.Errorf("Render() mutated its input (-want +got):\n%s", diff)
	}
}

func TestPalette(t *testing.T) {
	palette, err := NewPalette("#ffeb3b", "#ef5350", "#81d4fa")
	if err != nil {
		t.Fatalf("NewPalette() = %v", err)
	}

	fill := palette.Fill(ColorClassNormal, StyleDefault)
	if fill.R != 255 || fill.G != 235 || fill.B != 59 || fill.A != 64 {
		t.Errorf("Fill() = %+v, want {255 235 59 64}", fill)
	}
	if got := palette.Fill(ColorClassHigh, StyleActive).A; got != 128 {
		t.Errorf("active alpha = %d, want 128", got)
	}
	if got := palette.CSS(ColorClassNormal, StyleHovered); got != "rgba(255, 235, 59, 0.4)" {
		t.Errorf("CSS() = %q", got)
	}
	border := palette.Border(ColorClassNormal)
	if border.R >= 255 && border.G >= 235 {
		t.Errorf("Border() = %+v, want a darker shade", border)
	}

	if _, err := NewPalette("yellow", "#ef5350", "#81d4fa"); err == nil {
		t.Error("NewPalette() accepted an invalid color")
	}
}

func TestCanvasDrawPNG(t *testing.T) {
	rects := Render(sampleAnnotations(), 1, 1.5, &annotation.Position{
		PageNumber: 1,
		Rects:      []geometry.Rect{{X: 72, Y: 500, Width: 50, Height: 14}},
	}, Interaction{ActiveID: "ann_001"})

	var buf bytes.Buffer
	if err := (Canvas{Palette: DefaultPalette()}).DrawPNG(&buf, 918, 1188, rects); err != nil {
		t.Fatalf("DrawPNG() = %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	if got := img.Bounds().Dx(); got != 918 {
		t.Errorf("width = %d, want 918", got)
	}
	if got := img.Bounds().Dy(); got != 1188 {
		t.Errorf("height = %d, want 1188", got)
	}
	if _, _, _, a := img.At(200, 460).RGBA(); a == 0 {
		t.Error("highlight pixel is transparent")
	}
	if _, _, _, a := img.At(900, 20).RGBA(); a != 0 {
		t.Error("background pixel is not transparent")
	}
}

func TestFirstRects(t *testing.T) {
	rects := Render(sampleAnnotations(), 1, 1, &annotation.Position{PageNumber: 1, Rects: []geometry.Rect{{X: 1, Y: 1, Width: 1, Height: 1}}}, Interaction{})

	got := firstRects(rects)

	if len(got) != 2 || got[0].AnnotationID != "ann_001" || got[1].AnnotationID != "ann_002" {
		t.Errorf("firstRects() = %+v, want one rect per annotation", got)
	}
}
