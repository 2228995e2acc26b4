package overlay

import (
	"image/color"
	"io"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Canvas rasterizes rendered overlays into transparent PNG images that can be
// composited over a page rendered at the same scale.
type Canvas struct {
	Palette Palette
	// Used for the ordinal labels. Defaults to a 7x13 bitmap face.
	Face font.Face
}

// DrawPNG draws rects on a width x height canvas and writes it as PNG. The
// first rect of each annotation is labelled with the annotation's ordinal on
// the page, starting at 1.
func (c Canvas) DrawPNG(w io.Writer, width int, height int, rects []Rect) error {
	dc := gg.NewContext(width, height)

	for _, rect := range rects {
		dc.SetColor(c.Palette.Fill(rect.ColorClass, rect.Style))
		dc.DrawRectangle(rect.X, rect.Y, rect.Width, rect.Height)
		dc.Fill()
		if rect.Style == StyleActive {
			dc.SetColor(c.Palette.Border(rect.ColorClass))
			dc.SetLineWidth(2)
			dc.DrawRectangle(rect.X, rect.Y, rect.Width, rect.Height)
			dc.Stroke()
		}
	}

	face := c.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	dc.SetFontFace(face)
	dc.SetColor(color.Black)
	for i, rect := range firstRects(rects) {
		dc.DrawStringAnchored(strconv.Itoa(i+1), rect.X-2, rect.Y+rect.Height/2, 1, 0.5)
	}

	return dc.EncodePNG(w)
}

func firstRects(rects []Rect) []Rect {
	result := []Rect{}
	seen := map[string]bool{}
	for _, rect := range rects {
		if rect.AnnotationID == "" || seen[rect.AnnotationID] {
			continue
		}
		seen[rect.AnnotationID] = true
		result = append(result, rect)
	}
	return result
}
