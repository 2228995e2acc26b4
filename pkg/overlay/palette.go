package overlay

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette holds the base highlight color of each color class.
type Palette struct {
	Normal  colorful.Color
	High    colorful.Color
	Pending colorful.Color
}

// NewPalette parses hex colors. E.g., "#ffeb3b"
func NewPalette(normal string, high string, pending string) (Palette, error) {
	var palette Palette
	var err error
	if palette.Normal, err = colorful.Hex(normal); err != nil {
		return Palette{}, fmt.Errorf("invalid normal color %q: %w", normal, err)
	}
	if palette.High, err = colorful.Hex(high); err != nil {
		return Palette{}, fmt.Errorf("invalid high priority color %q: %w", high, err)
	}
	if palette.Pending, err = colorful.Hex(pending); err != nil {
		return Palette{}, fmt.Errorf("invalid pending color %q: %w", pending, err)
	}
	return palette, nil
}

func DefaultPalette() Palette {
	return Palette{
		Normal:  colorful.Color{R: 1, G: 0.922, B: 0.231},
		High:    colorful.Color{R: 0.937, G: 0.325, B: 0.314},
		Pending: colorful.Color{R: 0.506, G: 0.831, B: 0.980},
	}
}

// Opacity of the fill for a visual state.
func Opacity(style Style) float64 {
	switch style {
	case StyleActive:
		return 0.5
	case StyleHovered:
		return 0.4
	case StylePending:
		return 0.3
	default:
		return 0.25
	}
}

func (p Palette) Base(class ColorClass) colorful.Color {
	switch class {
	case ColorClassHigh:
		return p.High
	case ColorClassPending:
		return p.Pending
	default:
		return p.Normal
	}
}

// Fill is the translucent highlight color.
func (p Palette) Fill(class ColorClass, style Style) color.NRGBA {
	r, g, b := p.Base(class).RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(Opacity(style)*255 + 0.5)}
}

// Border outlines active highlights; a darker shade of the base color.
func (p Palette) Border(class ColorClass) color.NRGBA {
	r, g, b := p.Base(class).BlendLab(colorful.Color{}, 0.25).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// CSS renders the fill as a CSS color. E.g., "rgba(255, 235, 59, 0.25)"
func (p Palette) CSS(class ColorClass, style Style) string {
	r, g, b := p.Base(class).RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", r, g, b, Opacity(style))
}
