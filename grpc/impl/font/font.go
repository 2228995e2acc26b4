package font

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

type FontProvider interface {
	// Returns the face used for the ordinal labels of rendered overlays.
	LabelFace() font.Face
}

type fontProvider struct {
	label font.Face
}

// New loads the TrueType font at path at the given point size. An empty path
// falls back to the built-in 7x13 bitmap face.
func New(path string, size float64) (FontProvider, error) {
	if path == "" {
		return &fontProvider{label: basicfont.Face7x13}, nil
	}
	if size <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", size)
	}

	f, err := parseFontFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load label font: %w", err)
	}
	return &fontProvider{
		label: truetype.NewFace(f, &truetype.Options{Size: size, Hinting: font.HintingFull}),
	}, nil
}

func (fp *fontProvider) LabelFace() font.Face {
	return fp.label
}

func parseFontFile(path string) (*truetype.Font, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(fontBytes)
}
