package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pagenote-project/pagenote/pkg/geometry"
	"github.com/pagenote-project/pagenote/pkg/overlay"
	"github.com/pagenote-project/pagenote/pkg/zoom"
)

// Viewer holds the tunables shared by the server and its clients.
type Viewer struct {
	Zoom zoom.Options `json:"zoom" yaml:"zoom"`
	// Fraction of a line's height used to group selection fragments. E.g., 0.5
	LineTolerance float64 `json:"lineTolerance" yaml:"line_tolerance"`
	Colors        Colors  `json:"colors" yaml:"colors"`
}

// Hex colors of the highlight classes. E.g., "#ffeb3b"
type Colors struct {
	Normal  string `json:"normal" yaml:"normal"`
	High    string `json:"high" yaml:"high"`
	Pending string `json:"pending" yaml:"pending"`
}

func Default() Viewer {
	return Viewer{
		Zoom:          zoom.DefaultOptions(),
		LineTolerance: geometry.DefaultLineTolerance,
		Colors: Colors{
			Normal:  "#ffeb3b",
			High:    "#ef5350",
			Pending: "#81d4fa",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Viewer, error) {
	viewer := Default()
	if path == "" {
		return viewer, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Viewer{}, fmt.Errorf("failed to read viewer config: %w", err)
	}
	if err := yaml.Unmarshal(data, &viewer); err != nil {
		return Viewer{}, fmt.Errorf("failed to parse viewer config: %w", err)
	}
	if err := viewer.Validate(); err != nil {
		return Viewer{}, err
	}
	return viewer, nil
}

func (v Viewer) Validate() error {
	z := v.Zoom
	if z.MinScale <= 0 || z.MaxScale < z.MinScale {
		return fmt.Errorf("invalid zoom bounds [%v, %v]", z.MinScale, z.MaxScale)
	}
	if z.Step <= 0 {
		return fmt.Errorf("zoom step must be positive, got %v", z.Step)
	}
	if z.InitialScale < z.MinScale || z.InitialScale > z.MaxScale {
		return fmt.Errorf("initial scale %v is outside [%v, %v]", z.InitialScale, z.MinScale, z.MaxScale)
	}
	for _, preset := range z.Presets {
		if preset < z.MinScale || preset > z.MaxScale {
			return fmt.Errorf("preset %v is outside [%v, %v]", preset, z.MinScale, z.MaxScale)
		}
	}
	if v.LineTolerance <= 0 {
		return fmt.Errorf("line tolerance must be positive, got %v", v.LineTolerance)
	}
	if _, err := v.Palette(); err != nil {
		return err
	}
	return nil
}

func (v Viewer) Normalizer() geometry.Normalizer {
	return geometry.Normalizer{LineTolerance: v.LineTolerance}
}

func (v Viewer) Palette() (overlay.Palette, error) {
	return overlay.NewPalette(v.Colors.Normal, v.Colors.High, v.Colors.Pending)
}
