package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("defaults are invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
zoom:
  max_scale: 4
  presets: [0.5, 1, 2, 4]
line_tolerance: 0.6
colors:
  high: "#ff0000"
`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	want := Default()
	want.Zoom.MaxScale = 4
	want.Zoom.Presets = []float64{0.5, 1, 2, 4}
	want.LineTolerance = 0.6
	want.Colors.High = "#ff0000"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got.Normalizer().LineTolerance != 0.6 {
		t.Errorf("Normalizer() tolerance = %v", got.Normalizer().LineTolerance)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]string{
		"preset above max": "zoom:\n  presets: [8]\n",
		"zero tolerance":   "line_tolerance: 0\n",
		"bad color":        "colors:\n  pending: blue\n",
		"bad yaml":         "zoom: [\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("Load() accepted an invalid config")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() accepted a missing file")
	}
}
