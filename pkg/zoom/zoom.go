package zoom

import (
	"math"
	"sync"
)

type FitMode string

const (
	FitModeManual FitMode = "manual"
	FitModeWidth  FitMode = "fit-width"
	FitModePage   FitMode = "fit-page"
)

// Dimensions of a page in page-space points at scale 1, or of the hosting
// container in device pixels.
type Dimensions struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (d Dimensions) valid() bool {
	return d.Width > 0 && d.Height > 0
}

type Options struct {
	// E.g., 0.25
	MinScale float64 `json:"minScale" yaml:"min_scale"`
	// E.g., 5.0
	MaxScale float64 `json:"maxScale" yaml:"max_scale"`
	// Applied by ZoomIn and ZoomOut. E.g., 0.25
	Step float64 `json:"step" yaml:"step"`
	// Margin subtracted from the container on each axis before fitting, split evenly between both sides. E.g., 32
	Padding float64 `json:"padding" yaml:"padding"`
	// E.g., 1.5
	InitialScale float64 `json:"initialScale" yaml:"initial_scale"`
	// Scales offered in a zoom menu; all within [MinScale, MaxScale].
	Presets []float64 `json:"presets" yaml:"presets"`
}

func DefaultOptions() Options {
	return Options{
		MinScale:     0.25,
		MaxScale:     5.0,
		Step:         0.25,
		Padding:      32,
		InitialScale: 1.5,
		Presets:      []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0, 3.0},
	}
}

// State is a snapshot of the viewport.
type State struct {
	Scale   float64 `json:"scale"`
	FitMode FitMode `json:"fitMode"`
	// Nil until the renderer reports the page size.
	BasePage *Dimensions `json:"basePage,omitempty"`
}

// Controller owns the render scale of one document view. In a fit mode the
// scale is derived from the container and page dimensions and recomputed
// whenever either changes.
type Controller struct {
	mu        sync.Mutex
	options   Options
	scale     float64
	fitMode   FitMode
	basePage  *Dimensions
	container *Dimensions
	listeners []func(State)
}

func New(options Options) *Controller {
	scale := options.InitialScale
	if scale <= 0 {
		scale = 1
	}
	return &Controller{
		options: options,
		scale:   scale,
		fitMode: FitModeManual,
	}
}

func (c *Controller) Options() Options {
	return c.options
}

func (c *Controller) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

func (c *Controller) FitMode() FitMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fitMode
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// ZoomPercentage is the scale rounded to a whole percent. E.g., 150
func (c *Controller) ZoomPercentage() int {
	return int(math.Round(c.Scale() * 100))
}

func (c *Controller) CanZoomIn() bool {
	return c.Scale() < c.options.MaxScale
}

func (c *Controller) CanZoomOut() bool {
	return c.Scale() > c.options.MinScale
}

// Subscribe registers fn to be called after every change to the state.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) ZoomIn() {
	c.update(func() {
		c.fitMode = FitModeManual
		c.scale = c.clamp(c.scale + c.options.Step)
	})
}

func (c *Controller) ZoomOut() {
	c.update(func() {
		c.fitMode = FitModeManual
		c.scale = c.clamp(c.scale - c.options.Step)
	})
}

// SetPreset switches to manual mode at the given scale. Presets are not
// clamped; a non-positive value is ignored.
func (c *Controller) SetPreset(value float64) {
	if value <= 0 {
		return
	}
	c.update(func() {
		c.fitMode = FitModeManual
		c.scale = value
	})
}

func (c *Controller) FitToWidth() {
	c.fitTo(FitModeWidth)
}

func (c *Controller) FitToPage() {
	c.fitTo(FitModePage)
}

// SetBasePageDimensions records the page size at scale 1, reported by the
// renderer once per page load.
func (c *Controller) SetBasePageDimensions(width float64, height float64) {
	c.update(func() {
		c.basePage = &Dimensions{Width: width, Height: height}
		c.refitLocked()
	})
}

// SetContainerSize records the hosting container size and refits when a
// fit mode is active.
func (c *Controller) SetContainerSize(width float64, height float64) {
	c.update(func() {
		c.container = &Dimensions{Width: width, Height: height}
		c.refitLocked()
	})
}

// ComputeFitScale returns the scale mode would apply, or false while either
// dimension is unknown.
func (c *Controller) ComputeFitScale(mode FitMode) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computeFitScaleLocked(mode)
}

func (c *Controller) fitTo(mode FitMode) {
	c.update(func() {
		c.fitMode = mode
		c.refitLocked()
	})
}

func (c *Controller) refitLocked() {
	if c.fitMode == FitModeManual {
		return
	}
	if scale, ok := c.computeFitScaleLocked(c.fitMode); ok {
		c.scale = scale
	}
}

func (c *Controller) computeFitScaleLocked(mode FitMode) (float64, bool) {
	if c.container == nil || c.basePage == nil {
		return 0, false
	}
	return FitScale(mode, *c.container, *c.basePage, c.options)
}

// FitScale computes the scale fitting page into container. The result is
// capped at MaxScale but may fall below MinScale for very large pages.
func FitScale(mode FitMode, container Dimensions, page Dimensions, options Options) (float64, bool) {
	if mode == FitModeManual || !page.valid() {
		return 0, false
	}
	availableWidth := container.Width - options.Padding
	availableHeight := container.Height - options.Padding
	if availableWidth <= 0 {
		return 0, false
	}

	scaleX := availableWidth / page.Width
	switch mode {
	case FitModeWidth:
		return math.Min(scaleX, options.MaxScale), true
	case FitModePage:
		if availableHeight <= 0 {
			return 0, false
		}
		scaleY := availableHeight / page.Height
		return math.Min(math.Min(scaleX, scaleY), options.MaxScale), true
	default:
		return 0, false
	}
}

func (c *Controller) clamp(scale float64) float64 {
	return math.Max(c.options.MinScale, math.Min(scale, c.options.MaxScale))
}

func (c *Controller) stateLocked() State {
	state := State{Scale: c.scale, FitMode: c.fitMode}
	if c.basePage != nil {
		page := *c.basePage
		state.BasePage = &page
	}
	return state
}

// update applies mutate under the lock and notifies listeners outside of it
// when the state changed.
func (c *Controller) update(mutate func()) {
	c.mu.Lock()
	before := c.stateLocked()
	mutate()
	after := c.stateLocked()
	listeners := append([]func(State){}, c.listeners...)
	c.mu.Unlock()

	if sameState(before, after) {
		return
	}
	for _, listener := range listeners {
		listener(after)
	}
}

func sameState(a State, b State) bool {
	if a.Scale != b.Scale || a.FitMode != b.FitMode {
		return false
	}
	if a.BasePage == nil || b.BasePage == nil {
		return a.BasePage == b.BasePage
	}
	return *a.BasePage == *b.BasePage
}
