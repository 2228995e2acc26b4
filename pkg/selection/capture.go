package selection

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
)

// Offsets of the commit affordance from the trailing edge of the selection, in device pixels.
const (
	AnchorOffsetX = 4
	AnchorOffsetY = -36
)

var ErrNoPending = errors.New("no pending selection")

// Raw is the platform selection as reported by the rendering surface.
type Raw struct {
	Text      string
	Collapsed bool
	// Device-pixel rects of the selected range, one per text run fragment.
	ClientRects []geometry.Rect
	// Top-left corner of the page's text layer container in the same device space.
	ContainerOrigin geometry.Point
	// Page of the text layer containing each endpoint, or 0 when the endpoint
	// lies outside every text layer (sidebar, toolbar, margins).
	AnchorPage int
	FocusPage  int
}

// Surface is the rendering capability that owns the platform text selection.
type Surface interface {
	// ActiveSelection returns the current selection, or false when there is none.
	ActiveSelection() (Raw, bool)
	ClearSelection()
}

type ScaleSource interface {
	Scale() float64
}

type Identity interface {
	// ActorID returns the signed-in actor, or false when anonymous.
	ActorID() (string, bool)
}

// Creator persists a committed selection. Implemented by the annotation store.
type Creator interface {
	Create(ctx context.Context, request annotation.CreateRequest) (annotation.Annotation, error)
}

// Prompter asks an anonymous actor to sign in.
type Prompter interface {
	PromptSignIn(pending Pending)
}

// Pending is a captured, uncommitted selection.
type Pending struct {
	Text       string
	PageNumber int
	// Page-space rects, one per visual line.
	Rects []geometry.Rect
	// Where to place the commit affordance, relative to the text layer container.
	Anchor geometry.Point
}

// Position returns the anchor the pending selection would be persisted with.
func (p Pending) Position() annotation.Position {
	return annotation.Position{PageNumber: p.PageNumber, Rects: p.Rects}
}

type Config struct {
	DocumentID string
	Surface    Surface
	Scale      ScaleSource
	Identity   Identity
	Creator    Creator
	Prompter   Prompter
	Normalizer geometry.Normalizer
}

// Capture turns pointer-released text selections on the current page into a
// single pending selection and commits it as an annotation.
type Capture struct {
	config Config

	mu          sync.Mutex
	currentPage int
	pending     *Pending
	// Incremented each time the pending slot is filled.
	generation uint64
}

func New(config Config) *Capture {
	if config.Normalizer.LineTolerance == 0 {
		config.Normalizer.LineTolerance = geometry.DefaultLineTolerance
	}
	return &Capture{config: config, currentPage: 1}
}

func (c *Capture) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentPage = page
}

func (c *Capture) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

// Pending returns the pending selection, if any.
func (c *Capture) Pending() (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Pending{}, false
	}
	return *c.pending, true
}

// HandlePointerUp inspects the platform selection after a pointer release and
// enters the pending state when it is a non-empty selection fully inside the
// current page's text layer. Any previous pending selection is replaced.
// Invalid selections are ignored and left for the user to adjust.
func (c *Capture) HandlePointerUp() bool {
	raw, ok := c.config.Surface.ActiveSelection()
	if !ok || raw.Collapsed {
		return false
	}
	text := strings.TrimSpace(raw.Text)
	if text == "" || len(raw.ClientRects) == 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if raw.AnchorPage != c.currentPage || raw.FocusPage != c.currentPage {
		return false
	}

	// Zero-area rects still take part in line grouping, but at least one
	// line must cover an area to be worth committing.
	rects := c.config.Normalizer.Normalize(raw.ClientRects, c.config.Scale.Scale(), raw.ContainerOrigin)
	if len(geometry.FilterEmpty(rects)) == 0 {
		return false
	}

	last := raw.ClientRects[len(raw.ClientRects)-1]
	c.pending = &Pending{
		Text:       text,
		PageNumber: c.currentPage,
		Rects:      rects,
		Anchor: geometry.Point{
			X: last.Right() - raw.ContainerOrigin.X + AnchorOffsetX,
			Y: last.Y - raw.ContainerOrigin.Y + AnchorOffsetY,
		},
	}
	c.generation++
	return true
}

// Cancel drops the pending selection without creating anything.
func (c *Capture) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// HandleOutsideClick is a click anywhere except the commit affordance.
func (c *Capture) HandleOutsideClick() {
	c.Cancel()
}

// Commit creates an annotation from the pending selection. Anonymous actors
// are routed to the sign-in prompt and keep their pending selection.
func (c *Capture) Commit(ctx context.Context, comment string, isHighPriority bool) (annotation.Annotation, error) {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return annotation.Annotation{}, ErrNoPending
	}
	pending := *c.pending
	generation := c.generation

	if _, ok := c.config.Identity.ActorID(); !ok {
		c.mu.Unlock()
		if c.config.Prompter != nil {
			c.config.Prompter.PromptSignIn(pending)
		}
		return annotation.Annotation{}, &annotation.AuthorizationError{
			Status:  http.StatusUnauthorized,
			Message: "sign in to annotate",
		}
	}
	if strings.TrimSpace(comment) == "" {
		c.mu.Unlock()
		return annotation.Annotation{}, &annotation.ValidationError{
			Message: annotation.MessageValidationFailed,
			Details: []string{annotation.MessageComment},
		}
	}
	c.pending = nil
	c.mu.Unlock()

	c.config.Surface.ClearSelection()

	created, err := c.config.Creator.Create(ctx, annotation.CreateRequest{
		DocumentID:   c.config.DocumentID,
		SelectedText: pending.Text,
		Comment:      strings.TrimSpace(comment),
		Position: annotation.Position{
			PageNumber: pending.PageNumber,
			Rects:      geometry.FilterEmpty(pending.Rects),
		},
		IsHighPriority: isHighPriority,
	})
	if err != nil {
		c.restore(pending, generation)
		return annotation.Annotation{}, err
	}
	return created, nil
}

// restore puts a failed commit back in the slot unless a newer selection was
// captured or the slot was explicitly refilled meanwhile.
func (c *Capture) restore(pending Pending, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil && c.generation == generation {
		c.pending = &pending
	}
}
