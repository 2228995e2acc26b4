package overlay

import (
	"github.com/pagenote-project/pagenote/pkg/annotation"
	"github.com/pagenote-project/pagenote/pkg/geometry"
	"github.com/pagenote-project/pagenote/pkg/utils"
)

type Style string

const (
	StyleDefault Style = "default"
	StyleHovered Style = "hovered"
	StyleActive  Style = "active"
	StylePending Style = "pending"
)

type ColorClass string

const (
	ColorClassNormal  ColorClass = "priority-normal"
	ColorClassHigh    ColorClass = "priority-high"
	ColorClassPending ColorClass = "pending"
)

// Interaction is the pointer state owned by the presentation layer.
type Interaction struct {
	ActiveID  string
	HoveredID string
}

// Rect is a highlight in screen-space.
type Rect struct {
	geometry.Rect
	// Empty for the pending selection.
	AnnotationID string     `json:"annotationId,omitempty"`
	RectIndex    int        `json:"rectIndex"`
	Style        Style      `json:"style"`
	ColorClass   ColorClass `json:"colorClass"`
}

// Render projects the annotations on currentPage and the pending selection,
// if it is on the same page, into screen-space at scale. Pending rects come
// last so they draw on top.
func Render(annotations []annotation.Annotation, currentPage int, scale float64, pending *annotation.Position, interaction Interaction) []Rect {
	onPage := utils.Filter(annotations, func(a annotation.Annotation) bool {
		return a.OnPage(currentPage)
	})

	rects := utils.FlatMap(onPage, func(a annotation.Annotation) []Rect {
		style := styleOf(a.ID, interaction)
		colorClass := ColorClassNormal
		if a.IsHighPriority {
			colorClass = ColorClassHigh
		}
		result := make([]Rect, len(a.Position.Rects))
		for i, rect := range a.Position.Rects {
			result[i] = Rect{
				Rect:         rect.Scale(scale),
				AnnotationID: a.ID,
				RectIndex:    i,
				Style:        style,
				ColorClass:   colorClass,
			}
		}
		return result
	})

	if pending == nil || pending.PageNumber != currentPage {
		return rects
	}
	for i, rect := range pending.Rects {
		rects = append(rects, Rect{
			Rect:       rect.Scale(scale),
			RectIndex:  i,
			Style:      StylePending,
			ColorClass: ColorClassPending,
		})
	}
	return rects
}

func styleOf(id string, interaction Interaction) Style {
	if id == "" {
		return StyleDefault
	}
	switch id {
	case interaction.ActiveID:
		return StyleActive
	case interaction.HoveredID:
		return StyleHovered
	default:
		return StyleDefault
	}
}
