package geometry

import (
	"math"
	"sort"

	"github.com/pagenote-project/pagenote/pkg/utils"
)

// Point is a 2D point. E.g., the top-left corner of a text layer in device pixels.
type Point struct {
	X float64 `json:"x" firestore:"x"`
	Y float64 `json:"y" firestore:"y"`
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
// Persisted rects are in page-space, i.e., PDF points at scale 1.
type Rect struct {
	X      float64 `json:"x" firestore:"x"`
	Y      float64 `json:"y" firestore:"y"`
	Width  float64 `json:"width" firestore:"width"`
	Height float64 `json:"height" firestore:"height"`
}

func (r Rect) Right() float64 {
	return r.X + r.Width
}

func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// IsEmpty reports whether the rect covers no area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Scale multiplies every field by factor.
func (r Rect) Scale(factor float64) Rect {
	return Rect{
		X:      r.X * factor,
		Y:      r.Y * factor,
		Width:  r.Width * factor,
		Height: r.Height * factor,
	}
}

// Union returns the smallest rect containing both r and other.
func (r Rect) Union(other Rect) Rect {
	x := math.Min(r.X, other.X)
	y := math.Min(r.Y, other.Y)
	return Rect{
		X:      x,
		Y:      y,
		Width:  math.Max(r.Right(), other.Right()) - x,
		Height: math.Max(r.Bottom(), other.Bottom()) - y,
	}
}

// ScaleAll scales every rect by factor into a new slice.
func ScaleAll(rects []Rect, factor float64) []Rect {
	return utils.Map(rects, func(rect Rect) Rect {
		return rect.Scale(factor)
	})
}

// FilterEmpty drops zero-area rects. They still matter while grouping lines
// but carry nothing worth persisting.
func FilterEmpty(rects []Rect) []Rect {
	return utils.Filter(rects, func(rect Rect) bool {
		return !rect.IsEmpty()
	})
}

// Bounds returns the union of all rects, or false when rects is empty.
func Bounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	return utils.Reduce(rects[1:], func(bounds Rect, rect Rect) Rect {
		return bounds.Union(rect)
	}, rects[0]), true
}

// DefaultLineTolerance is the fraction of a line's height within which another
// fragment's top edge must lie to be considered part of the same visual line.
const DefaultLineTolerance = 0.5

// Normalizer converts selection fragments reported by the rendering surface
// into page-space, one rect per visual line.
type Normalizer struct {
	// LineTolerance scales the accumulated line height into the maximum
	// vertical distance between top edges on the same line. E.g., 0.5
	LineTolerance float64
}

// Normalize uses DefaultLineTolerance.
func Normalize(fragments []Rect, scale float64, origin Point) []Rect {
	return Normalizer{LineTolerance: DefaultLineTolerance}.Normalize(fragments, scale, origin)
}

// Normalize de-scales device-pixel fragments relative to origin and merges
// them by line. A non-positive scale yields nothing.
func (n Normalizer) Normalize(fragments []Rect, scale float64, origin Point) []Rect {
	if scale <= 0 {
		return []Rect{}
	}
	return n.MergeByLine(Descale(fragments, scale, origin))
}

// Descale undoes the scroll offset and zoom applied to device-pixel rects.
func Descale(fragments []Rect, scale float64, origin Point) []Rect {
	return utils.Map(fragments, func(fragment Rect) Rect {
		return Rect{
			X:      (fragment.X - origin.X) / scale,
			Y:      (fragment.Y - origin.Y) / scale,
			Width:  fragment.Width / scale,
			Height: fragment.Height / scale,
		}
	})
}

// MergeByLine sorts rects top-to-bottom, left-to-right and joins every rect
// whose top edge is close to the current line's top edge. The line keeps its
// original y; only its horizontal span and height grow.
func (n Normalizer) MergeByLine(rects []Rect) []Rect {
	if len(rects) == 0 {
		return []Rect{}
	}

	sorted := make([]Rect, len(rects))
	copy(sorted, rects)
	sort.SliceStable(sorted, func(i int, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	merged := []Rect{sorted[0]}
	for _, current := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !n.isSameLine(*last, current) {
			merged = append(merged, current)
			continue
		}
		minX := math.Min(last.X, current.X)
		maxX := math.Max(last.Right(), current.Right())
		last.X = minX
		last.Width = maxX - minX
		last.Height = math.Max(last.Height, current.Height)
	}
	return merged
}

func (n Normalizer) isSameLine(line Rect, candidate Rect) bool {
	return math.Abs(candidate.Y-line.Y) < line.Height*n.LineTolerance
}
