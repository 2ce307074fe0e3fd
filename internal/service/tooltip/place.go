package tooltip

// Placement offsets, in pixels.
const (
	anchorGap   = 15
	edgeGuard   = 20
	minimumEdge = 10
)

// Point is a viewport coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is the rendered box of a tooltip.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Left+r.Width &&
		p.Y >= r.Top && p.Y <= r.Top+r.Height
}

// Placement tells whether the tooltip sits below or above its anchor.
type Placement int

const (
	PlacementBelow Placement = iota
	PlacementAbove
)

func (p Placement) String() string {
	if p == PlacementAbove {
		return "above"
	}
	return "below"
}

// Place positions a box of the given size next to anchor inside viewport.
// The box goes below the anchor unless that would cross the bottom guard,
// in which case it flips above. Neither coordinate goes under the 10px floor.
func Place(anchor Point, size Size, viewport Size) (Rect, Placement) {
	left := anchor.X
	top := anchor.Y + anchorGap
	placement := PlacementBelow

	if left+size.Width > viewport.Width-edgeGuard {
		left = viewport.Width - size.Width - edgeGuard
	}
	if left < minimumEdge {
		left = minimumEdge
	}

	if top+size.Height > viewport.Height-edgeGuard {
		top = anchor.Y - size.Height - anchorGap
		placement = PlacementAbove
	}
	if top < minimumEdge {
		top = minimumEdge
	}

	return Rect{Left: left, Top: top, Width: size.Width, Height: size.Height}, placement
}
