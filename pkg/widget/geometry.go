package widget

import "math"

// Rect is an axis-aligned box in screen units. X, Y is the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Contains reports whether the point lies inside r (edges included).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.Right() && y >= r.Y && y <= r.Bottom()
}

// distance is the Euclidean distance from a point to r; zero inside.
func (r Rect) distance(x, y float64) float64 {
	dx := math.Max(math.Max(r.X-x, 0), x-r.Right())
	dy := math.Max(math.Max(r.Y-y, 0), y-r.Bottom())
	return math.Hypot(dx, dy)
}

// ScreenLocator reports the usable region of the screen nearest a point.
// The windowing toolkit provides the real implementation.
type ScreenLocator interface {
	WorkingArea(x, y float64) Rect
}

// DefaultWorkingArea is used when no screen is known.
var DefaultWorkingArea = Rect{X: 0, Y: 0, W: 1920, H: 1040}

// Screens is a fixed list of working areas. The first entry is the primary screen.
type Screens []Rect

// WorkingArea returns the working area containing (x, y), or the nearest one.
func (s Screens) WorkingArea(x, y float64) Rect {
	if len(s) == 0 {
		return DefaultWorkingArea
	}
	best := s[0]
	bestDist := best.distance(x, y)
	for _, r := range s[1:] {
		if d := r.distance(x, y); d < bestDist {
			best, bestDist = r, d
		}
	}
	return best
}

// Primary returns the first working area.
func (s Screens) Primary() Rect {
	if len(s) == 0 {
		return DefaultWorkingArea
	}
	return s[0]
}

// ClampToArea moves b so that at least margin units of it stay inside area
// on each axis. Axes are handled independently.
func ClampToArea(b, area Rect, margin float64) Rect {
	if b.X+b.W-margin < area.X {
		b.X = area.X
	}
	if b.X+margin > area.Right() {
		b.X = area.Right() - b.W
	}
	if b.Y+b.H-margin < area.Y {
		b.Y = area.Y
	}
	if b.Y+margin > area.Bottom() {
		b.Y = area.Bottom() - b.H
	}
	return b
}

// PrimaryArea returns the primary working area of loc when it knows one,
// otherwise the area around the origin.
func PrimaryArea(loc ScreenLocator) Rect {
	if p, ok := loc.(interface{ Primary() Rect }); ok {
		return p.Primary()
	}
	return loc.WorkingArea(0, 0)
}

// Centered returns a w×h box centred in area.
func Centered(area Rect, w, h float64) Rect {
	return Rect{X: area.X + (area.W-w)/2, Y: area.Y + (area.H-h)/2, W: w, H: h}
}
