package charts

import "math"

// DefaultZippedSize caps the number of points a series is reduced to
const DefaultZippedSize = 1000

// GraphZipper reduces a series of baseSize points to at most zippedSize
// points, averaging consecutive groups. Points are numbered from 1 and a
// group is placed at its middle point.
type GraphZipper struct {
	ratio   float64
	order   int
	group   int
	start   int
	pending []float64
	points  []Point
}

// NewGraphZipper creates a zipper for baseSize incoming points
func NewGraphZipper(baseSize, zippedSize int) *GraphZipper {
	if zippedSize <= 0 {
		zippedSize = DefaultZippedSize
	}
	ratio := 1.0
	if baseSize > zippedSize {
		ratio = float64(baseSize) / float64(zippedSize)
	}
	return &GraphZipper{ratio: ratio}
}

// AddPoint appends the next value of the series
func (z *GraphZipper) AddPoint(value float64) {
	z.order++
	group := int(math.Ceil(float64(z.order)/z.ratio - 1e-9))
	if len(z.pending) > 0 && group != z.group {
		z.flush()
	}
	if len(z.pending) == 0 {
		z.start = z.order
		z.group = group
	}
	z.pending = append(z.pending, value)
}

func (z *GraphZipper) flush() {
	if len(z.pending) == 0 {
		return
	}
	x := float64(z.start + (len(z.pending)-1)/2)
	z.points = append(z.points, Point{x, Mean(z.pending)})
	z.pending = z.pending[:0]
}

// Points returns the zipped series
func (z *GraphZipper) Points() []Point {
	z.flush()
	out := make([]Point, len(z.points))
	copy(out, z.points)
	return out
}
