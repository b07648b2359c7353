package main

import "math"

// Path is a polyline through the grid. Cells[i] is the cell the unit
// crosses between Points[i] and Points[i+1], so len(Points) == len(Cells)+1
// whenever the path is non-empty.
type Path struct {
	Points []Point
	Cells  []*Cell
}

// Empty reports whether the path has no segment to travel
func (p Path) Empty() bool {
	return len(p.Cells) == 0
}

// End returns the last point of the path
func (p Path) End() Point {
	return p.Points[len(p.Points)-1]
}

// Length returns the total travel distance
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p.Points); i++ {
		total += Distance(p.Points[i-1], p.Points[i])
	}
	return total
}

// append adds a traced segment. The segment's first point must equal the
// current end of the path and is not repeated.
func (p *Path) append(points []Point, cells []*Cell) {
	if len(p.Points) == 0 {
		p.Points = append(p.Points, points...)
	} else if len(points) > 1 {
		p.Points = append(p.Points, points[1:]...)
	}
	p.Cells = append(p.Cells, cells...)
}

// crossing is a point where a segment meets a cell border, t being the
// segment parameter in [0, 1]
type crossing struct {
	t float64
	p Point
}

// borderCrossings scans one axis for grid lines strictly between from and
// to, in travel order; at positions each line on the segment.
func borderCrossings(from, to, side float64, at func(v float64) crossing) []crossing {
	var out []crossing
	switch {
	case to > from:
		for k := math.Floor(from/side) + 1; k*side < to-geomEpsilon; k++ {
			if k*side <= from+geomEpsilon {
				continue
			}
			out = append(out, at(k*side))
		}
	case to < from:
		for k := math.Ceil(from/side) - 1; k*side > to+geomEpsilon; k-- {
			if k*side >= from-geomEpsilon {
				continue
			}
			out = append(out, at(k*side))
		}
	}
	return out
}

// TraceSegment returns the ordered border crossings of the segment a -> b
// (bracketed by a and b themselves) and the cell travelled between each
// consecutive pair of points. A crossing through a cell corner yields a
// single point. A zero-length segment yields just [a] and no cells.
func (g *Grid) TraceSegment(a, b Point) ([]Point, []*Cell) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	if math.Abs(dx) < geomEpsilon && math.Abs(dy) < geomEpsilon {
		return []Point{a}, nil
	}

	vertical := borderCrossings(a.X, b.X, g.Side, func(x float64) crossing {
		t := (x - a.X) / dx
		return crossing{t: t, p: Point{X: x, Y: a.Y + t*dy}}
	})
	horizontal := borderCrossings(a.Y, b.Y, g.Side, func(y float64) crossing {
		t := (y - a.Y) / dy
		return crossing{t: t, p: Point{X: a.X + t*dx, Y: y}}
	})

	points := make([]Point, 0, len(vertical)+len(horizontal)+2)
	points = append(points, a)
	i, j := 0, 0
	for i < len(vertical) || j < len(horizontal) {
		switch {
		case j >= len(horizontal):
			points = append(points, vertical[i].p)
			i++
		case i >= len(vertical):
			points = append(points, horizontal[j].p)
			j++
		case math.Abs(vertical[i].t-horizontal[j].t) < geomEpsilon:
			// through a corner: one point on both borders
			points = append(points, Point{X: vertical[i].p.X, Y: horizontal[j].p.Y})
			i++
			j++
		case vertical[i].t < horizontal[j].t:
			points = append(points, vertical[i].p)
			i++
		default:
			points = append(points, horizontal[j].p)
			j++
		}
	}
	points = append(points, b)

	cells := make([]*Cell, 0, len(points)-1)
	for k := 0; k+1 < len(points); k++ {
		p, q := points[k], points[k+1]
		cells = append(cells, g.CellAt((p.X+q.X)/2, (p.Y+q.Y)/2))
	}
	return points, cells
}
