package main

import "testing"

func assertPoints(t *testing.T, got, want []Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d points %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if !nearlyEqual(got[i].X, want[i].X) || !nearlyEqual(got[i].Y, want[i].Y) {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func assertCells(t *testing.T, got []*Cell, want ...CellCoord) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Coord() != want[i] {
			t.Errorf("cell %d = %v, want %v", i, got[i].Coord(), want[i])
		}
	}
}

func TestTraceSegmentHorizontal(t *testing.T) {
	g := NewGrid(10, 10, 20)
	points, cells := g.TraceSegment(Point{10, 10}, Point{70, 10})

	assertPoints(t, points, []Point{{10, 10}, {20, 10}, {40, 10}, {60, 10}, {70, 10}})
	assertCells(t, cells, CellCoord{0, 0}, CellCoord{1, 0}, CellCoord{2, 0}, CellCoord{3, 0})
}

func TestTraceSegmentReverse(t *testing.T) {
	g := NewGrid(10, 10, 20)
	points, cells := g.TraceSegment(Point{30, 70}, Point{30, 5})

	assertPoints(t, points, []Point{{30, 70}, {30, 60}, {30, 40}, {30, 20}, {30, 5}})
	assertCells(t, cells, CellCoord{1, 3}, CellCoord{1, 2}, CellCoord{1, 1}, CellCoord{1, 0})
}

func TestTraceSegmentDiagonalThroughCorners(t *testing.T) {
	g := NewGrid(10, 10, 20)
	points, cells := g.TraceSegment(Point{10, 10}, Point{50, 50})

	// each grid corner is crossed once, not as two separate border points
	assertPoints(t, points, []Point{{10, 10}, {20, 20}, {40, 40}, {50, 50}})
	assertCells(t, cells, CellCoord{0, 0}, CellCoord{1, 1}, CellCoord{2, 2})
}

func TestTraceSegmentShallowDiagonal(t *testing.T) {
	g := NewGrid(10, 10, 20)
	points, cells := g.TraceSegment(Point{10, 10}, Point{50, 30})

	// y = 10 + (x-10)/2: crosses x=20 at y=15, y=20 at x=30, x=40 at y=25
	assertPoints(t, points, []Point{{10, 10}, {20, 15}, {30, 20}, {40, 25}, {50, 30}})
	assertCells(t, cells, CellCoord{0, 0}, CellCoord{1, 0}, CellCoord{1, 1}, CellCoord{2, 1})
}

func TestTraceSegmentInsideOneCell(t *testing.T) {
	g := NewGrid(10, 10, 20)
	points, cells := g.TraceSegment(Point{2, 3}, Point{15, 18})

	assertPoints(t, points, []Point{{2, 3}, {15, 18}})
	assertCells(t, cells, CellCoord{0, 0})
}

func TestTraceSegmentStartOnBorder(t *testing.T) {
	g := NewGrid(10, 10, 20)
	points, cells := g.TraceSegment(Point{20, 10}, Point{60, 10})

	assertPoints(t, points, []Point{{20, 10}, {40, 10}, {60, 10}})
	assertCells(t, cells, CellCoord{1, 0}, CellCoord{2, 0})
}

func TestTraceSegmentZeroLength(t *testing.T) {
	g := NewGrid(10, 10, 20)
	points, cells := g.TraceSegment(Point{33, 44}, Point{33, 44})
	if len(points) != 1 || len(cells) != 0 {
		t.Errorf("zero-length segment: got %d points %d cells, want 1 and 0", len(points), len(cells))
	}
}

func TestTraceSegmentPointCellInvariant(t *testing.T) {
	g := NewGrid(10, 10, 20)
	segments := [][2]Point{
		{{1, 1}, {199, 199}},
		{{199, 1}, {1, 199}},
		{{5, 150}, {190, 7}},
		{{100, 100}, {100.5, 180}},
	}
	for _, s := range segments {
		points, cells := g.TraceSegment(s[0], s[1])
		if len(points) != len(cells)+1 {
			t.Errorf("%v -> %v: %d points for %d cells", s[0], s[1], len(points), len(cells))
		}
		for i := 1; i < len(cells); i++ {
			a, b := cells[i-1], cells[i]
			dc, dr := a.Column-b.Column, a.Row-b.Row
			if dc < -1 || dc > 1 || dr < -1 || dr > 1 || (dc == 0 && dr == 0) {
				t.Errorf("%v -> %v: cells %v and %v are not neighbours", s[0], s[1], a.Coord(), b.Coord())
			}
		}
	}
}

func TestPathAppendAndLength(t *testing.T) {
	g := NewGrid(10, 10, 20)
	var p Path
	p.append(g.TraceSegment(Point{10, 10}, Point{50, 10}))
	p.append(g.TraceSegment(Point{50, 10}, Point{50, 50}))

	if len(p.Points) != len(p.Cells)+1 {
		t.Fatalf("%d points for %d cells", len(p.Points), len(p.Cells))
	}
	if !nearlyEqual(p.Length(), 80) {
		t.Errorf("length = %v, want 80", p.Length())
	}
	if p.End() != (Point{50, 50}) {
		t.Errorf("end = %v, want (50,50)", p.End())
	}
}
