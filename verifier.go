package main

import "fmt"

// PathOutcome is the result class of a path verification
type PathOutcome int

const (
	// PathClear means every crossed cell is passable
	PathClear PathOutcome = iota
	// PathSliced means the route hits terrain the player has not seen and
	// the unit cannot cross; the route is cut at the border of that cell
	PathSliced
	// PathRejected means the route crosses a cell the player has observed
	// and the unit cannot cross
	PathRejected
)

func (o PathOutcome) String() string {
	switch o {
	case PathClear:
		return "clear"
	case PathSliced:
		return "sliced"
	case PathRejected:
		return "rejected"
	}
	return fmt.Sprintf("PathOutcome(%d)", int(o))
}

// SegmentVerdict is the verification result for one segment. For a sliced
// segment Points ends on the border of Blocked; for a rejected one Points
// and Cells are empty.
type SegmentVerdict struct {
	Outcome PathOutcome
	Points  []Point
	Cells   []*Cell
	Blocked *Cell
}

// PathVerdict is the verification result for a whole route
type PathVerdict struct {
	Outcome PathOutcome
	Path    Path
	Blocked *Cell
}

// Err returns ErrKnowinglyIllegalPath for a rejected verdict and nil otherwise
func (v PathVerdict) Err() error {
	if v.Outcome != PathRejected {
		return nil
	}
	return fmt.Errorf("cell (%d,%d): %w", v.Blocked.Column, v.Blocked.Row, ErrKnowinglyIllegalPath)
}

// PathVerifier decides move legality from what the moving player knows.
// Impassable terrain the player has seen makes a route illegal; impassable
// terrain they have not seen only stops the unit at its border.
type PathVerifier struct {
	grid *Grid
}

// NewPathVerifier creates a verifier over grid
func NewPathVerifier(grid *Grid) *PathVerifier {
	return &PathVerifier{grid: grid}
}

// VerifySegment traces a -> b and checks each crossed cell in travel order
// against unit's speed table, stopping at the first impassable one.
func (v *PathVerifier) VerifySegment(player *Player, unit *Unit, a, b Point) SegmentVerdict {
	points, cells := v.grid.TraceSegment(a, b)
	for i, c := range cells {
		if unit.SpeedOn(c) > 0 {
			continue
		}
		if player.Observes(c) {
			return SegmentVerdict{Outcome: PathRejected, Blocked: c}
		}
		return SegmentVerdict{
			Outcome: PathSliced,
			Points:  points[:i+1],
			Cells:   cells[:i],
			Blocked: c,
		}
	}
	return SegmentVerdict{Outcome: PathClear, Points: points, Cells: cells}
}

// Verify checks a route through waypoints starting at the unit's current
// position. Segments are verified in order; the first sliced segment ends
// the route and the first rejected one rejects all of it.
func (v *PathVerifier) Verify(player *Player, unit *Unit, waypoints []Point) PathVerdict {
	var path Path
	from := unit.Position()
	path.Points = []Point{from}

	for _, to := range waypoints {
		seg := v.VerifySegment(player, unit, from, to)
		switch seg.Outcome {
		case PathRejected:
			return PathVerdict{Outcome: PathRejected, Blocked: seg.Blocked}
		case PathSliced:
			path.append(seg.Points, seg.Cells)
			return PathVerdict{Outcome: PathSliced, Path: path, Blocked: seg.Blocked}
		}
		path.append(seg.Points, seg.Cells)
		from = to
	}
	return PathVerdict{Outcome: PathClear, Path: path}
}
