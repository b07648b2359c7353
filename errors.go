package main

import "errors"

// Intent rejections. All of them are recovered at the match or client
// boundary and turned into an error envelope for the originating connection.
var (
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrNotJoined             = errors.New("not joined to a match")
	ErrMalformedIntent       = errors.New("malformed intent")
	ErrUnauthorizedReference = errors.New("entity not owned by requester")
	ErrInvalidPlacement      = errors.New("invalid placement")
	ErrMatchFull             = errors.New("match full")
	ErrMatchClosed           = errors.New("match closed")
	ErrMatchNotFound         = errors.New("match not found")
	ErrTooManyMatches        = errors.New("too many active matches")
)

// ErrKnowinglyIllegalPath rejects a move whose route crosses a cell the
// player has already observed to be impassable for the unit.
var ErrKnowinglyIllegalPath = errors.New("path crosses terrain known to be impassable")

// ErrOccupancyMismatch means cell occupancy and an entity's occupied-cell
// list disagree. It is fatal to the match that detects it.
var ErrOccupancyMismatch = errors.New("occupancy bookkeeping mismatch")
