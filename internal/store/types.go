package store

import (
	"errors"
	"time"
)

// Closed set of storage outcomes the service layer branches on. Anything
// else coming out of the store is an opaque backend fault.
var (
	// ErrOverlap means the database rejected an insert because the range
	// intersects an existing active booking on the same sub-spot.
	ErrOverlap = errors.New("booking overlaps an existing active booking")

	// ErrInvalidRange means end <= start.
	ErrInvalidRange = errors.New("booking end must be after start")

	// ErrEmailTaken means the unique email constraint rejected a signup.
	ErrEmailTaken = errors.New("email already registered")

	// ErrSubSpotNotFound means the booking referenced a sub-spot that does
	// not exist.
	ErrSubSpotNotFound = errors.New("sub-spot not found")
)

// ActiveNowInfo describes the booking covering the current instant on a
// sub-spot. Used by read paths to render free/busy state; it is a UI hint,
// never a correctness mechanism.
type ActiveNowInfo struct {
	UserID    int64     `json:"userId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}
