package grading

import (
	"fmt"
	"time"
)

// Status labels an assignment relative to a point in time.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusUpcoming    Status = "upcoming"
	StatusOverdue     Status = "overdue"
	StatusUnavailable Status = "unavailable"
)

// Window is the availability configuration of one assignment.
type Window struct {
	IsAvailable bool
	OpenedAt    *time.Time
	ClosedAt    *time.Time
}

// ResolveStatus applies the rules in precedence order: manual toggle, close
// time, open time. The first rule that matches wins.
func ResolveStatus(window Window, now time.Time) Status {
	switch {
	case !window.IsAvailable:
		return StatusUnavailable
	case window.ClosedAt != nil && now.After(*window.ClosedAt):
		return StatusOverdue
	case window.OpenedAt != nil && now.Before(*window.OpenedAt):
		return StatusUpcoming
	default:
		return StatusAvailable
	}
}

// EnsureOpen fails with ErrSubmissionWindowClosed unless the window is available at now.
func EnsureOpen(window Window, now time.Time) error {
	if status := ResolveStatus(window, now); status != StatusAvailable {
		return fmt.Errorf("%w: assignment is %s", ErrSubmissionWindowClosed, status)
	}
	return nil
}
