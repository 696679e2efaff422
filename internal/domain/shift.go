package domain

import "time"

// Shift is a bounded work period of one service.
type Shift struct {
	ID        string
	ServiceID string
	Sequence  int64
	StartTime time.Time
	EndTime   *time.Time
	OpenedBy  *string
	IsDeleted bool
}

// IsOpen reports whether the shift is the live, open shift of its service.
func (s *Shift) IsOpen() bool {
	return s.EndTime == nil && !s.IsDeleted
}

// Close sets the end time.
func (s *Shift) Close(at time.Time) {
	s.EndTime = &at
}

// Overlaps reports whether the shift intersects [from, to].
// An open shift extends to now.
func (s *Shift) Overlaps(from, to time.Time) bool {
	if s.StartTime.After(to) {
		return false
	}
	if s.EndTime != nil && s.EndTime.Before(from) {
		return false
	}
	return true
}
