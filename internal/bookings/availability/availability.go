// Package availability decides whether a proposed rental range is free.
//
// Ranges are half-open: [start, end). A booking ending on the day another
// starts does not conflict with it.
package availability

import (
	"time"

	"petrent/pkg/model"
)

// Overlaps reports whether [s1,e1) and [s2,e2) share any instant.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// IsAvailable reports whether [start,end) is free of every non-cancelled
// booking in existing.
func IsAvailable(start, end time.Time, existing []model.Booking) bool {
	return len(Conflicts(start, end, existing)) == 0
}

// Conflicts returns the non-cancelled bookings that overlap [start,end), in
// input order.
func Conflicts(start, end time.Time, existing []model.Booking) []model.Booking {
	var conflicts []model.Booking
	for _, b := range existing {
		if b.Status == model.BookingCancelled {
			continue
		}
		if Overlaps(b.StartAt, b.EndAt, start, end) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts
}
