package schedule

import "github.com/smileworks/clinic/internal/models"

// Overlaps reports whether the half-open intervals [aStart, aStart+aDur) and
// [bStart, bStart+bDur) intersect. Back-to-back intervals do not overlap.
// Times are minutes since midnight.
func Overlaps(aStart, aDur, bStart, bDur int) bool {
	return aStart < bStart+bDur && bStart < aStart+aDur
}

// HasConflict reports whether a candidate booking [startMin, startMin+dur)
// collides with any existing non-cancelled appointment in appts. The
// appointment with ID excludeID is ignored (update-in-place); pass 0 to
// exclude nothing. Callers are expected to pass only same-date appointments.
func HasConflict(startMin, dur int, appts []models.Appointment, excludeID uint) bool {
	for _, a := range appts {
		if a.Status == "cancelled" {
			continue
		}
		if excludeID != 0 && a.ID == excludeID {
			continue
		}
		existing, err := ParseClock(a.StartTime)
		if err != nil {
			continue
		}
		if Overlaps(startMin, dur, existing, a.DurationMinutes) {
			return true
		}
	}
	return false
}
