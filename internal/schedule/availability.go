package schedule

import "github.com/smileworks/clinic/internal/models"

// Window describes the clinic's bookable day: business hours as minutes
// since midnight, the slot grid step, and the mandatory idle buffer around
// existing appointments.
type Window struct {
	OpenMinutes  int
	CloseMinutes int
	SlotInterval int
	Buffer       int
}

// Slots returns the ordered open start times ("HH:MM:SS") for an appointment
// of durationMins, given the existing appointments on the requested date.
//
// A grid point s is open when:
//   - the appointment would end by closing time,
//   - s does not fall inside any existing appointment's padded busy window
//     [start-buffer, end+buffer] (ends inclusive),
//   - [s, s+duration) does not overlap the appointment's raw interval.
//
// Cancelled appointments never block. Zero slots is a valid result.
func Slots(win Window, durationMins int, appts []models.Appointment) []string {
	slots := []string{}
	if durationMins <= 0 || win.SlotInterval <= 0 {
		return slots
	}

	type busy struct{ start, dur int }
	occupied := make([]busy, 0, len(appts))
	for _, a := range appts {
		if a.Status == "cancelled" {
			continue
		}
		start, err := ParseClock(a.StartTime)
		if err != nil {
			continue
		}
		occupied = append(occupied, busy{start, a.DurationMinutes})
	}

	for s := win.OpenMinutes; s+durationMins <= win.CloseMinutes; s += win.SlotInterval {
		open := true
		for _, b := range occupied {
			if s >= b.start-win.Buffer && s <= b.start+b.dur+win.Buffer {
				open = false
				break
			}
			if Overlaps(s, durationMins, b.start, b.dur) {
				open = false
				break
			}
		}
		if open {
			slots = append(slots, FormatClock(s))
		}
	}
	return slots
}
