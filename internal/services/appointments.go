package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/models"
	"github.com/smileworks/clinic/internal/schedule"
)

// Appointments owns the single shared clinic calendar. All schedule writes
// run inside one transaction with the conflict check so that the
// check-then-insert sequence cannot interleave with another booking.
type Appointments struct {
	db  *gorm.DB
	win schedule.Window
	loc *time.Location
	now func() time.Time
}

func NewAppointments(db *gorm.DB, win schedule.Window, loc *time.Location) *Appointments {
	return &Appointments{db: db, win: win, loc: loc, now: time.Now}
}

type AppointmentInput struct {
	PatientID       uint
	Date            time.Time
	StartTime       string
	DurationMinutes int
	Reason          string
	Notes           string
}

type AppointmentPatch struct {
	Date            *time.Time
	StartTime       *string
	DurationMinutes *int
	Status          *string
	Reason          *string
	Notes           *string
}

type AppointmentFilter struct {
	From      *time.Time
	To        *time.Time
	Status    string
	PatientID uint
}

// DateOnly truncates t to midnight UTC, the canonical storage form for
// appointment dates.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// startAt combines a stored date with a wall-clock start in the clinic
// timezone.
func (s *Appointments) startAt(date time.Time, startMin int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		startMin/60, startMin%60, 0, 0, s.loc)
}

func (s *Appointments) Create(in AppointmentInput) (*models.Appointment, error) {
	startMin, err := schedule.ParseClock(in.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}

	date := DateOnly(in.Date)
	if s.startAt(date, startMin).Before(s.now().In(s.loc)) {
		return nil, fmt.Errorf("%w: cannot schedule in the past", ErrPastDate)
	}

	appt := &models.Appointment{
		PatientID:       in.PatientID,
		Date:            date,
		StartTime:       schedule.FormatClock(startMin),
		DurationMinutes: in.DurationMinutes,
		Status:          "scheduled",
		Reason:          in.Reason,
		Notes:           in.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var patient models.Patient
		if err := tx.First(&patient, in.PatientID).Error; err != nil {
			return fmt.Errorf("%w: patient %d", ErrNotFound, in.PatientID)
		}
		existing, err := sameDayAppointments(tx, date)
		if err != nil {
			return err
		}
		if schedule.HasConflict(startMin, in.DurationMinutes, existing, 0) {
			return fmt.Errorf("%w: slot overlaps an existing appointment", ErrConflict)
		}
		return tx.Create(appt).Error
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *Appointments) Update(id uint, patch AppointmentPatch) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&appt, id).Error; err != nil {
			return fmt.Errorf("%w: appointment %d", ErrNotFound, id)
		}

		rescheduled := false
		if patch.Date != nil {
			appt.Date = DateOnly(*patch.Date)
			rescheduled = true
		}
		if patch.StartTime != nil {
			appt.StartTime = *patch.StartTime
			rescheduled = true
		}
		if patch.DurationMinutes != nil {
			appt.DurationMinutes = *patch.DurationMinutes
			rescheduled = true
		}
		if patch.Reason != nil {
			appt.Reason = *patch.Reason
		}
		if patch.Notes != nil {
			appt.Notes = *patch.Notes
		}
		completing := false
		if patch.Status != nil {
			switch *patch.Status {
			case "scheduled", "completed", "cancelled", "no_show":
			default:
				return fmt.Errorf("%w: unknown status %q", ErrInvalid, *patch.Status)
			}
			// Terminal statuses are final: a cancelled visit's slot may
			// already be rebooked, so the row can never return to the
			// calendar.
			if appt.Status != "scheduled" && *patch.Status != appt.Status {
				return fmt.Errorf("%w: appointment is already %s", ErrConflict, appt.Status)
			}
			appt.Status = *patch.Status
			completing = *patch.Status == "completed"
		}

		if rescheduled {
			startMin, err := schedule.ParseClock(appt.StartTime)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalid, err)
			}
			if appt.DurationMinutes <= 0 {
				return fmt.Errorf("%w: duration must be positive", ErrInvalid)
			}
			appt.StartTime = schedule.FormatClock(startMin)

			// Recording a finished visit may carry a past datetime; only
			// future-facing changes get the past-date guard.
			if !completing && s.startAt(appt.Date, startMin).Before(s.now().In(s.loc)) {
				return fmt.Errorf("%w: cannot reschedule into the past", ErrPastDate)
			}
			existing, err := sameDayAppointments(tx, appt.Date)
			if err != nil {
				return err
			}
			if schedule.HasConflict(startMin, appt.DurationMinutes, existing, appt.ID) {
				return fmt.Errorf("%w: slot overlaps an existing appointment", ErrConflict)
			}
		}
		return tx.Save(&appt).Error
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Cancel soft-cancels: the row is kept for history and stops blocking the
// calendar.
func (s *Appointments) Cancel(id uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.First(&appt, id).Error; err != nil {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, id)
	}
	appt.Status = "cancelled"
	if err := s.db.Save(&appt).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}

func (s *Appointments) Get(id uint) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.First(&appt, id).Error; err != nil {
		return nil, fmt.Errorf("%w: appointment %d", ErrNotFound, id)
	}
	return &appt, nil
}

func (s *Appointments) List(f AppointmentFilter) ([]models.Appointment, error) {
	q := s.db.Model(&models.Appointment{}).Order("date, start_time")
	if f.From != nil {
		q = q.Where("date >= ?", DateOnly(*f.From))
	}
	if f.To != nil {
		q = q.Where("date <= ?", DateOnly(*f.To))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PatientID != 0 {
		q = q.Where("patient_id = ?", f.PatientID)
	}
	var out []models.Appointment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Availability returns the open slots for a date and duration. Past dates
// are not an error; they just have nothing bookable.
func (s *Appointments) Availability(date time.Time, durationMins int) ([]string, string, error) {
	if durationMins <= 0 {
		return nil, "", fmt.Errorf("%w: duration must be positive", ErrInvalid)
	}
	day := DateOnly(date)
	today := DateOnly(s.now().In(s.loc))
	if day.Before(today) {
		return []string{}, "date is in the past", nil
	}

	existing, err := sameDayAppointments(s.db, day)
	if err != nil {
		return nil, "", err
	}
	return schedule.Slots(s.win, durationMins, existing), "", nil
}

func sameDayAppointments(tx *gorm.DB, date time.Time) ([]models.Appointment, error) {
	var out []models.Appointment
	err := tx.Where("date = ? AND status <> ?", date, "cancelled").Find(&out).Error
	return out, err
}
