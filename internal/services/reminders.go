package services

import (
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/mail"
	"github.com/smileworks/clinic/internal/models"
	"github.com/smileworks/clinic/internal/schedule"
)

// Reminders is the appointment-reminder dispatcher. It is a batch pass
// triggered by an external caller, not a resident timer: each call scans the
// enabled configs, sends what is due, and returns a summary. Per-type
// sent-at stamps on the appointment make repeated passes idempotent.
type Reminders struct {
	db        *gorm.DB
	mailer    mail.Mailer
	tolerance time.Duration
	loc       *time.Location
	now       func() time.Time
}

func NewReminders(db *gorm.DB, mailer mail.Mailer, tolerance time.Duration, loc *time.Location) *Reminders {
	return &Reminders{db: db, mailer: mailer, tolerance: tolerance, loc: loc, now: time.Now}
}

type ReminderSummary struct {
	Processed int      `json:"processed"`
	Sent      int      `json:"sent"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// TemplateContext is the closed set of values reminder templates may
// reference.
type TemplateContext struct {
	PatientName string
	Date        string
	Time        string
	Duration    string
	Reason      string
	PatientCode string
}

var rePlaceholder = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// RenderTemplate substitutes {{placeholder}} markers against ctx. Unknown
// markers are stripped rather than left in the output.
func RenderTemplate(tpl string, ctx TemplateContext) string {
	return rePlaceholder.ReplaceAllStringFunc(tpl, func(m string) string {
		key := rePlaceholder.FindStringSubmatch(m)[1]
		switch key {
		case "patient_name":
			return ctx.PatientName
		case "date":
			return ctx.Date
		case "time":
			return ctx.Time
		case "duration":
			return ctx.Duration
		case "reason":
			return ctx.Reason
		case "patient_code":
			return ctx.PatientCode
		default:
			return ""
		}
	})
}

// sentStamp returns the idempotency stamp for a reminder type, or false for
// types the schema has no column for.
func sentStamp(a *models.Appointment, reminderType string) (*time.Time, bool) {
	switch reminderType {
	case "24_hour":
		return a.Reminder24hSentAt, true
	case "day_of":
		return a.ReminderDayOfSentAt, true
	default:
		return nil, false
	}
}

func setSentStamp(a *models.Appointment, reminderType string, at time.Time) {
	switch reminderType {
	case "24_hour":
		a.Reminder24hSentAt = &at
	case "day_of":
		a.ReminderDayOfSentAt = &at
	}
}

// Process runs one dispatcher pass. A reminder is due when the appointment
// start lies in (now + hoursBefore - tolerance, now + hoursBefore]: the
// tolerance keeps periodic invocation from missing sends between ticks.
// One failed send never aborts the rest of the pass.
func (s *Reminders) Process() (*ReminderSummary, error) {
	sum := &ReminderSummary{Errors: []string{}}
	now := s.now().In(s.loc)

	var configs []models.ReminderConfig
	if err := s.db.Where("is_enabled = ?", true).Find(&configs).Error; err != nil {
		return nil, err
	}

	for _, cfg := range configs {
		due := now.Add(time.Duration(cfg.HoursBefore) * time.Hour)
		windowStart := due.Add(-s.tolerance)

		// Candidate dates: the window can straddle midnight.
		var appts []models.Appointment
		err := s.db.Preload("Patient").
			Where("status = ? AND date >= ? AND date <= ?",
				"scheduled", DateOnly(windowStart), DateOnly(due)).
			Find(&appts).Error
		if err != nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", cfg.ReminderType, err))
			continue
		}

		for i := range appts {
			a := &appts[i]
			startMin, err := schedule.ParseClock(a.StartTime)
			if err != nil {
				continue
			}
			startAt := time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(),
				startMin/60, startMin%60, 0, 0, s.loc)
			if !startAt.After(windowStart) || startAt.After(due) {
				continue
			}
			sum.Processed++

			stamp, known := sentStamp(a, cfg.ReminderType)
			if !known {
				sum.Skipped++
				sum.Errors = append(sum.Errors,
					fmt.Sprintf("%s: no idempotency stamp for this type", cfg.ReminderType))
				continue
			}
			if stamp != nil {
				sum.Skipped++
				continue
			}
			if a.Patient.Email == "" {
				sum.Skipped++
				continue
			}

			ctx := TemplateContext{
				PatientName: a.Patient.FullName(),
				Date:        startAt.Format("Monday, 02 January 2006"),
				Time:        startAt.Format("15:04"),
				Duration:    fmt.Sprintf("%d minutes", a.DurationMinutes),
				Reason:      a.Reason,
				PatientCode: a.Patient.Code,
			}
			subject := RenderTemplate(cfg.SubjectTemplate, ctx)
			body := RenderTemplate(cfg.BodyTemplate, ctx)

			entry := models.ReminderLog{
				AppointmentID: a.ID,
				ReminderType:  cfg.ReminderType,
				Email:         a.Patient.Email,
			}
			if err := s.mailer.Send(a.Patient.Email, subject, body); err != nil {
				// Stamp stays unset so the next pass retries.
				sum.Failed++
				sum.Errors = append(sum.Errors,
					fmt.Sprintf("appointment %d (%s): %v", a.ID, cfg.ReminderType, err))
				entry.Status = "failed"
				entry.Error = err.Error()
				if lerr := s.db.Create(&entry).Error; lerr != nil {
					sum.Errors = append(sum.Errors,
						fmt.Sprintf("appointment %d (%s): log: %v", a.ID, cfg.ReminderType, lerr))
				}
				continue
			}

			setSentStamp(a, cfg.ReminderType, s.now())
			a.RemindersSent++
			if err := s.db.Save(a).Error; err != nil {
				sum.Errors = append(sum.Errors,
					fmt.Sprintf("appointment %d (%s): stamp: %v", a.ID, cfg.ReminderType, err))
			}
			entry.Status = "sent"
			if lerr := s.db.Create(&entry).Error; lerr != nil {
				sum.Errors = append(sum.Errors,
					fmt.Sprintf("appointment %d (%s): log: %v", a.ID, cfg.ReminderType, lerr))
			}
			sum.Sent++
		}
	}
	return sum, nil
}

// ConfigStats is the per-type delivery tally shown alongside the configs.
type ConfigStats struct {
	ReminderType string `json:"reminder_type"`
	Sent         int64  `json:"sent"`
	Failed       int64  `json:"failed"`
}

func (s *Reminders) Stats() ([]ConfigStats, error) {
	type row struct {
		ReminderType string
		Status       string
		N            int64
	}
	var rows []row
	err := s.db.Model(&models.ReminderLog{}).
		Select("reminder_type, status, COUNT(*) as n").
		Group("reminder_type, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byType := map[string]*ConfigStats{}
	order := []string{}
	for _, r := range rows {
		st, ok := byType[r.ReminderType]
		if !ok {
			st = &ConfigStats{ReminderType: r.ReminderType}
			byType[r.ReminderType] = st
			order = append(order, r.ReminderType)
		}
		switch r.Status {
		case "sent":
			st.Sent = r.N
		case "failed":
			st.Failed = r.N
		}
	}
	out := make([]ConfigStats, 0, len(order))
	for _, t := range order {
		out = append(out, *byType[t])
	}
	return out, nil
}

type ReminderConfigInput struct {
	ReminderType    string
	HoursBefore     int
	IsEnabled       bool
	SubjectTemplate string
	BodyTemplate    string
}

func (s *Reminders) Configs() ([]models.ReminderConfig, error) {
	var out []models.ReminderConfig
	if err := s.db.Order("reminder_type").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Reminders) CreateConfig(in ReminderConfigInput) (*models.ReminderConfig, error) {
	var dup int64
	if err := s.db.Model(&models.ReminderConfig{}).
		Where("reminder_type = ?", in.ReminderType).Count(&dup).Error; err != nil {
		return nil, err
	}
	if dup > 0 {
		return nil, fmt.Errorf("%w: reminder type %q already configured", ErrConflict, in.ReminderType)
	}
	cfg := &models.ReminderConfig{
		ReminderType:    in.ReminderType,
		HoursBefore:     in.HoursBefore,
		IsEnabled:       in.IsEnabled,
		SubjectTemplate: in.SubjectTemplate,
		BodyTemplate:    in.BodyTemplate,
	}
	if err := s.db.Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Reminders) UpdateConfig(id uint, in ReminderConfigInput) (*models.ReminderConfig, error) {
	var cfg models.ReminderConfig
	if err := s.db.First(&cfg, id).Error; err != nil {
		return nil, fmt.Errorf("%w: reminder config %d", ErrNotFound, id)
	}
	cfg.ReminderType = in.ReminderType
	cfg.HoursBefore = in.HoursBefore
	cfg.IsEnabled = in.IsEnabled
	cfg.SubjectTemplate = in.SubjectTemplate
	cfg.BodyTemplate = in.BodyTemplate
	if err := s.db.Save(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnsureDefaults seeds the two shipped reminder types when missing.
func (s *Reminders) EnsureDefaults() error {
	defaults := []models.ReminderConfig{
		{
			ReminderType:    "24_hour",
			HoursBefore:     24,
			IsEnabled:       true,
			SubjectTemplate: "Appointment reminder for {{date}}",
			BodyTemplate: "Dear {{patient_name}},\n\n" +
				"This is a reminder of your appointment on {{date}} at {{time}} " +
				"({{duration}}).\nReason: {{reason}}\nPatient code: {{patient_code}}\n\n" +
				"See you soon.",
		},
		{
			ReminderType:    "day_of",
			HoursBefore:     2,
			IsEnabled:       true,
			SubjectTemplate: "Your appointment today at {{time}}",
			BodyTemplate: "Dear {{patient_name}},\n\n" +
				"Your appointment is today at {{time}} ({{duration}}).\n\nSee you soon.",
		},
	}
	for _, d := range defaults {
		var count int64
		if err := s.db.Model(&models.ReminderConfig{}).
			Where("reminder_type = ?", d.ReminderType).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := s.db.Create(&d).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
