package handlers

import (
	"net/http"

	"github.com/smileworks/clinic/internal/services"
)

// ProcessReminders triggers one dispatcher pass. Reached either through
// admin auth or the X-Reminder-Secret header, so an external cron can call
// it without a login flow.
// POST /api/reminders/process
func (a *API) ProcessReminders(w http.ResponseWriter, r *http.Request) {
	authorized := a.adminUsername(r) != ""
	if !authorized && a.ReminderSecret != "" {
		authorized = r.Header.Get("X-Reminder-Secret") == a.ReminderSecret
	}
	if !authorized {
		writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	sum, err := a.Reminders.Process()
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// GET /api/reminders/config — configs plus per-type delivery stats.
func (a *API) ListReminderConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := a.Reminders.Configs()
	if err != nil {
		a.serviceError(w, err)
		return
	}
	stats, err := a.Reminders.Stats()
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"configs": configs,
		"stats":   stats,
	})
}

type reminderConfigRequest struct {
	ReminderType    string `json:"reminder_type" validate:"required"`
	HoursBefore     int    `json:"hours_before" validate:"required,gt=0"`
	IsEnabled       bool   `json:"is_enabled"`
	SubjectTemplate string `json:"subject_template" validate:"required"`
	BodyTemplate    string `json:"body_template" validate:"required"`
}

func (req reminderConfigRequest) toInput() services.ReminderConfigInput {
	return services.ReminderConfigInput{
		ReminderType:    req.ReminderType,
		HoursBefore:     req.HoursBefore,
		IsEnabled:       req.IsEnabled,
		SubjectTemplate: req.SubjectTemplate,
		BodyTemplate:    req.BodyTemplate,
	}
}

// POST /api/reminders/config
func (a *API) CreateReminderConfig(w http.ResponseWriter, r *http.Request) {
	var req reminderConfigRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	cfg, err := a.Reminders.CreateConfig(req.toInput())
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// PUT /api/reminders/config/{id}
func (a *API) UpdateReminderConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req reminderConfigRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	cfg, err := a.Reminders.UpdateConfig(id, req.toInput())
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
