package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/smileworks/clinic/internal/services"
)

const dateLayout = "2006-01-02"

type appointmentCreateRequest struct {
	PatientID       uint   `json:"patient_id" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gt=0"`
	Reason          string `json:"reason"`
	Notes           string `json:"notes"`
}

type appointmentUpdateRequest struct {
	Date            *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime       *string `json:"start_time"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gt=0"`
	Status          *string `json:"status" validate:"omitempty,oneof=scheduled completed cancelled no_show"`
	Reason          *string `json:"reason"`
	Notes           *string `json:"notes"`
}

// POST /api/appointments
func (a *API) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentCreateRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)

	appt, err := a.Appointments.Create(services.AppointmentInput{
		PatientID:       req.PatientID,
		Date:            date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		Notes:           req.Notes,
	})
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// GET /api/appointments?from&to&status&patient_id
func (a *API) ListAppointments(w http.ResponseWriter, r *http.Request) {
	var f services.AppointmentFilter

	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date", nil)
			return
		}
		f.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date", nil)
			return
		}
		f.To = &t
	}
	f.Status = q.Get("status")
	if raw := q.Get("patient_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid patient_id", nil)
			return
		}
		f.PatientID = uint(id)
	}

	appts, err := a.Appointments.List(f)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appts)
}

// GET /api/appointments/{id}
func (a *API) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	appt, err := a.Appointments.Get(id)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// PUT /api/appointments/{id}
func (a *API) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req appointmentUpdateRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	patch := services.AppointmentPatch{
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}
	if req.Date != nil {
		d, _ := time.Parse(dateLayout, *req.Date)
		patch.Date = &d
	}

	appt, err := a.Appointments.Update(id, patch)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// DELETE /api/appointments/{id} — soft cancel, the row stays for history.
func (a *API) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	appt, err := a.Appointments.Cancel(id)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// GET /api/appointments/availability?date=YYYY-MM-DD&duration=30
func (a *API) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := time.Parse(dateLayout, q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing date", nil)
		return
	}
	duration, err := strconv.Atoi(q.Get("duration"))
	if err != nil || duration <= 0 {
		writeError(w, http.StatusBadRequest, "invalid or missing duration", nil)
		return
	}

	slots, msg, err := a.Appointments.Availability(date, duration)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	resp := map[string]any{
		"date":             q.Get("date"),
		"duration_minutes": duration,
		"slots":            slots,
	}
	if msg != "" {
		resp["message"] = msg
	}
	writeJSON(w, http.StatusOK, resp)
}
