package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/smileworks/clinic/internal/services"
)

type treatmentLineRequest struct {
	ProcedureID uint    `json:"procedure_id" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type treatmentCreateRequest struct {
	PatientID     uint                   `json:"patient_id" validate:"required"`
	AppointmentID *uint                  `json:"appointment_id"`
	TreatmentDate string                 `json:"treatment_date" validate:"required,datetime=2006-01-02"`
	Procedures    []treatmentLineRequest `json:"procedures" validate:"required,min=1,dive"`
	Notes         string                 `json:"notes"`
}

type treatmentUpdateRequest struct {
	TreatmentDate *string                `json:"treatment_date" validate:"omitempty,datetime=2006-01-02"`
	Procedures    []treatmentLineRequest `json:"procedures" validate:"omitempty,min=1,dive"`
	Notes         *string                `json:"notes"`
}

type paymentRequest struct {
	PaymentStatus string  `json:"payment_status" validate:"required,oneof=pending partial paid"`
	AmountPaid    float64 `json:"amount_paid" validate:"gte=0"`
}

func toLines(reqs []treatmentLineRequest) []services.TreatmentLine {
	if reqs == nil {
		return nil
	}
	lines := make([]services.TreatmentLine, 0, len(reqs))
	for _, l := range reqs {
		lines = append(lines, services.TreatmentLine{
			ProcedureID: l.ProcedureID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}
	return lines
}

// POST /api/treatments
func (a *API) CreateTreatment(w http.ResponseWriter, r *http.Request) {
	var req treatmentCreateRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	date, _ := time.Parse(dateLayout, req.TreatmentDate)

	tr, err := a.Treatments.Create(services.TreatmentInput{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		TreatmentDate: date,
		Lines:         toLines(req.Procedures),
		Notes:         req.Notes,
	})
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tr)
}

// GET /api/treatments?patient_id
func (a *API) ListTreatments(w http.ResponseWriter, r *http.Request) {
	var patientID uint
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid patient_id", nil)
			return
		}
		patientID = uint(id)
	}

	treatments, err := a.Treatments.List(patientID)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, treatments)
}

// GET /api/treatments/{id}
func (a *API) GetTreatment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	tr, err := a.Treatments.Get(id)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// PUT /api/treatments/{id} — supplying procedures replaces the whole
// line-item set.
func (a *API) UpdateTreatment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req treatmentUpdateRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	var date *time.Time
	if req.TreatmentDate != nil {
		d, _ := time.Parse(dateLayout, *req.TreatmentDate)
		date = &d
	}

	tr, err := a.Treatments.Update(id, date, req.Notes, toLines(req.Procedures))
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// PUT /api/treatments/{id}/payment
func (a *API) UpdateTreatmentPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	tr, err := a.Treatments.UpdatePayment(id, req.PaymentStatus, req.AmountPaid)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// DELETE /api/treatments/{id}
func (a *API) DeleteTreatment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := a.Treatments.Delete(id); err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
