package handlers

import (
	"net/http"
	"time"

	"github.com/smileworks/clinic/internal/models"
	"github.com/smileworks/clinic/internal/services"
)

type patientRequest struct {
	FirstName          string `json:"first_name" validate:"required"`
	LastName           string `json:"last_name"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	BirthDate          string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Address            string `json:"address"`
	Allergies          string `json:"allergies"`
	CurrentMedications string `json:"current_medications"`
	HasDiabetes        bool   `json:"has_diabetes"`
	HasHypertension    bool   `json:"has_hypertension"`
	HasHeartCondition  bool   `json:"has_heart_condition"`
	IsPregnant         bool   `json:"is_pregnant"`
	IsSmoker           bool   `json:"is_smoker"`
	MedicalNotes       string `json:"medical_notes"`
}

func (req patientRequest) toInput() services.PatientInput {
	in := services.PatientInput{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		Email:              req.Email,
		Address:            req.Address,
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
		HasDiabetes:        req.HasDiabetes,
		HasHypertension:    req.HasHypertension,
		HasHeartCondition:  req.HasHeartCondition,
		IsPregnant:         req.IsPregnant,
		IsSmoker:           req.IsSmoker,
		MedicalNotes:       req.MedicalNotes,
	}
	if req.BirthDate != "" {
		if d, err := time.Parse(dateLayout, req.BirthDate); err == nil {
			in.BirthDate = &d
		}
	}
	return in
}

// POST /api/patients
func (a *API) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	p, err := a.Patients.Create(req.toInput())
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GET /api/patients?status&search
func (a *API) ListPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	patients, err := a.Patients.List(q.Get("status"), q.Get("search"))
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// GET /api/patients/{id}
func (a *API) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := a.Patients.Get(id)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PUT /api/patients/{id}
func (a *API) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req patientRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	p, err := a.Patients.Update(id, req.toInput())
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /api/patients/{id}
func (a *API) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := a.Patients.Delete(id); err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /api/patients/{id}/approve
func (a *API) ApprovePatient(w http.ResponseWriter, r *http.Request) {
	a.setRegistration(w, r, a.Patients.Approve)
}

// POST /api/patients/{id}/deny
func (a *API) DenyPatient(w http.ResponseWriter, r *http.Request) {
	a.setRegistration(w, r, a.Patients.Deny)
}

func (a *API) setRegistration(w http.ResponseWriter, r *http.Request, fn func(uint) (*models.Patient, error)) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := fn(id)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
