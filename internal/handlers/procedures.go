package handlers

import (
	"net/http"

	"github.com/smileworks/clinic/internal/services"
)

type procedureRequest struct {
	Category string  `json:"category"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	IsActive *bool   `json:"is_active"`
}

func (req procedureRequest) toInput() services.ProcedureInput {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return services.ProcedureInput{
		Category: req.Category,
		Name:     req.Name,
		Price:    req.Price,
		IsActive: active,
	}
}

// POST /api/procedures
func (a *API) CreateProcedure(w http.ResponseWriter, r *http.Request) {
	var req procedureRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	p, err := a.Procedures.Create(req.toInput())
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GET /api/procedures?active=true
func (a *API) ListProcedures(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	procs, err := a.Procedures.List(activeOnly)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, procs)
}

// PUT /api/procedures/{id}
func (a *API) UpdateProcedure(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req procedureRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	p, err := a.Procedures.Update(id, req.toInput())
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /api/procedures/{id}
func (a *API) DeleteProcedure(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := a.Procedures.Delete(id); err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
