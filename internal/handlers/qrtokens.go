package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/smileworks/clinic/internal/models"
)

type issueTokenRequest struct {
	ExpirationHours int    `json:"expiration_hours"`
	Reusable        bool   `json:"reusable"`
	QRType          string `json:"qr_type" validate:"omitempty,oneof=standard generic"`
	Note            string `json:"note"`
}

type tokenResponse struct {
	*models.QRToken
	Status          string `json:"status"`
	RegistrationURL string `json:"registration_url"`
}

func (a *API) tokenResponse(tok *models.QRToken) tokenResponse {
	return tokenResponse{
		QRToken:         tok,
		Status:          a.QRTokens.Status(tok),
		RegistrationURL: a.QRTokens.RegistrationURL(tok.Token),
	}
}

// POST /api/qr-registration — issue a registration token.
func (a *API) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	if req.QRType == "" {
		req.QRType = "standard"
	}
	if req.QRType == "standard" && req.ExpirationHours == 0 {
		req.ExpirationHours = 24
	}

	tok, _, err := a.QRTokens.Issue(req.ExpirationHours, req.Reusable, req.QRType, req.Note)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.tokenResponse(tok))
}

type registerRequest struct {
	Token   string         `json:"token" validate:"required"`
	Patient patientRequest `json:"patient" validate:"required"`
}

// POST /api/register — public: token-gated self-registration.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	p, err := a.QRTokens.Consume(req.Token, req.Patient.toInput())
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"patient": p,
		"message": "registration received and pending approval",
	})
}

// DELETE /api/qr-registration — garbage-collect expired tokens.
func (a *API) CleanupTokens(w http.ResponseWriter, r *http.Request) {
	n, err := a.QRTokens.CleanupExpired()
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// GET /api/qr-tokens
func (a *API) ListTokens(w http.ResponseWriter, r *http.Request) {
	toks, err := a.QRTokens.List()
	if err != nil {
		a.serviceError(w, err)
		return
	}
	out := make([]tokenResponse, 0, len(toks))
	for i := range toks {
		out = append(out, a.tokenResponse(&toks[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/qr-tokens/{id}
func (a *API) GetToken(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	tok, err := a.QRTokens.Get(id)
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.tokenResponse(tok))
}

// DELETE /api/qr-tokens/{id}
func (a *API) DeleteToken(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := a.QRTokens.Delete(id); err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TokenQR serves the QR image for a token's registration URL, so the front
// desk can print or display it straight from the browser.
// GET /qr-registration/{token}.png
func (a *API) TokenQR(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "token")
	if raw == "" {
		http.NotFound(w, r)
		return
	}
	// ensure the token exists before rendering anything
	if _, err := a.QRTokens.Validate(raw); err != nil {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(a.QRTokens.RegistrationURL(raw), qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate qr", nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
