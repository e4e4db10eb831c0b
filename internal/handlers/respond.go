package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/smileworks/clinic/internal/services"
)

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details any) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// serviceError maps the services' sentinel errors onto HTTP statuses.
// Anything unrecognized is an internal failure: logged, but surfaced as a
// generic message with no internal detail.
func (a *API) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrConflict), errors.Is(err, services.ErrAlreadyUsed):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrExpired):
		writeError(w, http.StatusGone, err.Error(), nil)
	case errors.Is(err, services.ErrInvalid), errors.Is(err, services.ErrPastDate):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		a.Log.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// decodeValid decodes the JSON body into dst and runs struct validation.
// On failure it writes a 400 with per-field messages and returns false.
func (a *API) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body", nil)
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[strings.ToLower(fe.Field())] = "failed " + fe.Tag() + " validation"
			}
			writeError(w, http.StatusBadRequest, "validation failed", details)
			return false
		}
		writeError(w, http.StatusBadRequest, "validation failed", nil)
		return false
	}
	return true
}

// idParam pulls a positive integer {id} from the route. Writes a 400 and
// returns false when it isn't one.
func idParam(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
