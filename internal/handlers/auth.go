package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smileworks/clinic/internal/services"
)

const sessionTTL = 24 * time.Hour

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login verifies admin credentials and issues a bearer token.
// POST /api/login
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decodeValid(w, r, &req) {
		return
	}

	user, err := a.Admins.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	expires := time.Now().Add(sessionTTL)
	claims := jwt.MapClaims{
		"sub": user.Username,
		"exp": expires.Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.JWTSecret))
	if err != nil {
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC(),
	})
}

// RequireAdmin is middleware: rejects requests without a valid bearer token.
func (a *API) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.adminUsername(r) == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminUsername returns the authenticated admin's username, or "" when the
// request carries no valid session.
func (a *API) adminUsername(r *http.Request) string {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return ""
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// ChangePassword rotates the calling admin's password.
// POST /api/admin/password
func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username := a.adminUsername(r)
	if username == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req changePasswordRequest
	if !a.decodeValid(w, r, &req) {
		return
	}
	if err := a.Admins.ChangePassword(username, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		a.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}
