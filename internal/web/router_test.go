package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/smileworks/clinic/internal/db"
	"github.com/smileworks/clinic/internal/handlers"
	"github.com/smileworks/clinic/internal/schedule"
	"github.com/smileworks/clinic/internal/services"
)

type dropMailer struct{}

func (dropMailer) Send(to, subject, body string) error { return nil }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "clinic.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	win := schedule.Window{
		OpenMinutes:  9 * 60,
		CloseMinutes: 18 * 60,
		SlotInterval: 15,
		Buffer:       15,
	}

	api := handlers.NewAPI()
	api.Appointments = services.NewAppointments(conn, win, time.UTC)
	api.Patients = services.NewPatients(conn)
	api.Procedures = services.NewProcedures(conn)
	api.Treatments = services.NewTreatments(conn)
	api.QRTokens = services.NewQRTokens(conn, "http://clinic.test")
	api.Reminders = services.NewReminders(conn, dropMailer{}, 2*time.Hour, time.UTC)
	api.Admins = services.NewAdmins(conn)
	api.JWTSecret = "router-test-secret"

	if err := api.Admins.EnsureBootstrap("admin", "correct horse", ""); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}
	return Router(api)
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/api/login", "", map[string]string{
		"username": "admin", "password": "correct horse",
	})
	if rec.Code != 200 {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	return out.Token
}

func TestRouterHealthz(t *testing.T) {
	r := testRouter(t)
	rec := do(t, r, http.MethodGet, "/healthz", "", nil)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterGuardsAdminRoutes(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/api/patients/", "/api/appointments/", "/api/qr-tokens/"} {
		rec := do(t, r, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: expected 401, got %d", path, rec.Code)
		}
	}

	rec := do(t, r, http.MethodGet, "/api/patients/", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", rec.Code)
	}
}

func TestRouterLoginRejectsBadPassword(t *testing.T) {
	r := testRouter(t)
	rec := do(t, r, http.MethodPost, "/api/login", "", map[string]string{
		"username": "admin", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouterPatientLifecycle(t *testing.T) {
	r := testRouter(t)
	token := login(t, r)

	rec := do(t, r, http.MethodPost, "/api/patients/", token, map[string]any{
		"first_name": "Maya",
		"last_name":  "Tan",
		"email":      "maya@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patient: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var patient struct {
		ID                 uint   `json:"id"`
		Code               string `json:"code"`
		RegistrationStatus string `json:"registration_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &patient); err != nil {
		t.Fatal(err)
	}
	if patient.RegistrationStatus != "approved" {
		t.Errorf("admin-created patient status = %q, want approved", patient.RegistrationStatus)
	}

	rec = do(t, r, http.MethodGet, "/api/patients/", token, nil)
	if rec.Code != 200 {
		t.Fatalf("list patients: expected 200, got %d", rec.Code)
	}
}

// Self-registration runs without a session: issue a token as admin, then
// consume it anonymously, then approve.
func TestRouterQRRegistrationFlow(t *testing.T) {
	r := testRouter(t)
	token := login(t, r)

	rec := do(t, r, http.MethodPost, "/api/qr-registration", token, map[string]any{
		"expiration_hours": 24,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue token: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &issued); err != nil {
		t.Fatal(err)
	}

	rec = do(t, r, http.MethodGet, "/qr-registration/"+issued.Token+".png", "", nil)
	if rec.Code != 200 {
		t.Fatalf("qr image: expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("qr image content type = %q, want image/png", ct)
	}

	rec = do(t, r, http.MethodPost, "/api/register", "", map[string]any{
		"token": issued.Token,
		"patient": map[string]any{
			"first_name": "Walk",
			"last_name":  "In",
			"email":      "walkin@example.com",
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		Patient struct {
			ID                 uint   `json:"id"`
			RegistrationStatus string `json:"registration_status"`
		} `json:"patient"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &reg); err != nil {
		t.Fatal(err)
	}
	if reg.Patient.RegistrationStatus != "pending" {
		t.Errorf("self-registered status = %q, want pending", reg.Patient.RegistrationStatus)
	}

	// Single-use token is spent now.
	rec = do(t, r, http.MethodPost, "/api/register", "", map[string]any{
		"token": issued.Token,
		"patient": map[string]any{
			"first_name": "Second",
		},
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("reuse of spent token: expected 409, got %d", rec.Code)
	}
}

func TestRouterAvailabilityAndBooking(t *testing.T) {
	r := testRouter(t)
	token := login(t, r)

	rec := do(t, r, http.MethodPost, "/api/patients/", token, map[string]any{
		"first_name": "Booked",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patient: got %d", rec.Code)
	}
	var patient struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &patient); err != nil {
		t.Fatal(err)
	}

	date := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
	rec = do(t, r, http.MethodPost, "/api/appointments/", token, map[string]any{
		"patient_id":       patient.ID,
		"date":             date,
		"start_time":       "10:00",
		"duration_minutes": 60,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create appointment: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same slot again conflicts.
	rec = do(t, r, http.MethodPost, "/api/appointments/", token, map[string]any{
		"patient_id":       patient.ID,
		"date":             date,
		"start_time":       "10:30",
		"duration_minutes": 30,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlapping booking: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, r, http.MethodGet, "/api/appointments/availability?date="+date+"&duration=30", token, nil)
	if rec.Code != 200 {
		t.Fatalf("availability: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var avail struct {
		Slots []string `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &avail); err != nil {
		t.Fatal(err)
	}
	for _, s := range avail.Slots {
		if s == "10:00:00" || s == "10:30:00" {
			t.Errorf("slot %s offered despite existing booking", s)
		}
	}
}

func TestRouterReminderProcessAuth(t *testing.T) {
	r := testRouter(t)

	rec := do(t, r, http.MethodPost, "/api/reminders/process", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous process: expected 401, got %d", rec.Code)
	}

	token := login(t, r)
	rec = do(t, r, http.MethodPost, "/api/reminders/process", token, nil)
	if rec.Code != 200 {
		t.Fatalf("admin process: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
