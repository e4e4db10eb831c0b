package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smileworks/clinic/internal/handlers"
)

// Router assembles the HTTP surface. Everything under /api except login,
// registration and reminder processing sits behind the admin guard; the QR
// image endpoint is public so printed codes resolve without a session.
func Router(api *handlers.API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handlers.Health)

	// QR image for a registration token
	r.Get("/qr-registration/{token}.png", api.TokenQR)

	r.Route("/api", func(ar chi.Router) {
		// Public
		ar.Post("/login", api.Login)
		ar.Post("/register", api.Register)

		// Caller-authenticated: admin token or shared secret header.
		ar.Post("/reminders/process", api.ProcessReminders)

		// Admin-guarded
		ar.Group(func(ag chi.Router) {
			ag.Use(api.RequireAdmin)

			ag.Post("/admin/password", api.ChangePassword)

			ag.Route("/patients", func(pr chi.Router) {
				pr.Post("/", api.CreatePatient)
				pr.Get("/", api.ListPatients)
				pr.Get("/{id}", api.GetPatient)
				pr.Put("/{id}", api.UpdatePatient)
				pr.Delete("/{id}", api.DeletePatient)
				pr.Post("/{id}/approve", api.ApprovePatient)
				pr.Post("/{id}/deny", api.DenyPatient)
			})

			ag.Route("/appointments", func(apr chi.Router) {
				apr.Get("/availability", api.Availability)
				apr.Post("/", api.CreateAppointment)
				apr.Get("/", api.ListAppointments)
				apr.Get("/{id}", api.GetAppointment)
				apr.Put("/{id}", api.UpdateAppointment)
				apr.Delete("/{id}", api.CancelAppointment)
			})

			ag.Route("/procedures", func(pr chi.Router) {
				pr.Post("/", api.CreateProcedure)
				pr.Get("/", api.ListProcedures)
				pr.Put("/{id}", api.UpdateProcedure)
				pr.Delete("/{id}", api.DeleteProcedure)
			})

			ag.Route("/treatments", func(tr chi.Router) {
				tr.Post("/", api.CreateTreatment)
				tr.Get("/", api.ListTreatments)
				tr.Get("/{id}", api.GetTreatment)
				tr.Put("/{id}", api.UpdateTreatment)
				tr.Put("/{id}/payment", api.UpdateTreatmentPayment)
				tr.Delete("/{id}", api.DeleteTreatment)
			})

			ag.Post("/qr-registration", api.IssueToken)
			ag.Delete("/qr-registration", api.CleanupTokens)
			ag.Route("/qr-tokens", func(qr chi.Router) {
				qr.Get("/", api.ListTokens)
				qr.Get("/{id}", api.GetToken)
				qr.Delete("/{id}", api.DeleteToken)
			})

			ag.Get("/reminders/config", api.ListReminderConfigs)
			ag.Post("/reminders/config", api.CreateReminderConfig)
			ag.Put("/reminders/config/{id}", api.UpdateReminderConfig)
		})
	})

	return r
}
