package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/smileworks/clinic/internal/services"
)

// API bundles the services behind the route handlers. Everything is injected
// at startup; handlers hold no package-level state.
type API struct {
	Appointments *services.Appointments
	Patients     *services.Patients
	Procedures   *services.Procedures
	Treatments   *services.Treatments
	QRTokens     *services.QRTokens
	Reminders    *services.Reminders
	Admins       *services.Admins

	JWTSecret      string
	ReminderSecret string

	Log      zerolog.Logger
	validate *validator.Validate
}

func NewAPI() *API {
	return &API{validate: validator.New()}
}
