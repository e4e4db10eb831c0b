package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/smileworks/clinic/internal/config"
	"github.com/smileworks/clinic/internal/db"
	"github.com/smileworks/clinic/internal/handlers"
	"github.com/smileworks/clinic/internal/mail"
	"github.com/smileworks/clinic/internal/schedule"
	"github.com/smileworks/clinic/internal/services"
	"github.com/smileworks/clinic/internal/web"
)

func main() {
	cfg, err := config.Load()
	logger := newLogger(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Fatal().Err(err).Str("tz", cfg.ClinicTimezone).Msg("load clinic timezone")
	}

	openMin, err := schedule.ParseClock(cfg.OpenTime)
	if err != nil {
		logger.Fatal().Err(err).Str("open_time", cfg.OpenTime).Msg("parse OPEN_TIME")
	}
	closeMin, err := schedule.ParseClock(cfg.CloseTime)
	if err != nil {
		logger.Fatal().Err(err).Str("close_time", cfg.CloseTime).Msg("parse CLOSE_TIME")
	}
	win := schedule.Window{
		OpenMinutes:  openMin,
		CloseMinutes: closeMin,
		SlotInterval: cfg.SlotIntervalMins,
		Buffer:       cfg.BufferMins,
	}

	mailer := mail.NewSMTP(mail.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	reminders := services.NewReminders(conn, mailer,
		time.Duration(cfg.ReminderToleranceHours)*time.Hour, loc)
	if err := reminders.EnsureDefaults(); err != nil {
		logger.Fatal().Err(err).Msg("seed reminder configs")
	}

	admins := services.NewAdmins(conn)
	if err := admins.EnsureBootstrap(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin account")
	}

	api := handlers.NewAPI()
	api.Appointments = services.NewAppointments(conn, win, loc)
	api.Patients = services.NewPatients(conn)
	api.Procedures = services.NewProcedures(conn)
	api.Treatments = services.NewTreatments(conn)
	api.QRTokens = services.NewQRTokens(conn, cfg.BaseURL)
	api.Reminders = reminders
	api.Admins = admins
	api.JWTSecret = cfg.JWTSecret
	api.ReminderSecret = cfg.ReminderSecret
	api.Log = logger

	logger.Info().Str("addr", cfg.Addr).Str("env", cfg.Env).Msg("clinic server listening")
	if err := http.ListenAndServe(cfg.Addr, web.Router(api)); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
