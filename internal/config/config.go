package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Addr    string `mapstructure:"ADDR"`
	Env     string `mapstructure:"ENV"`
	DBPath  string `mapstructure:"DB_PATH"`
	BaseURL string `mapstructure:"BASE_URL"` // public URL embedded in QR codes

	// Clinic calendar. Times are "HH:MM" wall-clock in ClinicTimezone.
	ClinicTimezone   string `mapstructure:"CLINIC_TIMEZONE"`
	OpenTime         string `mapstructure:"OPEN_TIME"`
	CloseTime        string `mapstructure:"CLOSE_TIME"`
	SlotIntervalMins int    `mapstructure:"SLOT_INTERVAL_MINUTES"`
	BufferMins       int    `mapstructure:"BUFFER_MINUTES"`

	// Reminder dispatcher tolerance window, in hours. A reminder whose due
	// time fell up to this long before the current pass is still sent.
	ReminderToleranceHours int    `mapstructure:"REMINDER_TOLERANCE_HOURS"`
	ReminderSecret         string `mapstructure:"REMINDER_SECRET"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PATH", "clinic.db")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("OPEN_TIME", "09:00")
	v.SetDefault("CLOSE_TIME", "18:00")
	v.SetDefault("SLOT_INTERVAL_MINUTES", 30)
	v.SetDefault("BUFFER_MINUTES", 15)
	v.SetDefault("REMINDER_TOLERANCE_HOURS", 2)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "noreply@clinic.local")

	// Bind explicitly so Unmarshal sees env-only values.
	for _, key := range []string{
		"ADDR", "ENV", "DB_PATH", "BASE_URL",
		"CLINIC_TIMEZONE", "OPEN_TIME", "CLOSE_TIME",
		"SLOT_INTERVAL_MINUTES", "BUFFER_MINUTES",
		"REMINDER_TOLERANCE_HOURS", "REMINDER_SECRET",
		"JWT_SECRET", "ADMIN_USERNAME", "ADMIN_PASSWORD", "ADMIN_EMAIL",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "SMTP_FROM",
	} {
		_ = v.BindEnv(key)
	}

	// .env is optional.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SlotIntervalMins <= 0 {
		return nil, fmt.Errorf("SLOT_INTERVAL_MINUTES must be positive")
	}
	if cfg.BufferMins < 0 {
		return nil, fmt.Errorf("BUFFER_MINUTES must not be negative")
	}
	return cfg, nil
}

func (c *Config) IsDev() bool { return c.Env != "production" }
