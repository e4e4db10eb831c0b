package models

import "time"

// RegistrationStatus: "pending", "approved", "denied"
// RegistrationSource: "admin", "qr", "generic"
type Patient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Code      string     `gorm:"uniqueIndex;not null" json:"code"` // e.g., PT-3F9A21C4
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Address   string     `json:"address"`

	// Medical history collected at registration.
	Allergies          string `json:"allergies"`
	CurrentMedications string `json:"current_medications"`
	HasDiabetes        bool   `json:"has_diabetes"`
	HasHypertension    bool   `json:"has_hypertension"`
	HasHeartCondition  bool   `json:"has_heart_condition"`
	IsPregnant         bool   `json:"is_pregnant"`
	IsSmoker           bool   `json:"is_smoker"`
	MedicalNotes       string `json:"medical_notes"`

	RegistrationStatus string `gorm:"index;default:pending" json:"registration_status"`
	RegistrationSource string `gorm:"default:admin" json:"registration_source"`
}

func (p Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Status: "scheduled", "completed", "cancelled", "no_show".
// Cancellation is a status update, never a delete; rows are kept for history.
type Appointment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PatientID uint    `gorm:"index" json:"patient_id"`
	Patient   Patient `json:"-"`

	Date            time.Time `gorm:"index" json:"date"` // date only, midnight UTC
	StartTime       string    `json:"start_time"`        // "HH:MM:SS"
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `gorm:"index;default:scheduled" json:"status"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`

	// Per-type reminder stamps. A nil stamp means the reminder for that type
	// has not been delivered yet and may be (re)attempted.
	Reminder24hSentAt   *time.Time `json:"reminder_24h_sent_at,omitempty"`
	ReminderDayOfSentAt *time.Time `json:"reminder_day_of_sent_at,omitempty"`
	RemindersSent       int        `json:"reminders_sent"`
}

type Procedure struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Category string  `gorm:"index" json:"category"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	// No column default: with one, gorm omits a false value on insert and
	// the database default silently flips it back to active.
	IsActive bool `json:"is_active"`
}

// PaymentStatus: "pending", "partial", "paid". Keeping PaymentStatus in step
// with AmountPaid is the caller's responsibility.
type Treatment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PatientID     uint  `gorm:"index" json:"patient_id"`
	AppointmentID *uint `gorm:"index" json:"appointment_id,omitempty"`

	TreatmentDate time.Time `json:"treatment_date"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentStatus string    `gorm:"default:pending" json:"payment_status"`
	AmountPaid    float64   `json:"amount_paid"`
	Notes         string    `json:"notes"`

	Procedures []TreatmentProcedure `json:"procedures"`
}

type TreatmentProcedure struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TreatmentID uint    `gorm:"index" json:"treatment_id"`
	ProcedureID uint    `json:"procedure_id"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Subtotal    float64 `json:"subtotal"`
}

// QRType: "standard" (expires; single-use unless Reusable) or "generic"
// (never expires, implicitly reusable).
type QRToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Token      string    `gorm:"uniqueIndex;not null" json:"token"`
	QRType     string    `gorm:"default:standard" json:"qr_type"`
	Reusable   bool      `json:"reusable"`
	Used       bool      `json:"used"`
	UsageCount int       `json:"usage_count"`
	ExpiresAt  time.Time `json:"expires_at"`
	Note       string    `json:"note"`
}

// ReminderType: "24_hour", "day_of". One row per type.
type ReminderConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ReminderType    string `gorm:"uniqueIndex;not null" json:"reminder_type"`
	HoursBefore     int    `json:"hours_before"`
	// No column default, same reason as Procedure.IsActive: a disabled
	// config must stay disabled through the insert.
	IsEnabled       bool   `json:"is_enabled"`
	SubjectTemplate string `json:"subject_template"`
	BodyTemplate    string `json:"body_template"`
}

// Status: "sent", "failed". Append-only.
type ReminderLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AppointmentID uint   `gorm:"index" json:"appointment_id"`
	ReminderType  string `json:"reminder_type"`
	Email         string `json:"email"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

type AdminUser struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email"`
}
