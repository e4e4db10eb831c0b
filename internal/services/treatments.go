package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/models"
)

// Treatments records delivered procedures and their billing state. Totals
// are computed from the submitted line items; the line items' unit prices
// are taken as-is rather than re-read from the catalog.
type Treatments struct {
	db *gorm.DB
}

func NewTreatments(db *gorm.DB) *Treatments {
	return &Treatments{db: db}
}

type TreatmentLine struct {
	ProcedureID uint
	Quantity    int
	UnitPrice   float64
}

type TreatmentInput struct {
	PatientID     uint
	AppointmentID *uint
	TreatmentDate time.Time
	Lines         []TreatmentLine
	Notes         string
}

func lineTotal(lines []TreatmentLine) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

func buildLines(tx *gorm.DB, treatmentID uint, lines []TreatmentLine) error {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrInvalid)
		}
		var proc models.Procedure
		if err := tx.First(&proc, l.ProcedureID).Error; err != nil {
			return fmt.Errorf("%w: procedure %d", ErrNotFound, l.ProcedureID)
		}
		item := models.TreatmentProcedure{
			TreatmentID: treatmentID,
			ProcedureID: l.ProcedureID,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.UnitPrice * float64(l.Quantity),
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}

// Create inserts the treatment with its line items and, when linked to an
// appointment, marks that appointment completed — all in one transaction.
func (s *Treatments) Create(in TreatmentInput) (*models.Treatment, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one procedure line is required", ErrInvalid)
	}

	var created models.Treatment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var patient models.Patient
		if err := tx.First(&patient, in.PatientID).Error; err != nil {
			return fmt.Errorf("%w: patient %d", ErrNotFound, in.PatientID)
		}
		if in.AppointmentID != nil {
			var appt models.Appointment
			if err := tx.First(&appt, *in.AppointmentID).Error; err != nil {
				return fmt.Errorf("%w: appointment %d", ErrNotFound, *in.AppointmentID)
			}
			appt.Status = "completed"
			if err := tx.Save(&appt).Error; err != nil {
				return err
			}
		}

		created = models.Treatment{
			PatientID:     in.PatientID,
			AppointmentID: in.AppointmentID,
			TreatmentDate: DateOnly(in.TreatmentDate),
			TotalAmount:   lineTotal(in.Lines),
			PaymentStatus: "pending",
			AmountPaid:    0,
			Notes:         in.Notes,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		return buildLines(tx, created.ID, in.Lines)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(created.ID)
}

// Update patches date/notes and, when Lines is non-nil, replaces the whole
// line-item set and recomputes the total. Partial line edits are not a thing:
// replacement is all-or-nothing.
func (s *Treatments) Update(id uint, date *time.Time, notes *string, lines []TreatmentLine) (*models.Treatment, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tr models.Treatment
		if err := tx.First(&tr, id).Error; err != nil {
			return fmt.Errorf("%w: treatment %d", ErrNotFound, id)
		}
		if date != nil {
			tr.TreatmentDate = DateOnly(*date)
		}
		if notes != nil {
			tr.Notes = *notes
		}
		if lines != nil {
			if len(lines) == 0 {
				return fmt.Errorf("%w: at least one procedure line is required", ErrInvalid)
			}
			if err := tx.Where("treatment_id = ?", id).
				Delete(&models.TreatmentProcedure{}).Error; err != nil {
				return err
			}
			if err := buildLines(tx, id, lines); err != nil {
				return err
			}
			tr.TotalAmount = lineTotal(lines)
		}
		return tx.Save(&tr).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// UpdatePayment sets the billing fields directly. Nothing ties status to
// amount_paid programmatically; that consistency is on the caller.
func (s *Treatments) UpdatePayment(id uint, status string, amountPaid float64) (*models.Treatment, error) {
	switch status {
	case "pending", "partial", "paid":
	default:
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrInvalid, status)
	}
	if amountPaid < 0 {
		return nil, fmt.Errorf("%w: amount_paid must not be negative", ErrInvalid)
	}

	var tr models.Treatment
	if err := s.db.First(&tr, id).Error; err != nil {
		return nil, fmt.Errorf("%w: treatment %d", ErrNotFound, id)
	}
	tr.PaymentStatus = status
	tr.AmountPaid = amountPaid
	if err := s.db.Save(&tr).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *Treatments) Get(id uint) (*models.Treatment, error) {
	var tr models.Treatment
	if err := s.db.Preload("Procedures").First(&tr, id).Error; err != nil {
		return nil, fmt.Errorf("%w: treatment %d", ErrNotFound, id)
	}
	return &tr, nil
}

func (s *Treatments) List(patientID uint) ([]models.Treatment, error) {
	q := s.db.Preload("Procedures").Order("treatment_date DESC")
	if patientID != 0 {
		q = q.Where("patient_id = ?", patientID)
	}
	var out []models.Treatment
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Treatments) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		// Line items go first: the foreign key is enforced, so deleting the
		// parent while children exist would fail.
		if err := tx.Where("treatment_id = ?", id).
			Delete(&models.TreatmentProcedure{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Treatment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: treatment %d", ErrNotFound, id)
		}
		return nil
	})
}
