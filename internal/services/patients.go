package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/models"
)

// Patients manages the patient registry: admin-entered records plus the
// pending registrations that arrive through QR tokens.
type Patients struct {
	db *gorm.DB
}

func NewPatients(db *gorm.DB) *Patients {
	return &Patients{db: db}
}

type PatientInput struct {
	FirstName          string
	LastName           string
	Phone              string
	Email              string
	BirthDate          *time.Time
	Address            string
	Allergies          string
	CurrentMedications string
	HasDiabetes        bool
	HasHypertension    bool
	HasHeartCondition  bool
	IsPregnant         bool
	IsSmoker           bool
	MedicalNotes       string
}

// Create registers a patient entered by an admin. Admin entries skip the
// approval queue.
func (s *Patients) Create(in PatientInput) (*models.Patient, error) {
	p, err := buildPatient(s.db, in, "admin", "approved")
	if err != nil {
		return nil, err
	}
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func buildPatient(db *gorm.DB, in PatientInput, source, status string) (*models.Patient, error) {
	email, ok := NormEmail(in.Email)
	if !ok {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalid)
	}
	code, err := generatePatientCode(db)
	if err != nil {
		return nil, err
	}
	return &models.Patient{
		Code:               code,
		FirstName:          strings.TrimSpace(in.FirstName),
		LastName:           strings.TrimSpace(in.LastName),
		Phone:              NormPhone(in.Phone),
		Email:              email,
		BirthDate:          in.BirthDate,
		Address:            strings.TrimSpace(in.Address),
		Allergies:          in.Allergies,
		CurrentMedications: in.CurrentMedications,
		HasDiabetes:        in.HasDiabetes,
		HasHypertension:    in.HasHypertension,
		HasHeartCondition:  in.HasHeartCondition,
		IsPregnant:         in.IsPregnant,
		IsSmoker:           in.IsSmoker,
		MedicalNotes:       in.MedicalNotes,
		RegistrationStatus: status,
		RegistrationSource: source,
	}, nil
}

func (s *Patients) Get(id uint) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("%w: patient %d", ErrNotFound, id)
	}
	return &p, nil
}

func (s *Patients) Update(id uint, in PatientInput) (*models.Patient, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	email, ok := NormEmail(in.Email)
	if !ok {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalid)
	}
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.Phone = NormPhone(in.Phone)
	p.Email = email
	p.BirthDate = in.BirthDate
	p.Address = strings.TrimSpace(in.Address)
	p.Allergies = in.Allergies
	p.CurrentMedications = in.CurrentMedications
	p.HasDiabetes = in.HasDiabetes
	p.HasHypertension = in.HasHypertension
	p.HasHeartCondition = in.HasHeartCondition
	p.IsPregnant = in.IsPregnant
	p.IsSmoker = in.IsSmoker
	p.MedicalNotes = in.MedicalNotes
	if err := s.db.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a patient permanently. This is the one hard delete in the
// registry, used for explicit admin removal only.
func (s *Patients) Delete(id uint) error {
	res := s.db.Delete(&models.Patient{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: patient %d", ErrNotFound, id)
	}
	return nil
}

// List filters by registration status ("" for all) and an optional search
// term matched against name, code and phone.
func (s *Patients) List(status, search string) ([]models.Patient, error) {
	q := s.db.Model(&models.Patient{}).Order("last_name, first_name")
	if status != "" {
		q = q.Where("registration_status = ?", status)
	}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + search + "%"
		q = q.Where("first_name LIKE ? OR last_name LIKE ? OR code LIKE ? OR phone LIKE ?",
			like, like, like, like)
	}
	var out []models.Patient
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Approve moves a pending QR registration into the active registry.
func (s *Patients) Approve(id uint) (*models.Patient, error) {
	return s.setRegistrationStatus(id, "approved")
}

func (s *Patients) Deny(id uint) (*models.Patient, error) {
	return s.setRegistrationStatus(id, "denied")
}

func (s *Patients) setRegistrationStatus(id uint, status string) (*models.Patient, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if p.RegistrationStatus != "pending" {
		return nil, fmt.Errorf("%w: registration already %s", ErrConflict, p.RegistrationStatus)
	}
	p.RegistrationStatus = status
	if err := s.db.Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// generatePatientCode creates a unique PT-XXXXXXXX code (uppercase hex).
func generatePatientCode(db *gorm.DB) (string, error) {
	for i := 0; i < 20; i++ {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		code := "PT-" + strings.ToUpper(hex.EncodeToString(b))
		var exists int64
		if err := db.Model(&models.Patient{}).Where("code = ?", code).Count(&exists).Error; err != nil {
			return "", err
		}
		if exists == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique patient code")
}
