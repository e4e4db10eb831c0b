package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/models"
)

// QRTokens issues and consumes the registration tokens behind the clinic's
// self-service intake QR codes. Three lifecycles exist: single-use standard
// tokens, reusable standard tokens, and generic tokens that never expire.
type QRTokens struct {
	db      *gorm.DB
	baseURL string
	now     func() time.Time
}

func NewQRTokens(db *gorm.DB, baseURL string) *QRTokens {
	return &QRTokens{db: db, baseURL: baseURL, now: time.Now}
}

// Issue creates a token valid for expirationHours and returns it with the
// registration URL the QR code should encode.
func (s *QRTokens) Issue(expirationHours int, reusable bool, qrType, note string) (*models.QRToken, string, error) {
	if qrType != "standard" && qrType != "generic" {
		return nil, "", fmt.Errorf("%w: unknown qr_type %q", ErrInvalid, qrType)
	}
	if qrType != "generic" && expirationHours <= 0 {
		return nil, "", fmt.Errorf("%w: expiration_hours must be positive", ErrInvalid)
	}

	tok := &models.QRToken{
		Token:     uuid.NewString(),
		QRType:    qrType,
		Reusable:  reusable || qrType == "generic",
		ExpiresAt: s.now().Add(time.Duration(expirationHours) * time.Hour),
		Note:      note,
	}
	if err := s.db.Create(tok).Error; err != nil {
		return nil, "", err
	}
	return tok, s.RegistrationURL(tok.Token), nil
}

func (s *QRTokens) RegistrationURL(token string) string {
	return s.baseURL + "/register?token=" + token
}

// Validate checks a token without consuming it.
func (s *QRTokens) Validate(token string) (*models.QRToken, error) {
	var tok models.QRToken
	if err := s.db.Where("token = ?", token).First(&tok).Error; err != nil {
		return nil, fmt.Errorf("%w: token", ErrNotFound)
	}
	return &tok, s.check(&tok)
}

func (s *QRTokens) check(tok *models.QRToken) error {
	if tok.QRType != "generic" && s.now().After(tok.ExpiresAt) {
		return ErrExpired
	}
	if !tok.Reusable && tok.Used {
		return ErrAlreadyUsed
	}
	return nil
}

// Consume registers a patient through the token. Validation, patient insert
// and the usage mark run in one transaction, so two concurrent hits on a
// single-use token cannot both register.
func (s *QRTokens) Consume(token string, in PatientInput) (*models.Patient, error) {
	var patient *models.Patient
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tok models.QRToken
		if err := tx.Where("token = ?", token).First(&tok).Error; err != nil {
			return fmt.Errorf("%w: token", ErrNotFound)
		}
		if err := s.check(&tok); err != nil {
			return err
		}

		source := "qr"
		if tok.QRType == "generic" {
			source = "generic"
		}
		p, err := buildPatient(tx, in, source, "pending")
		if err != nil {
			return err
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		patient = p

		if tok.Reusable {
			tok.UsageCount++
		} else {
			tok.Used = true
		}
		return tx.Save(&tok).Error
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

// Status reports a token's computed lifecycle state.
func (s *QRTokens) Status(tok *models.QRToken) string {
	switch s.check(tok) {
	case ErrExpired:
		return "expired"
	case ErrAlreadyUsed:
		return "used"
	default:
		return "active"
	}
}

func (s *QRTokens) Get(id uint) (*models.QRToken, error) {
	var tok models.QRToken
	if err := s.db.First(&tok, id).Error; err != nil {
		return nil, fmt.Errorf("%w: token %d", ErrNotFound, id)
	}
	return &tok, nil
}

func (s *QRTokens) List() ([]models.QRToken, error) {
	var out []models.QRToken
	if err := s.db.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *QRTokens) Delete(id uint) error {
	res := s.db.Delete(&models.QRToken{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: token %d", ErrNotFound, id)
	}
	return nil
}

// CleanupExpired removes every standard token past its expiry, used or not.
// Generic tokens never expire and are never collected.
func (s *QRTokens) CleanupExpired() (int64, error) {
	res := s.db.Where("qr_type <> ? AND expires_at < ?", "generic", s.now()).
		Delete(&models.QRToken{})
	return res.RowsAffected, res.Error
}
