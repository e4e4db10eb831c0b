package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/models"
)

// Admins is the single-tenant credential store behind the admin login.
type Admins struct {
	db *gorm.DB
}

func NewAdmins(db *gorm.DB) *Admins {
	return &Admins{db: db}
}

// EnsureBootstrap seeds the first admin account when the table is empty.
// A no-op when any admin already exists or no password is configured.
func (s *Admins) EnsureBootstrap(username, password, email string) error {
	if password == "" {
		return nil
	}
	var count int64
	if err := s.db.Model(&models.AdminUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.db.Create(&models.AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
	}).Error
}

// Authenticate verifies a username/password pair. Failures are reported as
// ErrNotFound regardless of which half was wrong.
func (s *Admins) Authenticate(username, password string) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrNotFound)
	}
	return &u, nil
}

func (s *Admins) ChangePassword(username, current, next string) error {
	u, err := s.Authenticate(username, current)
	if err != nil {
		return err
	}
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.db.Save(u).Error
}
