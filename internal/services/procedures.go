package services

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/models"
)

// Procedures is the price catalog. Treatments reference entries but never
// own them; deactivation hides an entry from new treatments without touching
// history.
type Procedures struct {
	db *gorm.DB
}

func NewProcedures(db *gorm.DB) *Procedures {
	return &Procedures{db: db}
}

type ProcedureInput struct {
	Category string
	Name     string
	Price    float64
	IsActive bool
}

func (s *Procedures) Create(in ProcedureInput) (*models.Procedure, error) {
	if err := s.validate(in, 0); err != nil {
		return nil, err
	}
	p := &models.Procedure{
		Category: strings.TrimSpace(in.Category),
		Name:     strings.TrimSpace(in.Name),
		Price:    in.Price,
		IsActive: in.IsActive,
	}
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Procedures) Update(id uint, in ProcedureInput) (*models.Procedure, error) {
	var p models.Procedure
	if err := s.db.First(&p, id).Error; err != nil {
		return nil, fmt.Errorf("%w: procedure %d", ErrNotFound, id)
	}
	if err := s.validate(in, id); err != nil {
		return nil, err
	}
	p.Category = strings.TrimSpace(in.Category)
	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price
	p.IsActive = in.IsActive
	if err := s.db.Save(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Procedures) validate(in ProcedureInput, selfID uint) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalid)
	}
	q := s.db.Model(&models.Procedure{}).
		Where("category = ? AND name = ?", strings.TrimSpace(in.Category), strings.TrimSpace(in.Name))
	if selfID != 0 {
		q = q.Where("id <> ?", selfID)
	}
	var dup int64
	if err := q.Count(&dup).Error; err != nil {
		return err
	}
	if dup > 0 {
		return fmt.Errorf("%w: procedure %q already exists in category %q", ErrConflict, in.Name, in.Category)
	}
	return nil
}

// List returns the catalog, optionally restricted to active entries.
func (s *Procedures) List(activeOnly bool) ([]models.Procedure, error) {
	q := s.db.Order("category, name")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Procedure
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Procedures) Delete(id uint) error {
	res := s.db.Delete(&models.Procedure{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: procedure %d", ErrNotFound, id)
	}
	return nil
}
