package services

import (
	"errors"
	"testing"
)

// TestProcedures_DuplicateNameConflicts: (category, name) pairs are unique;
// the same name in another category is fine.
func TestProcedures_DuplicateNameConflicts(t *testing.T) {
	s := NewProcedures(testDB(t))

	first, err := s.Create(ProcedureInput{Category: "preventive", Name: "Cleaning", Price: 80, IsActive: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Create(ProcedureInput{Category: "preventive", Name: "Cleaning", Price: 90, IsActive: true}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate err = %v, want ErrConflict", err)
	}
	if _, err := s.Create(ProcedureInput{Category: "cosmetic", Name: "Cleaning", Price: 120, IsActive: true}); err != nil {
		t.Errorf("same name in another category should succeed: %v", err)
	}

	// Updating a row onto itself is not a duplicate.
	if _, err := s.Update(first.ID, ProcedureInput{Category: "preventive", Name: "Cleaning", Price: 85, IsActive: true}); err != nil {
		t.Errorf("self update: %v", err)
	}
}

func TestProcedures_ListActiveOnly(t *testing.T) {
	s := NewProcedures(testDB(t))

	if _, err := s.Create(ProcedureInput{Category: "preventive", Name: "Cleaning", Price: 80, IsActive: true}); err != nil {
		t.Fatal(err)
	}
	retired, err := s.Create(ProcedureInput{Category: "restorative", Name: "Amalgam Filling", Price: 100, IsActive: false})
	if err != nil {
		t.Fatal(err)
	}

	all, err := s.List(false)
	if err != nil {
		t.Fatal(err)
	}
	active, err := s.List(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || len(active) != 1 {
		t.Errorf("all=%d active=%d, want 2/1", len(all), len(active))
	}
	if active[0].ID == retired.ID {
		t.Error("inactive procedure leaked into active list")
	}
}

func TestProcedures_Validation(t *testing.T) {
	s := NewProcedures(testDB(t))

	if _, err := s.Create(ProcedureInput{Category: "x", Name: "  ", Price: 10}); !errors.Is(err, ErrInvalid) {
		t.Errorf("blank name err = %v, want ErrInvalid", err)
	}
	if _, err := s.Create(ProcedureInput{Category: "x", Name: "Y", Price: -1}); !errors.Is(err, ErrInvalid) {
		t.Errorf("negative price err = %v, want ErrInvalid", err)
	}
}
