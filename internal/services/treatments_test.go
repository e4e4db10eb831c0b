package services

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/smileworks/clinic/internal/models"
)

func seedProcedure(t *testing.T, conn *gorm.DB, category, name string, price float64) *models.Procedure {
	t.Helper()
	p, err := NewProcedures(conn).Create(ProcedureInput{
		Category: category, Name: name, Price: price, IsActive: true,
	})
	if err != nil {
		t.Fatalf("seed procedure: %v", err)
	}
	return p
}

// TestTreatments_CreateComputesTotal: total_amount is the sum of
// quantity x unit_price over the submitted lines — the submitted prices, not
// the catalog's.
func TestTreatments_CreateComputesTotal(t *testing.T) {
	conn := testDB(t)
	s := NewTreatments(conn)
	patient := seedPatient(t, conn, "")
	cleaning := seedProcedure(t, conn, "preventive", "Cleaning", 80)
	filling := seedProcedure(t, conn, "restorative", "Filling", 150)

	tr, err := s.Create(TreatmentInput{
		PatientID:     patient.ID,
		TreatmentDate: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		Lines: []TreatmentLine{
			{ProcedureID: cleaning.ID, Quantity: 1, UnitPrice: 75}, // discounted below catalog
			{ProcedureID: filling.ID, Quantity: 2, UnitPrice: 150},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if tr.TotalAmount != 375 {
		t.Errorf("total = %v, want 375", tr.TotalAmount)
	}
	if tr.PaymentStatus != "pending" || tr.AmountPaid != 0 {
		t.Errorf("new treatment billing = %s/%v, want pending/0", tr.PaymentStatus, tr.AmountPaid)
	}
	if len(tr.Procedures) != 2 {
		t.Fatalf("line items = %d, want 2", len(tr.Procedures))
	}
	if tr.Procedures[1].Subtotal != 300 {
		t.Errorf("subtotal = %v, want 300", tr.Procedures[1].Subtotal)
	}
}

// TestTreatments_CreateCompletesAppointment: linking a treatment to an
// appointment marks the visit completed in the same transaction.
func TestTreatments_CreateCompletesAppointment(t *testing.T) {
	conn := testDB(t)
	s := NewTreatments(conn)
	appts := testAppointments(t, conn)
	patient := seedPatient(t, conn, "")
	proc := seedProcedure(t, conn, "preventive", "Cleaning", 80)

	appt, err := appts.Create(AppointmentInput{
		PatientID: patient.ID,
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00", DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}

	_, err = s.Create(TreatmentInput{
		PatientID:     patient.ID,
		AppointmentID: &appt.ID,
		TreatmentDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:         []TreatmentLine{{ProcedureID: proc.ID, Quantity: 1, UnitPrice: 80}},
	})
	if err != nil {
		t.Fatalf("create treatment: %v", err)
	}

	got, err := appts.Get(appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "completed" {
		t.Errorf("appointment status = %q, want completed", got.Status)
	}
}

func TestTreatments_CreateValidation(t *testing.T) {
	conn := testDB(t)
	s := NewTreatments(conn)
	patient := seedPatient(t, conn, "")
	proc := seedProcedure(t, conn, "preventive", "Cleaning", 80)

	if _, err := s.Create(TreatmentInput{
		PatientID: patient.ID, TreatmentDate: fixedNow, Lines: nil,
	}); !errors.Is(err, ErrInvalid) {
		t.Errorf("no lines err = %v, want ErrInvalid", err)
	}

	if _, err := s.Create(TreatmentInput{
		PatientID: 999, TreatmentDate: fixedNow,
		Lines: []TreatmentLine{{ProcedureID: proc.ID, Quantity: 1, UnitPrice: 80}},
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown patient err = %v, want ErrNotFound", err)
	}

	if _, err := s.Create(TreatmentInput{
		PatientID: patient.ID, TreatmentDate: fixedNow,
		Lines: []TreatmentLine{{ProcedureID: 999, Quantity: 1, UnitPrice: 80}},
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown procedure err = %v, want ErrNotFound", err)
	}
}

// TestTreatments_UpdateReplacesLines: supplying lines on update swaps the
// entire set and recomputes the total; old line rows must be gone.
func TestTreatments_UpdateReplacesLines(t *testing.T) {
	conn := testDB(t)
	s := NewTreatments(conn)
	patient := seedPatient(t, conn, "")
	cleaning := seedProcedure(t, conn, "preventive", "Cleaning", 80)
	xray := seedProcedure(t, conn, "diagnostic", "X-Ray", 60)

	tr, err := s.Create(TreatmentInput{
		PatientID:     patient.ID,
		TreatmentDate: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		Lines: []TreatmentLine{
			{ProcedureID: cleaning.ID, Quantity: 1, UnitPrice: 80},
			{ProcedureID: xray.ID, Quantity: 1, UnitPrice: 60},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Update(tr.ID, nil, nil, []TreatmentLine{
		{ProcedureID: xray.ID, Quantity: 3, UnitPrice: 50},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.TotalAmount != 150 {
		t.Errorf("total = %v, want 150", got.TotalAmount)
	}
	if len(got.Procedures) != 1 {
		t.Fatalf("line items = %d, want 1", len(got.Procedures))
	}

	var orphans int64
	conn.Model(&models.TreatmentProcedure{}).Where("treatment_id = ?", tr.ID).Count(&orphans)
	if orphans != 1 {
		t.Errorf("line rows in db = %d, want 1", orphans)
	}
}

// TestTreatments_UpdateWithoutLinesKeepsItems: a nil line set means "don't
// touch the items"; notes/date still update.
func TestTreatments_UpdateWithoutLinesKeepsItems(t *testing.T) {
	conn := testDB(t)
	s := NewTreatments(conn)
	patient := seedPatient(t, conn, "")
	proc := seedProcedure(t, conn, "preventive", "Cleaning", 80)

	tr, err := s.Create(TreatmentInput{
		PatientID:     patient.ID,
		TreatmentDate: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		Lines:         []TreatmentLine{{ProcedureID: proc.ID, Quantity: 2, UnitPrice: 80}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	notes := "patient tolerated procedure well"
	got, err := s.Update(tr.ID, nil, &notes, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Notes != notes {
		t.Errorf("notes = %q", got.Notes)
	}
	if got.TotalAmount != 160 || len(got.Procedures) != 1 {
		t.Errorf("items disturbed: total=%v lines=%d", got.TotalAmount, len(got.Procedures))
	}
}

func TestTreatments_UpdatePayment(t *testing.T) {
	conn := testDB(t)
	s := NewTreatments(conn)
	patient := seedPatient(t, conn, "")
	proc := seedProcedure(t, conn, "preventive", "Cleaning", 80)

	tr, err := s.Create(TreatmentInput{
		PatientID:     patient.ID,
		TreatmentDate: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		Lines:         []TreatmentLine{{ProcedureID: proc.ID, Quantity: 1, UnitPrice: 80}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.UpdatePayment(tr.ID, "partial", 40)
	if err != nil {
		t.Fatalf("update payment: %v", err)
	}
	if got.PaymentStatus != "partial" || got.AmountPaid != 40 {
		t.Errorf("billing = %s/%v, want partial/40", got.PaymentStatus, got.AmountPaid)
	}

	if _, err := s.UpdatePayment(tr.ID, "refunded", 0); !errors.Is(err, ErrInvalid) {
		t.Errorf("bad status err = %v, want ErrInvalid", err)
	}
}

func TestTreatments_DeleteRemovesLines(t *testing.T) {
	conn := testDB(t)
	s := NewTreatments(conn)
	patient := seedPatient(t, conn, "")
	proc := seedProcedure(t, conn, "preventive", "Cleaning", 80)

	tr, err := s.Create(TreatmentInput{
		PatientID:     patient.ID,
		TreatmentDate: time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
		Lines:         []TreatmentLine{{ProcedureID: proc.ID, Quantity: 1, UnitPrice: 80}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Delete(tr.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(tr.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}
	var orphans int64
	conn.Model(&models.TreatmentProcedure{}).Where("treatment_id = ?", tr.ID).Count(&orphans)
	if orphans != 0 {
		t.Errorf("orphaned line rows = %d", orphans)
	}
}
