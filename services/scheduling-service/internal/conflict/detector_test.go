package conflict

import (
	"testing"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

var testWorker = model.Worker{
	ID:          "w1",
	Name:        "Jan Kowalski",
	IsAvailable: true,
	WorkingHours: model.WorkingHours{
		Start: model.TimeOfDay(9 * 60),
		End:   model.TimeOfDay(17 * 60),
	},
}

var testDate = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

func hasCode(reasons []Reason, code Code) bool {
	for _, r := range reasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

func TestDetect_NoConflicts(t *testing.T) {
	req := Request{Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 60}
	if reasons := Detect(req, testWorker, nil); len(reasons) != 0 {
		t.Fatalf("expected no conflicts, got %v", reasons)
	}
}

func TestDetect_OutsideWorkingHours(t *testing.T) {
	// 60 minutes at 16:30 runs until 17:30, past the 17:00 end of day.
	req := Request{Date: testDate, Start: model.TimeOfDay(16*60 + 30), DurationMinutes: 60}
	reasons := Detect(req, testWorker, nil)
	if len(reasons) != 1 {
		t.Fatalf("expected exactly one conflict, got %v", reasons)
	}
	if reasons[0].Code != CodeOutsideWorkingHours {
		t.Fatalf("expected outside_working_hours, got %s", reasons[0].Code)
	}
	if reasons[0].Message != "Poza godzinami pracy" {
		t.Fatalf("unexpected message %q", reasons[0].Message)
	}

	// Before the start of day too, regardless of other bookings.
	early := Request{Date: testDate, Start: model.TimeOfDay(8 * 60), DurationMinutes: 30}
	if reasons := Detect(early, testWorker, nil); !hasCode(reasons, CodeOutsideWorkingHours) {
		t.Fatalf("expected outside_working_hours for 08:00, got %v", reasons)
	}
}

func TestDetect_Overlap(t *testing.T) {
	existing := []model.Appointment{
		{ID: "a1", WorkerID: "w1", Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 60, Status: model.StatusConfirmed},
	}

	// 10:30-11:30 intersects 10:00-11:00.
	req := Request{Date: testDate, Start: model.TimeOfDay(10*60 + 30), DurationMinutes: 60}
	if reasons := Detect(req, testWorker, existing); !hasCode(reasons, CodeOverlap) {
		t.Fatalf("expected overlap, got %v", reasons)
	}

	// 11:00-12:00 touches the boundary; half-open intervals make that legal.
	touching := Request{Date: testDate, Start: model.TimeOfDay(11 * 60), DurationMinutes: 60}
	if reasons := Detect(touching, testWorker, existing); len(reasons) != 0 {
		t.Fatalf("expected boundary booking to be legal, got %v", reasons)
	}
}

func TestDetect_DisjointIntervalsNeverOverlap(t *testing.T) {
	// Two disjoint half-open windows must not report overlap when each is
	// checked against the other.
	a := model.Appointment{ID: "a", WorkerID: "w1", Date: testDate, Start: model.TimeOfDay(9 * 60), DurationMinutes: 60, Status: model.StatusConfirmed}
	b := model.Appointment{ID: "b", WorkerID: "w1", Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 90, Status: model.StatusConfirmed}

	reqA := Request{Date: testDate, Start: a.Start, DurationMinutes: a.DurationMinutes}
	if reasons := Detect(reqA, testWorker, []model.Appointment{b}); hasCode(reasons, CodeOverlap) {
		t.Fatalf("a vs b reported overlap: %v", reasons)
	}
	reqB := Request{Date: testDate, Start: b.Start, DurationMinutes: b.DurationMinutes}
	if reasons := Detect(reqB, testWorker, []model.Appointment{a}); hasCode(reasons, CodeOverlap) {
		t.Fatalf("b vs a reported overlap: %v", reasons)
	}
}

func TestDetect_IgnoresOtherWorkersAndCancelled(t *testing.T) {
	existing := []model.Appointment{
		{ID: "a1", WorkerID: "w2", Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 60, Status: model.StatusConfirmed},
		{ID: "a2", WorkerID: "w1", Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 60, Status: model.StatusCancelled},
		{ID: "a3", WorkerID: "w1", Date: testDate.AddDate(0, 0, 1), Start: model.TimeOfDay(10 * 60), DurationMinutes: 60, Status: model.StatusConfirmed},
	}
	req := Request{Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 60}
	if reasons := Detect(req, testWorker, existing); len(reasons) != 0 {
		t.Fatalf("expected no conflicts, got %v", reasons)
	}
}

func TestDetect_WorkerUnavailable(t *testing.T) {
	w := testWorker
	w.IsAvailable = false
	req := Request{Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 60}
	reasons := Detect(req, w, nil)
	if !hasCode(reasons, CodeWorkerUnavailable) {
		t.Fatalf("expected worker_unavailable, got %v", reasons)
	}
}

func TestDetect_CollectsMultipleReasons(t *testing.T) {
	w := testWorker
	w.IsAvailable = false
	existing := []model.Appointment{
		{ID: "a1", WorkerID: "w1", Date: testDate, Start: model.TimeOfDay(16 * 60), DurationMinutes: 60, Status: model.StatusPending},
	}
	// Unavailable worker + runs past end of day + overlaps a1.
	req := Request{Date: testDate, Start: model.TimeOfDay(16*60 + 30), DurationMinutes: 60}
	reasons := Detect(req, w, existing)
	if len(reasons) != 3 {
		t.Fatalf("expected 3 collected reasons, got %v", reasons)
	}
	if !hasCode(reasons, CodeWorkerUnavailable) || !hasCode(reasons, CodeOutsideWorkingHours) || !hasCode(reasons, CodeOverlap) {
		t.Fatalf("missing expected reasons: %v", reasons)
	}
}

func TestDetect_InvalidDuration(t *testing.T) {
	req := Request{Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: 0}
	reasons := Detect(req, testWorker, nil)
	if len(reasons) != 1 || reasons[0].Code != CodeInvalidDuration {
		t.Fatalf("expected invalid_duration only, got %v", reasons)
	}

	neg := Request{Date: testDate, Start: model.TimeOfDay(10 * 60), DurationMinutes: -15}
	if reasons := Detect(neg, testWorker, nil); !hasCode(reasons, CodeInvalidDuration) {
		t.Fatalf("expected invalid_duration for negative duration, got %v", reasons)
	}
}
