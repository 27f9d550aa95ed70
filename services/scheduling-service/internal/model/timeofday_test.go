package model

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tod != 9*60+30 {
		t.Fatalf("expected 570 minutes, got %d", tod)
	}
	if tod.String() != "09:30" {
		t.Fatalf("expected 09:30, got %s", tod.String())
	}

	if _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Fatalf("expected error for 25:00")
	}
	if _, err := ParseTimeOfDay("bogus"); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestTimeOfDayAt(t *testing.T) {
	date := time.Date(2025, 1, 25, 23, 59, 0, 0, time.UTC)
	tod := TimeOfDay(14 * 60)
	at := tod.At(date)
	want := time.Date(2025, 1, 25, 14, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("expected %s, got %s", want, at)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusCompleted},
		{StatusConfirmed, StatusCancelled},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	rejected := [][2]Status{
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusPending},
		{StatusCompleted, StatusCancelled},
		{StatusCompleted, StatusConfirmed},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusConfirmed},
	}
	for _, pair := range rejected {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}
