package appointments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fachline/backend/services/scheduling-service/internal/model"
)

type fakeRepo struct {
	appts       map[string]model.Appointment
	failInsert  bool
	failStatus  bool
	statusDelay time.Duration
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appts: map[string]model.Appointment{}}
}

func (r *fakeRepo) FetchAll(_ context.Context) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range r.appts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeRepo) Insert(_ context.Context, appt model.Appointment) error {
	if r.failInsert {
		return errors.New("insert refused")
	}
	r.appts[appt.ID] = appt
	return nil
}

func (r *fakeRepo) Update(_ context.Context, appt model.Appointment) error {
	r.appts[appt.ID] = appt
	return nil
}

func (r *fakeRepo) Remove(_ context.Context, id string) error {
	delete(r.appts, id)
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status model.Status, _ time.Time) error {
	if r.failStatus {
		return errors.New("status update refused")
	}
	if r.statusDelay > 0 {
		time.Sleep(r.statusDelay)
	}
	a := r.appts[id]
	a.Status = status
	r.appts[id] = a
	return nil
}

type fakeReminders struct {
	cancelled []string
	scheduled bool
}

func (f *fakeReminders) CancelForAppointment(_ context.Context, id string) (int, error) {
	f.cancelled = append(f.cancelled, id)
	return 1, nil
}

func (f *fakeReminders) HasScheduled(_ context.Context, _ string) (bool, error) {
	return f.scheduled, nil
}

var testNow = time.Date(2025, 1, 22, 12, 0, 0, 0, time.UTC)

func newTestStore(repo *fakeRepo, rem *fakeReminders) *Store {
	opts := []Option{WithClock(func() time.Time { return testNow })}
	if rem != nil {
		opts = append(opts, WithReminders(rem))
	}
	return NewStore(repo, opts...)
}

func validInput() CreateInput {
	return CreateInput{
		WorkerID:        "w1",
		ClientName:      "Anna Nowak",
		Date:            time.Date(2025, 1, 23, 0, 0, 0, 0, time.UTC),
		Start:           model.TimeOfDay(10 * 60),
		DurationMinutes: 60,
		ServiceType:     "hydraulika",
	}
}

func TestCreate_DefaultsToPending(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)
	appt, err := store.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if appt.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if appt.Status != model.StatusPending {
		t.Fatalf("expected pending, got %s", appt.Status)
	}
	if appt.Priority != model.PriorityNormal {
		t.Fatalf("expected normal priority default, got %s", appt.Priority)
	}
	if got, ok := store.Get(appt.ID); !ok || got.ID != appt.ID {
		t.Fatalf("created appointment missing from snapshot")
	}
}

func TestCreate_InvalidInput(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)

	in := validInput()
	in.WorkerID = ""
	if _, err := store.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing worker, got %v", err)
	}

	in = validInput()
	in.DurationMinutes = 0
	if _, err := store.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero duration, got %v", err)
	}

	in = validInput()
	in.ReminderChannels = []model.Channel{"pigeon"}
	if _, err := store.Create(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown channel, got %v", err)
	}
}

func TestCreate_PersistenceFailureLeavesSnapshotUntouched(t *testing.T) {
	repo := newFakeRepo()
	repo.failInsert = true
	store := newTestStore(repo, nil)

	if _, err := store.Create(context.Background(), validInput()); err == nil {
		t.Fatalf("expected error")
	}
	if got := store.List(); len(got) != 0 {
		t.Fatalf("snapshot should stay empty after failed insert, got %d", len(got))
	}
}

func TestUpdate_PartialEdit(t *testing.T) {
	repo := newFakeRepo()
	store := newTestStore(repo, nil)
	ctx := context.Background()
	appt, err := store.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	start := model.TimeOfDay(14 * 60)
	duration := 90
	notes := "klient prosi o telefon przed wizytą"
	updated, err := store.Update(ctx, appt.ID, UpdateInput{
		Start:           &start,
		DurationMinutes: &duration,
		Notes:           &notes,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Start != start || updated.DurationMinutes != duration || updated.Notes != notes {
		t.Fatalf("edited fields not applied: %+v", updated)
	}
	if updated.WorkerID != appt.WorkerID || updated.ClientName != appt.ClientName || !updated.Date.Equal(appt.Date) {
		t.Fatalf("untouched fields must keep their value: %+v", updated)
	}
	if got := repo.appts[appt.ID]; got.Start != start {
		t.Fatalf("edit not persisted: %+v", got)
	}
	if got, _ := store.Get(appt.ID); got.Start != start {
		t.Fatalf("snapshot not updated: %+v", got)
	}
}

func TestUpdate_InvalidInput(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)
	ctx := context.Background()
	appt, _ := store.Create(ctx, validInput())

	zero := 0
	if _, err := store.Update(ctx, appt.ID, UpdateInput{DurationMinutes: &zero}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero duration, got %v", err)
	}
	if got, _ := store.Get(appt.ID); got.DurationMinutes != appt.DurationMinutes {
		t.Fatalf("rejected edit must not mutate, got %+v", got)
	}

	if _, err := store.Update(ctx, "missing", UpdateInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdate_ClosedAppointment(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)
	ctx := context.Background()
	appt, _ := store.Create(ctx, validInput())
	if err := store.Transition(ctx, appt.ID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	notes := "przełożona"
	if _, err := store.Update(ctx, appt.ID, UpdateInput{Notes: &notes}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed for cancelled appointment, got %v", err)
	}
}

func TestTransition_Lifecycle(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)
	ctx := context.Background()
	appt, err := store.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := store.Transition(ctx, appt.ID, model.StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed must be rejected, got %v", err)
	}
	if got, _ := store.Get(appt.ID); got.Status != model.StatusPending {
		t.Fatalf("rejected transition must not mutate, got %s", got.Status)
	}

	if err := store.Transition(ctx, appt.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("pending -> confirmed failed: %v", err)
	}
	got, _ := store.Get(appt.ID)
	if got.Status != model.StatusConfirmed || got.ConfirmedAt == nil {
		t.Fatalf("expected confirmed with timestamp, got %+v", got)
	}

	if err := store.Transition(ctx, appt.ID, model.StatusCompleted); err != nil {
		t.Fatalf("confirmed -> completed failed: %v", err)
	}
	got, _ = store.Get(appt.ID)
	if got.CompletedAt == nil {
		t.Fatalf("expected terminal timestamp")
	}

	if err := store.Transition(ctx, appt.ID, model.StatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed is terminal, got %v", err)
	}
}

func TestTransition_ConcurrentTerminalsAreExclusive(t *testing.T) {
	repo := newFakeRepo()
	// A slow persist widens the window between the lifecycle check and the
	// snapshot mutation.
	repo.statusDelay = 10 * time.Millisecond
	store := newTestStore(repo, nil)
	ctx := context.Background()
	appt, _ := store.Create(ctx, validInput())
	if err := store.Transition(ctx, appt.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	targets := []model.Status{model.StatusCompleted, model.StatusCancelled}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, target := range targets {
		wg.Add(1)
		go func(i int, target model.Status) {
			defer wg.Done()
			errs[i] = store.Transition(ctx, appt.ID, target)
		}(i, target)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("loser must fail the lifecycle check, got %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one terminal transition must win, got %d", wins)
	}
	got, _ := store.Get(appt.ID)
	if got.CompletedAt != nil && got.CancelledAt != nil {
		t.Fatalf("terminal states are mutually exclusive, got %+v", got)
	}
	if got.CompletedAt == nil && got.CancelledAt == nil {
		t.Fatalf("winner must set its terminal timestamp, got %+v", got)
	}
}

func TestTransition_NotFound(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)
	if err := store.Transition(context.Background(), "missing", model.StatusConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransition_PersistenceFailure(t *testing.T) {
	repo := newFakeRepo()
	store := newTestStore(repo, nil)
	ctx := context.Background()
	appt, _ := store.Create(ctx, validInput())

	repo.failStatus = true
	if err := store.Transition(ctx, appt.ID, model.StatusConfirmed); err == nil {
		t.Fatalf("expected error")
	}
	if got, _ := store.Get(appt.ID); got.Status != model.StatusPending {
		t.Fatalf("failed persist must not mutate snapshot, got %s", got.Status)
	}
}

func TestTransition_CancelCancelsReminders(t *testing.T) {
	rem := &fakeReminders{}
	store := newTestStore(newFakeRepo(), rem)
	ctx := context.Background()
	appt, _ := store.Create(ctx, validInput())

	if err := store.Transition(ctx, appt.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if len(rem.cancelled) != 0 {
		t.Fatalf("confirm must not cancel reminders")
	}

	if err := store.Transition(ctx, appt.ID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if len(rem.cancelled) != 1 || rem.cancelled[0] != appt.ID {
		t.Fatalf("expected reminder cancellation for %s, got %v", appt.ID, rem.cancelled)
	}
	if got, _ := store.Get(appt.ID); got.CancelledAt == nil {
		t.Fatalf("expected cancelled timestamp")
	}
}

func TestBulkTransition_PartialSuccess(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		appt, err := store.Create(ctx, validInput())
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		ids = append(ids, appt.ID)
	}

	// All pending, all individually valid for confirm.
	if n := store.BulkTransition(ctx, ids, model.StatusConfirmed); n != len(ids) {
		t.Fatalf("expected %d successes, got %d", len(ids), n)
	}
	for _, id := range ids {
		if got, _ := store.Get(id); got.Status != model.StatusConfirmed {
			t.Fatalf("appointment %s not confirmed", id)
		}
	}

	// One already completed: completing again fails, the others succeed.
	if err := store.Transition(ctx, ids[0], model.StatusCompleted); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if n := store.BulkTransition(ctx, append(ids, "missing"), model.StatusCompleted); n != 2 {
		t.Fatalf("expected 2 successes, got %d", n)
	}
}

func TestRemove_GuardedByScheduledReminders(t *testing.T) {
	rem := &fakeReminders{scheduled: true}
	store := newTestStore(newFakeRepo(), rem)
	ctx := context.Background()
	appt, _ := store.Create(ctx, validInput())

	if err := store.Remove(ctx, appt.ID); !errors.Is(err, ErrHasReminders) {
		t.Fatalf("expected ErrHasReminders, got %v", err)
	}

	rem.scheduled = false
	if err := store.Remove(ctx, appt.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, ok := store.Get(appt.ID); ok {
		t.Fatalf("appointment should be gone")
	}
}

func TestStats_Buckets(t *testing.T) {
	store := newTestStore(newFakeRepo(), nil)
	ctx := context.Background()

	mk := func(date time.Time, service string) string {
		in := validInput()
		in.Date = date
		in.ServiceType = service
		appt, err := store.Create(ctx, in)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		return appt.ID
	}

	// testNow is Wednesday 2025-01-22.
	today := mk(time.Date(2025, 1, 22, 0, 0, 0, 0, time.UTC), "hydraulika")
	mk(time.Date(2025, 1, 24, 0, 0, 0, 0, time.UTC), "hydraulika")   // same week
	mk(time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), "elektryka")    // same month, next week
	mk(time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC), "malowanie")     // next month

	if err := store.Transition(ctx, today, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	stats := store.Stats(testNow)
	if stats.Total != 4 {
		t.Fatalf("expected total 4, got %d", stats.Total)
	}
	if stats.Today != 1 {
		t.Fatalf("expected 1 today, got %d", stats.Today)
	}
	if stats.ThisWeek != 2 {
		t.Fatalf("expected 2 this week, got %d", stats.ThisWeek)
	}
	if stats.ThisMonth != 3 {
		t.Fatalf("expected 3 this month, got %d", stats.ThisMonth)
	}
	if stats.ByStatus[model.StatusPending] != 3 || stats.ByStatus[model.StatusConfirmed] != 1 {
		t.Fatalf("unexpected status counts: %v", stats.ByStatus)
	}
	if stats.ByServiceType["hydraulika"] != 2 || stats.ByServiceType["elektryka"] != 1 {
		t.Fatalf("unexpected service counts: %v", stats.ByServiceType)
	}

	// Recomputed from current state, not cached.
	if err := store.Transition(ctx, today, model.StatusCompleted); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	stats = store.Stats(testNow)
	if stats.ByStatus[model.StatusConfirmed] != 0 || stats.ByStatus[model.StatusCompleted] != 1 {
		t.Fatalf("stats not recomputed: %v", stats.ByStatus)
	}
}

func TestLoad_ReplacesSnapshot(t *testing.T) {
	repo := newFakeRepo()
	repo.appts["x1"] = model.Appointment{
		ID: "x1", WorkerID: "w9",
		Date:            time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		Start:           model.TimeOfDay(9 * 60),
		DurationMinutes: 30,
		Status:          model.StatusConfirmed,
	}
	store := newTestStore(repo, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got, ok := store.Get("x1"); !ok || got.WorkerID != "w9" {
		t.Fatalf("expected x1 in snapshot after load")
	}
}
