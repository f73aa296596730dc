package workforce

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
)

// scenarioWorkers is the two-worker roster used across directory tests.
func scenarioWorkers() []Worker {
	masih := NewWorker(0, "Masih", catalogx.Plumbing, catalogx.PestControl)
	masih.AddAvailability(MustTimeSlot("2025-08-21", "17:00"))
	masih.AddAvailability(MustTimeSlot("2025-08-21", "16:00"))

	ali := NewWorker(1, "Ali", catalogx.Plumbing, catalogx.RoofingIssues)
	ali.AddAvailability(MustTimeSlot("2025-08-22", "12:00"))
	ali.AddAvailability(MustTimeSlot("2025-08-21", "16:00"))

	return []Worker{masih, ali}
}

func newScenarioDirectory(t *testing.T, opts ...Option) *InMemoryDirectory {
	t.Helper()
	d, err := NewInMemoryDirectory(scenarioWorkers(), opts...)
	if err != nil {
		t.Fatalf("NewInMemoryDirectory() error = %v", err)
	}
	return d
}

func TestAllAvailableSlotsDedupedAndSorted(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	got, err := d.AllAvailableSlots(context.Background(), catalogx.Plumbing)
	if err != nil {
		t.Fatalf("AllAvailableSlots() error = %v", err)
	}
	want := []TimeSlot{
		MustTimeSlot("2025-08-21", "16:00"),
		MustTimeSlot("2025-08-21", "17:00"),
		MustTimeSlot("2025-08-22", "12:00"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AllAvailableSlots() = %v, want %v", got, want)
	}
}

func TestAllAvailableSlotsFiltersBySkill(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	got, err := d.AllAvailableSlots(context.Background(), catalogx.RoofingIssues)
	if err != nil {
		t.Fatalf("AllAvailableSlots() error = %v", err)
	}
	want := []TimeSlot{
		MustTimeSlot("2025-08-21", "16:00"),
		MustTimeSlot("2025-08-22", "12:00"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("AllAvailableSlots(Roofing) = %v, want %v", got, want)
	}
}

func TestAllAvailableSlotsEmptyIsNotError(t *testing.T) {
	t.Parallel()

	d, err := NewInMemoryDirectory([]Worker{NewWorker(7, "Noor", catalogx.Plumbing)})
	if err != nil {
		t.Fatalf("NewInMemoryDirectory() error = %v", err)
	}
	got, err := d.AllAvailableSlots(context.Background(), catalogx.PestControl)
	if err != nil {
		t.Fatalf("AllAvailableSlots() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestFirstFreeWorkerRegistrationOrder(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	slot := MustTimeSlot("2025-08-21", "16:00")
	for i := 0; i < 5; i++ {
		w, ok, err := d.FirstFreeWorker(context.Background(), slot)
		if err != nil || !ok {
			t.Fatalf("FirstFreeWorker() = %v, %v, %v", w, ok, err)
		}
		if w.Name != "Masih" {
			t.Fatalf("FirstFreeWorker() = %s, want Masih", w.Name)
		}
	}

	if _, ok, _ := d.FirstFreeWorker(context.Background(), MustTimeSlot("2030-01-01", "09:00")); ok {
		t.Fatal("unexpected worker for unknown slot")
	}
}

func TestReserveConsumesSlot(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	ctx := context.Background()
	slot := MustTimeSlot("2025-08-21", "16:00")

	w, err := d.Reserve(ctx, catalogx.Plumbing, slot)
	if err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if w.Name != "Masih" {
		t.Fatalf("Reserve() = %s, want Masih", w.Name)
	}

	// Ali still holds the same slot, so it stays listed and the next booking lands on him.
	w, err = d.Reserve(ctx, catalogx.Plumbing, slot)
	if err != nil {
		t.Fatalf("second Reserve() error = %v", err)
	}
	if w.Name != "Ali" {
		t.Fatalf("second Reserve() = %s, want Ali", w.Name)
	}

	if _, err := d.Reserve(ctx, catalogx.Plumbing, slot); !errors.Is(err, ErrNoWorkerAvailable) {
		t.Fatalf("third Reserve() error = %v, want ErrNoWorkerAvailable", err)
	}

	slots, _ := d.AllAvailableSlots(ctx, catalogx.Plumbing)
	for _, s := range slots {
		if s == slot {
			t.Fatalf("booked slot %s still listed", slot)
		}
	}
}

func TestReserveRequiresSkill(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	// only Ali has 2025-08-22 12:00 and he is not a pest controller
	_, err := d.Reserve(context.Background(), catalogx.PestControl, MustTimeSlot("2025-08-22", "12:00"))
	if !errors.Is(err, ErrNoWorkerAvailable) {
		t.Fatalf("Reserve() error = %v, want ErrNoWorkerAvailable", err)
	}
}

func TestReserveWithoutConsumeKeepsSlot(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t, WithConsumeOnBook(false))
	ctx := context.Background()
	slot := MustTimeSlot("2025-08-21", "17:00")

	for i := 0; i < 2; i++ {
		w, err := d.Reserve(ctx, catalogx.PestControl, slot)
		if err != nil {
			t.Fatalf("Reserve() #%d error = %v", i, err)
		}
		if w.Name != "Masih" {
			t.Fatalf("Reserve() #%d = %s", i, w.Name)
		}
	}
}

func TestReserveConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	slot := MustTimeSlot("2025-08-21", "17:00")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Reserve(context.Background(), catalogx.Plumbing, slot); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one reservation, got %d", wins)
	}
}

func TestRegisterRejectsDuplicatesAndUnknownSkills(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	if err := d.Register(NewWorker(0, "Masih again", catalogx.Plumbing)); !errors.Is(err, ErrDuplicateWorker) {
		t.Fatalf("Register(dup) error = %v", err)
	}
	if err := d.Register(NewWorker(9, "Sam", "Gardening")); !errors.Is(err, ErrInvalidWorker) {
		t.Fatalf("Register(unknown skill) error = %v", err)
	}
	w, ok, _ := d.FirstFreeWorker(context.Background(), MustTimeSlot("2025-08-21", "17:00"))
	if !ok || w.Name != "Masih" {
		t.Fatalf("FirstFreeWorker() = %v, %v; rejected worker must not replace Masih", w.Name, ok)
	}
}

func TestFirstFreeWorkerReturnsCopy(t *testing.T) {
	t.Parallel()

	d := newScenarioDirectory(t)
	w, ok, _ := d.FirstFreeWorker(context.Background(), MustTimeSlot("2025-08-21", "17:00"))
	if !ok {
		t.Fatal("expected a free worker")
	}
	w.FreeSlots[0] = MustTimeSlot("1999-01-01", "00:00")

	got, _ := d.AllAvailableSlots(context.Background(), catalogx.PestControl)
	for _, s := range got {
		if s.Date == "1999-01-01" {
			t.Fatal("directory state leaked through FirstFreeWorker()")
		}
	}
}
