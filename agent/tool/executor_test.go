package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	workforcex "github.com/tanpawarit/Chative-Voice-Booking/agent/workforce"
)

func scenarioDirectory(t *testing.T) *workforcex.InMemoryDirectory {
	t.Helper()

	masih := workforcex.NewWorker(0, "Masih", catalogx.Plumbing, catalogx.PestControl)
	masih.AddAvailability(workforcex.MustTimeSlot("2025-08-21", "16:00"))
	masih.AddAvailability(workforcex.MustTimeSlot("2025-08-21", "17:00"))
	ali := workforcex.NewWorker(1, "Ali", catalogx.Plumbing, catalogx.RoofingIssues)
	ali.AddAvailability(workforcex.MustTimeSlot("2025-08-22", "12:00"))

	d, err := workforcex.NewInMemoryDirectory([]workforcex.Worker{masih, ali})
	if err != nil {
		t.Fatalf("NewInMemoryDirectory() error = %v", err)
	}
	return d
}

type failingDirectory struct{ err error }

func (f failingDirectory) AllAvailableSlots(context.Context, catalogx.ServiceCategory) ([]workforcex.TimeSlot, error) {
	return nil, f.err
}

func (f failingDirectory) FirstFreeWorker(context.Context, workforcex.TimeSlot) (workforcex.Worker, bool, error) {
	return workforcex.Worker{}, false, f.err
}

func (f failingDirectory) Reserve(context.Context, catalogx.ServiceCategory, workforcex.TimeSlot) (workforcex.Worker, error) {
	return workforcex.Worker{}, f.err
}

func run(t *testing.T, exec Executor, tool string, args map[string]any) contractx.ToolResult {
	t.Helper()
	out, err := exec(context.Background(), tool, args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", tool, err)
	}
	if out.Tool != tool {
		t.Fatalf("unexpected tool in result: %s", out.Tool)
	}
	return out
}

func TestUpdateContactInfo(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "updateContactInfo", map[string]any{"name": "Sara", "phone": "604-555-0101", "address": nil})
	if out.Message != "Updated: name to Sara, phone number to 604-555-0101" {
		t.Fatalf("unexpected message: %q", out.Message)
	}
	if rec.Name == nil || *rec.Name != "Sara" || rec.Address != nil {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestUpdateContactInfoNoFields(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "updateContactInfo", map[string]any{})
	if out.Message != "No fields provided to update." || out.Error != "" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if rec.Summarize() != statex.NewCustomerRecord().Summarize() {
		t.Fatal("record changed on empty update")
	}
}

func TestSetServiceCategoryScenario(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "setServiceCategory", map[string]any{"reason": "Pest Control"})
	if out.Error != "" || rec.ServiceCategory != catalogx.PestControl {
		t.Fatalf("unexpected result: %+v, category=%q", out, rec.ServiceCategory)
	}
	if !IsEnabled(rec, KindBookSlot) {
		t.Fatal("booking not offered after category confirmation")
	}

	out = run(t, exec, "setServiceCategory", map[string]any{"reason": "Gardening"})
	if out.Message != "Invalid reason. Please choose one of: Plumbing, Pest Control, Roofing Issues" {
		t.Fatalf("unexpected message: %q", out.Message)
	}
	if rec.ServiceCategory != catalogx.PestControl {
		t.Fatalf("category changed on invalid input: %q", rec.ServiceCategory)
	}
}

func TestListAvailableTimes(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "listAvailableTimes", nil)
	if !strings.Contains(out.Error, contractx.ErrCategoryRequired.Error()) {
		t.Fatalf("expected category required refusal, got %+v", out)
	}

	rec.SetServiceCategory("Plumbing")
	out = run(t, exec, "listAvailableTimes", nil)
	want := "Available times for Plumbing: 2025-08-21 at 16:00, 2025-08-21 at 17:00, 2025-08-22 at 12:00"
	if out.Message != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", out.Message, want)
	}
}

func TestBookSlotScenario(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	rec.SetServiceCategory("Plumbing")
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "bookSlot", map[string]any{"chosenSlot": "2025-08-21 at 16:00"})
	if out.Error != "" {
		t.Fatalf("unexpected refusal: %+v", out)
	}
	if !strings.Contains(out.Message, "Masih") {
		t.Fatalf("expected Masih in confirmation, got %q", out.Message)
	}
	if rec.Appointment == nil || rec.Appointment.String() != "2025-08-21 at 16:00 with Masih" {
		t.Fatalf("unexpected appointment: %+v", rec.Appointment)
	}

	out = run(t, exec, "bookSlot", map[string]any{"chosenSlot": "2025-09-01 at 09:00"})
	if !strings.Contains(out.Error, contractx.ErrSlotNotFound.Error()) {
		t.Fatalf("expected slot not found, got %+v", out)
	}
}

func TestBookSlotBeforeCategory(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "bookSlot", map[string]any{"chosenSlot": "2025-08-21 at 16:00"})
	if !strings.Contains(out.Error, contractx.ErrCategoryRequired.Error()) {
		t.Fatalf("expected category required refusal, got %+v", out)
	}
	if rec.HasAppointment() {
		t.Fatal("appointment set without category")
	}
}

func TestBookSlotConsumesAcrossSessions(t *testing.T) {
	t.Parallel()

	dir := scenarioDirectory(t)
	first := statex.NewCustomerRecord()
	first.SetServiceCategory("Pest Control")
	second := statex.NewCustomerRecord()
	second.SetServiceCategory("Pest Control")

	run(t, NewExecutor(first, Deps{Directory: dir}), "bookSlot", map[string]any{"chosenSlot": "2025-08-21 at 17:00"})
	out := run(t, NewExecutor(second, Deps{Directory: dir}), "bookSlot", map[string]any{"chosenSlot": "2025-08-21 at 17:00"})
	if !strings.Contains(out.Error, contractx.ErrSlotNotFound.Error()) {
		t.Fatalf("expected second booking to be refused, got %+v", out)
	}
	if second.HasAppointment() {
		t.Fatal("double booking")
	}
}

func TestBookSlotAlreadyBooked(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	rec.SetServiceCategory("Plumbing")
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	run(t, exec, "bookSlot", map[string]any{"chosenSlot": "2025-08-21 at 16:00"})
	out := run(t, exec, "bookSlot", map[string]any{"chosenSlot": "2025-08-22 at 12:00"})
	if !strings.Contains(out.Error, contractx.ErrAlreadyBooked.Error()) {
		t.Fatalf("expected already booked, got %+v", out)
	}
	if rec.Appointment.WorkerName != "Masih" {
		t.Fatalf("appointment replaced: %+v", rec.Appointment)
	}

	out = run(t, exec, "setServiceCategory", map[string]any{"reason": "Roofing Issues"})
	if !strings.Contains(out.Error, contractx.ErrAlreadyBooked.Error()) {
		t.Fatalf("expected category change refusal, got %+v", out)
	}
}

func TestBookSlotDirectoryFailureIsReturned(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	rec := statex.NewCustomerRecord()
	rec.SetServiceCategory("Plumbing")
	exec := NewExecutor(rec, Deps{Directory: failingDirectory{err: boom}})

	if _, err := exec(context.Background(), "bookSlot", map[string]any{"chosenSlot": "2025-08-21 at 16:00"}); !errors.Is(err, boom) {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestFinalDoubleCheckEmptyRecord(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "finalDoubleCheck", nil)
	want := "customer_name: unknown; customer_phone: unknown; address: not provided; " +
		"postal_code: not provided; reason_of_call: not provided; appointment_time: not provided"
	if !strings.HasSuffix(out.Message, want) {
		t.Fatalf("unexpected readback: %q", out.Message)
	}
	if rec.Name != nil || rec.ServiceCategory != "" {
		t.Fatal("readback mutated customer fields")
	}
}

func TestEndCallOnce(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	calls := 0
	exec := NewExecutor(rec, Deps{
		Directory: scenarioDirectory(t),
		Complete: func(context.Context) error {
			calls++
			if calls > 1 {
				return contractx.ErrSessionClosed
			}
			return nil
		},
	})

	out := run(t, exec, "endCall", nil)
	if out.Error == "" || calls != 0 {
		t.Fatalf("endCall before readback should be refused: %+v calls=%d", out, calls)
	}

	run(t, exec, "finalDoubleCheck", nil)
	out = run(t, exec, "endCall", nil)
	if out.Error != "" || calls != 1 {
		t.Fatalf("unexpected result: %+v calls=%d", out, calls)
	}
	out = run(t, exec, "endCall", nil)
	if !strings.Contains(out.Error, contractx.ErrSessionClosed.Error()) {
		t.Fatalf("expected closed session refusal, got %+v", out)
	}
}

func TestRecordRefusal(t *testing.T) {
	t.Parallel()

	rec := statex.NewCustomerRecord()
	exec := NewExecutor(rec, Deps{Directory: scenarioDirectory(t)})

	out := run(t, exec, "recordRefusal", map[string]any{"field": "postalCode"})
	if out.Error != "" || !strings.Contains(out.Message, "postal code") {
		t.Fatalf("unexpected result: %+v", out)
	}
	out = run(t, exec, "recordRefusal", map[string]any{"field": "email"})
	if out.Error == "" {
		t.Fatal("expected refusal for unknown field")
	}
	if len(rec.Refusals) != 1 {
		t.Fatalf("unexpected refusals: %v", rec.Refusals)
	}
}

func TestUnknownTool(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(statex.NewCustomerRecord(), Deps{Directory: scenarioDirectory(t)})
	out, err := exec(context.Background(), "math.evaluate", map[string]any{"expression": "1+1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Error, contractx.ErrUnknownTool.Error()) {
		t.Fatalf("expected unknown tool refusal, got %+v", out)
	}
}
