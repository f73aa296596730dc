package state

import (
	"encoding/json"
	"errors"
	"testing"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
)

func strp(v string) *string { return &v }

func TestUpdateNoFieldsLeavesRecordUnchanged(t *testing.T) {
	t.Parallel()

	r := NewCustomerRecord()
	r.Name = strp("Sara")

	changes, err := r.Update(ContactUpdate{})
	if !errors.Is(err, ErrNoFieldsProvided) {
		t.Fatalf("Update() error = %v, want ErrNoFieldsProvided", err)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no changes, got %#v", changes)
	}
	if *r.Name != "Sara" || r.PhoneNumber != nil || r.Address != nil || r.PostalCode != nil {
		t.Fatalf("record mutated: %#v", r)
	}
}

func TestUpdateListsChangedFieldsInOrder(t *testing.T) {
	t.Parallel()

	r := NewCustomerRecord()
	changes, err := r.Update(ContactUpdate{
		PostalCode:  strp("M5V 2T6"),
		Name:        strp("Sara"),
		PhoneNumber: strp("555-0100"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got := FormatChanges(changes)
	want := "Updated: name to Sara, phone number to 555-0100, postal code to M5V 2T6"
	if got != want {
		t.Fatalf("FormatChanges() = %q, want %q", got, want)
	}
	if r.Address != nil {
		t.Fatalf("address should stay unset, got %q", *r.Address)
	}
}

func TestUpdateCopiesValues(t *testing.T) {
	t.Parallel()

	name := "Sara"
	r := NewCustomerRecord()
	if _, err := r.Update(ContactUpdate{Name: &name}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	name = "Someone else"
	if *r.Name != "Sara" {
		t.Fatalf("record aliases caller memory: %q", *r.Name)
	}
}

func TestSetServiceCategory(t *testing.T) {
	t.Parallel()

	r := NewCustomerRecord()
	if _, ok := r.SetServiceCategory("Gardening"); ok {
		t.Fatal("Gardening must be rejected")
	}
	if r.HasServiceCategory() {
		t.Fatal("failed set must not mutate the record")
	}

	got, ok := r.SetServiceCategory("Pest Control")
	if !ok || got != catalogx.PestControl {
		t.Fatalf("SetServiceCategory() = %q, %v", got, ok)
	}
	if r.Stage() != StageServiceConfirmed {
		t.Fatalf("Stage() = %q, want %q", r.Stage(), StageServiceConfirmed)
	}

	if _, ok := r.SetServiceCategory("pest control"); ok {
		t.Fatal("lower-case value must be rejected")
	}
	if r.ServiceCategory != catalogx.PestControl {
		t.Fatalf("category reverted to %q", r.ServiceCategory)
	}
}

func TestStageProgression(t *testing.T) {
	t.Parallel()

	r := NewCustomerRecord()
	if r.Stage() != StageCollecting {
		t.Fatalf("Stage() = %q, want collecting", r.Stage())
	}
	r.SetServiceCategory("Plumbing")
	r.SetAppointment("2025-08-21 at 16:00", 0, "Masih")
	if r.Stage() != StageBooked {
		t.Fatalf("Stage() = %q, want booked", r.Stage())
	}

	if _, err := r.Update(ContactUpdate{PhoneNumber: strp("555-0199")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if r.Stage() != StageBooked {
		t.Fatalf("contact change must not revert stage, got %q", r.Stage())
	}
}

func TestSummarizeDefaults(t *testing.T) {
	t.Parallel()

	s := NewCustomerRecord().Summarize()
	if s.CustomerName != "unknown" || s.CustomerPhone != "unknown" {
		t.Fatalf("unexpected defaults: %#v", s)
	}
	if s.Address != nil || s.PostalCode != nil || s.ReasonOfCall != nil || s.AppointmentTime != nil {
		t.Fatalf("optional fields must be null: %#v", s)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}
	want := `{"customer_name":"unknown","customer_phone":"unknown","address":null,"postal_code":null,"reason_of_call":null,"appointment_time":null}`
	if string(raw) != want {
		t.Fatalf("summary json = %s, want %s", raw, want)
	}
}

func TestSummarizeBookedRecord(t *testing.T) {
	t.Parallel()

	r := NewCustomerRecord()
	r.Update(ContactUpdate{Name: strp("Sara"), Address: strp("12 King St")})
	r.SetServiceCategory("Plumbing")
	r.SetAppointment("2025-08-21 at 16:00", 0, "Masih")

	s := r.Summarize()
	if s.CustomerName != "Sara" {
		t.Fatalf("CustomerName = %q", s.CustomerName)
	}
	if s.ReasonOfCall == nil || *s.ReasonOfCall != "Plumbing" {
		t.Fatalf("ReasonOfCall = %v", s.ReasonOfCall)
	}
	if s.AppointmentTime == nil || *s.AppointmentTime != "2025-08-21 at 16:00 with Masih" {
		t.Fatalf("AppointmentTime = %v", s.AppointmentTime)
	}

	want := "customer_name: Sara; customer_phone: unknown; address: 12 King St; postal_code: not provided; " +
		"reason_of_call: Plumbing; appointment_time: 2025-08-21 at 16:00 with Masih"
	if got := s.Readback(); got != want {
		t.Fatalf("Readback() = %q, want %q", got, want)
	}
}

func TestRecordRefusal(t *testing.T) {
	t.Parallel()

	r := NewCustomerRecord()
	if err := r.RecordRefusal("phone"); err != nil {
		t.Fatalf("RecordRefusal() error = %v", err)
	}
	if err := r.RecordRefusal("phone"); err != nil {
		t.Fatalf("RecordRefusal() repeat error = %v", err)
	}
	if len(r.Refusals) != 1 || r.Refusals[0] != "phone number" {
		t.Fatalf("Refusals = %#v", r.Refusals)
	}
	if err := r.RecordRefusal("email"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("RecordRefusal(email) error = %v, want ErrUnknownField", err)
	}
}

func TestMarkReadbackLeavesSummaryUnchanged(t *testing.T) {
	t.Parallel()

	r := NewCustomerRecord()
	r.Name = strp("Sara")
	r.SetServiceCategory("Plumbing")

	before, _ := json.Marshal(r.Summarize())
	stage := r.Stage()
	r.MarkReadback()
	r.MarkReadback()
	after, _ := json.Marshal(r.Summarize())

	if string(before) != string(after) {
		t.Fatalf("summary changed by readback:\n%s\n%s", before, after)
	}
	if r.Stage() != stage || r.Readbacks != 2 {
		t.Fatalf("stage=%s readbacks=%d", r.Stage(), r.Readbacks)
	}
}
