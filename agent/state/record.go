package state

import (
	"errors"
	"fmt"
	"strings"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
)

var (
	ErrNoFieldsProvided = errors.New("no fields provided to update")
	ErrInvalidCategory  = errors.New("invalid service category")
	ErrUnknownField     = errors.New("unknown customer field")
)

const unknownValue = "unknown"

// Stage is derived from the record; it is never stored.
type Stage string

const (
	StageCollecting       Stage = "collecting"
	StageServiceConfirmed Stage = "service_confirmed"
	StageBooked           Stage = "booked"
)

// CustomerRecord holds everything collected during one call.
// It is owned by a single session and must not be shared across calls.
type CustomerRecord struct {
	Name            *string                  `json:"name,omitempty"`
	PhoneNumber     *string                  `json:"phone_number,omitempty"`
	Address         *string                  `json:"address,omitempty"`
	PostalCode      *string                  `json:"postal_code,omitempty"`
	ServiceCategory catalogx.ServiceCategory `json:"service_category,omitempty"`
	Appointment     *Appointment             `json:"appointment,omitempty"`

	Refusals  []string `json:"refusals,omitempty"`
	Readbacks int      `json:"readbacks,omitempty"`
}

type Appointment struct {
	Slot       string `json:"slot"`
	WorkerID   int64  `json:"worker_id"`
	WorkerName string `json:"worker_name"`
}

func (a Appointment) String() string {
	return fmt.Sprintf("%s with %s", a.Slot, a.WorkerName)
}

// ContactUpdate carries the optional contact fields of one update call.
// A nil field is left untouched.
type ContactUpdate struct {
	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	PostalCode  *string `json:"postal_code,omitempty"`
}

func (u ContactUpdate) IsEmpty() bool {
	return u.Name == nil && u.PhoneNumber == nil && u.Address == nil && u.PostalCode == nil
}

type FieldChange struct {
	Label string
	Value string
}

func (c FieldChange) String() string {
	return c.Label + " to " + c.Value
}

func NewCustomerRecord() *CustomerRecord {
	return &CustomerRecord{}
}

// Update overwrites every non-nil field and returns the changes in a fixed
// order: name, phone number, address, postal code.
func (r *CustomerRecord) Update(u ContactUpdate) ([]FieldChange, error) {
	if u.IsEmpty() {
		return nil, ErrNoFieldsProvided
	}

	changes := make([]FieldChange, 0, 4)
	if u.Name != nil {
		r.Name = stringPtr(*u.Name)
		changes = append(changes, FieldChange{Label: "name", Value: *u.Name})
	}
	if u.PhoneNumber != nil {
		r.PhoneNumber = stringPtr(*u.PhoneNumber)
		changes = append(changes, FieldChange{Label: "phone number", Value: *u.PhoneNumber})
	}
	if u.Address != nil {
		r.Address = stringPtr(*u.Address)
		changes = append(changes, FieldChange{Label: "address", Value: *u.Address})
	}
	if u.PostalCode != nil {
		r.PostalCode = stringPtr(*u.PostalCode)
		changes = append(changes, FieldChange{Label: "postal code", Value: *u.PostalCode})
	}
	return changes, nil
}

func FormatChanges(changes []FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.String())
	}
	return "Updated: " + strings.Join(parts, ", ")
}

// SetServiceCategory stores the category when text is a catalog value.
// On failure the record is left untouched.
func (r *CustomerRecord) SetServiceCategory(text string) (catalogx.ServiceCategory, bool) {
	category, ok := catalogx.Resolve(text)
	if !ok {
		return "", false
	}
	r.ServiceCategory = category
	return category, true
}

func (r *CustomerRecord) SetAppointment(slotDisplay string, workerID int64, workerName string) {
	r.Appointment = &Appointment{
		Slot:       slotDisplay,
		WorkerID:   workerID,
		WorkerName: workerName,
	}
}

func (r *CustomerRecord) HasServiceCategory() bool {
	return r != nil && r.ServiceCategory != ""
}

func (r *CustomerRecord) HasAppointment() bool {
	return r != nil && r.Appointment != nil
}

func (r *CustomerRecord) Stage() Stage {
	switch {
	case r.HasAppointment():
		return StageBooked
	case r.HasServiceCategory():
		return StageServiceConfirmed
	default:
		return StageCollecting
	}
}

// RecordRefusal notes a field the customer declined to give. Repeats are kept once.
func (r *CustomerRecord) RecordRefusal(field string) error {
	label, ok := refusableFields[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	for _, existing := range r.Refusals {
		if existing == label {
			return nil
		}
	}
	r.Refusals = append(r.Refusals, label)
	return nil
}

// MarkReadback counts delivered readbacks. The counter only gates endCall; it
// is not a customer field and never appears in Summarize.
func (r *CustomerRecord) MarkReadback() {
	r.Readbacks++
}

var refusableFields = map[string]string{
	"name":       "name",
	"phone":      "phone number",
	"address":    "address",
	"postalCode": "postal code",
}

// RefusalLabel returns the spoken label of a refusable field.
func RefusalLabel(field string) (string, bool) {
	label, ok := refusableFields[field]
	return label, ok
}

// Summary is the fixed-key readback. Field order is the JSON order.
type Summary struct {
	CustomerName    string  `json:"customer_name"`
	CustomerPhone   string  `json:"customer_phone"`
	Address         *string `json:"address"`
	PostalCode      *string `json:"postal_code"`
	ReasonOfCall    *string `json:"reason_of_call"`
	AppointmentTime *string `json:"appointment_time"`
}

func (r *CustomerRecord) Summarize() Summary {
	s := Summary{
		CustomerName:  valueOrUnknown(r.Name),
		CustomerPhone: valueOrUnknown(r.PhoneNumber),
		Address:       r.Address,
		PostalCode:    r.PostalCode,
	}
	if r.ServiceCategory != "" {
		s.ReasonOfCall = stringPtr(r.ServiceCategory.String())
	}
	if r.Appointment != nil {
		s.AppointmentTime = stringPtr(r.Appointment.String())
	}
	return s
}

type SummaryField struct {
	Key   string
	Value *string
}

func (s Summary) Fields() []SummaryField {
	return []SummaryField{
		{Key: "customer_name", Value: &s.CustomerName},
		{Key: "customer_phone", Value: &s.CustomerPhone},
		{Key: "address", Value: s.Address},
		{Key: "postal_code", Value: s.PostalCode},
		{Key: "reason_of_call", Value: s.ReasonOfCall},
		{Key: "appointment_time", Value: s.AppointmentTime},
	}
}

func (s Summary) Readback() string {
	fields := s.Fields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v := "not provided"
		if f.Value != nil {
			v = *f.Value
		}
		parts = append(parts, f.Key+": "+v)
	}
	return strings.Join(parts, "; ")
}

func valueOrUnknown(v *string) string {
	if v == nil || *v == "" {
		return unknownValue
	}
	return *v
}

func stringPtr(v string) *string {
	return &v
}
