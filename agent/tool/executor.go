package tool

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	workforcex "github.com/tanpawarit/Chative-Voice-Booking/agent/workforce"
)

// Executor runs one capability against the session's record. User-facing
// failures come back as a ToolResult with Error set; a returned error means
// something outside the conversation broke.
type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// CompleteFunc persists the call. It is invoked by endCall.
type CompleteFunc func(ctx context.Context) error

type Deps struct {
	Directory workforcex.Directory
	Complete  CompleteFunc
	SessionID string
}

// NewExecutor binds the handlers to one record. The record must only be
// touched by one goroutine at a time.
func NewExecutor(rec *statex.CustomerRecord, deps Deps) Executor {
	h := &handlers{rec: rec, deps: deps}
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		kind, ok := ParseKind(tool)
		if !ok {
			return refused(tool, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, tool),
				"Unknown action "+tool+"."), nil
		}

		var (
			out contractx.ToolResult
			err error
		)
		switch kind {
		case KindUpdateContactInfo:
			out = h.updateContactInfo(args)
		case KindRecordRefusal:
			out = h.recordRefusal(args)
		case KindSetServiceCategory:
			out = h.setServiceCategory(args)
		case KindListAvailableTimes:
			out, err = h.listAvailableTimes(ctx)
		case KindBookSlot:
			out, err = h.bookSlot(ctx, args)
		case KindFinalDoubleCheck:
			out = h.finalDoubleCheck()
		case KindEndCall:
			out, err = h.endCall(ctx)
		}
		if err != nil {
			return contractx.ToolResult{}, err
		}

		ev := log.Debug()
		if out.Error != "" {
			ev = log.Info().Str("refusal", out.Error)
		}
		ev.Str("session_id", deps.SessionID).
			Str("tool", tool).
			Str("stage", string(rec.Stage())).
			Msg("capability executed")
		return out, nil
	}
}

type handlers struct {
	rec  *statex.CustomerRecord
	deps Deps
}

func (h *handlers) updateContactInfo(args map[string]any) contractx.ToolResult {
	tool := KindUpdateContactInfo.String()
	changes, err := h.rec.Update(statex.ContactUpdate{
		Name:        stringArg(args, "name"),
		PhoneNumber: stringArg(args, "phone"),
		Address:     stringArg(args, "address"),
		PostalCode:  stringArg(args, "postalCode"),
	})
	if errors.Is(err, statex.ErrNoFieldsProvided) {
		// informational, not a refusal
		return contractx.ToolResult{Tool: tool, Message: "No fields provided to update."}
	}
	return contractx.ToolResult{Tool: tool, Message: statex.FormatChanges(changes)}
}

func (h *handlers) recordRefusal(args map[string]any) contractx.ToolResult {
	tool := KindRecordRefusal.String()
	field := ""
	if v := stringArg(args, "field"); v != nil {
		field = *v
	}
	if err := h.rec.RecordRefusal(field); err != nil {
		return refused(tool, err, "Unknown field. Use one of: name, phone, address, postalCode.")
	}
	label, _ := statex.RefusalLabel(field)
	return contractx.ToolResult{
		Tool: tool,
		Message: fmt.Sprintf("Noted that the customer declined to give their %s. "+
			"Politely explain that an appointment cannot be set without it.", label),
	}
}

func (h *handlers) setServiceCategory(args map[string]any) contractx.ToolResult {
	tool := KindSetServiceCategory.String()
	reason := ""
	if v, ok := args["reason"].(string); ok {
		reason = v
	}

	invalidMsg := "Invalid reason. Please choose one of: " + catalogx.JoinedDisplayValues()
	category, ok := catalogx.Resolve(reason)
	if !ok {
		return refused(tool, fmt.Errorf("%w: %q", contractx.ErrInvalidCategory, reason), invalidMsg)
	}
	if h.rec.HasAppointment() && category != h.rec.ServiceCategory {
		return refused(tool, contractx.ErrAlreadyBooked, fmt.Sprintf(
			"The appointment for %s is already booked (%s), so the reason for call cannot change.",
			h.rec.ServiceCategory, h.rec.Appointment))
	}

	h.rec.SetServiceCategory(reason)
	return contractx.ToolResult{Tool: tool, Message: "The reason for call is updated to " + category.String()}
}

func (h *handlers) listAvailableTimes(ctx context.Context) (contractx.ToolResult, error) {
	tool := KindListAvailableTimes.String()
	if !h.rec.HasServiceCategory() {
		return refused(tool, contractx.ErrCategoryRequired,
			"Please set the reason for call first. Choose one of: "+catalogx.JoinedDisplayValues()), nil
	}

	category := h.rec.ServiceCategory
	slots, err := h.deps.Directory.AllAvailableSlots(ctx, category)
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("list slots for %s: %w", category, err)
	}
	if len(slots) == 0 {
		return contractx.ToolResult{
			Tool:    tool,
			Message: fmt.Sprintf("There are no appointments available for %s.", category),
		}, nil
	}
	return contractx.ToolResult{
		Tool:    tool,
		Message: fmt.Sprintf("Available times for %s: %s", category, workforcex.JoinDisplay(slots)),
	}, nil
}

func (h *handlers) bookSlot(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	tool := KindBookSlot.String()
	if !h.rec.HasServiceCategory() {
		return refused(tool, contractx.ErrCategoryRequired,
			"Please set the reason for call before booking."), nil
	}
	chosen := ""
	if v, ok := args["chosenSlot"].(string); ok {
		chosen = v
	}

	category := h.rec.ServiceCategory
	// the enum offered to the model may be stale, so re-read before matching
	slots, err := h.deps.Directory.AllAvailableSlots(ctx, category)
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("list slots for %s: %w", category, err)
	}
	slot, ok := workforcex.FindByDisplay(slots, chosen)
	if !ok {
		msg := "That time is not available."
		if len(slots) > 0 {
			msg += " Please choose one of: " + workforcex.JoinDisplay(slots)
		} else {
			msg += fmt.Sprintf(" There are no appointments available for %s.", category)
		}
		return refused(tool, fmt.Errorf("%w: %q", contractx.ErrSlotNotFound, chosen), msg), nil
	}

	if h.rec.HasAppointment() {
		return refused(tool, contractx.ErrAlreadyBooked,
			"An appointment is already booked: "+h.rec.Appointment.String()+"."), nil
	}

	worker, err := h.deps.Directory.Reserve(ctx, category, slot)
	if errors.Is(err, workforcex.ErrNoWorkerAvailable) {
		return refused(tool, err, fmt.Sprintf(
			"Sorry, nobody is available on %s anymore. Please pick another time.", slot.Display())), nil
	}
	if err != nil {
		return contractx.ToolResult{}, fmt.Errorf("reserve %s: %w", slot.Display(), err)
	}

	h.rec.SetAppointment(slot.Display(), worker.ID, worker.Name)
	log.Info().
		Str("session_id", h.deps.SessionID).
		Str("category", category.String()).
		Str("slot", slot.Display()).
		Str("worker", worker.Name).
		Msg("appointment booked")

	return contractx.ToolResult{
		Tool:    tool,
		Message: fmt.Sprintf("Booked %s on %s with %s.", category, slot.Display(), worker.Name),
	}, nil
}

func (h *handlers) finalDoubleCheck() contractx.ToolResult {
	h.rec.MarkReadback()
	return contractx.ToolResult{
		Tool:    KindFinalDoubleCheck.String(),
		Message: "Read these details back to the customer and ask them to confirm: " + h.rec.Summarize().Readback(),
	}
}

func (h *handlers) endCall(ctx context.Context) (contractx.ToolResult, error) {
	tool := KindEndCall.String()
	if h.rec.Readbacks == 0 {
		return refused(tool, contractx.ErrValidation,
			"Read the details back with finalDoubleCheck before ending the call."), nil
	}
	if h.deps.Complete == nil {
		return contractx.ToolResult{}, errors.New("endCall: no completion handler")
	}
	if err := h.deps.Complete(ctx); err != nil {
		if errors.Is(err, contractx.ErrSessionClosed) {
			return refused(tool, err, "The call record was already saved."), nil
		}
		return contractx.ToolResult{}, err
	}
	return contractx.ToolResult{
		Tool:    tool,
		Message: "The call record is saved. Thank the customer and say goodbye.",
	}, nil
}

func refused(tool string, err error, message string) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Message: message, Error: err.Error()}
}

// stringArg returns nil for a missing, null or blank argument.
func stringArg(args map[string]any, key string) *string {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		s = fmt.Sprint(v)
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
