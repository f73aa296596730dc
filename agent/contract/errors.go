package contract

import (
	"errors"

	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	workforcex "github.com/tanpawarit/Chative-Voice-Booking/agent/workforce"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")

	ErrCategoryRequired = errors.New("service category is not confirmed")
	ErrSlotNotFound     = errors.New("selected slot is not currently offered")
	ErrAlreadyBooked    = errors.New("appointment already booked")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session is closed")
	ErrUnknownTool      = errors.New("unknown capability")
)

// Errors owned by lower packages, re-exported so callers only match against contract.
var (
	ErrInvalidCategory   = statex.ErrInvalidCategory
	ErrNoFieldsProvided  = statex.ErrNoFieldsProvided
	ErrNoWorkerAvailable = workforcex.ErrNoWorkerAvailable
)
