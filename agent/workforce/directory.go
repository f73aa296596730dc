package workforce

import (
	"context"
	"errors"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
)

var (
	ErrNoWorkerAvailable = errors.New("no worker available for slot")
	ErrInvalidSlot       = errors.New("invalid time slot")
	ErrDuplicateWorker   = errors.New("worker already registered")
	ErrInvalidWorker     = errors.New("invalid worker")
)

// Directory answers availability queries over the shared worker pool.
// Implementations are safe for concurrent use by many sessions.
type Directory interface {
	// AllAvailableSlots returns the deduplicated free slots of every worker
	// skilled for category, sorted by (date, time). Empty is not an error.
	AllAvailableSlots(ctx context.Context, category catalogx.ServiceCategory) ([]TimeSlot, error)

	// FirstFreeWorker scans workers in registration order and returns the
	// first one holding slot. It is the query-only form of Reserve: it ignores
	// skills and takes nothing, so bookings go through Reserve.
	FirstFreeWorker(ctx context.Context, slot TimeSlot) (Worker, bool, error)

	// Reserve picks the first worker, in registration order, that is skilled
	// for category and free at slot. When slot consumption is enabled the slot
	// is removed from that worker in the same step, so a concurrent session
	// cannot be handed the same worker-slot pair.
	Reserve(ctx context.Context, category catalogx.ServiceCategory, slot TimeSlot) (Worker, error)
}

type options struct {
	consumeOnBook bool
}

type Option func(*options)

// WithConsumeOnBook controls whether Reserve removes the booked slot.
// Disabling it reproduces the reference behaviour where a booked slot stays listed.
func WithConsumeOnBook(consume bool) Option {
	return func(o *options) {
		o.consumeOnBook = consume
	}
}

func applyOptions(opts []Option) options {
	o := options{consumeOnBook: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
