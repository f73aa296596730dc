package workforce

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
)

var _ Directory = (*InMemoryDirectory)(nil)

// InMemoryDirectory keeps workers in registration order behind one mutex,
// which is the single writer boundary for reservations.
type InMemoryDirectory struct {
	mu      sync.Mutex
	workers []*Worker
	opts    options
}

func NewInMemoryDirectory(workers []Worker, opts ...Option) (*InMemoryDirectory, error) {
	d := &InMemoryDirectory{opts: applyOptions(opts)}
	for _, w := range workers {
		if err := d.Register(w); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *InMemoryDirectory) Register(w Worker) error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidWorker)
	}
	for _, s := range w.Skills {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown skill %q for %s", ErrInvalidWorker, s, w.Name)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.workers {
		if existing.ID == w.ID {
			return fmt.Errorf("%w: id=%d", ErrDuplicateWorker, w.ID)
		}
	}
	c := w.clone()
	d.workers = append(d.workers, &c)
	return nil
}

func (d *InMemoryDirectory) AllAvailableSlots(_ context.Context, category catalogx.ServiceCategory) ([]TimeSlot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	seen := make(map[TimeSlot]struct{})
	out := make([]TimeSlot, 0)
	for _, w := range d.workers {
		if !w.HasSkill(category) {
			continue
		}
		for _, s := range w.FreeSlots {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	slices.SortFunc(out, compareSlots)
	return out, nil
}

func (d *InMemoryDirectory) FirstFreeWorker(_ context.Context, slot TimeSlot) (Worker, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w := d.firstFree(slot, func(Worker) bool { return true })
	if w == nil {
		return Worker{}, false, nil
	}
	return w.clone(), true, nil
}

func (d *InMemoryDirectory) Reserve(_ context.Context, category catalogx.ServiceCategory, slot TimeSlot) (Worker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w := d.firstFree(slot, func(w Worker) bool { return w.HasSkill(category) })
	if w == nil {
		return Worker{}, fmt.Errorf("%w: %s", ErrNoWorkerAvailable, slot.Display())
	}
	if d.opts.consumeOnBook {
		w.removeSlot(slot)
	}
	return w.clone(), nil
}

// firstFree is the registration-order scan shared by FirstFreeWorker and
// Reserve. Callers hold d.mu.
func (d *InMemoryDirectory) firstFree(slot TimeSlot, accept func(Worker) bool) *Worker {
	for _, w := range d.workers {
		if w.IsFreeAt(slot) && accept(*w) {
			return w
		}
	}
	return nil
}

func compareSlots(a, b TimeSlot) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
