package workforce

import (
	"slices"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
)

// Worker is a technician. Skills never change after registration;
// FreeSlots keeps insertion order and shrinks as slots are reserved.
type Worker struct {
	ID        int64                      `json:"id"`
	Name      string                     `json:"name"`
	Skills    []catalogx.ServiceCategory `json:"skills"`
	FreeSlots []TimeSlot                 `json:"free_slots"`
}

func NewWorker(id int64, name string, skills ...catalogx.ServiceCategory) Worker {
	return Worker{ID: id, Name: name, Skills: slices.Clone(skills)}
}

func (w *Worker) AddAvailability(slot TimeSlot) {
	w.FreeSlots = append(w.FreeSlots, slot)
}

func (w Worker) HasSkill(category catalogx.ServiceCategory) bool {
	return slices.Contains(w.Skills, category)
}

func (w Worker) IsFreeAt(slot TimeSlot) bool {
	return slices.Contains(w.FreeSlots, slot)
}

func (w Worker) clone() Worker {
	w.Skills = slices.Clone(w.Skills)
	w.FreeSlots = slices.Clone(w.FreeSlots)
	return w
}

func (w *Worker) removeSlot(slot TimeSlot) bool {
	idx := slices.Index(w.FreeSlots, slot)
	if idx < 0 {
		return false
	}
	w.FreeSlots = slices.Delete(w.FreeSlots, idx, idx+1)
	return true
}
