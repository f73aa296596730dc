package workforce

import catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"

// DefaultWorkers is the fixed roster loaded at startup when no store is configured.
func DefaultWorkers() []Worker {
	masih := NewWorker(0, "Masih", catalogx.Plumbing, catalogx.PestControl)
	masih.AddAvailability(MustTimeSlot("2025-08-21", "16:00"))
	masih.AddAvailability(MustTimeSlot("2025-08-21", "17:00"))
	masih.AddAvailability(MustTimeSlot("2025-08-22", "10:00"))
	masih.AddAvailability(MustTimeSlot("2025-08-22", "12:00"))

	ali := NewWorker(1, "Ali", catalogx.Plumbing, catalogx.RoofingIssues)
	ali.AddAvailability(MustTimeSlot("2025-08-22", "12:00"))
	ali.AddAvailability(MustTimeSlot("2025-08-23", "18:00"))
	ali.AddAvailability(MustTimeSlot("2025-08-23", "11:00"))

	return []Worker{masih, ali}
}
