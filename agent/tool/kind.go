package tool

import (
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
)

// Kind names a capability. The string value is the tool name the model sees.
type Kind string

const (
	KindUpdateContactInfo  Kind = "updateContactInfo"
	KindRecordRefusal      Kind = "recordRefusal"
	KindSetServiceCategory Kind = "setServiceCategory"
	KindListAvailableTimes Kind = "listAvailableTimes"
	KindBookSlot           Kind = "bookSlot"
	KindFinalDoubleCheck   Kind = "finalDoubleCheck"
	KindEndCall            Kind = "endCall"
)

func (k Kind) String() string { return string(k) }

var allKinds = []Kind{
	KindUpdateContactInfo,
	KindRecordRefusal,
	KindSetServiceCategory,
	KindListAvailableTimes,
	KindBookSlot,
	KindFinalDoubleCheck,
	KindEndCall,
}

func ParseKind(name string) (Kind, bool) {
	for _, k := range allKinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Enabled returns the capabilities offered for the record, in a fixed order.
// Booking kinds appear once a service category is confirmed and stay for the
// rest of the call; endCall appears after the first readback.
func Enabled(rec *statex.CustomerRecord) []Kind {
	kinds := []Kind{KindUpdateContactInfo, KindRecordRefusal, KindSetServiceCategory}
	if rec.HasServiceCategory() {
		kinds = append(kinds, KindListAvailableTimes, KindBookSlot)
	}
	kinds = append(kinds, KindFinalDoubleCheck)
	if rec != nil && rec.Readbacks > 0 {
		kinds = append(kinds, KindEndCall)
	}
	return kinds
}

func IsEnabled(rec *statex.CustomerRecord, kind Kind) bool {
	for _, k := range Enabled(rec) {
		if k == kind {
			return true
		}
	}
	return false
}
