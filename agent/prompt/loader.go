package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Voice-Booking/agent/contract"
)

var (
	//go:embed template/receptionist.txt
	receptionistRaw string

	//go:embed template/greeting.txt
	greetingRaw string
)

const servicesPlaceholder = "{{services}}"

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Receptionist string
	Greeting     string
}

// LoadPromptSet returns the embedded prompts with the service list filled in.
func LoadPromptSet() (PromptSet, error) {
	set := PromptSet{
		Receptionist: strings.ReplaceAll(strings.TrimSpace(receptionistRaw), servicesPlaceholder, catalogx.JoinedDisplayValues()),
		Greeting:     strings.TrimSpace(greetingRaw),
	}
	if set.Receptionist == "" {
		return PromptSet{}, fmt.Errorf("%w: receptionist", contractx.ErrPromptMissing)
	}
	if set.Greeting == "" {
		return PromptSet{}, fmt.Errorf("%w: greeting", contractx.ErrPromptMissing)
	}
	return set, nil
}
