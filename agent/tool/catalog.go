package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	catalogx "github.com/tanpawarit/Chative-Voice-Booking/agent/catalog"
	statex "github.com/tanpawarit/Chative-Voice-Booking/agent/state"
	workforcex "github.com/tanpawarit/Chative-Voice-Booking/agent/workforce"
)

// BuildForRecord returns the tool infos for every enabled capability. The
// bookSlot enum is filled from the directory at call time, so it is a snapshot.
func BuildForRecord(ctx context.Context, rec *statex.CustomerRecord, dir workforcex.Directory) ([]*schema.ToolInfo, error) {
	kinds := Enabled(rec)
	infos := make([]*schema.ToolInfo, 0, len(kinds))
	for _, k := range kinds {
		info, err := infoFor(ctx, k, rec, dir)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func infoFor(ctx context.Context, kind Kind, rec *statex.CustomerRecord, dir workforcex.Directory) (*schema.ToolInfo, error) {
	switch kind {
	case KindUpdateContactInfo:
		return &schema.ToolInfo{
			Name: kind.String(),
			Desc: "Save customer contact details as soon as the customer says them. Only pass the fields that were given.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":       {Type: schema.String, Desc: "Customer full name"},
				"phone":      {Type: schema.String, Desc: "Customer phone number"},
				"address":    {Type: schema.String, Desc: "Street address where the service is needed"},
				"postalCode": {Type: schema.String, Desc: "Postal code of the address"},
			}),
		}, nil
	case KindRecordRefusal:
		return &schema.ToolInfo{
			Name: kind.String(),
			Desc: "Call when the customer refuses to give a required detail.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"field": {
					Type:     schema.String,
					Desc:     "The detail the customer declined to give",
					Enum:     []string{"name", "phone", "address", "postalCode"},
					Required: true,
				},
			}),
		}, nil
	case KindSetServiceCategory:
		return &schema.ToolInfo{
			Name: kind.String(),
			Desc: "Set the reason for the call once the customer has said what service they need. Booking becomes available after this succeeds.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"reason": {
					Type:     schema.String,
					Desc:     "What the customer needs, one of: " + catalogx.JoinedDisplayValues(),
					Required: true,
				},
			}),
		}, nil
	case KindListAvailableTimes:
		return &schema.ToolInfo{
			Name: kind.String(),
			Desc: "List the open appointment times for the confirmed service.",
		}, nil
	case KindBookSlot:
		var options []string
		if rec.HasServiceCategory() {
			slots, err := dir.AllAvailableSlots(ctx, rec.ServiceCategory)
			if err != nil {
				return nil, fmt.Errorf("list slots for %s: %w", rec.ServiceCategory, err)
			}
			options = workforcex.DisplayAll(slots)
		}
		desc := "Book the appointment time the customer picked."
		if len(options) == 0 {
			desc += " No times are currently open."
		}
		return &schema.ToolInfo{
			Name: kind.String(),
			Desc: desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"chosenSlot": {
					Type:     schema.String,
					Desc:     "The chosen time exactly as listed",
					Enum:     options,
					Required: true,
				},
			}),
		}, nil
	case KindFinalDoubleCheck:
		return &schema.ToolInfo{
			Name: kind.String(),
			Desc: "Call when the customer seems done. Returns every collected detail to read back for confirmation.",
		}, nil
	case KindEndCall:
		return &schema.ToolInfo{
			Name: kind.String(),
			Desc: "Call only after the customer confirmed the readback. Saves the call record.",
		}, nil
	default:
		return nil, fmt.Errorf("no tool info for %q", kind)
	}
}
