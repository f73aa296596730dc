package catalog

import "strings"

// ServiceCategory is a bookable service. The zero value is not a valid category.
type ServiceCategory string

const (
	Plumbing      ServiceCategory = "Plumbing"
	PestControl   ServiceCategory = "Pest Control"
	RoofingIssues ServiceCategory = "Roofing Issues"
)

// declaration order matters: error messages enumerate categories in this order.
var categories = []ServiceCategory{
	Plumbing,
	PestControl,
	RoofingIssues,
}

// All returns every category in declaration order.
func All() []ServiceCategory {
	out := make([]ServiceCategory, len(categories))
	copy(out, categories)
	return out
}

// Validate reports whether text is exactly one category's display value.
// Matching is case-sensitive and does not trim.
func Validate(text string) bool {
	_, ok := Resolve(text)
	return ok
}

func Resolve(text string) (ServiceCategory, bool) {
	for _, c := range categories {
		if string(c) == text {
			return c, true
		}
	}
	return "", false
}

func (c ServiceCategory) String() string {
	return string(c)
}

func (c ServiceCategory) Valid() bool {
	return Validate(string(c))
}

func DisplayValues() []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, string(c))
	}
	return out
}

// JoinedDisplayValues is the comma-joined list used in corrective messages.
func JoinedDisplayValues() string {
	return strings.Join(DisplayValues(), ", ")
}
