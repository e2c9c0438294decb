// internal/domain/reminder/types.go
package reminder

import "fmt"

// Type defines which notice a reminder is.
type Type string

const (
	TypeWeekly Type = "weekly" // sent 7 days before the dose
	TypeDaily  Type = "daily"  // sent 1 day before the dose
)

// Types lists every reminder type in materialization order.
var Types = []Type{TypeWeekly, TypeDaily}

// LeadDays is how many days before the vaccination date the notice goes out.
func (t Type) LeadDays() int {
	switch t {
	case TypeWeekly:
		return 7
	case TypeDaily:
		return 1
	default:
		return 0
	}
}

func (t Type) Valid() bool {
	return t == TypeWeekly || t == TypeDaily
}

// ParseType maps user input such as "weekly" to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown reminder type %q", s)
	}
	return t, nil
}
