// internal/domain/schedule/age.go
package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// AgeBirth is the descriptor used for doses given on the day of birth.
const AgeBirth = "birth"

// unitDays maps a descriptor unit to a fixed number of days.
// Months and years are not calendar-accurate.
var unitDays = map[string]float64{
	"week":   7,
	"weeks":  7,
	"month":  30,
	"months": 30,
	"year":   365,
	"years":  365,
}

var (
	rangeAgePattern  = regexp.MustCompile(`^(\d+)[–-](\d+)\s*(\w+)$`) // "15–18 months", "6-10 weeks"
	singleAgePattern = regexp.MustCompile(`^(\d+)\s*(\w+)$`)         // "6 weeks", "9months"
)

// ParseAgeToDays converts an age descriptor such as "birth", "6 weeks" or "15–18 months"
// into a day offset from birth. Ranges resolve to their midpoint, so the result may be
// fractional. Unknown units and unrecognised descriptors yield 0.
func ParseAgeToDays(descriptor string) float64 {
	age := strings.ToLower(strings.TrimSpace(descriptor))
	if age == AgeBirth {
		return 0
	}

	if m := rangeAgePattern.FindStringSubmatch(age); m != nil {
		start, errStart := strconv.Atoi(m[1])
		end, errEnd := strconv.Atoi(m[2])
		if errStart != nil || errEnd != nil {
			return 0
		}
		return float64(start+end) / 2 * unitDays[m[3]]
	}

	if m := singleAgePattern.FindStringSubmatch(age); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0
		}
		return float64(n) * unitDays[m[2]]
	}

	return 0
}
