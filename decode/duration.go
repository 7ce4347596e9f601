package decode

import (
	"fmt"
	"strconv"
	"strings"
)

// Period is a calendar-relative span such as "2d" or "3h": unlike
// time.Duration it keeps months and years symbolic instead of flattening
// them into an absolute number of nanoseconds.
type Period struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// periodUnits maps every accepted unit spelling to its field setter.
// Short forms follow the usual convention: "m" is minutes, "mo" months.
var periodUnits = map[string]func(*Period, int){
	"s": setSeconds, "sec": setSeconds, "secs": setSeconds, "second": setSeconds, "seconds": setSeconds,
	"m": setMinutes, "min": setMinutes, "mins": setMinutes, "minute": setMinutes, "minutes": setMinutes,
	"h": setHours, "hr": setHours, "hrs": setHours, "hour": setHours, "hours": setHours,
	"d": setDays, "day": setDays, "days": setDays,
	"w": setWeeks, "wk": setWeeks, "week": setWeeks, "weeks": setWeeks,
	"mo": setMonths, "month": setMonths, "months": setMonths,
	"y": setYears, "yr": setYears, "year": setYears, "years": setYears,
}

func setSeconds(p *Period, n int) { p.Seconds = n }
func setMinutes(p *Period, n int) { p.Minutes = n }
func setHours(p *Period, n int)   { p.Hours = n }
func setDays(p *Period, n int)    { p.Days = n }
func setWeeks(p *Period, n int)   { p.Weeks = n }
func setMonths(p *Period, n int)  { p.Months = n }
func setYears(p *Period, n int)   { p.Years = n }

// ParsePeriod parses a compact <integer><unit> literal, e.g. "2d", "-3h",
// "10 minutes". Several components may appear space-separated ("1y 2mo"),
// which is also the form Period.String renders. Every magnitude must be an
// integer and every unit one of the recognized spellings.
func ParsePeriod(s string) (Period, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Period{}, fmt.Errorf("empty duration literal")
	}

	if fields := strings.Fields(trimmed); len(fields) > 1 && !isUnitWord(fields[1]) {
		var total Period
		for _, part := range fields {
			p, err := ParsePeriod(part)
			if err != nil {
				return Period{}, err
			}
			total.Years += p.Years
			total.Months += p.Months
			total.Weeks += p.Weeks
			total.Days += p.Days
			total.Hours += p.Hours
			total.Minutes += p.Minutes
			total.Seconds += p.Seconds
		}
		return total, nil
	}

	i := 0
	if trimmed[0] == '+' || trimmed[0] == '-' {
		i = 1
	}
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	magnitude, unit := trimmed[:i], strings.TrimSpace(strings.ToLower(trimmed[i:]))
	if magnitude == "" || magnitude == "+" || magnitude == "-" {
		return Period{}, fmt.Errorf("duration literal %q has no integer magnitude", s)
	}
	n, err := strconv.Atoi(magnitude)
	if err != nil {
		return Period{}, fmt.Errorf("duration literal %q has no integer magnitude", s)
	}
	set, ok := periodUnits[unit]
	if !ok {
		return Period{}, fmt.Errorf("duration literal %q has unrecognized unit %q", s, unit)
	}

	var p Period
	set(&p, n)
	return p, nil
}

func isUnitWord(s string) bool {
	_, ok := periodUnits[strings.ToLower(s)]
	return ok
}

// IsZero reports whether every component is zero.
func (p Period) IsZero() bool {
	return p == Period{}
}

// String renders the period in the compact literal form ParsePeriod
// accepts. Multi-component periods render space-separated, largest unit
// first.
func (p Period) String() string {
	if p.IsZero() {
		return "0s"
	}
	parts := make([]string, 0, 7)
	add := func(n int, unit string) {
		if n != 0 {
			parts = append(parts, strconv.Itoa(n)+unit)
		}
	}
	add(p.Years, "y")
	add(p.Months, "mo")
	add(p.Weeks, "w")
	add(p.Days, "d")
	add(p.Hours, "h")
	add(p.Minutes, "m")
	add(p.Seconds, "s")
	return strings.Join(parts, " ")
}
