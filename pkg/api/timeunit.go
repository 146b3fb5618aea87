package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeUnit is a calendar field by which the engine clock can be advanced
type TimeUnit string

const (
	Second TimeUnit = "second"
	Minute TimeUnit = "minute"
	Hour   TimeUnit = "hour"
	Day    TimeUnit = "day"
	Week   TimeUnit = "week"
	Month  TimeUnit = "month"
	Year   TimeUnit = "year"
)

var ErrUnknownTimeUnit = errors.New("unknown time unit")

var timeUnitAliases = map[string]TimeUnit{
	"s": Second, "sec": Second, "second": Second, "seconds": Second,
	"m": Minute, "min": Minute, "minute": Minute, "minutes": Minute,
	"h": Hour, "hour": Hour, "hours": Hour,
	"d": Day, "day": Day, "days": Day,
	"w": Week, "week": Week, "weeks": Week,
	"month": Month, "months": Month,
	"y": Year, "year": Year, "years": Year,
}

// ParseTimeUnit resolves a unit from its name, plural or abbreviation
func ParseTimeUnit(s string) (TimeUnit, error) {
	if u, ok := timeUnitAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeUnit, s)
}

// Add moves t by amount units. Units of a day or longer use calendar
// arithmetic, so a month is not a fixed duration
func (u TimeUnit) Add(t time.Time, amount int) (time.Time, error) {
	switch u {
	case Second:
		return t.Add(time.Duration(amount) * time.Second), nil
	case Minute:
		return t.Add(time.Duration(amount) * time.Minute), nil
	case Hour:
		return t.Add(time.Duration(amount) * time.Hour), nil
	case Day:
		return t.AddDate(0, 0, amount), nil
	case Week:
		return t.AddDate(0, 0, 7*amount), nil
	case Month:
		return t.AddDate(0, amount, 0), nil
	case Year:
		return t.AddDate(amount, 0, 0), nil
	default:
		return t, fmt.Errorf("%w: %q", ErrUnknownTimeUnit, string(u))
	}
}
