// Package training derives a candidate's program week from its start date and
// classifies the candidate into a readiness stage.
package training

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spigell/placement-matcher/internal/normalize"
)

const daysPerWeek = 7

// ReadyWeek is the first week in which a candidate counts as ready for placement.
const ReadyWeek = 6

// WeekKind tells how a Week value should be read.
type WeekKind int

const (
	// WeekUnknown means neither a start date nor a manual week was usable.
	WeekUnknown WeekKind = iota
	// WeekElapsed carries the number of the current program week.
	WeekElapsed
	// WeekAway carries the number of whole weeks left until the start date.
	WeekAway
)

// Week is the program week of a candidate. The zero value is unknown.
// An Away week must never be used as an elapsed week count.
type Week struct {
	Kind WeekKind
	N    int
}

// Unknown returns the unknown week.
func Unknown() Week { return Week{} }

// Elapsed returns an elapsed week with number n.
func Elapsed(n int) Week { return Week{Kind: WeekElapsed, N: n} }

// Away returns a week marker for a start date n weeks in the future.
func Away(n int) Week { return Week{Kind: WeekAway, N: n} }

// Number returns the elapsed week number. ok is false for unknown and away weeks.
func (w Week) Number() (n int, ok bool) {
	if w.Kind != WeekElapsed {
		return 0, false
	}
	return w.N, true
}

// WeeksAway returns the number of weeks until start. ok is false unless the week is an away marker.
func (w Week) WeeksAway() (n int, ok bool) {
	if w.Kind != WeekAway {
		return 0, false
	}
	return w.N, true
}

// IsReady reports whether the candidate reached the placement-ready week.
func (w Week) IsReady() bool {
	n, ok := w.Number()
	return ok && n >= ReadyWeek
}

// InTraining reports whether the candidate is inside weeks 1 to 5.
func (w Week) InTraining() bool {
	n, ok := w.Number()
	return ok && n >= 1 && n < ReadyWeek
}

var weekKindNames = map[WeekKind]string{
	WeekUnknown: "unknown",
	WeekElapsed: "elapsed",
	WeekAway:    "away",
}

func (w Week) MarshalJSON() ([]byte, error) {
	if w.Kind == WeekUnknown {
		return []byte(`{"kind":"unknown"}`), nil
	}
	return []byte(fmt.Sprintf(`{"kind":%q,"value":%d}`, weekKindNames[w.Kind], w.N)), nil
}

func (w Week) String() string {
	switch w.Kind {
	case WeekElapsed:
		return fmt.Sprintf("week %d", w.N)
	case WeekAway:
		return fmt.Sprintf("starts in %d weeks", w.N)
	default:
		return "unknown"
	}
}

// Calculate derives the program week of a candidate at the given moment.
//
// A usable start date wins. A start date in the future yields an Away marker
// of floor(days/7) weeks. A start date today or in the past yields
// floor(days/7)+1, so the first seven days are week 1. Without a start date
// the manual value is used: a non-negative number is an elapsed week and a
// negative one is read as weeks until start. Otherwise the week is unknown.
func Calculate(start any, manual any, now time.Time) Week {
	if startDay, ok := normalize.ParseDate(start); ok {
		return FromStart(startDay, now)
	}

	if n, ok := manualWeek(manual); ok {
		if n < 0 {
			return Away(-n)
		}
		return Elapsed(n)
	}

	return Unknown()
}

// FromStart computes the week for a known start date.
func FromStart(start, now time.Time) Week {
	days := daysBetween(normalize.Day(start), normalize.Day(now))
	if days < 0 {
		return Away(-days / daysPerWeek)
	}
	return Elapsed(days/daysPerWeek + 1)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func manualWeek(v any) (int, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(math.Floor(val)), true
	case *int:
		if val == nil {
			return 0, false
		}
		return *val, true
	case string:
		f, err := strconv.ParseFloat(normalize.Text(val), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int(math.Floor(f)), true
	default:
		return 0, false
	}
}
