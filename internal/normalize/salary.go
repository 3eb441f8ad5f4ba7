package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// rangeSeparators split a salary range into its low and high parts.
var rangeSeparators = []string{"–", "—", "_", "-"}

var salaryCleaner = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
	"\t", "",
	" ", "",
)

// SalaryRange is a parsed salary. Low equals High when a single value was given.
type SalaryRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Mid returns the midpoint of the range.
func (r SalaryRange) Mid() float64 {
	return (r.Low + r.High) / 2
}

// ParseSalary converts a raw salary value into a single number.
// Ranges resolve to their midpoint. The second return value is false when
// nothing usable could be parsed; it never panics on malformed input.
func ParseSalary(v any) (float64, bool) {
	r, ok := ParseSalaryRange(v)
	if !ok {
		return 0, false
	}
	return r.Mid(), true
}

// ParseSalaryRange converts a number, a currency string or a range string
// ("$70,000–$75,000", "70k-75k") into a SalaryRange.
func ParseSalaryRange(v any) (SalaryRange, bool) {
	single := func(f float64) (SalaryRange, bool) { return SalaryRange{Low: f, High: f}, true }

	switch val := v.(type) {
	case nil:
		return SalaryRange{}, false
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return SalaryRange{}, false
		}
		return single(val)
	case float32:
		return ParseSalaryRange(float64(val))
	case int:
		return single(float64(val))
	case int32:
		return single(float64(val))
	case int64:
		return single(float64(val))
	case uint:
		return single(float64(val))
	case uint64:
		return single(float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return SalaryRange{}, false
		}
		return ParseSalaryRange(f)
	case string:
		return parseSalaryText(val)
	default:
		return SalaryRange{}, false
	}
}

func parseSalaryText(raw string) (SalaryRange, bool) {
	cleaned := salaryCleaner.Replace(Text(raw))
	if cleaned == "" {
		return SalaryRange{}, false
	}

	for _, sep := range rangeSeparators[:len(rangeSeparators)-1] {
		cleaned = strings.ReplaceAll(cleaned, sep, "-")
	}

	tokens := make([]string, 0, 2)
	for _, part := range strings.Split(cleaned, "-") {
		if part != "" {
			tokens = append(tokens, part)
		}
	}

	if len(tokens) == 0 {
		return SalaryRange{}, false
	}
	if len(tokens) > 2 {
		tokens = tokens[:2]
	}

	values := make([]float64, 0, len(tokens))
	for _, token := range tokens {
		f, ok := parseAmount(token)
		if !ok {
			return SalaryRange{}, false
		}
		values = append(values, f)
	}

	if len(values) == 2 {
		return SalaryRange{Low: values[0], High: values[1]}, true
	}

	return SalaryRange{Low: values[0], High: values[0]}, true
}

func parseAmount(token string) (float64, bool) {
	multiplier := 1.0
	if strings.HasSuffix(token, "k") || strings.HasSuffix(token, "K") {
		multiplier = 1000
		token = token[:len(token)-1]
	}

	f, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f * multiplier, true
}
