package normalize

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSalary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		expect float64
		ok     bool
	}{
		{name: "currency range with en dash", input: "$70,000–$75,000", expect: 72500, ok: true},
		{name: "k suffix range", input: "70k-75k", expect: 72500, ok: true},
		{name: "plain range", input: "70000-75000", expect: 72500, ok: true},
		{name: "em dash with spaces", input: "$68,000 — $70,000", expect: 69000, ok: true},
		{name: "underscore separator", input: "68000_70000", expect: 69000, ok: true},
		{name: "single value", input: "68000", expect: 68000, ok: true},
		{name: "currency single value", input: "$70,000", expect: 70000, ok: true},
		{name: "upper case k", input: "72K", expect: 72000, ok: true},
		{name: "more than two tokens uses first two", input: "60000-70000-90000", expect: 65000, ok: true},
		{name: "integer", input: 69000, expect: 69000, ok: true},
		{name: "float", input: 69000.5, expect: 69000.5, ok: true},
		{name: "json number", input: json.Number("71000"), expect: 71000, ok: true},
		{name: "empty string", input: "", ok: false},
		{name: "whitespace only", input: "   ", ok: false},
		{name: "nil", input: nil, ok: false},
		{name: "text", input: "competitive", ok: false},
		{name: "dash only", input: "-", ok: false},
		{name: "nan", input: math.NaN(), ok: false},
		{name: "unsupported type", input: []string{"70000"}, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseSalary(tt.input)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expect, got, 0.0001)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusTraining, Status("  Training "))
	assert.Equal(t, StatusTraining, Status("TRAINING"))
	assert.Equal(t, StatusOfferPending, Status("Offer   Pending"))
	assert.Equal(t, StatusPositionIdentified, Status("position IDENTIFIED"))
	assert.Equal(t, StatusOfferAccepted, Status("Offer Accepted\n"))
	assert.Equal(t, "", Status(""))
}

func TestEqualFold(t *testing.T) {
	t.Parallel()

	assert.True(t, EqualFold("Elk Grove", "elk grove"))
	assert.True(t, EqualFold(" TECH", "tech "))
	assert.False(t, EqualFold("", ""))
	assert.False(t, EqualFold("Rochester", "Rockford"))
}

func TestSplitLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		city  string
		state string
	}{
		{input: "Elk Grove, IL", city: "Elk Grove", state: "IL"},
		{input: "St. Louis, MO", city: "St. Louis", state: "MO"},
		{input: "Washington, D.C., DC", city: "Washington, D.C.", state: "DC"},
		{input: "Rochester", city: "Rochester", state: ""},
		{input: "", city: "", state: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			city, state := SplitLocation(tt.input)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.state, state)
		})
	}
}

func TestEndsWithState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		location string
		state    string
		want     bool
	}{
		{location: "Springfield, il", state: "IL", want: true},
		{location: "Springfield IL", state: "IL", want: true},
		{location: "Springfield,IL", state: "IL", want: true},
		{location: "IL", state: "il", want: true},
		{location: "Springfield, IL", state: "", want: false},
		{location: "", state: "IL", want: false},
		{location: "Salt Lake City, UT", state: "CA", want: false},
		{location: "Pensacola", state: "LA", want: false},
		{location: "Santa Monica", state: "CA", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EndsWithState(tt.location, tt.state), "%q / %q", tt.location, tt.state)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	for _, input := range []any{
		"2025-01-01",
		"01/01/2025",
		"1/1/2025",
		"2025/01/01",
		"Jan 1, 2025",
		"January 1, 2025",
		"2025-01-01T15:04:05Z",
		time.Date(2025, time.January, 1, 18, 30, 0, 0, time.UTC),
	} {
		got, ok := ParseDate(input)
		require.True(t, ok, "input %v", input)
		assert.True(t, want.Equal(got), "input %v parsed as %s", input, got)
	}

	for _, input := range []any{"", "soon", nil, 42, time.Time{}} {
		_, ok := ParseDate(input)
		assert.False(t, ok, "input %v", input)
	}
}

func TestFreeText(t *testing.T) {
	t.Parallel()

	record := map[string]any{
		"Name":              "Kathryn Keillor",
		"Prior Experience":  "Amazon fulfillment lead",
		"notes":             "",
		"Background_Check":  "Cleared",
		"Recruiter Notes":   42,
		"Aviation Interest": "yes",
	}

	keys := FreeTextKeys(record, DefaultFreeTextFields)
	assert.Equal(t, []string{"Background_Check", "Prior Experience", "Recruiter Notes", "notes"}, keys)

	text := CollectFreeText(record, keys)
	assert.Equal(t, "cleared amazon fulfillment lead", text)

	assert.True(t, ContainsAny(text, []string{"Amazon", "aviation"}))
	assert.False(t, ContainsAny(text, []string{"aviation"}))
	assert.False(t, ContainsAny("", []string{"amazon"}))
}

func TestParseSalaryRange(t *testing.T) {
	t.Parallel()

	r, ok := ParseSalaryRange("$71,000–$74,000")
	require.True(t, ok)
	assert.Equal(t, SalaryRange{Low: 71000, High: 74000}, r)
	assert.InDelta(t, 72500, r.Mid(), 0.0001)

	r, ok = ParseSalaryRange(68000)
	require.True(t, ok)
	assert.Equal(t, SalaryRange{Low: 68000, High: 68000}, r)

	_, ok = ParseSalaryRange("$70,000/yr")
	assert.False(t, ok)
}
