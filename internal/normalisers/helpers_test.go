package normalisers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	tests := []struct {
		name  string
		input any
		want  time.Time
	}{
		{"epoch seconds int", 1700000000, want},
		{"epoch seconds int64", int64(1700000000), want},
		{"epoch seconds float", float64(1700000000), want},
		{"epoch millis", int64(1700000000000), want},
		{"epoch millis float", float64(1700000000000), want},
		{"json number", json.Number("1700000000"), want},
		{"slack ts", "1700000000.000100", want.Add(100 * time.Microsecond)},
		{"numeric millis string", "1700000000000", want},
		{"rfc3339", "2023-11-14T22:13:20Z", want},
		{"rfc3339 offset", "2023-11-14T23:13:20+01:00", want},
		{"rfc3339 nano", "2023-11-14T22:13:20.5Z", want.Add(500 * time.Millisecond)},
		{"date only", "2023-11-14", time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)},
		{"time value", want.In(time.FixedZone("x", 3600)), want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "expected %s, got %s", tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []any{nil, "", "  ", "yesterday", "12:00", true, []int{1}} {
		_, err := ParseTimestamp(input)
		assert.Error(t, err, "input %v", input)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
	assert.Equal(t, "", FirstNonEmpty())
}

func TestIdentity_FallsBackToUnknown(t *testing.T) {
	assert.Equal(t, "alice", identity("", "alice"))
	assert.Equal(t, Unknown, identity("", ""))
	assert.Equal(t, Unknown, identity())
}

func TestDurationMinutes(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, 45, durationMinutes(start, start.Add(45*time.Minute)))
	assert.Equal(t, 0, durationMinutes(start, start.Add(-time.Minute)))
}

func TestIsConferencingURL(t *testing.T) {
	assert.True(t, IsConferencingURL("Join: https://meet.google.com/abc-defg-hij"))
	assert.True(t, IsConferencingURL("https://us02web.ZOOM.us/j/123456"))
	assert.True(t, IsConferencingURL("https://teams.microsoft.com/l/meetup-join/19%3a"))
	assert.True(t, IsConferencingURL("https://acme.webex.com/meet/ann"))
	assert.False(t, IsConferencingURL("Room 4B, 2nd floor"))
	assert.False(t, IsConferencingURL(""))
}
