package normalisers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-pulse/internal/core/domain"
)

// Unknown is the identity placeholder when a provider supplies none.
const Unknown = "unknown"

// errNoTimestamp is returned by ParseTimestamp for empty input.
var errNoTimestamp = errors.New("no timestamp")

// ParseTimestamp converts epoch seconds, epoch milliseconds or an ISO-8601
// string into a UTC time. Numeric strings such as Slack's "1700000000.000100"
// are treated as epoch values. Values above 1e12 are milliseconds.
func ParseTimestamp(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, errNoTimestamp
	case time.Time:
		return t.UTC(), nil
	case int:
		return fromEpoch(float64(t)), nil
	case int64:
		return fromEpoch(float64(t)), nil
	case float64:
		return fromEpoch(t), nil
	case json.Number:
		return ParseTimestamp(t.String())
	case string:
		return parseTimestampString(t)
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
}

func parseTimestampString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errNoTimestamp
	}

	if whole, frac, ok := strings.Cut(s, "."); isDigits(whole) && (!ok || isDigits(frac)) {
		sec, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		if !ok && sec > 1e12 {
			return time.UnixMilli(sec).UTC(), nil
		}
		var nsec int64
		if ok && frac != "" {
			if len(frac) > 9 {
				frac = frac[:9]
			}
			frac += strings.Repeat("0", 9-len(frac))
			nsec, _ = strconv.ParseInt(frac, 10, 64)
		}
		return time.Unix(sec, nsec).UTC(), nil
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func fromEpoch(f float64) time.Time {
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec := math.Floor(f)
	usec := math.Round((f - sec) * 1e6)
	return time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)).UTC()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// identity applies a fallback chain ending in Unknown.
func identity(values ...string) string {
	if v := FirstNonEmpty(values...); v != "" {
		return v
	}
	return Unknown
}

// decode unmarshals a raw payload, mapping failures to ErrNormalization.
func decode(rec domain.RawRecord, v any) error {
	if len(rec.Payload) == 0 {
		return malformed(rec, "empty payload")
	}
	if err := json.Unmarshal(rec.Payload, v); err != nil {
		return malformed(rec, err.Error())
	}
	return nil
}

func malformed(rec domain.RawRecord, reason string) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrNormalization, rec.Provider, reason)
}

// channelName names the record's container, falling back to fallback.
func channelName(rec domain.RawRecord, fallback string) string {
	if rec.Container != nil {
		return identity(rec.Container.Name, rec.Container.ID, fallback)
	}
	return identity(fallback)
}

// baseMetadata starts a metadata bag with the container details.
func baseMetadata(rec domain.RawRecord) map[string]any {
	md := make(map[string]any)
	if rec.Container != nil {
		md["containerId"] = rec.Container.ID
		md["containerType"] = rec.Container.Type
		for k, v := range rec.Container.Metadata {
			md[k] = v
		}
	}
	return md
}

// durationMinutes returns the whole minutes between start and end.
func durationMinutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Round(time.Minute) / time.Minute)
}
