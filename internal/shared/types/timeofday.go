package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimeOfDay is a clock time with minute precision, matching the TIME
// columns of the ledger schema. Appointment slots always start on whole
// minutes.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay creates a time-of-day from its components
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay{Hour: hour, Minute: minute}
}

// ParseTimeOfDay parses "15:04" or "15:04:05" (seconds are discarded)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
}

// String returns the "15:04" representation
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is earlier in the day than other
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// AddMinutes returns the time-of-day n minutes later within the same day
func (t TimeOfDay) AddMinutes(n int) TimeOfDay {
	total := t.Minutes() + n
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// MarshalJSON implements json.Marshaler
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = TimeOfDay{}
		return nil
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer for database serialization
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String() + ":00", nil
}

// Scan implements sql.Scanner for database deserialization
func (t *TimeOfDay) Scan(value interface{}) error {
	if value == nil {
		*t = TimeOfDay{}
		return nil
	}
	switch v := value.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
	case time.Time:
		*t = TimeOfDay{Hour: v.Hour(), Minute: v.Minute()}
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", value)
	}
	return nil
}
