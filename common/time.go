package common

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// The timestamp format used throughout: in snapshot directory names joined with the hour, in
	// policy-scan date/time pairs, and in printed output.  Parsing admits an optional fractional
	// second because some producers emit one.
	CommonDateTimeFormat = "2006-01-02 15:04:05"

	dateTimeParseFormat = "2006-01-02 15:04:05.999999999"
)

// Synthesize the sample timestamp for a snapshot found in {date}/{hour}/, where `date` is a
// YYYY-MM-DD directory name and `hour` is a 0..23 directory name, possibly without a leading zero.
// Times are UTC throughout.

func SnapshotTime(date, hour string) (int64, error) {
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("Bad hour directory name %q", hour)
	}
	t, err := time.ParseInLocation(CommonDateTimeFormat, fmt.Sprintf("%s %02d:00:00", date, h), time.UTC)
	if err != nil {
		return 0, fmt.Errorf("Bad date directory name %q", date)
	}
	return t.Unix(), nil
}

// Parse a "YYYY-MM-DD HH:MM:SS[.frac]" string into Unix seconds UTC.

func ParseDateTime(s string) (int64, error) {
	t, err := time.ParseInLocation(dateTimeParseFormat, s, time.UTC)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func FormatDateTime(t int64) string {
	return time.Unix(t, 0).UTC().Format(CommonDateTimeFormat)
}

func TruncateToHour(t int64) int64 {
	u := time.Unix(t, 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), 0, 0, 0, time.UTC).Unix()
}
