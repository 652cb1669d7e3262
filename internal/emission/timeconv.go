package emission

import (
	"math"
	"time"
)

const naiveLayout = "2006-01-02 15:04:05"

// SourceZone is the fixed +07:00 zone the remote timestamps are read in.
var SourceZone = time.FixedZone("WIB", 7*60*60)

// NaiveLocal renders a millisecond epoch as a wall-clock string with no zone,
// dropping sub-second precision.
func NaiveLocal(epochMillis int64) string {
	sec := epochMillis / 1000
	if epochMillis%1000 < 0 {
		sec--
	}
	return time.Unix(sec, 0).UTC().Format(naiveLayout)
}

// LocalizeUTC reads a naive wall-clock string as a time in loc and returns the
// same instant in UTC.
func LocalizeUTC(naive string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(naiveLayout, naive, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ConvertTimestamp applies both stages: epoch to naive wall clock, then that
// wall clock localized in loc and expressed in UTC.
func ConvertTimestamp(epochMillis int64, loc *time.Location) (time.Time, error) {
	return LocalizeUTC(NaiveLocal(epochMillis), loc)
}

// Round6 rounds v to 6 decimal places, ties to even.
func Round6(v float64) float64 {
	return math.RoundToEven(v*1e6) / 1e6
}
