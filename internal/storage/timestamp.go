package storage

import (
	"math"
	"strconv"
	"time"
)

// msThreshold separates second-based from millisecond-based numbers: anything
// above it is read as milliseconds (it is 2001-09-09 in milliseconds).
const msThreshold = 1e12

// NormalizeTimestamp converts the shapes a stored timestamp arrives in
// (server timestamp, float or int seconds/milliseconds, numeric string, nil)
// into a time. Unknown or missing values become the zero time.
func NormalizeTimestamp(v any) time.Time {
	switch t := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return t
	case *time.Time:
		if t == nil {
			return time.Time{}
		}
		return *t
	case float64:
		return fromFloat(t)
	case float32:
		return fromFloat(float64(t))
	case int64:
		return fromInt(t)
	case int:
		return fromInt(int64(t))
	case int32:
		return fromInt(int64(t))
	case uint64:
		return fromInt(int64(t))
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return fromFloat(f)
		}
		if ts, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func fromFloat(f float64) time.Time {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return time.Time{}
	}
	if f >= msThreshold {
		return time.UnixMilli(int64(f))
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9))
}

func fromInt(i int64) time.Time {
	if i <= 0 {
		return time.Time{}
	}
	if i >= msThreshold {
		return time.UnixMilli(i)
	}
	return time.Unix(i, 0)
}

// UnixMilli returns t in milliseconds, 0 for the zero time.
func UnixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
