// Package hydrate upgrades wire-format fields on decoded responses to
// native Go values.
//
// The platform reports timestamps as strings in a handful of layouts.
// [Time] converts them to [time.Time], passing already-native values
// through untouched, so hydrating twice is the same as hydrating once.
package hydrate

import "time"

// layouts the platform is known to emit, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time converts a wire timestamp to a native time.Time. A string is
// parsed against the known layouts; a value that is already a
// time.Time is returned unchanged; anything else, including a missing
// (nil) optional field or an unparseable string, yields the zero time.
func Time(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range layouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

// List applies fn to every element of a list response, preserving
// order. A nil input stays nil.
func List[R, T any](fn func(R) T, in []R) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, r := range in {
		out[i] = fn(r)
	}
	return out
}
