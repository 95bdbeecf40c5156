package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NumberSchema validates numeric values. Numeric strings are converted, which
// is what makes the same schema usable for JSON bodies and for query or path
// parameters.
type NumberSchema struct {
	base
	integer bool
	rules   []rule[float64]
}

// Number builds a schema for any finite number; the sanitized value is a
// float64.
func Number() *NumberSchema { return &NumberSchema{} }

// maxSafeInt bounds the integers a float64 (and a JSON client) holds exactly.
const maxSafeInt = 1<<53 - 1

// Int builds a schema for whole numbers within ±(2^53-1); the sanitized value
// is an int64.
func Int() *NumberSchema {
	s := &NumberSchema{integer: true}
	s.add("number.integer", "must be an integer", func(f float64) bool { return f == math.Trunc(f) })
	return s.add("number.unsafe", "must be a safe number", isSafeInt)
}

func isSafeInt(f float64) bool { return f >= -maxSafeInt && f <= maxSafeInt }

func (s *NumberSchema) Required() *NumberSchema { s.required = true; return s }
func (s *NumberSchema) Nullable() *NumberSchema { s.nullable = true; return s }

// Default sets the value used when the key is absent.
func (s *NumberSchema) Default(v float64) *NumberSchema {
	s.hasDef, s.def = true, v
	return s
}

func (s *NumberSchema) Min(n float64) *NumberSchema {
	return s.add("number.min", "must be greater than or equal to "+formatNumber(n), func(f float64) bool { return f >= n })
}

func (s *NumberSchema) Max(n float64) *NumberSchema {
	return s.add("number.max", "must be less than or equal to "+formatNumber(n), func(f float64) bool { return f <= n })
}

func (s *NumberSchema) Positive() *NumberSchema {
	return s.add("number.positive", "must be a positive number", func(f float64) bool { return f > 0 })
}

func (s *NumberSchema) add(id, msg string, ok func(float64) bool) *NumberSchema {
	s.rules = append(s.rules, rule[float64]{id: id, msg: msg, ok: ok})
	return s
}

func (s *NumberSchema) validate(path string, v any, present bool) (any, bool, Violations) {
	v, done, keep, errs := s.prepare(path, v, present)
	if done {
		return v, keep, errs
	}
	f, ok := toFloat(v)
	if !ok {
		return v, true, Violations{violation(path, "number.base", "must be a number")}
	}
	for _, r := range s.rules {
		if !r.ok(f) {
			errs = append(errs, violation(path, r.id, r.msg))
		}
	}
	if s.integer && f == math.Trunc(f) && isSafeInt(f) {
		return int64(f), true, errs
	}
	return f, true, errs
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		t := strings.TrimSpace(n)
		if t == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BoolSchema validates booleans; "true"/"false" strings are converted.
type BoolSchema struct {
	base
}

func Bool() *BoolSchema { return &BoolSchema{} }

func (s *BoolSchema) Required() *BoolSchema { s.required = true; return s }
func (s *BoolSchema) Nullable() *BoolSchema { s.nullable = true; return s }

// Default sets the value used when the key is absent.
func (s *BoolSchema) Default(v bool) *BoolSchema {
	s.hasDef, s.def = true, v
	return s
}

func (s *BoolSchema) validate(path string, v any, present bool) (any, bool, Violations) {
	v, done, keep, errs := s.prepare(path, v, present)
	if done {
		return v, keep, errs
	}
	switch b := v.(type) {
	case bool:
		return b, true, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, true, nil
		case "false":
			return false, true, nil
		}
	}
	return v, true, Violations{violation(path, "boolean.base", "must be a boolean")}
}

// dateLayouts are tried in order when parsing date strings.
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// DateSchema validates ISO-8601 dates; the sanitized value is a UTC time.Time.
type DateSchema struct {
	base
	rules []rule[time.Time]
}

func Date() *DateSchema { return &DateSchema{} }

func (s *DateSchema) Required() *DateSchema { s.required = true; return s }
func (s *DateSchema) Nullable() *DateSchema { s.nullable = true; return s }

// After requires the date to be strictly later than the value returned by fn
// at validation time.
func (s *DateSchema) After(fn func() time.Time, what string) *DateSchema {
	s.rules = append(s.rules, rule[time.Time]{
		id:  "date.greater",
		msg: "must be after " + what,
		ok:  func(t time.Time) bool { return t.After(fn()) },
	})
	return s
}

func (s *DateSchema) validate(path string, v any, present bool) (any, bool, Violations) {
	v, done, keep, errs := s.prepare(path, v, present)
	if done {
		return v, keep, errs
	}
	t, ok := toTime(v)
	if !ok {
		return v, true, Violations{violation(path, "date.base", "must be a valid date")}
	}
	for _, r := range s.rules {
		if !r.ok(t) {
			errs = append(errs, violation(path, r.id, r.msg))
		}
	}
	return t, true, errs
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// ArraySchema validates lists, checking every item against one schema.
type ArraySchema struct {
	base
	items  Schema
	single bool
	rules  []rule[[]any]
}

// Array builds a list schema whose items are checked against items (nil
// accepts any item).
func Array(items Schema) *ArraySchema { return &ArraySchema{items: items} }

func (s *ArraySchema) Required() *ArraySchema { s.required = true; return s }
func (s *ArraySchema) Nullable() *ArraySchema { s.nullable = true; return s }

// Single accepts a lone scalar and wraps it into a one-item list; query
// strings with one occurrence of a repeated key arrive that way.
func (s *ArraySchema) Single() *ArraySchema { s.single = true; return s }

func (s *ArraySchema) Min(n int) *ArraySchema {
	s.rules = append(s.rules, rule[[]any]{
		id:  "array.min",
		msg: fmt.Sprintf("must contain at least %d items", n),
		ok:  func(a []any) bool { return len(a) >= n },
	})
	return s
}

func (s *ArraySchema) Max(n int) *ArraySchema {
	s.rules = append(s.rules, rule[[]any]{
		id:  "array.max",
		msg: fmt.Sprintf("must contain at most %d items", n),
		ok:  func(a []any) bool { return len(a) <= n },
	})
	return s
}

func (s *ArraySchema) validate(path string, v any, present bool) (any, bool, Violations) {
	v, done, keep, errs := s.prepare(path, v, present)
	if done {
		return v, keep, errs
	}
	var in []any
	switch x := v.(type) {
	case []any:
		in = x
	case []string:
		in = make([]any, len(x))
		for i, e := range x {
			in[i] = e
		}
	default:
		if !s.single || v == nil {
			return v, true, Violations{violation(path, "array.base", "must be an array")}
		}
		in = []any{v}
	}

	out := make([]any, 0, len(in))
	for i, item := range in {
		if s.items == nil {
			out = append(out, item)
			continue
		}
		val, _, ierrs := s.items.validate(joinPath(path, strconv.Itoa(i)), item, true)
		errs = append(errs, ierrs...)
		out = append(out, val)
	}
	for _, r := range s.rules {
		if !r.ok(out) {
			errs = append(errs, violation(path, r.id, r.msg))
		}
	}
	return out, true, errs
}
