package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// formats backs the well-known string formats (email, uuid, url, hexcolor).
var formats = validator.New()

type rule[T any] struct {
	id  string
	msg string
	ok  func(T) bool
}

// StringSchema validates string values.
type StringSchema struct {
	base
	trim       bool
	lower      bool
	allowEmpty bool
	rules      []rule[string]
}

// String builds a string schema. Empty strings are rejected unless AllowEmpty
// is set.
func String() *StringSchema { return &StringSchema{} }

func (s *StringSchema) Required() *StringSchema   { s.required = true; return s }
func (s *StringSchema) Nullable() *StringSchema   { s.nullable = true; return s }
func (s *StringSchema) Trim() *StringSchema       { s.trim = true; return s }
func (s *StringSchema) Lowercase() *StringSchema  { s.lower = true; return s }
func (s *StringSchema) AllowEmpty() *StringSchema { s.allowEmpty = true; return s }

// Default sets the value used when the key is absent.
func (s *StringSchema) Default(v string) *StringSchema {
	s.hasDef, s.def = true, v
	return s
}

// Min requires at least n characters (runes).
func (s *StringSchema) Min(n int) *StringSchema {
	return s.add("string.min", fmt.Sprintf("must be at least %d characters long", n), func(v string) bool {
		return utf8.RuneCountInString(v) >= n
	})
}

// Max allows at most n characters (runes).
func (s *StringSchema) Max(n int) *StringSchema {
	return s.add("string.max", fmt.Sprintf("must be at most %d characters long", n), func(v string) bool {
		return utf8.RuneCountInString(v) <= n
	})
}

func (s *StringSchema) Email() *StringSchema {
	return s.format("string.email", "must be a valid email", "email")
}

func (s *StringSchema) UUID() *StringSchema {
	return s.format("string.guid", "must be a valid UUID", "uuid")
}

func (s *StringSchema) URL() *StringSchema {
	return s.format("string.uri", "must be a valid URL", "url")
}

func (s *StringSchema) HexColor() *StringSchema {
	return s.format("string.hexcolor", "must be a valid hex color", "hexcolor")
}

// Pattern requires a match of re; name describes the expected shape in the
// message.
func (s *StringSchema) Pattern(re *regexp.Regexp, name string) *StringSchema {
	return s.add("string.pattern.base", "must match the "+name+" pattern", re.MatchString)
}

// OneOf restricts the value to the listed options.
func (s *StringSchema) OneOf(options ...string) *StringSchema {
	allowed := make(map[string]struct{}, len(options))
	for _, o := range options {
		allowed[o] = struct{}{}
	}
	return s.add("any.only", "must be one of ["+strings.Join(options, ", ")+"]", func(v string) bool {
		_, ok := allowed[v]
		return ok
	})
}

func (s *StringSchema) format(id, msg, tag string) *StringSchema {
	return s.add(id, msg, func(v string) bool { return formats.Var(v, tag) == nil })
}

func (s *StringSchema) add(id, msg string, ok func(string) bool) *StringSchema {
	s.rules = append(s.rules, rule[string]{id: id, msg: msg, ok: ok})
	return s
}

func (s *StringSchema) validate(path string, v any, present bool) (any, bool, Violations) {
	v, done, keep, errs := s.prepare(path, v, present)
	if done {
		return v, keep, errs
	}
	str, ok := v.(string)
	if !ok {
		return v, true, Violations{violation(path, "string.base", "must be a string")}
	}
	if s.trim {
		str = strings.TrimSpace(str)
	}
	if s.lower {
		str = strings.ToLower(str)
	}
	if str == "" {
		if s.allowEmpty {
			return str, true, nil
		}
		return str, true, Violations{violation(path, "string.empty", "is not allowed to be empty")}
	}
	for _, r := range s.rules {
		if !r.ok(str) {
			errs = append(errs, violation(path, r.id, r.msg))
		}
	}
	return str, true, errs
}
