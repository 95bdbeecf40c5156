// Package validation implements declarative, schema-driven input validation
// for the HTTP layer.
//
// A schema is built from small typed builders (String, Int, Number, Bool,
// Date, Array, Object) and evaluated with Validate, which returns either a
// sanitized value (defaults applied, unknown keys handled, strings trimmed,
// numeric/boolean strings coerced) or the full ordered list of violations.
//
// Evaluation is exhaustive: every declared key is checked and every rule of a
// value runs, so one response can report all offending fields. The only
// short-circuit is per value: when a value is missing, has the wrong base type
// or is an empty string, its remaining rules are skipped because they would
// only repeat the same problem.
//
// Example:
//
//	schema := validation.Object(
//	    validation.Field("name", validation.String().Trim().Required().Min(3)),
//	    validation.Field("email", validation.String().Required().Email()),
//	    validation.Field("age", validation.Int().Min(18).Max(120)),
//	)
//	clean, violations := validation.Validate(schema, input)
package validation

import (
	"sort"
	"strings"
)

// Violation describes a single failed rule.
type Violation struct {
	// Field is the dotted path of the offending value ("goal.title", "tags.0").
	Field string `json:"field"`
	// Message is a human-readable description, safe to return to clients.
	Message string `json:"message"`
	// Type is the id of the failing rule, e.g. "string.min" or "any.required".
	Type string `json:"type"`
}

// Violations is an ordered list of Violation in evaluation order.
type Violations []Violation

// Error joins the messages; handy in logs and tests.
func (v Violations) Error() string {
	msgs := make([]string, 0, len(v))
	for _, x := range v {
		msgs = append(msgs, x.Message)
	}
	return strings.Join(msgs, "; ")
}

// Schema is satisfied by every builder in this package.
type Schema interface {
	// validate checks value found at path. present is false when the key was
	// absent from its parent. keep reports whether the sanitized value should
	// be written back to the parent.
	validate(path string, value any, present bool) (out any, keep bool, errs Violations)
}

// Request groups the optional per-facet schemas of one route. A nil facet is
// not validated at all.
type Request struct {
	Body   *ObjectSchema
	Query  *ObjectSchema
	Params *ObjectSchema
}

// Validate evaluates s against value and returns the sanitized value, or the
// violations found. When violations is non-empty the returned value must not
// be used.
func Validate(s Schema, value any) (any, Violations) {
	out, _, errs := s.validate("", value, true)
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// base carries the presence-related modifiers shared by all builders.
type base struct {
	required bool
	nullable bool
	hasDef   bool
	def      any
}

// prepare resolves presence, defaults and null before type checks run.
// When done is true the caller returns (out, keep, errs) unchanged.
func (b *base) prepare(path string, v any, present bool) (val any, done, keep bool, errs Violations) {
	if !present && b.hasDef {
		v, present = cloneValue(b.def), true
	}
	if !present {
		if b.required {
			return nil, true, false, Violations{violation(path, "any.required", "is required")}
		}
		return nil, true, false, nil
	}
	if v == nil && b.nullable {
		return nil, true, true, nil
	}
	return v, false, false, nil
}

// UnknownPolicy selects how an object treats keys it does not declare.
type UnknownPolicy int

const (
	// Strip silently drops undeclared keys.
	Strip UnknownPolicy = iota
	// Allow keeps undeclared keys untouched.
	Allow
	// Reject reports one "object.unknown" violation per undeclared key.
	Reject
)

// FieldSpec binds a key name to its schema inside an object.
type FieldSpec struct {
	name   string
	schema Schema
}

// Field declares key name validated by s.
func Field(name string, s Schema) FieldSpec { return FieldSpec{name: name, schema: s} }

// ObjectSchema validates map values key by key in declaration order.
type ObjectSchema struct {
	base
	fields  []FieldSpec
	unknown UnknownPolicy
}

// Object builds an object schema that strips undeclared keys.
func Object(fields ...FieldSpec) *ObjectSchema {
	return &ObjectSchema{fields: fields, unknown: Strip}
}

// Params builds an object schema for path parameters. Route parameters not
// named in the schema are kept so handlers still find them.
func Params(fields ...FieldSpec) *ObjectSchema {
	return &ObjectSchema{fields: fields, unknown: Allow}
}

func (s *ObjectSchema) Required() *ObjectSchema { s.required = true; return s }
func (s *ObjectSchema) Nullable() *ObjectSchema { s.nullable = true; return s }

// Default sets the value used when the key is absent.
func (s *ObjectSchema) Default(v map[string]any) *ObjectSchema {
	s.hasDef, s.def = true, v
	return s
}

// Unknown overrides the undeclared-key policy.
func (s *ObjectSchema) Unknown(p UnknownPolicy) *ObjectSchema { s.unknown = p; return s }

func (s *ObjectSchema) validate(path string, v any, present bool) (any, bool, Violations) {
	v, done, keep, errs := s.prepare(path, v, present)
	if done {
		return v, keep, errs
	}
	in, ok := asMap(v)
	if !ok {
		return v, true, Violations{violation(path, "object.base", "must be an object")}
	}

	out := make(map[string]any, len(s.fields))
	declared := make(map[string]struct{}, len(s.fields))
	for _, f := range s.fields {
		declared[f.name] = struct{}{}
		raw, has := in[f.name]
		val, keep, ferrs := f.schema.validate(joinPath(path, f.name), raw, has)
		errs = append(errs, ferrs...)
		if keep {
			out[f.name] = val
		}
	}

	var extra []string
	for k := range in {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		switch s.unknown {
		case Allow:
			out[k] = in[k]
		case Reject:
			errs = append(errs, violation(joinPath(path, k), "object.unknown", "is not allowed"))
		}
	}
	return out, true, errs
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func violation(path, typ, msg string) Violation {
	label := path
	if label == "" {
		label = "value"
	}
	return Violation{Field: label, Message: label + " " + msg, Type: typ}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// cloneValue copies map and slice defaults so sanitized values never alias
// the schema's own default.
func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
