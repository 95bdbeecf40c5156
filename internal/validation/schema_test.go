package validation

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userSchema() *ObjectSchema {
	return Object(
		Field("name", String().Trim().Required().Min(3)),
		Field("email", String().Required().Email()),
		Field("age", Int().Min(18).Max(120)),
	)
}

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestValidate_ReportsEveryFailingFieldInOrder(t *testing.T) {
	_, errs := Validate(userSchema(), decode(t, `{"name":"Jo","email":"bad","age":15}`))

	require.Len(t, errs, 3)
	assert.Equal(t, []string{"name", "email", "age"}, []string{errs[0].Field, errs[1].Field, errs[2].Field})
	assert.Equal(t, "string.min", errs[0].Type)
	assert.Equal(t, "string.email", errs[1].Type)
	assert.Equal(t, "number.min", errs[2].Type)
	assert.Equal(t, "name must be at least 3 characters long", errs[0].Message)
}

func TestValidate_AcceptsAndSanitizes(t *testing.T) {
	out, errs := Validate(userSchema(), decode(t, `{"name":"  Jonas ","email":"jonas@example.com","age":"42","admin":true}`))
	require.Empty(t, errs)

	m := out.(map[string]any)
	assert.Equal(t, "Jonas", m["name"])
	assert.Equal(t, int64(42), m["age"])
	assert.NotContains(t, m, "admin", "unknown keys are stripped")
}

func TestValidate_MissingRequiredAndWrongType(t *testing.T) {
	_, errs := Validate(userSchema(), map[string]any{"email": 12, "age": "abc"})
	require.Len(t, errs, 3)
	assert.Equal(t, Violation{Field: "name", Message: "name is required", Type: "any.required"}, errs[0])
	assert.Equal(t, "string.base", errs[1].Type)
	assert.Equal(t, "number.base", errs[2].Type)
}

func TestValidate_IndependentRulesOnOneValueAllRun(t *testing.T) {
	s := Object(Field("code", String().Min(5).Pattern(regexp.MustCompile(`^[A-Z]+$`), "upper-case")))
	_, errs := Validate(s, map[string]any{"code": "ab"})
	require.Len(t, errs, 2)
	assert.Equal(t, "string.min", errs[0].Type)
	assert.Equal(t, "string.pattern.base", errs[1].Type)
}

func TestValidate_DefaultsRunThroughRules(t *testing.T) {
	s := Object(
		Field("page", Int().Min(1).Default(1)),
		Field("page_size", Int().Min(1).Max(100).Default(20)),
		Field("status", String().OneOf("active", "paused").Default("active")),
		Field("bad", Int().Max(5).Default(10)),
	)
	_, errs := Validate(s, map[string]any{})
	require.Len(t, errs, 1)
	assert.Equal(t, "bad", errs[0].Field)
	assert.Equal(t, "number.max", errs[0].Type)

	s = Object(
		Field("page", Int().Min(1).Default(1)),
		Field("status", String().OneOf("active", "paused").Default("active")),
	)
	out, errs := Validate(s, map[string]any{})
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"page": int64(1), "status": "active"}, out)
}

func TestValidate_RevalidationIsStable(t *testing.T) {
	s := Object(
		Field("title", String().Trim().Required().Max(20)),
		Field("target", Number().Positive()),
		Field("count", Int().Default(3)),
		Field("done", Bool().Default(false)),
		Field("due", Date()),
		Field("tags", Array(String().Lowercase()).Single()),
		Field("meta", Object(Field("source", String().Default("web")))),
		Field("note", String().Nullable()),
	)
	in := map[string]any{
		"title":  " Run 5k ",
		"target": json.Number("5.5"),
		"due":    "2026-12-01",
		"tags":   "Health",
		"meta":   map[string]any{},
		"note":   nil,
		"junk":   1,
	}
	first, errs := Validate(s, in)
	require.Empty(t, errs)
	second, errs := Validate(s, first)
	require.Empty(t, errs)
	assert.Equal(t, first, second)

	m := first.(map[string]any)
	assert.Equal(t, "Run 5k", m["title"])
	assert.Equal(t, 5.5, m["target"])
	assert.Equal(t, int64(3), m["count"])
	assert.Equal(t, false, m["done"])
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), m["due"])
	assert.Equal(t, []any{"health"}, m["tags"])
	assert.Equal(t, map[string]any{"source": "web"}, m["meta"])
	assert.Contains(t, m, "note")
	assert.Nil(t, m["note"])
}

func TestValidate_NestedPathsAndArrayItems(t *testing.T) {
	s := Object(
		Field("profile", Object(Field("city", String().Required()))),
		Field("scores", Array(Int().Max(10)).Max(2)),
	)
	_, errs := Validate(s, map[string]any{
		"profile": map[string]any{},
		"scores":  []any{1, 11, 12},
	})
	require.Len(t, errs, 4)
	assert.Equal(t, "profile.city", errs[0].Field)
	assert.Equal(t, "scores.1", errs[1].Field)
	assert.Equal(t, "scores.2", errs[2].Field)
	assert.Equal(t, "scores", errs[3].Field)
	assert.Equal(t, "array.max", errs[3].Type)
}

func TestValidate_UnknownPolicies(t *testing.T) {
	in := map[string]any{"id": "x", "zeta": 1, "alpha": 2}

	out, errs := Validate(Params(Field("id", String())), in)
	require.Empty(t, errs)
	assert.Equal(t, in, out)

	_, errs = Validate(Object(Field("id", String())).Unknown(Reject), in)
	require.Len(t, errs, 2)
	assert.Equal(t, "alpha", errs[0].Field)
	assert.Equal(t, "zeta", errs[1].Field)
	assert.Equal(t, "object.unknown", errs[0].Type)
}

func TestValidate_StringFormatsAndEmpty(t *testing.T) {
	s := Object(
		Field("id", String().UUID()),
		Field("color", String().HexColor()),
		Field("site", String().URL()),
		Field("blank", String()),
		Field("optional", String().AllowEmpty().Min(3)),
	)
	_, errs := Validate(s, map[string]any{
		"id": "nope", "color": "red", "site": "::", "blank": "", "optional": "",
	})
	require.Len(t, errs, 4)
	assert.Equal(t, "string.guid", errs[0].Type)
	assert.Equal(t, "string.hexcolor", errs[1].Type)
	assert.Equal(t, "string.uri", errs[2].Type)
	assert.Equal(t, "string.empty", errs[3].Type)

	_, errs = Validate(s, map[string]any{
		"id": "0b7f3c1e-9a53-4f0e-8a4e-5c2d1b0e9f11", "color": "#1a2b3c", "site": "https://example.com",
	})
	assert.Empty(t, errs)
}

func TestValidate_RootErrorsAndBooleans(t *testing.T) {
	_, errs := Validate(Object(), "not an object")
	require.Len(t, errs, 1)
	assert.Equal(t, Violation{Field: "value", Message: "value must be an object", Type: "object.base"}, errs[0])

	out, errs := Validate(Object(Field("on", Bool())), map[string]string{"on": "TRUE"})
	require.Empty(t, errs)
	assert.Equal(t, map[string]any{"on": true}, out)

	_, errs = Validate(Object(Field("on", Bool())), map[string]any{"on": "yes"})
	require.Len(t, errs, 1)
	assert.Equal(t, "boolean.base", errs[0].Type)
}

func TestValidate_IntegerRule(t *testing.T) {
	_, errs := Validate(Object(Field("n", Int().Min(1))), map[string]any{"n": 2.5})
	require.Len(t, errs, 1)
	assert.Equal(t, "number.integer", errs[0].Type)
}

func TestValidate_IntegerOutOfSafeRange(t *testing.T) {
	page := Object(Field("page", Int().Min(1)))

	for _, in := range []any{"1e20", 1e20, "9007199254740992", json.Number("9223372036854775808")} {
		_, errs := Validate(page, map[string]any{"page": in})
		require.Len(t, errs, 1, "input %v", in)
		assert.Equal(t, "number.unsafe", errs[0].Type)
		assert.Equal(t, "page", errs[0].Field)

		val, _, _ := Int().validate("page", in, true)
		_, isInt := val.(int64)
		assert.False(t, isInt, "out-of-range input %v must not be converted", in)
	}

	out, errs := Validate(page, map[string]any{"page": "9007199254740991"})
	require.Empty(t, errs)
	assert.Equal(t, int64(9007199254740991), out.(map[string]any)["page"])
	again, errs := Validate(page, out)
	require.Empty(t, errs)
	assert.Equal(t, out, again)
}

func TestViolations_Error(t *testing.T) {
	v := Violations{{Message: "a is required"}, {Message: "b must be a string"}}
	assert.Equal(t, "a is required; b must be a string", v.Error())
}
