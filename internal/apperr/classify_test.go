package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateErr struct {
	state  string
	column string
}

func (e stateErr) Error() string      { return "store: " + e.state }
func (e stateErr) SQLState() string   { return e.state }
func (e stateErr) ColumnName() string { return e.column }

var incidentRE = regexp.MustCompile(`^inc_\d+_[A-Za-z0-9]+$`)

func TestClassify_MaskedKindsUseCanonicalMessage(t *testing.T) {
	cl := Classifier{}
	cases := []struct {
		err    *Error
		status int
		code   string
		msg    string
	}{
		{Unauthorized("bearer header missing for user 42"), http.StatusUnauthorized, CodeUnauthorized, "Authentication required"},
		{Forbidden("user 42 is not owner of area 7"), http.StatusForbidden, CodeForbidden, "Access denied"},
		{NotFound("goal 9f2 not in table goals"), http.StatusNotFound, CodeNotFound, "Resource not found"},
		{Conflict("version 3 != 4"), http.StatusConflict, CodeConflict, "Resource conflict"},
	}
	for _, tc := range cases {
		got := cl.Classify(tc.err)
		assert.Equal(t, tc.status, got.Status)
		assert.Equal(t, tc.code, got.Code)
		assert.Equal(t, tc.msg, got.Message)
		assert.Empty(t, got.IncidentID)
	}
}

func TestClassify_ValidationSurfacesRaiserMessageAndDetails(t *testing.T) {
	cl := Classifier{}
	details := map[string]any{"field_errors": []map[string]string{{"field": "name", "type": "string.min"}}}

	got := cl.Classify(Validation("Request validation failed", details))
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)
	assert.Equal(t, CodeValidation, got.Code)
	assert.Equal(t, "Request validation failed", got.Message)
	assert.Equal(t, details, got.Details)

	got = cl.Classify(Unprocessable("goal is archived", map[string]any{"goal_id": "g1"}))
	assert.Equal(t, http.StatusUnprocessableEntity, got.Status)
	assert.Equal(t, CodeUnprocessable, got.Code)
	assert.Equal(t, "goal is archived", got.Message)
	assert.Equal(t, map[string]any{"goal_id": "g1"}, got.Details)
}

func TestClassify_WrappedTaxonomyErrorStillMatches(t *testing.T) {
	err := fmt.Errorf("load goal: %w", NotFound("row missing"))
	got := Classifier{}.Classify(err)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, "Resource not found", got.Message)
	assert.ErrorIs(t, got, err)
}

func TestClassify_ConstraintCodes(t *testing.T) {
	cl := Classifier{}
	cases := []struct {
		state  string
		status int
		code   string
	}{
		{"23505", http.StatusConflict, CodeDuplicateResource},
		{"23503", http.StatusBadRequest, CodeInvalidReference},
		{"23502", http.StatusBadRequest, CodeMissingRequiredField},
		{"23514", http.StatusBadRequest, CodeConstraintViolation},
	}
	for _, tc := range cases {
		t.Run("pq_"+tc.state, func(t *testing.T) {
			got := cl.Classify(&pq.Error{Code: pq.ErrorCode(tc.state), Message: "secret table detail"})
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.code, got.Code)
			assert.NotContains(t, got.Message, "secret")
		})
		t.Run("sqlstate_"+tc.state, func(t *testing.T) {
			got := cl.Classify(fmt.Errorf("insert: %w", stateErr{state: tc.state}))
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.code, got.Code)
		})
	}
}

func TestClassify_NotNullCarriesColumn(t *testing.T) {
	got := Classifier{}.Classify(&pq.Error{Code: "23502", Column: "title"})
	require.Equal(t, CodeMissingRequiredField, got.Code)
	assert.Equal(t, map[string]any{"field": "title"}, got.Details)

	got = Classifier{}.Classify(stateErr{state: "23502", column: "name"})
	assert.Equal(t, map[string]any{"field": "name"}, got.Details)
}

func TestClassify_UnknownConstraintCodeIsInternal(t *testing.T) {
	got := Classifier{}.Classify(&pq.Error{Code: "40001", Message: "could not serialize access"})
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, CodeInternal, got.Code)
	assert.Regexp(t, incidentRE, got.IncidentID)
	assert.Nil(t, got.Details)
}

func TestClassify_TokenErrors(t *testing.T) {
	cl := Classifier{}
	secret := []byte("s3cret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	signed, err := expired.SignedString(secret)
	require.NoError(t, err)
	_, err = jwt.Parse(signed, func(*jwt.Token) (any, error) { return secret, nil })
	require.Error(t, err)
	got := cl.Classify(err)
	assert.Equal(t, http.StatusUnauthorized, got.Status)
	assert.Equal(t, CodeTokenExpired, got.Code)

	_, err = jwt.Parse("not-a-token", func(*jwt.Token) (any, error) { return secret, nil })
	require.Error(t, err)
	got = cl.Classify(err)
	assert.Equal(t, http.StatusUnauthorized, got.Status)
	assert.Equal(t, CodeInvalidToken, got.Code)

	valid := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err = valid.SignedString(secret)
	require.NoError(t, err)
	_, err = jwt.Parse(signed, func(*jwt.Token) (any, error) { return []byte("other"), nil })
	require.Error(t, err)
	assert.Equal(t, CodeInvalidToken, cl.Classify(err).Code)
}

func TestClassify_UnknownFailureHidesRawText(t *testing.T) {
	raw := errors.New("dial tcp 10.0.0.7:5432: connection refused")

	prod := Classifier{Production: true}.Classify(raw)
	assert.Equal(t, http.StatusInternalServerError, prod.Status)
	assert.Equal(t, CodeInternal, prod.Code)
	assert.Equal(t, ProductionInternalMessage, prod.Message)
	assert.Nil(t, prod.Details)
	assert.Regexp(t, incidentRE, prod.IncidentID)

	dev := Classifier{Production: false}.Classify(raw)
	assert.Equal(t, DevelopmentInternalMessage, dev.Message)
	assert.NotEqual(t, prod.Message, dev.Message)
	assert.Nil(t, dev.Details)

	for _, got := range []*Error{prod, dev} {
		assert.NotContains(t, got.Message, "10.0.0.7")
		assert.ErrorIs(t, got, raw)
	}
}

func TestClassify_ExplicitInternalIsTreatedAsUnclassified(t *testing.T) {
	cl := Classifier{Production: true, NewIncidentID: func() string { return "inc_1_abc" }}
	got := cl.Classify(Internal("", "cache shard 3 corrupted").WithDetail("shard", 3))
	assert.Equal(t, "inc_1_abc", got.IncidentID)
	assert.Equal(t, ProductionInternalMessage, got.Message)
	assert.Nil(t, got.Details)
}

func TestNewIncidentID_Format(t *testing.T) {
	a, b := NewIncidentID(), NewIncidentID()
	assert.Regexp(t, incidentRE, a)
	assert.Regexp(t, `^inc_\d+_[a-f0-9]{9}$`, a)
	assert.NotEqual(t, a, b)
}

func TestError_IsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NotFound("x"))
	assert.True(t, errors.Is(err, NotFound("")))
	assert.False(t, errors.Is(err, Forbidden("")))
}

func TestConstructors_DefaultsAndCloning(t *testing.T) {
	d := map[string]any{"a": 1}
	e := Validation("", d)
	d["a"] = 2
	assert.Equal(t, "Validation failed", e.Message)
	assert.Equal(t, 1, e.Details["a"])
	assert.Equal(t, "ValidationError", e.Kind.String())

	in := Internal("inc_1_x", "boom")
	assert.Equal(t, "inc_1_x", in.IncidentID)
	assert.Equal(t, http.StatusInternalServerError, in.Status)
	assert.Contains(t, in.WithCause(errors.New("root")).Error(), "root")
}
