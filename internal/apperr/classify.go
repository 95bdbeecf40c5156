package apperr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SQLSTATE integrity-constraint codes recognised by the classifier.
const (
	SQLStateUniqueViolation     = "23505"
	SQLStateForeignKeyViolation = "23503"
	SQLStateNotNullViolation    = "23502"
	SQLStateCheckViolation      = "23514"
)

// Client messages for unclassified failures. Which one is used depends only
// on the deployment profile; the raw error text never reaches the client.
const (
	ProductionInternalMessage  = "An unexpected error occurred. Please try again later."
	DevelopmentInternalMessage = "Internal server error. Use the incident id to find details in the server log."
)

// sqlStater is implemented by repo.ConstraintError and other drivers' error types.
type sqlStater interface {
	SQLState() string
}

// columnNamer is implemented by repo.ConstraintError.
type columnNamer interface {
	ColumnName() string
}

// Classifier maps any error to one taxonomy entry.
//
// The zero value is usable and behaves as a non-production classifier.
type Classifier struct {
	// Production selects the production-safe internal error message.
	Production bool
	// NewIncidentID overrides incident id generation (tests).
	NewIncidentID func() string
}

// Classify returns the client-facing *Error for err. The chain below is
// evaluated in order and the first match wins:
//
//  1. an *Error already in the chain (canonical message for the masked kinds)
//  2. a backing-store integrity-constraint code
//  3. a JWT verification failure
//  4. anything else: InternalError with a fresh incident id
//
// The returned value is always a new *Error whose cause is err.
func (c Classifier) Classify(err error) *Error {
	if err == nil {
		err = errors.New("nil error reached the classifier")
	}

	if e, ok := As(err); ok && e.Kind != KindInternal {
		out := &Error{
			Kind:    e.Kind,
			Status:  e.Status,
			Code:    e.Code,
			Message: e.Message,
			Details: cloneDetails(e.Details),
			cause:   err,
		}
		if msg, masked := e.Kind.canonicalMessage(); masked {
			out.Message = msg
		}
		return out
	}

	if state, column, ok := constraintCode(err); ok {
		switch state {
		case SQLStateUniqueViolation:
			return DuplicateResource(nil).WithCause(err)
		case SQLStateForeignKeyViolation:
			return InvalidReference(nil).WithCause(err)
		case SQLStateNotNullViolation:
			e := MissingRequiredField(nil).WithCause(err)
			if column != "" {
				e.WithDetail("field", column)
			}
			return e
		case SQLStateCheckViolation:
			return ConstraintViolation(nil).WithCause(err)
		}
	}

	switch {
	case isInvalidToken(err):
		return InvalidToken().WithCause(err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenExpired().WithCause(err)
	}

	return c.internal(err)
}

// InternalMessage returns the client message for unclassified failures.
func (c Classifier) InternalMessage() string {
	if c.Production {
		return ProductionInternalMessage
	}
	return DevelopmentInternalMessage
}

func (c Classifier) internal(err error) *Error {
	gen := c.NewIncidentID
	if gen == nil {
		gen = NewIncidentID
	}
	return Internal(gen(), c.InternalMessage()).WithCause(err)
}

// NewIncidentID returns an identifier of the form inc_<epoch-ms>_<9 alnum>.
// The random part comes from a v4 UUID so ids handed to clients are not
// guessable from one another.
func NewIncidentID() string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("inc_%d_%s", time.Now().UnixMilli(), r[:9])
}

// constraintCode extracts an SQLSTATE from a backing-store error.
func constraintCode(err error) (state, column string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Column, true
	}
	var st sqlStater
	if errors.As(err, &st) {
		if cn, ok := st.(columnNamer); ok {
			column = cn.ColumnName()
		}
		return st.SQLState(), column, true
	}
	return "", "", false
}

// isInvalidToken matches malformed, badly signed or otherwise unusable
// tokens. Expiry and not-before are deliberately excluded.
func isInvalidToken(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidSubject,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
