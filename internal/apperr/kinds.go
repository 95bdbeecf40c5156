package apperr

import "net/http"

// Kind enumerates the taxonomy. The set is closed.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnprocessable
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindDuplicateResource
	KindInvalidReference
	KindMissingRequiredField
	KindConstraintViolation
	KindInvalidToken
	KindTokenExpired
)

// Stable machine codes.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnprocessable        = "UNPROCESSABLE_ENTITY"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeDuplicateResource    = "DUPLICATE_RESOURCE"
	CodeInvalidReference     = "INVALID_REFERENCE"
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeConstraintViolation  = "CONSTRAINT_VIOLATION"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeInternal             = "INTERNAL_SERVER_ERROR"
)

type kindInfo struct {
	name    string
	code    string
	status  int
	message string
}

var kinds = map[Kind]kindInfo{
	KindValidation:           {"ValidationError", CodeValidation, http.StatusUnprocessableEntity, "Validation failed"},
	KindUnprocessable:        {"UnprocessableEntityError", CodeUnprocessable, http.StatusUnprocessableEntity, "Unprocessable entity"},
	KindUnauthorized:         {"UnauthorizedError", CodeUnauthorized, http.StatusUnauthorized, "Authentication required"},
	KindForbidden:            {"ForbiddenError", CodeForbidden, http.StatusForbidden, "Access denied"},
	KindNotFound:             {"NotFoundError", CodeNotFound, http.StatusNotFound, "Resource not found"},
	KindConflict:             {"ConflictError", CodeConflict, http.StatusConflict, "Resource conflict"},
	KindDuplicateResource:    {"DuplicateResource", CodeDuplicateResource, http.StatusConflict, "Resource already exists"},
	KindInvalidReference:     {"InvalidReference", CodeInvalidReference, http.StatusBadRequest, "Referenced resource does not exist"},
	KindMissingRequiredField: {"MissingRequiredField", CodeMissingRequiredField, http.StatusBadRequest, "Required field is missing"},
	KindConstraintViolation:  {"ConstraintViolation", CodeConstraintViolation, http.StatusBadRequest, "Data constraint violated"},
	KindInvalidToken:         {"InvalidToken", CodeInvalidToken, http.StatusUnauthorized, "Invalid authentication token"},
	KindTokenExpired:         {"TokenExpired", CodeTokenExpired, http.StatusUnauthorized, "Authentication token has expired"},
	KindInternal:             {"InternalError", CodeInternal, http.StatusInternalServerError, "Internal server error"},
}

func (k Kind) info() kindInfo {
	if i, ok := kinds[k]; ok {
		return i
	}
	return kinds[KindInternal]
}

// String returns the kind's taxonomy name.
func (k Kind) String() string { return k.info().name }

// canonicalMessage returns the fixed client phrase for kinds whose raiser text
// must never reach the client.
func (k Kind) canonicalMessage() (string, bool) {
	switch k {
	case KindUnauthorized, KindForbidden, KindNotFound, KindConflict:
		return k.info().message, true
	}
	return "", false
}
