package repo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	gosqlite "github.com/glebarez/go-sqlite"
	"gorm.io/gorm"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ConstraintError is an integrity-constraint failure reported by a backing
// store that does not speak SQLSTATE natively (SQLite). It exposes the
// equivalent SQLSTATE so the HTTP error classifier treats it exactly like
// a PostgreSQL error.
type ConstraintError struct {
	State  string
	Column string
	Err    error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violation (%s): %v", e.State, e.Err)
}

func (e *ConstraintError) Unwrap() error      { return e.Err }
func (e *ConstraintError) SQLState() string   { return e.State }
func (e *ConstraintError) ColumnName() string { return e.Column }

// SQLite extended result codes for constraint failures.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

var notNullColumnRE = regexp.MustCompile(`NOT NULL constraint failed: [\w"]+\.([\w"]+)`)

// translateError rewrites SQLite constraint failures into *ConstraintError.
// PostgreSQL errors (*pq.Error) already carry SQLSTATE and pass through
// untouched, as does everything else.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return err
	}

	state := ""
	var se *gosqlite.Error
	if errors.As(err, &se) {
		state = sqliteState(se.Code())
	}
	if state == "" {
		state = sqliteStateFromText(err.Error())
	}
	if state == "" {
		return err
	}

	out := &ConstraintError{State: state, Err: err}
	if state == apperr.SQLStateNotNullViolation {
		if m := notNullColumnRE.FindStringSubmatch(err.Error()); m != nil {
			out.Column = strings.Trim(m[1], `"`)
		}
	}
	return out
}

func sqliteState(code int) string {
	switch code {
	case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
		return apperr.SQLStateUniqueViolation
	case sqliteConstraintForeignKey:
		return apperr.SQLStateForeignKeyViolation
	case sqliteConstraintNotNull:
		return apperr.SQLStateNotNullViolation
	case sqliteConstraintCheck:
		return apperr.SQLStateCheckViolation
	}
	return ""
}

// sqliteStateFromText covers driver builds that only surface the message.
func sqliteStateFromText(msg string) string {
	low := strings.ToLower(msg)
	switch {
	case strings.Contains(low, "unique constraint failed"):
		return apperr.SQLStateUniqueViolation
	case strings.Contains(low, "foreign key constraint failed"):
		return apperr.SQLStateForeignKeyViolation
	case strings.Contains(low, "not null constraint failed"):
		return apperr.SQLStateNotNullViolation
	case strings.Contains(low, "check constraint failed"):
		return apperr.SQLStateCheckViolation
	}
	return ""
}
