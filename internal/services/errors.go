// Package services defines the business logic for life areas, goals,
// progress tracking and the dashboard. This file centralizes the
// service-level errors so they are raised consistently.
//
// Every error returned here is an *apperr.Error; the HTTP error handler
// renders it without further translation by the handlers.
package services

import (
	"errors"

	"github.com/tbourn/go-lifetrack-backend/internal/apperr"
	"github.com/tbourn/go-lifetrack-backend/internal/repo"
)

// Messages attached to service errors. NotFound messages are logged only;
// the client sees the canonical "Resource not found".
const (
	msgAreaNotFound  = "life area not found"
	msgGoalNotFound  = "goal not found"
	msgGoalArchived  = "Progress cannot be logged on an archived goal"
	msgIdemConflict  = "request with this Idempotency-Key is already being processed"
	msgNameRequired  = "Name must not be blank"
	msgTitleRequired = "Title must not be blank"
)

// notFound converts repo.ErrNotFound into a NotFound taxonomy error and
// returns any other error unchanged.
func notFound(err error, msg string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return apperr.NotFound(msg).WithCause(err)
	}
	return err
}

func blankField(field, msg string) error {
	return apperr.Unprocessable(msg, map[string]any{"field": field})
}
