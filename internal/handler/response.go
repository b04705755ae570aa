package handler

import (
	"github.com/dafibh/evenup/evenup-backend/internal/problem"
	"github.com/labstack/echo/v4"
)

// ProblemDetails is the RFC 7807 body every API error is returned in
type ProblemDetails = problem.Details

// ValidationError is a single invalid field inside a validation problem
type ValidationError = problem.FieldError

// NewValidationError responds 400 with the offending fields
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return problem.Write(c, problem.Validation, detail, errors...)
}

// NewNotFoundError responds 404
func NewNotFoundError(c echo.Context, detail string) error {
	return problem.Write(c, problem.NotFound, detail)
}

// NewUnauthorizedError responds 401, used for a wrong event password
func NewUnauthorizedError(c echo.Context, detail string) error {
	return problem.Write(c, problem.Unauthorized, detail)
}

// NewUnknownSenderError responds 403 when a chat sender is not one of the event's payers
func NewUnknownSenderError(c echo.Context, detail string) error {
	return problem.Write(c, problem.UnknownSender, detail)
}

// NewConflictError responds 409, used for a taken event name
func NewConflictError(c echo.Context, detail string) error {
	return problem.Write(c, problem.Conflict, detail)
}

// NewInternalError responds 500
func NewInternalError(c echo.Context, detail string) error {
	return problem.Write(c, problem.Internal, detail)
}
