// Package problem renders API failures as RFC 7807 problem details.
package problem

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const typeBase = "https://evenup.app/errors/"

// Details is the RFC 7807 body returned for every API error
type Details struct {
	Type       string       `json:"type"`
	Title      string       `json:"title"`
	Status     int          `json:"status"`
	Detail     string       `json:"detail,omitempty"`
	Instance   string       `json:"instance,omitempty"`
	RetryAfter int          `json:"retry_after,omitempty"`
	Errors     []FieldError `json:"errors,omitempty"`
}

// FieldError is a single invalid request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Kind is a class of failure with a fixed status, type URI and title
type Kind int

const (
	Validation Kind = iota
	NotFound
	Unauthorized
	Conflict
	RateLimited
	Internal

	// EventAccessDenied is a valid token presented for a different event
	EventAccessDenied
	// UnknownSender is a chat message whose sender is not on the event's expense list
	UnknownSender
)

type kindInfo struct {
	status int
	slug   string
	title  string
}

var kinds = [...]kindInfo{
	Validation:        {http.StatusBadRequest, "validation", "Validation Error"},
	NotFound:          {http.StatusNotFound, "not-found", "Not Found"},
	Unauthorized:      {http.StatusUnauthorized, "unauthorized", "Unauthorized"},
	Conflict:          {http.StatusConflict, "conflict", "Conflict"},
	RateLimited:       {http.StatusTooManyRequests, "rate-limit", "Rate Limit Exceeded"},
	Internal:          {http.StatusInternalServerError, "internal", "Internal Server Error"},
	EventAccessDenied: {http.StatusForbidden, "event-access-denied", "Event Access Denied"},
	UnknownSender:     {http.StatusForbidden, "unknown-sender", "Sender Not In Event"},
}

// Status returns the HTTP status for the kind
func (k Kind) Status() int {
	return k.lookup().status
}

// Type returns the problem type URI for the kind
func (k Kind) Type() string {
	return typeBase + k.lookup().slug
}

// Title returns the short human-readable summary for the kind
func (k Kind) Title() string {
	return k.lookup().title
}

func (k Kind) lookup() kindInfo {
	if k < 0 || int(k) >= len(kinds) {
		return kinds[Internal]
	}
	return kinds[k]
}

// New builds the problem body for a request
func New(c echo.Context, kind Kind, detail string, fieldErrors ...FieldError) Details {
	return Details{
		Type:     kind.Type(),
		Title:    kind.Title(),
		Status:   kind.Status(),
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   fieldErrors,
	}
}

// Write sends a problem response of the given kind
func Write(c echo.Context, kind Kind, detail string, fieldErrors ...FieldError) error {
	return c.JSON(kind.Status(), New(c, kind, detail, fieldErrors...))
}

// WriteRateLimited sends a 429 carrying the wait in both the Retry-After header and the body
func WriteRateLimited(c echo.Context, retryAfterSeconds int) error {
	retryAfterSeconds = max(retryAfterSeconds, 1)
	c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))

	body := New(c, RateLimited, "Too many requests. Please retry after "+strconv.Itoa(retryAfterSeconds)+" seconds.")
	body.RetryAfter = retryAfterSeconds
	return c.JSON(RateLimited.Status(), body)
}
