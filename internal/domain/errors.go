package domain

import "errors"

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternalError = errors.New("internal error")
)

// Settlement errors
var (
	ErrNoParticipants = errors.New("no participants provided")
)

// Event errors
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventNameTaken     = errors.New("event name already taken")
	ErrEventNameRequired  = errors.New("event name is required")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidCredentials = errors.New("invalid event password")
)

// Chat errors
var (
	ErrSenderRequired  = errors.New("sender_name is required")
	ErrTextRequired    = errors.New("text is required")
	ErrMessageTooLong  = errors.New("message too long")
	ErrUnknownSender   = errors.New("unknown sender")
	ErrEventIDRequired = errors.New("event id is required")
)

// Validation constants
const (
	MaxEventNameLength = 255
	MinPasswordLength  = 3
	MaxMessageLength   = 1000
)
