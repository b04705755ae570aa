package domain

import "context"

// NotificationSubject is the subject line of every settlement email
const NotificationSubject = "Your Expense Settlement Summary"

// Email is a rendered message ready for delivery
type Email struct {
	To      string
	Subject string
	Body    string
}

// NotificationResult reports the delivery outcome for one participant
type NotificationResult struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Sent    bool   `json:"sent"`
}

// NotificationReport aggregates delivery outcomes for a settlement
type NotificationReport struct {
	Total         int                  `json:"total"`
	Sent          int                  `json:"sent"`
	Notifications []NotificationResult `json:"notifications"`
}

// Mailer delivers rendered emails
type Mailer interface {
	Send(ctx context.Context, email Email) error
}
