package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultNotificationConcurrency bounds simultaneous deliveries
const DefaultNotificationConcurrency = 4

// NotificationService emails each participant their part of a settlement
type NotificationService struct {
	mailer      domain.Mailer
	concurrency int
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(mailer domain.Mailer) *NotificationService {
	return &NotificationService{
		mailer:      mailer,
		concurrency: DefaultNotificationConcurrency,
	}
}

// Notify renders and delivers one email per summary entry.
// A failed delivery is reported in its entry and does not stop the others.
func (s *NotificationService) Notify(ctx context.Context, result *domain.SettlementResult) (*domain.NotificationReport, error) {
	if result == nil || result.Summary == nil {
		return nil, domain.ErrInvalidInput
	}

	emails := make([]string, 0, len(result.Summary))
	for email, info := range result.Summary {
		if info != nil {
			emails = append(emails, email)
		}
	}
	sort.Strings(emails)

	notifications := make([]domain.NotificationResult, len(emails))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, email := range emails {
		info := result.Summary[email]
		g.Go(func() error {
			sent := true
			err := s.mailer.Send(gctx, domain.Email{
				To:      email,
				Subject: domain.NotificationSubject,
				Body:    ComposeNotification(email, info, result),
			})
			if err != nil {
				sent = false
				log.Error().Err(err).Str("email", email).Msg("Failed to send settlement email")
			}

			notifications[i] = domain.NotificationResult{
				Email:   email,
				Name:    info.Name,
				Subject: domain.NotificationSubject,
				Sent:    sent,
			}
			return nil
		})
	}
	// Workers never return errors, Wait only synchronizes
	_ = g.Wait()

	sentCount := 0
	for _, n := range notifications {
		if n.Sent {
			sentCount++
		}
	}

	return &domain.NotificationReport{
		Total:         len(notifications),
		Sent:          sentCount,
		Notifications: notifications,
	}, nil
}

// ComposeNotification renders the plain-text settlement summary for one participant
func ComposeNotification(email string, info *domain.ParticipantSummary, result *domain.SettlementResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", info.Name)
	b.WriteString("Here's your expense settlement summary:\n\n")
	fmt.Fprintf(&b, "Total Event Expense: %s\n", money(result.TotalExpense))
	fmt.Fprintf(&b, "Your Share: %s\n", money(result.PerPersonShare))
	fmt.Fprintf(&b, "Amount You Paid: %s\n\n", money(info.AmountPaid))

	switch {
	case info.ShouldPay.IsPositive():
		fmt.Fprintf(&b, "You need to pay a total of %s:\n\n", money(info.ShouldPay))
		for _, tx := range result.PaymentsFrom(email) {
			fmt.Fprintf(&b, "• Pay %s to %s (%s)\n", money(tx.Amount), tx.ToName, tx.ToEmail)
		}
	case info.ShouldReceive.IsPositive():
		fmt.Fprintf(&b, "You should receive a total of %s:\n\n", money(info.ShouldReceive))
		for _, tx := range result.ReceiptsTo(email) {
			fmt.Fprintf(&b, "• Receive %s from %s (%s)\n", money(tx.Amount), tx.FromName, tx.FromEmail)
		}
	default:
		b.WriteString("You're all settled up! Your payment matches your fair share.\n")
	}

	b.WriteString("\nThank you for using Expense Splitter!")
	return b.String()
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
