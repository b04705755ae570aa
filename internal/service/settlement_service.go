package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxLedgerCents bounds a single balance so that cent arithmetic during matching cannot overflow
const maxLedgerCents = math.MaxInt64 / 4

// ledgerEntry is a participant's working balance in integer cents.
// remainder is what rounding to cents dropped from the exact balance.
type ledgerEntry struct {
	name      string
	email     string
	cents     int64
	remainder decimal.Decimal
}

// SettlementService computes peer-to-peer settlements for shared expenses
type SettlementService struct {
	eventPublisher websocket.EventPublisher
}

// NewSettlementService creates a new SettlementService
func NewSettlementService() *SettlementService {
	return &SettlementService{}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *SettlementService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// Calculate settles the given participants.
// A fault inside the engine is reported as domain.ErrInternalError.
func (s *SettlementService) Calculate(participants []domain.Participant) (result *domain.SettlementResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("participant_count", len(participants)).Msg("Settlement engine panicked")
			result, err = nil, fmt.Errorf("%w: %v", domain.ErrInternalError, r)
		}
	}()
	return Settle(participants)
}

// CalculateForEvent settles the given participants and notifies everyone connected to the event
func (s *SettlementService) CalculateForEvent(eventID string, participants []domain.Participant) (*domain.SettlementResult, error) {
	result, err := s.Calculate(participants)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(eventID, websocket.SettlementCalculated(result))
	}

	return result, nil
}

// Settle computes the per-person share of a group expense and a greedy set of payments
// from debtors to creditors that brings every balance within domain.SettlementTolerance() of zero.
//
// Balances are rounded to cents half away from zero and matched in integer cents.
// Cents lost or gained by rounding are handed back one at a time by largest remainder,
// so the cent balances always sum to zero.
// Creditors are matched largest first and debtors most negative first; ties keep input order.
// The result never has more than len(participants)-1 transactions.
func Settle(participants []domain.Participant) (*domain.SettlementResult, error) {
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, domain.ErrNoParticipants)
	}

	// 1. Total and share
	total := decimal.Zero
	for _, p := range participants {
		total = total.Add(p.AmountPaid)
	}
	share := total.Div(decimal.NewFromInt(int64(len(participants))))

	// 2. Balances in cents
	ledger := make([]ledgerEntry, 0, len(participants))
	rounded := decimal.Zero
	for _, p := range participants {
		exact := p.AmountPaid.Sub(share)
		balance := exact.Round(2)
		if balance.Shift(2).Abs().GreaterThan(decimal.NewFromInt(maxLedgerCents)) {
			return nil, fmt.Errorf("%w: balance for %s out of range", domain.ErrInternalError, p.Email)
		}

		rounded = rounded.Add(balance)
		ledger = append(ledger, ledgerEntry{
			name:      p.Name,
			email:     p.Email,
			cents:     balance.Shift(2).IntPart(),
			remainder: exact.Sub(balance),
		})
	}
	distributeResidue(ledger, rounded.Neg().Shift(2).IntPart())

	// 3. Partition into creditors and debtors
	tolerance := domain.SettlementToleranceCents
	creditors := make([]ledgerEntry, 0, len(ledger))
	debtors := make([]ledgerEntry, 0, len(ledger))
	for _, entry := range ledger {
		switch {
		case entry.cents > tolerance:
			creditors = append(creditors, entry)
		case entry.cents < -tolerance:
			debtors = append(debtors, entry)
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].cents > creditors[j].cents })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].cents < debtors[j].cents })

	// 4. Two-cursor greedy matching
	transactions := make([]domain.Transaction, 0)
	i, j := 0, 0
	for i < len(creditors) && j < len(debtors) {
		creditor := &creditors[i]
		debtor := &debtors[j]

		amount := min(creditor.cents, -debtor.cents)
		if amount > tolerance {
			transactions = append(transactions, domain.Transaction{
				FromName:  debtor.name,
				FromEmail: debtor.email,
				ToName:    creditor.name,
				ToEmail:   creditor.email,
				Amount:    decimal.New(amount, -2),
			})
		}

		creditor.cents -= amount
		debtor.cents += amount

		if creditor.cents < tolerance {
			i++
		}
		if -debtor.cents < tolerance {
			j++
		}
	}

	// 5. Summary for every participant from the balanced ledger, last duplicate email wins
	summary := make(map[string]*domain.ParticipantSummary, len(participants))
	for i, p := range participants {
		cents := ledger[i].cents
		summary[p.Email] = &domain.ParticipantSummary{
			Name:          p.Name,
			AmountPaid:    p.AmountPaid,
			ShouldPay:     decimal.New(max(0, -cents), -2),
			ShouldReceive: decimal.New(max(0, cents), -2),
		}
	}

	return &domain.SettlementResult{
		TotalExpense:   total.Round(2),
		PerPersonShare: share.Round(2),
		Transactions:   transactions,
		Summary:        summary,
	}, nil
}

// distributeResidue spreads residue cents over the ledger one cent per entry.
// A positive residue goes to the entries that rounding shortchanged most, a negative
// residue is taken from the entries rounding favoured most. Ties keep input order.
func distributeResidue(ledger []ledgerEntry, residue int64) {
	if residue == 0 || len(ledger) == 0 {
		return
	}

	order := make([]int, len(ledger))
	for i := range order {
		order[i] = i
	}
	step := int64(1)
	if residue < 0 {
		step, residue = -1, -residue
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := ledger[order[a]].remainder, ledger[order[b]].remainder
		if step > 0 {
			return ra.GreaterThan(rb)
		}
		return ra.LessThan(rb)
	})

	for k := int64(0); k < residue; k++ {
		ledger[order[k%int64(len(order))]].cents += step
	}
}
