package domain

import (
	"github.com/shopspring/decimal"
)

// SettlementToleranceCents is the absolute balance, in cents, treated as settled.
// Balances inside [-1, 1] cents never produce a transaction.
const SettlementToleranceCents int64 = 1

// SettlementTolerance returns SettlementToleranceCents as a currency amount
func SettlementTolerance() decimal.Decimal {
	return decimal.New(SettlementToleranceCents, -2)
}

// DefaultEventName is used when a settlement request does not name its event
const DefaultEventName = "Shared Expense"

// Participant is one contributor to a shared expense
type Participant struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
}

// Transaction is a single payment from a debtor to a creditor
type Transaction struct {
	FromName  string          `json:"from_name"`
	FromEmail string          `json:"from_email"`
	ToName    string          `json:"to_name"`
	ToEmail   string          `json:"to_email"`
	Amount    decimal.Decimal `json:"amount"`
}

// ParticipantSummary describes how a participant stands against the per-person share
type ParticipantSummary struct {
	Name          string          `json:"name"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	ShouldPay     decimal.Decimal `json:"should_pay"`
	ShouldReceive decimal.Decimal `json:"should_receive"`
}

// SettlementResult is the full outcome of settling a group expense
type SettlementResult struct {
	TotalExpense   decimal.Decimal                `json:"total_expense"`
	PerPersonShare decimal.Decimal                `json:"per_person_share"`
	Transactions   []Transaction                  `json:"transactions"`
	Summary        map[string]*ParticipantSummary `json:"summary"`
}

// PaymentsFrom returns the transactions paid by the given email, in settlement order
func (r *SettlementResult) PaymentsFrom(email string) []Transaction {
	var out []Transaction
	for _, tx := range r.Transactions {
		if tx.FromEmail == email {
			out = append(out, tx)
		}
	}
	return out
}

// ReceiptsTo returns the transactions received by the given email, in settlement order
func (r *SettlementResult) ReceiptsTo(email string) []Transaction {
	var out []Transaction
	for _, tx := range r.Transactions {
		if tx.ToEmail == email {
			out = append(out, tx)
		}
	}
	return out
}
