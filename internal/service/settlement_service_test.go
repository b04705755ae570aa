package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dafibh/evenup/evenup-backend/internal/domain"
	"github.com/dafibh/evenup/evenup-backend/internal/testutil"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func participant(name string, paid string) domain.Participant {
	return domain.Participant{
		Name:       name,
		Email:      fmt.Sprintf("%s@example.com", name),
		AmountPaid: decimal.RequireFromString(paid),
	}
}

// assertSettles checks conservation, positivity and closure for a settlement result
func assertSettles(t *testing.T, participants []domain.Participant, result *domain.SettlementResult) {
	t.Helper()

	paidIn := make(map[string]decimal.Decimal)
	received := make(map[string]decimal.Decimal)
	txTotal := decimal.Zero
	for _, tx := range result.Transactions {
		assert.True(t, tx.Amount.IsPositive(), "transaction amount must be positive: %s", tx.Amount)
		assert.NotEqual(t, tx.FromEmail, tx.ToEmail, "participant cannot pay themselves")
		paidIn[tx.FromEmail] = paidIn[tx.FromEmail].Add(tx.Amount)
		received[tx.ToEmail] = received[tx.ToEmail].Add(tx.Amount)
		txTotal = txTotal.Add(tx.Amount)
	}

	tolerance := domain.SettlementTolerance()
	shouldPay := decimal.Zero
	shouldReceive := decimal.Zero
	for email, s := range result.Summary {
		shouldPay = shouldPay.Add(s.ShouldPay)
		shouldReceive = shouldReceive.Add(s.ShouldReceive)

		assert.True(t, paidIn[email].Sub(s.ShouldPay).Abs().LessThanOrEqual(tolerance),
			"%s paid %s, should pay %s", email, paidIn[email], s.ShouldPay)
		assert.True(t, received[email].Sub(s.ShouldReceive).Abs().LessThanOrEqual(tolerance),
			"%s received %s, should receive %s", email, received[email], s.ShouldReceive)
	}

	assert.True(t, txTotal.Sub(shouldPay).Abs().LessThanOrEqual(tolerance), "transactions %s vs should_pay %s", txTotal, shouldPay)
	assert.True(t, txTotal.Sub(shouldReceive).Abs().LessThanOrEqual(tolerance), "transactions %s vs should_receive %s", txTotal, shouldReceive)

	for _, p := range participants {
		effective := p.AmountPaid.Add(paidIn[p.Email]).Sub(received[p.Email])
		assert.True(t, effective.Sub(result.PerPersonShare).Abs().LessThanOrEqual(tolerance),
			"%s effective contribution %s, share %s", p.Email, effective, result.PerPersonShare)
	}

	assert.LessOrEqual(t, len(result.Transactions), max(len(participants)-1, 0))
}

func TestSettle_EmptyParticipants(t *testing.T) {
	result, err := Settle(nil)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.True(t, errors.Is(err, domain.ErrNoParticipants))
	assert.False(t, errors.Is(err, domain.ErrInternalError))
}

func TestSettle_AllEqual(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "10"),
		participant("B", "10"),
		participant("C", "10"),
	}

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, "30.00", result.TotalExpense.StringFixed(2))
	assert.Equal(t, "10.00", result.PerPersonShare.StringFixed(2))
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Summary, 3)
	for _, s := range result.Summary {
		assert.True(t, s.ShouldPay.IsZero())
		assert.True(t, s.ShouldReceive.IsZero())
	}
}

func TestSettle_TwoParty(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "100"),
		participant("B", "0"),
	}

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, "50.00", result.PerPersonShare.StringFixed(2))
	require.Len(t, result.Transactions, 1)
	tx := result.Transactions[0]
	assert.Equal(t, "B", tx.FromName)
	assert.Equal(t, "B@example.com", tx.FromEmail)
	assert.Equal(t, "A", tx.ToName)
	assert.Equal(t, "A@example.com", tx.ToEmail)
	assert.Equal(t, "50.00", tx.Amount.StringFixed(2))
	assertSettles(t, participants, result)
}

func TestSettle_ThreePartyUneven(t *testing.T) {
	participants := []domain.Participant{
		participant("Alice", "200"),
		participant("Bob", "50"),
		participant("Charlie", "50"),
	}

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, "300.00", result.TotalExpense.StringFixed(2))
	assert.Equal(t, "100.00", result.PerPersonShare.StringFixed(2))
	require.Len(t, result.Transactions, 2)

	// Equal debts keep input order
	assert.Equal(t, "Bob", result.Transactions[0].FromName)
	assert.Equal(t, "Charlie", result.Transactions[1].FromName)
	for _, tx := range result.Transactions {
		assert.Equal(t, "Alice", tx.ToName)
		assert.Equal(t, "50.00", tx.Amount.StringFixed(2))
	}

	alice := result.Summary["Alice@example.com"]
	require.NotNil(t, alice)
	assert.Equal(t, "100.00", alice.ShouldReceive.StringFixed(2))
	assert.True(t, alice.ShouldPay.IsZero())
	assert.Equal(t, "50.00", result.Summary["Bob@example.com"].ShouldPay.StringFixed(2))
	assertSettles(t, participants, result)
}

func TestSettle_SingleParticipant(t *testing.T) {
	participants := []domain.Participant{participant("Solo", "42.50")}

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, "42.50", result.TotalExpense.StringFixed(2))
	assert.Equal(t, "42.50", result.PerPersonShare.StringFixed(2))
	assert.Empty(t, result.Transactions)
	require.Len(t, result.Summary, 1)
}

func TestSettle_LargestPairsFirst(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "10"),
		participant("B", "90"),
		participant("C", "0"),
		participant("D", "60"),
		participant("E", "40"),
	}
	// total 200, share 40: B +50, D +20, C -40, A -30, E 0

	result, err := Settle(participants)

	require.NoError(t, err)
	require.Len(t, result.Transactions, 3)

	assert.Equal(t, "C", result.Transactions[0].FromName)
	assert.Equal(t, "B", result.Transactions[0].ToName)
	assert.Equal(t, "40.00", result.Transactions[0].Amount.StringFixed(2))

	assert.Equal(t, "A", result.Transactions[1].FromName)
	assert.Equal(t, "B", result.Transactions[1].ToName)
	assert.Equal(t, "10.00", result.Transactions[1].Amount.StringFixed(2))

	assert.Equal(t, "A", result.Transactions[2].FromName)
	assert.Equal(t, "D", result.Transactions[2].ToName)
	assert.Equal(t, "20.00", result.Transactions[2].Amount.StringFixed(2))

	for _, tx := range result.Transactions {
		assert.NotEqual(t, "E", tx.FromName)
		assert.NotEqual(t, "E", tx.ToName)
	}
	assertSettles(t, participants, result)
}

func TestSettle_RepeatingShare(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "100"),
		participant("B", "0"),
		participant("C", "0"),
	}

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, "33.33", result.PerPersonShare.StringFixed(2))
	require.Len(t, result.Transactions, 2)
	assert.Equal(t, "33.33", result.Transactions[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", result.Transactions[1].Amount.StringFixed(2))
	// the cent lost to rounding comes off the first of three equal remainders
	assert.Equal(t, "66.66", result.Summary["A@example.com"].ShouldReceive.StringFixed(2))
	assert.Equal(t, "33.33", result.Summary["B@example.com"].ShouldPay.StringFixed(2))
	assertSettles(t, participants, result)
}

func TestSettle_RoundingBoundary(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "10.00"),
		participant("B", "0.01"),
	}
	// share is exactly 5.005, every derived amount sits on a half-cent boundary

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, "10.01", result.TotalExpense.StringFixed(2))
	assert.Equal(t, "5.01", result.PerPersonShare.StringFixed(2))
	assert.Equal(t, "5.00", result.Summary["A@example.com"].ShouldReceive.StringFixed(2))
	assert.Equal(t, "5.00", result.Summary["B@example.com"].ShouldPay.StringFixed(2))
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "5.00", result.Transactions[0].Amount.StringFixed(2))
}

func TestSettle_WithinToleranceIsSettled(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "10.01"),
		participant("B", "9.99"),
	}

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
	assert.Equal(t, "0.01", result.Summary["A@example.com"].ShouldReceive.StringFixed(2))
	assert.Equal(t, "0.01", result.Summary["B@example.com"].ShouldPay.StringFixed(2))
}

func TestSettle_DuplicateEmailLastWins(t *testing.T) {
	participants := []domain.Participant{
		{Name: "First", Email: "same@example.com", AmountPaid: decimal.NewFromInt(30)},
		{Name: "Second", Email: "same@example.com", AmountPaid: decimal.NewFromInt(10)},
	}

	result, err := Settle(participants)

	require.NoError(t, err)
	require.Len(t, result.Summary, 1)
	assert.Equal(t, "Second", result.Summary["same@example.com"].Name)
	assert.Equal(t, "10.00", result.Summary["same@example.com"].ShouldPay.StringFixed(2))
}

func TestSettle_Deterministic(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "12.34"),
		participant("B", "0"),
		participant("C", "77.10"),
		participant("D", "5.55"),
		participant("E", "5.55"),
		participant("F", "31"),
	}

	first, err := Settle(participants)
	require.NoError(t, err)
	second, err := Settle(participants)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.Transactions)
}

func TestSettle_DoesNotMutateInput(t *testing.T) {
	participants := []domain.Participant{
		participant("A", "100"),
		participant("B", "0"),
	}
	original := make([]domain.Participant, len(participants))
	copy(original, participants)

	_, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, original, participants)
}

func TestSettle_ConservationAcrossGroupSizes(t *testing.T) {
	for n := 1; n <= 12; n++ {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			participants := make([]domain.Participant, 0, n)
			for k := 0; k < n; k++ {
				participants = append(participants, domain.Participant{
					Name:       fmt.Sprintf("P%d", k),
					Email:      fmt.Sprintf("p%d@example.com", k),
					AmountPaid: decimal.New(int64((k*3779)%10007), -2),
				})
			}

			result, err := Settle(participants)

			require.NoError(t, err)
			require.Len(t, result.Summary, n)
			assertSettles(t, participants, result)
		})
	}
}

func TestSettle_UnevenSplitBalancesExactly(t *testing.T) {
	participants := []domain.Participant{participant("A", "100")}
	for _, name := range []string{"B", "C", "D", "E", "F", "G"} {
		participants = append(participants, participant(name, "0"))
	}

	result, err := Settle(participants)

	require.NoError(t, err)
	assert.Equal(t, "14.29", result.PerPersonShare.StringFixed(2))
	require.Len(t, result.Transactions, 6)

	txTotal := decimal.Zero
	shouldPay := decimal.Zero
	for _, tx := range result.Transactions {
		assert.Equal(t, "A@example.com", tx.ToEmail)
		txTotal = txTotal.Add(tx.Amount)
	}
	for _, s := range result.Summary {
		shouldPay = shouldPay.Add(s.ShouldPay)
	}

	assert.Equal(t, "85.72", txTotal.StringFixed(2))
	assert.True(t, txTotal.Equal(shouldPay), "transactions %s vs should_pay %s", txTotal, shouldPay)
	assert.True(t, txTotal.Equal(result.Summary["A@example.com"].ShouldReceive))
	for _, name := range []string{"B", "C", "D", "E", "F", "G"} {
		email := name + "@example.com"
		payments := result.PaymentsFrom(email)
		require.Len(t, payments, 1, email)
		assert.True(t, payments[0].Amount.Equal(result.Summary[email].ShouldPay), email)
		assert.True(t, payments[0].Amount.Sub(result.PerPersonShare).Abs().LessThanOrEqual(domain.SettlementTolerance()), email)
	}
	assertSettles(t, participants, result)
}

func TestSettle_SummaryBalancesForAwkwardShares(t *testing.T) {
	cases := [][]string{
		{"100", "0", "0"},
		{"10", "0", "0", "0", "0", "0"},
		{"0.05", "0", "0"},
		{"1", "1", "1", "0", "0", "0", "0"},
		{"12.34", "0", "77.10", "5.55", "5.55", "31"},
	}

	for _, amounts := range cases {
		t.Run(fmt.Sprint(amounts), func(t *testing.T) {
			participants := make([]domain.Participant, 0, len(amounts))
			for k, paid := range amounts {
				participants = append(participants, participant(fmt.Sprintf("P%d", k), paid))
			}

			result, err := Settle(participants)
			require.NoError(t, err)

			shouldPay := decimal.Zero
			shouldReceive := decimal.Zero
			for _, s := range result.Summary {
				shouldPay = shouldPay.Add(s.ShouldPay)
				shouldReceive = shouldReceive.Add(s.ShouldReceive)
			}
			assert.True(t, shouldPay.Equal(shouldReceive), "should_pay %s vs should_receive %s", shouldPay, shouldReceive)
			assertSettles(t, participants, result)
		})
	}
}

func TestSettle_BalanceOutOfRange(t *testing.T) {
	huge := decimal.New(1, 30)
	participants := []domain.Participant{
		{Name: "A", Email: "a@example.com", AmountPaid: huge},
		{Name: "B", Email: "b@example.com", AmountPaid: decimal.Zero},
	}

	result, err := Settle(participants)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrInternalError))
	assert.False(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSettlementService_CalculateForEvent_PublishesResult(t *testing.T) {
	publisher := testutil.NewMockEventPublisher()
	svc := NewSettlementService()
	svc.SetEventPublisher(publisher)

	result, err := svc.CalculateForEvent("evt_1", []domain.Participant{
		participant("A", "100"),
		participant("B", "0"),
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	events := publisher.EventsFor("evt_1")
	require.Len(t, events, 1)
	assert.Equal(t, "settlement.calculated", events[0].Type)
	assert.Equal(t, websocket.EntityTypeSettlement, events[0].Entity)
}

func TestSettlementService_CalculateForEvent_NoPublishOnError(t *testing.T) {
	publisher := testutil.NewMockEventPublisher()
	svc := NewSettlementService()
	svc.SetEventPublisher(publisher)

	_, err := svc.CalculateForEvent("evt_1", nil)

	require.ErrorIs(t, err, domain.ErrNoParticipants)
	assert.Empty(t, publisher.EventsFor("evt_1"))
}
