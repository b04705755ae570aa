package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dafibh/evenup/evenup-backend/internal/service"
	"github.com/dafibh/evenup/evenup-backend/internal/testutil"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestEventHandler() (*EventHandler, *testutil.MockEventPublisher) {
	publisher := testutil.NewMockEventPublisher()
	settlementService := service.NewSettlementService()
	settlementService.SetEventPublisher(publisher)

	eventService := service.NewEventService(testutil.NewMockEventRepository(), testutil.NewMockTokenIssuer(), settlementService)
	eventService.SetHashCost(bcrypt.MinCost)
	eventService.SetEventPublisher(publisher)

	return NewEventHandler(eventService), publisher
}

// createTestEvent creates an event through the handler and returns its response
func createTestEvent(t *testing.T, h *EventHandler, name, password string) EventResponse {
	t.Helper()

	c, rec := newRequestContext(t, http.MethodPost, "/api/v1/events", EventCredentialsRequest{Name: name, Password: password})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestEventHandler_Create_Success(t *testing.T) {
	h, _ := newTestEventHandler()

	resp := createTestEvent(t, h, "  Ski Trip ", "secret")

	assert.Contains(t, resp.ID, "evt_")
	assert.Equal(t, "Ski Trip", resp.Name)
	assert.Equal(t, "token-"+resp.ID, resp.Token)
	assert.NotEmpty(t, resp.CreatedAt)
	assert.Empty(t, resp.Participants)
}

func TestEventHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		req        EventCredentialsRequest
		wantStatus int
	}{
		{"missing name", EventCredentialsRequest{Name: " ", Password: "secret"}, http.StatusBadRequest},
		{"short password", EventCredentialsRequest{Name: "Trip", Password: "ab"}, http.StatusBadRequest},
		{"duplicate name", EventCredentialsRequest{Name: "Existing", Password: "secret"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestEventHandler()
			createTestEvent(t, h, "Existing", "secret")

			c, rec := newRequestContext(t, http.MethodPost, "/api/v1/events", tt.req)
			require.NoError(t, h.Create(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestEventHandler_Join(t *testing.T) {
	h, _ := newTestEventHandler()
	created := createTestEvent(t, h, "Trip", "secret")

	t.Run("success", func(t *testing.T) {
		c, rec := newRequestContext(t, http.MethodPost, "/api/v1/events/join", EventCredentialsRequest{Name: "Trip", Password: "secret"})
		require.NoError(t, h.Join(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp EventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, created.ID, resp.ID)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		c, rec := newRequestContext(t, http.MethodPost, "/api/v1/events/join", EventCredentialsRequest{Name: "Trip", Password: "nope!"})
		require.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown event", func(t *testing.T) {
		c, rec := newRequestContext(t, http.MethodPost, "/api/v1/events/join", EventCredentialsRequest{Name: "Other", Password: "secret"})
		require.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEventHandler_Check(t *testing.T) {
	h, _ := newTestEventHandler()
	createTestEvent(t, h, "Trip", "secret")

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantExists bool
	}{
		{"existing", "/api/v1/events/check?name=Trip", http.StatusOK, true},
		{"missing", "/api/v1/events/check?name=Nope", http.StatusOK, false},
		{"no name", "/api/v1/events/check", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newRequestContext(t, http.MethodGet, tt.path, nil)
			require.NoError(t, h.Check(c))
			require.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				var resp EventExistsResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantExists, resp.Exists)
			}
		})
	}
}

func TestEventHandler_Get(t *testing.T) {
	h, _ := newTestEventHandler()
	created := createTestEvent(t, h, "Trip", "secret")

	c, rec := newRequestContext(t, http.MethodGet, "/api/v1/events/"+created.ID, nil)
	withEventID(c, created.ID)
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Trip", resp.Name)
	assert.Empty(t, resp.Token)
}

func TestEventHandler_Get_RequiresAccess(t *testing.T) {
	h, _ := newTestEventHandler()

	c, rec := newRequestContext(t, http.MethodGet, "/api/v1/events/evt_1", nil)
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventHandler_UpdateAndSettle(t *testing.T) {
	h, publisher := newTestEventHandler()
	created := createTestEvent(t, h, "Trip", "secret")

	c, rec := newJSONContext(http.MethodPut, "/api/v1/events/"+created.ID, `{
		"participants": [
			{"name": "Alice", "email": "alice@example.com", "amount_paid": 120},
			{"name": "Bob", "email": "bob@example.com", "amount_paid": 30},
			{"name": "Charlie", "email": "charlie@example.com", "amount_paid": 0}
		],
		"expenses": [
			{"description": "Cabin", "amount": 120, "paid_by": "Alice"},
			{"description": "Groceries", "amount": 30, "paid_by": "Bob"}
		]
	}`)
	withEventID(c, created.ID)
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Len(t, updated.Participants, 3)
	require.Len(t, updated.Expenses, 2)
	assert.Contains(t, updated.Expenses[0].ID, "exp_")
	assert.Equal(t, 120.0, updated.Expenses[0].Amount)

	c, rec = newRequestContext(t, http.MethodPost, "/api/v1/events/"+created.ID+"/settlement", nil)
	withEventID(c, created.ID)
	require.NoError(t, h.Settle(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var settlement SettlementResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settlement))
	assert.Equal(t, "Trip", settlement.EventName)
	assert.Equal(t, 150.0, settlement.TotalExpense)
	assert.Equal(t, 50.0, settlement.PerPersonShare)
	require.Len(t, settlement.Transactions, 2)
	assert.Equal(t, "Charlie", settlement.Transactions[0].FromName)
	assert.Equal(t, 50.0, settlement.Transactions[0].Amount)
	assert.Equal(t, "Bob", settlement.Transactions[1].FromName)
	assert.Equal(t, 20.0, settlement.Transactions[1].Amount)

	events := publisher.EventsFor(created.ID)
	require.Len(t, events, 2)
	assert.Equal(t, websocket.EntityTypeEvent, events[0].Entity)
	assert.Equal(t, websocket.EntityTypeSettlement, events[1].Entity)
}

func TestEventHandler_Update_ValidationError(t *testing.T) {
	h, _ := newTestEventHandler()
	created := createTestEvent(t, h, "Trip", "secret")

	c, rec := newJSONContext(http.MethodPut, "/api/v1/events/"+created.ID, `{
		"expenses": [{"description": "", "amount": -5, "paid_by": "Alice"}]
	}`)
	withEventID(c, created.ID)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decodeProblem(t, rec).Errors, 2)
}

func TestEventHandler_Settle_NoParticipants(t *testing.T) {
	h, _ := newTestEventHandler()
	created := createTestEvent(t, h, "Trip", "secret")

	c, rec := newRequestContext(t, http.MethodPost, "/api/v1/events/"+created.ID+"/settlement", nil)
	withEventID(c, created.ID)
	require.NoError(t, h.Settle(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no participants provided", decodeProblem(t, rec).Detail)
}
