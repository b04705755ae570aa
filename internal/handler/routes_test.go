package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/evenup/evenup-backend/internal/middleware"
	"github.com/dafibh/evenup/evenup-backend/internal/service"
	"github.com/dafibh/evenup/evenup-backend/internal/testutil"
	"github.com/dafibh/evenup/evenup-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newTestServer wires every route against in-memory collaborators
func newTestServer(t *testing.T) (*echo.Echo, *testutil.MockTokenValidator) {
	t.Helper()
	e, validator, _ := newTestServerWithHub(t)
	return e, validator
}

func newTestServerWithHub(t *testing.T) (*echo.Echo, *testutil.MockTokenValidator, *websocket.Hub) {
	t.Helper()

	hub := websocket.NewHub()
	validator := testutil.NewMockTokenValidator()

	settlementService := service.NewSettlementService()
	eventService := service.NewEventService(testutil.NewMockEventRepository(), testutil.NewMockTokenIssuer(), settlementService)
	eventService.SetHashCost(bcrypt.MinCost)

	messageService := service.NewMessageService(testutil.NewMockMessageRepository())
	messageService.SetEventPublisher(hub)

	rateLimiter := middleware.NewRateLimiterWithConfig(60, 2)
	t.Cleanup(rateLimiter.Stop)

	e := echo.New()
	e.IPExtractor = middleware.NewIPExtractor(nil)
	RegisterRoutes(e, middleware.NewEventAuthMiddleware(validator), rateLimiter, Handlers{
		Settlement:   NewSettlementHandler(settlementService),
		Event:        NewEventHandler(eventService),
		Message:      NewMessageHandler(messageService),
		Notification: NewNotificationHandler(service.NewNotificationService(testutil.NewMockMailer())),
		WebSocket:    NewWebSocketHandler(hub, validator, testAllowedOrigins),
	})

	return e, validator, hub
}

func serve(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_ServiceEndpoints(t *testing.T) {
	e, _ := newTestServer(t)

	rec := serve(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = serve(e, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/settlements/calculate")
}

func TestRoutes_CalculateAndLegacyAlias(t *testing.T) {
	e, _ := newTestServer(t)
	body := `{"participants":[{"name":"Alice","email":"alice@example.com","amount_paid":50},{"name":"Bob","email":"bob@example.com","amount_paid":50}]}`

	for _, path := range []string{"/api/v1/settlements/calculate", "/calculate-settlement"} {
		rec := serve(e, http.MethodPost, path, body, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp SettlementResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Empty(t, resp.Transactions, path)
		assert.Equal(t, 50.0, resp.PerPersonShare, path)
	}
}

func TestRoutes_EventAccess(t *testing.T) {
	e, validator := newTestServer(t)

	rec := serve(e, http.MethodPost, "/api/v1/events", `{"name":"Trip","password":"secret"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	validator.Tokens[created.Token] = created.ID
	validator.Tokens["other-token"] = "evt_other"

	// No token
	rec = serve(e, http.MethodGet, "/api/v1/events/"+created.ID, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token for another event
	rec = serve(e, http.MethodGet, "/api/v1/events/"+created.ID, "", "other-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Matching token
	rec = serve(e, http.MethodGet, "/api/v1/events/"+created.ID, "", created.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Name check is public
	rec = serve(e, http.MethodGet, "/api/v1/events/check?name=Trip", "", "")
	assert.JSONEq(t, `{"exists":true}`, rec.Body.String())
}

func TestRoutes_MessagesAreRateLimited(t *testing.T) {
	e, _ := newTestServer(t)
	body := `{"sender_name":"Alice","text":"hello"}`

	for i := 0; i < 2; i++ {
		rec := serve(e, http.MethodPost, "/api/v1/events/evt_1/messages", body, "")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := serve(e, http.MethodPost, "/api/v1/events/evt_1/messages", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited
	rec = serve(e, http.MethodGet, "/api/v1/events/evt_1/messages", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_JoinRateLimitIgnoresForwardedFor(t *testing.T) {
	e, _ := newTestServer(t)
	body := `{"name":"Missing","password":"guess"}`

	codes := make([]int, 0, 10)
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/events/join", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("10.0.0.%d", i))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound}, codes[:2])
	for i, code := range codes[2:] {
		assert.Equal(t, http.StatusTooManyRequests, code, "attempt %d", i+3)
	}
}

func TestRoutes_WebSocketSkipsOwnMessages(t *testing.T) {
	e, validator, hub := newTestServerWithHub(t)
	validator.Tokens["trip-token"] = "evt_trip"
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	follow := func(name string) *ws.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=trip-token&name=" + name
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	alice := follow("Alice")
	bob := follow("Bob")
	require.Eventually(t, func() bool { return hub.ClientCount("evt_trip") == 2 }, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/events/evt_trip/messages",
		strings.NewReader(`{"sender_name":"Alice","text":"I covered the tolls","participants":["Alice","Bob"]}`))
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := bob.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "I covered the tolls")

	alice.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = alice.ReadMessage()
	assert.Error(t, err, "sender should not receive their own message")
}

func TestRoutes_OpenAPIDocument(t *testing.T) {
	e, _ := newTestServer(t)

	rec := serve(e, http.MethodGet, "/openapi.json", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc OpenAPI3Spec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	require.Contains(t, doc.Paths, "/api/v1/settlements/calculate")

	post, ok := doc.Paths["/api/v1/settlements/calculate"].(map[string]interface{})["post"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, post, "requestBody")
	assert.NotContains(t, post, "parameters")
	assert.Contains(t, doc.Components, "schemas")
}
