package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/evenup/evenup-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// newJSONContext builds an echo context for a request with a raw JSON body
func newJSONContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// newRequestContext marshals body and builds an echo context for it
func newRequestContext(t *testing.T, method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	e := echo.New()
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// withEventID marks the context as authorized for the event
func withEventID(c echo.Context, eventID string) {
	ctx := context.WithValue(c.Request().Context(), middleware.EventIDKey, eventID)
	c.SetRequest(c.Request().WithContext(ctx))
}

// decodeProblem decodes a problem details response
func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()

	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}
