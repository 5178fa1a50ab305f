package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medcore/medcore/internal/platform/apperror"
)

func record(t *testing.T, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(zerolog.Nop())(err, c)

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	return rec, env
}

func TestErrorHandlerAppError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{apperror.NotFound("patient"), http.StatusNotFound, "patient not found"},
		{apperror.Conflict("sku already exists"), http.StatusConflict, "sku already exists"},
		{apperror.Validation("reason is required"), http.StatusBadRequest, "reason is required"},
		{apperror.Unauthorized("authentication required"), http.StatusUnauthorized, "authentication required"},
		{apperror.Forbidden("role patient may not users:read"), http.StatusForbidden, "role patient may not users:read"},
	}
	for _, tc := range cases {
		rec, env := record(t, tc.err)
		if rec.Code != tc.wantStatus {
			t.Errorf("%v: expected status %d, got %d", tc.err, tc.wantStatus, rec.Code)
		}
		if env.Success {
			t.Errorf("%v: error envelope should not be success", tc.err)
		}
		if env.Message != tc.wantMsg {
			t.Errorf("%v: expected message %q, got %q", tc.err, tc.wantMsg, env.Message)
		}
	}
}

func TestErrorHandlerHidesInternalCause(t *testing.T) {
	rec, env := record(t, apperror.Internal(errors.New("pq: relation missing")))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if env.Message != "internal server error" {
		t.Errorf("internal cause leaked: %q", env.Message)
	}
}

func TestErrorHandlerEchoHTTPError(t *testing.T) {
	rec, env := record(t, echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if env.Message != "Method Not Allowed" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestOKAndCreated(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := OK(c, "users retrieved", []string{"a"}); err != nil {
		t.Fatalf("OK failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	if err := Created(c, "user created", map[string]string{"id": "x"}); err != nil {
		t.Fatalf("Created failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	if !env.Success || env.Message != "user created" {
		t.Errorf("unexpected envelope %+v", env)
	}
}
