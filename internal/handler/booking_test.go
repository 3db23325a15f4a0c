package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/service"
)

// newBookingCtx builds an echo context for POST /v1/bookings with the JWT
// middleware's context values already in place.
func newBookingCtx(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(10))
	c.Set("role", "CUSTOMER")
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

// Validation failures must be rejected before the service runs, so the
// handler is constructed with an empty service that would panic if used.
func TestCreateBookingRequestValidation(t *testing.T) {
	h := &BookingHandler{Svc: &service.BookingService{}}

	cases := []struct {
		name string
		body string
	}{
		{"missing room", `{"check_in":"2026-06-01","check_out":"2026-06-04","guests":2,"title":"Mr","name":"Ada","email":"ada@example.com"}`},
		{"missing contact", `{"room_id":1,"check_in":"2026-06-01","check_out":"2026-06-04","guests":2}`},
		{"bad email", `{"room_id":1,"check_in":"2026-06-01","check_out":"2026-06-04","guests":2,"title":"Mr","name":"Ada","email":"nope"}`},
		{"bad check_in", `{"room_id":1,"check_in":"June 1st","check_out":"2026-06-04","guests":2,"title":"Mr","name":"Ada","email":"ada@example.com"}`},
		{"bad check_out", `{"room_id":1,"check_in":"2026-06-01","check_out":"","guests":2,"title":"Mr","name":"Ada","email":"ada@example.com"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newBookingCtx(t, tc.body)
			if err := h.Create(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if ok, _ := body["success"].(bool); ok {
				t.Error("success = true on validation failure")
			}
		})
	}
}

func TestCreateBookingUnauthenticated(t *testing.T) {
	h := &BookingHandler{Svc: &service.BookingService{}}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "healthy" {
		t.Errorf("status field = %v, want healthy", body["status"])
	}
	if body["service"] != "room-booking-api" {
		t.Errorf("service field = %v", body["service"])
	}
}

func TestPaginatedEnvelope(t *testing.T) {
	m := paginated([]int{1, 2, 3}, 3, 13, 2, 5)
	if m["current_page"] != 2 {
		t.Errorf("current_page = %v", m["current_page"])
	}
	if m["last_page"] != int64(3) {
		t.Errorf("last_page = %v", m["last_page"])
	}
	if m["from"] != 6 || m["to"] != 8 {
		t.Errorf("from/to = %v/%v, want 6/8", m["from"], m["to"])
	}

	empty := paginated([]int{}, 0, 0, 1, 5)
	if empty["from"] != nil || empty["to"] != nil {
		t.Errorf("empty page from/to = %v/%v, want nils", empty["from"], empty["to"])
	}
	if empty["last_page"] != int64(1) {
		t.Errorf("empty last_page = %v, want 1", empty["last_page"])
	}
}

func TestGetUserIDTypes(t *testing.T) {
	e := echo.New()
	for _, v := range []any{uint64(7), int(7), int64(7), float64(7), "7"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set("user_id", v)
		got, err := getUserID(c)
		if err != nil || got != 7 {
			t.Errorf("getUserID(%T) = %d, %v", v, got, err)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if _, err := getUserID(c); err == nil {
		t.Error("missing user_id did not error")
	}
}
