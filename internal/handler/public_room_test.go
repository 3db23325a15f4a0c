package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/model"
	"github.com/stayforge/room-booking-api/internal/repository"
)

// fakeRoomFinder serves a fixed set of rooms without a database.
type fakeRoomFinder struct {
	rooms map[uint64]*model.Room
}

func (f *fakeRoomFinder) DB() *sql.DB { return nil }

func (f *fakeRoomFinder) GetByID(_ context.Context, _ repository.DBTX, id uint64) (*model.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrRoomNotFound
	}
	return r, nil
}

func (f *fakeRoomFinder) Search(_ context.Context, _ repository.DBTX, sq repository.RoomSearchQuery) ([]model.Room, int64, error) {
	var out []model.Room
	for _, r := range f.rooms {
		if sq.Guests > 0 && r.Guests < sq.Guests {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func newRoomCtx(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRoomGetInvalidID(t *testing.T) {
	h := NewRoomHandler(&fakeRoomFinder{})
	for _, id := range []string{"0", "-3", "abc", ""} {
		c, rec := newRoomCtx("/v1/rooms/" + id)
		c.SetParamNames("id")
		c.SetParamValues(id)
		if err := h.Get(c); err != nil {
			t.Fatalf("handler error for id %q: %v", id, err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, rec.Code)
		}
		body := decodeBody(t, rec)
		if body["error"] != "Invalid room ID" {
			t.Errorf("id %q: error = %v", id, body["error"])
		}
	}
}

func TestRoomGetNotFound(t *testing.T) {
	h := NewRoomHandler(&fakeRoomFinder{rooms: map[uint64]*model.Room{}})
	c, rec := newRoomCtx("/v1/rooms/42")
	c.SetParamNames("id")
	c.SetParamValues("42")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "Room not found" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestRoomGetFound(t *testing.T) {
	h := NewRoomHandler(&fakeRoomFinder{rooms: map[uint64]*model.Room{
		3: {ID: 3, Title: "Garden Suite", Price: 180, Guests: 4},
	}})
	c, rec := newRoomCtx("/v1/rooms/3")
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h.Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["name"] != "Garden Suite" {
		t.Errorf("name = %v, want Garden Suite", body["name"])
	}
	if body["capacity"] != float64(4) {
		t.Errorf("capacity = %v, want 4", body["capacity"])
	}
}

func TestRoomListEnvelope(t *testing.T) {
	h := NewRoomHandler(&fakeRoomFinder{rooms: map[uint64]*model.Room{
		1: {ID: 1, Title: "Single", Price: 90, Guests: 1},
		2: {ID: 2, Title: "Double", Price: 140, Guests: 2},
	}})
	c, rec := newRoomCtx("/v1/rooms?guests=2")
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 1 {
		t.Fatalf("data = %v, want one room", body["data"])
	}
	if body["total"] != float64(1) || body["current_page"] != float64(1) {
		t.Errorf("envelope total/current_page = %v/%v", body["total"], body["current_page"])
	}
}

func TestRoomSearchRejectsBadDates(t *testing.T) {
	h := NewRoomHandler(&fakeRoomFinder{})
	cases := []struct {
		name   string
		target string
	}{
		{"malformed checkin", "/v1/rooms/search?checkin=June&checkout=2026-06-04"},
		{"missing checkout", "/v1/rooms/search?checkin=2026-06-01"},
		{"inverted range", "/v1/rooms/search?checkin=2026-06-04&checkout=2026-06-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newRoomCtx(tc.target)
			if err := h.Search(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
