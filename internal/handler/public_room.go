package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/model"
	"github.com/stayforge/room-booking-api/internal/repository"
)

// RoomFinder is the read surface of the room repository that the public
// endpoints need. *repository.RoomRepo satisfies it.
type RoomFinder interface {
	GetByID(ctx context.Context, q repository.DBTX, id uint64) (*model.Room, error)
	Search(ctx context.Context, q repository.DBTX, sq repository.RoomSearchQuery) ([]model.Room, int64, error)
	DB() *sql.DB
}

// RoomHandler serves the public room browsing endpoints. These routes
// require no authentication so guests can browse and search inventory
// before registering.
type RoomHandler struct {
	Rooms RoomFinder
}

// NewRoomHandler constructs a RoomHandler.
func NewRoomHandler(rooms RoomFinder) *RoomHandler {
	if rooms == nil {
		panic("nil repository passed to NewRoomHandler")
	}
	return &RoomHandler{Rooms: rooms}
}

// List handles GET /v1/rooms?guests&per_page&page, the plain paginated
// inventory listing with an optional capacity filter.
func (h *RoomHandler) List(c echo.Context) error {
	page, perPage := pageParams(c, 10)
	sq := repository.RoomSearchQuery{
		Page:    page,
		PerPage: perPage,
	}
	if g, err := strconv.ParseUint(c.QueryParam("guests"), 10, 32); err == nil {
		sq.Guests = uint32(g)
	}
	return h.respond(c, sq)
}

// Search handles GET /v1/rooms/search?guests&checkin&checkout&destination&sort&order.
// When both dates are supplied only rooms free for the whole half-open
// range [checkin, checkout) are returned: no unavailable ledger day and
// no overlapping active booking.
func (h *RoomHandler) Search(c echo.Context) error {
	page, perPage := pageParams(c, 10)
	sq := repository.RoomSearchQuery{
		Term:    strings.TrimSpace(c.QueryParam("destination")),
		Page:    page,
		PerPage: perPage,
	}
	if g, err := strconv.ParseUint(c.QueryParam("guests"), 10, 32); err == nil {
		sq.Guests = uint32(g)
	}
	checkin := strings.TrimSpace(c.QueryParam("checkin"))
	checkout := strings.TrimSpace(c.QueryParam("checkout"))
	if checkin != "" || checkout != "" {
		in, err := parseDate(checkin)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "checkin must be a date (YYYY-MM-DD)"})
		}
		out, err := parseDate(checkout)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "checkout must be a date (YYYY-MM-DD)"})
		}
		if !out.After(in) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "checkout must be after checkin"})
		}
		inD, outD := model.DateOnly(in), model.DateOnly(out)
		sq.CheckIn, sq.CheckOut = &inD, &outD
	}
	if strings.EqualFold(c.QueryParam("sort"), "price") {
		sq.SortPrice = strings.ToLower(c.QueryParam("order"))
		if sq.SortPrice != "desc" {
			sq.SortPrice = "asc"
		}
	}
	return h.respond(c, sq)
}

func (h *RoomHandler) respond(c echo.Context, sq repository.RoomSearchQuery) error {
	rooms, total, err := h.Rooms.Search(c.Request().Context(), h.Rooms.DB(), sq)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rooms"})
	}
	views := make([]model.RoomView, 0, len(rooms))
	for _, r := range rooms {
		views = append(views, r.View())
	}
	return c.JSON(http.StatusOK, paginated(views, len(views), total, sq.Page, sq.PerPage))
}

// Get handles GET /v1/rooms/:id. Non-positive ids are rejected with 400
// before touching the database.
func (h *RoomHandler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid room ID"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), h.Rooms.DB(), uint64(id))
	if err != nil {
		if err == repository.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch room"})
	}
	return c.JSON(http.StatusOK, room.View())
}
