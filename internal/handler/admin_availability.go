package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/model"
	"github.com/stayforge/room-booking-api/internal/repository"
)

// AdminAvailabilityHandler exposes the ledger to admins: bulk generation
// of rows for a booking horizon, manual blocks (maintenance, private
// events) and unblocks, and inspection of a room's ledger.
type AdminAvailabilityHandler struct {
	Rooms  *repository.RoomRepo
	Ledger *repository.AvailabilityRepo
}

func NewAdminAvailabilityHandler(rooms *repository.RoomRepo, ledger *repository.AvailabilityRepo) *AdminAvailabilityHandler {
	if rooms == nil || ledger == nil {
		panic("nil repository passed to NewAdminAvailabilityHandler")
	}
	return &AdminAvailabilityHandler{Rooms: rooms, Ledger: ledger}
}

type availabilityRangeReq struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available *bool  `json:"available"`
	Notes     string `json:"notes"`
}

// roomAndRange resolves the :id param and the request's [start, end)
// range, writing the error response itself when validation fails.
func (h *AdminAvailabilityHandler) roomAndRange(c echo.Context) (roomID uint64, start, end time.Time, req availabilityRangeReq, ok bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid room ID"})
		return
	}
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		return
	}
	start, err = parseDate(strings.TrimSpace(req.Start))
	if err != nil {
		c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be a date (YYYY-MM-DD)"})
		return
	}
	end, err = parseDate(strings.TrimSpace(req.End))
	if err != nil {
		c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be a date (YYYY-MM-DD)"})
		return
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be after start"})
		return
	}

	if _, err := h.Rooms.GetByID(c.Request().Context(), h.Rooms.DB(), uint64(id)); err != nil {
		if err == repository.ErrRoomNotFound {
			c.JSON(http.StatusNotFound, echo.Map{"error": "Room not found"})
		} else {
			c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch room"})
		}
		return
	}
	return uint64(id), model.DateOnly(start), model.DateOnly(end), req, true
}

// Generate handles POST /v1/rooms/:id/availability. It bulk-creates
// ledger rows for [start, end); "available" defaults to true.
func (h *AdminAvailabilityHandler) Generate(c echo.Context) error {
	roomID, start, end, req, ok := h.roomAndRange(c)
	if !ok {
		return nil
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	if err := h.Ledger.Generate(c.Request().Context(), h.Ledger.DB(), roomID, start, end, available); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Availability generated successfully",
		"data": echo.Map{
			"room_id": roomID,
			"days":    model.Nights(start, end),
		},
	})
}

// Block handles POST /v1/rooms/:id/availability/block, marking every day
// in [start, end) unavailable with the supplied notes.
func (h *AdminAvailabilityHandler) Block(c echo.Context) error {
	roomID, start, end, req, ok := h.roomAndRange(c)
	if !ok {
		return nil
	}
	var notes *string
	if n := strings.TrimSpace(req.Notes); n != "" {
		notes = &n
	}
	if err := h.Ledger.MarkUnavailable(c.Request().Context(), h.Ledger.DB(), roomID, start, end, notes); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to block dates"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Dates blocked successfully",
		"data": echo.Map{
			"room_id": roomID,
			"days":    model.Nights(start, end),
		},
	})
}

// Unblock handles POST /v1/rooms/:id/availability/unblock, re-opening
// every day in [start, end).
func (h *AdminAvailabilityHandler) Unblock(c echo.Context) error {
	roomID, start, end, _, ok := h.roomAndRange(c)
	if !ok {
		return nil
	}
	if err := h.Ledger.MarkAvailable(c.Request().Context(), h.Ledger.DB(), roomID, start, end); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to unblock dates"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Dates unblocked successfully",
		"data": echo.Map{
			"room_id": roomID,
			"days":    model.Nights(start, end),
		},
	})
}

// List handles GET /v1/rooms/:id/availability?start&end, returning the
// ledger rows for the range so admins can inspect blocks and overrides.
func (h *AdminAvailabilityHandler) List(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid room ID"})
	}
	start, err := parseDate(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be a date (YYYY-MM-DD)"})
	}
	end, err := parseDate(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be a date (YYYY-MM-DD)"})
	}
	if !end.After(start) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be after start"})
	}
	records, err := h.Ledger.ListForRoom(c.Request().Context(), h.Ledger.DB(), uint64(id),
		model.DateOnly(start), model.DateOnly(end))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    records,
	})
}
