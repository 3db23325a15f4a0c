package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/model"
	"github.com/stayforge/room-booking-api/internal/queue"
	"github.com/stayforge/room-booking-api/internal/repository"
	"github.com/stayforge/room-booking-api/internal/service"
)

// BookingHandler exposes the customer booking endpoints. All methods
// assume JWT authentication has already run and trust the user id stored
// in the context for ownership scoping; a booking owned by another user
// is indistinguishable from a missing one.
type BookingHandler struct {
	Svc *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc}
}

type createBookingReq struct {
	RoomID        uint64   `json:"room_id"`
	CheckIn       string   `json:"check_in"`
	CheckOut      string   `json:"check_out"`
	Guests        uint32   `json:"guests"`
	Title         string   `json:"title"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	BookingNumber string   `json:"booking_number"`
	Status        string   `json:"status"`
	Total         *float64 `json:"total"`
}

// List handles GET /v1/bookings?type&page&per_page. type selects
// upcoming, past or all; the response uses the pagination envelope the
// web client expects.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	typ := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	if typ == "" {
		typ = "all"
	}
	page, perPage := pageParams(c, 5)

	bookings, total, err := h.Svc.ListUserBookings(c.Request().Context(), userID, typ, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	views := make([]model.BookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, bookings[i].View())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    paginated(views, len(views), total, page, perPage),
	})
}

// Create handles POST /v1/bookings. Validation errors and availability
// conflicts come back as 400 with a human-readable message; an unknown
// room is 404. On success the booking is returned with its room nested
// and a lifecycle event is published best-effort.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid request body"})
	}
	if req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "room_id is required"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "title, name and email are required"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "email is invalid"})
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "check_in must be a date (YYYY-MM-DD)"})
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "check_out must be a date (YYYY-MM-DD)"})
	}

	booking, err := h.Svc.CreateBooking(c.Request().Context(), userID, service.CreateBookingInput{
		RoomID:        req.RoomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Guests:        req.Guests,
		Title:         strings.TrimSpace(req.Title),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		BookingNumber: strings.TrimSpace(req.BookingNumber),
		Status:        strings.ToLower(strings.TrimSpace(req.Status)),
		Total:         req.Total,
	})
	if err != nil {
		var vErr *service.ValidationError
		var aErr *service.AvailabilityError
		switch {
		case errors.As(err, &vErr):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": vErr.Error()})
		case errors.As(err, &aErr):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": aErr.Reason})
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Room not found"})
		case errors.Is(err, repository.ErrDuplicateBookingNumber):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "booking number already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to create booking"})
	}

	publishBookingEvent(queue.ActionCreated, booking)

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    booking.View(),
		"message": "Booking created successfully",
	})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid booking id"})
	}
	booking, err := h.Svc.GetUserBooking(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "failed to fetch booking"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": booking.View()})
}

// Cancel handles POST /v1/bookings/:id/cancel. Cancelling an already
// cancelled or past booking is a no-op that still returns the booking.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "invalid booking id"})
	}
	booking, transitioned, err := h.Svc.CancelBooking(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "message": "Booking not found"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Unable to cancel booking"})
	}
	// Repeat cancels are no-ops and must not re-emit the event.
	if transitioned {
		publishBookingEvent(queue.ActionCancelled, booking)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    booking.View(),
		"message": "Booking cancelled successfully",
	})
}

// publishBookingEvent fires a lifecycle event without blocking the
// response; publish failures are logged inside the publisher.
func publishBookingEvent(action string, b *model.Booking) {
	ev := queue.BookingEvent{
		Action:        action,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		UserID:        b.UserID,
		RoomID:        b.RoomID,
		CheckIn:       b.CheckIn.Format(time.DateOnly),
		CheckOut:      b.CheckOut.Format(time.DateOnly),
		Nights:        b.Nights,
		Guests:        b.Guests,
		Total:         b.Total,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if b.Room != nil {
		ev.RoomTitle = b.Room.Title
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = service.PublishBookingEvent(ctx, ev)
	}()
}
