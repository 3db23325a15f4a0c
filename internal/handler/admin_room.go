package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/model"
	"github.com/stayforge/room-booking-api/internal/repository"
)

// AdminRoomHandler covers the admin-only inventory endpoints.
type AdminRoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewAdminRoomHandler(rooms *repository.RoomRepo) *AdminRoomHandler {
	if rooms == nil {
		panic("nil repository passed to NewAdminRoomHandler")
	}
	return &AdminRoomHandler{Rooms: rooms}
}

type createRoomReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       *string `json:"image"`
	Guests      uint32  `json:"guest"`
}

// Create handles POST /v1/rooms.
func (h *AdminRoomHandler) Create(c echo.Context) error {
	var req createRoomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be positive"})
	}
	if req.Guests == 0 {
		req.Guests = 2
	}

	room := &model.Room{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Image:       req.Image,
		Guests:      req.Guests,
	}
	if err := h.Rooms.Create(c.Request().Context(), h.Rooms.DB(), room); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create room"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    room.View(),
		"message": "Room created successfully",
	})
}
