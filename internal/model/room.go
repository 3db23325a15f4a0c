package model

import "time"

// Room mirrors the `rooms` table. Price is the nightly base rate; per-day
// overrides live in the room_availability table and take precedence when
// present. Guests is the maximum occupancy used by search filters.
type Room struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Image       *string   `json:"image,omitempty"`
	Guests      uint32    `json:"guest"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoomView is the API representation of a room. It embeds the stored
// fields and adds the presentation attributes the web client expects
// (name, capacity, size, beds), which are derived rather than stored.
type RoomView struct {
	Room
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
	Size     uint32 `json:"size"`
	Beds     string `json:"beds"`
}

// View builds the presentation form of a room. Size assumes 150 sqft per
// guest and the bed layout is inferred from capacity, matching what the
// frontend renders on room cards.
func (r Room) View() RoomView {
	capacity := r.Guests
	if capacity == 0 {
		capacity = 2
	}
	beds := "Queen bed"
	switch {
	case capacity <= 2:
		// single queen
	case capacity <= 4:
		beds = "2 Queen beds"
	default:
		beds = "2 Queen beds + Sofa bed"
	}
	return RoomView{
		Room:     r,
		Name:     r.Title,
		Capacity: capacity,
		Size:     capacity * 150,
		Beds:     beds,
	}
}
