package router

import (
	"github.com/labstack/echo/v4"

	"github.com/stayforge/room-booking-api/internal/handler"
	"github.com/stayforge/room-booking-api/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware. Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only issues a new
	// access token.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (all sessions) or a
	// refresh_token in the body (one session), so it needs no middleware.
	g.POST("/logout", a.Logout)
	e.POST("/v1/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated room browsing endpoints.
// Guests can list, search and inspect rooms before registering, so no JWT
// or role middleware applies here. The supplied middleware (response
// cache, rate limiting) wraps only these routes.
func RegisterPublic(e *echo.Echo, r *handler.RoomHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("", mw...)
	g.GET("/v1/rooms", r.List)
	g.GET("/v1/rooms/search", r.Search)
	g.GET("/v1/rooms/:id", r.Get)
}

// RegisterBookings registers the booking endpoints. Every route requires
// an authenticated user; bookings are always scoped to the caller.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	g.GET("", b.List)
	g.POST("", b.Create)
	g.GET("/:id", b.Get)
	g.POST("/:id/cancel", b.Cancel)
}

// RegisterAdmin registers inventory and availability management routes,
// restricted to ADMIN users.
func RegisterAdmin(e *echo.Echo, rooms *handler.AdminRoomHandler, avail *handler.AdminAvailabilityHandler, jwtSecret string) {
	g := e.Group("/v1/rooms")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))
	g.POST("", rooms.Create)
	g.GET("/:id/availability", avail.List)
	g.POST("/:id/availability", avail.Generate)
	g.POST("/:id/availability/block", avail.Block)
	g.POST("/:id/availability/unblock", avail.Unblock)
}
