package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/room-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/room-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/room-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems probe this.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication: a refresh token in the
	// body terminates that session, a bearer alone terminates all.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleUser))
	auth.GET("/me", a.Me)
	auth.PUT("/me/department", a.UpdateDepartment)

	// Kept at the top level as well so older clients keep working.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  The
// room registry and availability previews are open so anyone can check
// a room before signing in to request it.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/rooms", p.ListRooms)
	e.GET("/v1/rooms/:id", p.GetRoom)
	// Advisory availability for a window: ?start=...&end=... (RFC3339).
	e.GET("/v1/rooms/:id/availability", p.Availability)
}

// RegisterReservations registers the requester-facing lifecycle
// endpoints.  Any authenticated role may submit; rule limits are
// enforced per role inside the engine.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, i *handler.InboxHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleUser))

	g.POST("/reservations", r.Submit)
	g.GET("/reservations", r.ListMine)

	g.GET("/inbox", i.List)
	g.POST("/inbox/:id/read", i.MarkRead)
}

// RegisterAdmin registers the admin-only surface: the decision queue,
// the audit trail, the room/rule registry and account management.
func RegisterAdmin(e *echo.Echo, d *handler.AdminDecisionHandler, reg *handler.AdminRegistryHandler, u *handler.AdminUsersHandler, au *handler.AdminAuditHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))

	// ?status= filters the queue; default PENDING.
	g.GET("/reservations", d.List)
	g.GET("/reservations/:id/conflicts", d.Conflicts)
	g.POST("/reservations/:id/decision", d.Decide)

	g.GET("/rooms", reg.ListRooms)
	g.POST("/rooms", reg.CreateRoom)
	g.PUT("/rooms/:id", reg.UpdateRoom)
	g.DELETE("/rooms/:id", reg.DeleteRoom)

	g.GET("/rules", reg.ListRules)
	g.PUT("/rules/:role", reg.UpdateRule)

	g.GET("/users", u.List)
	g.PUT("/users/:id/role", u.UpdateRole)
	g.POST("/users/:id/message", u.SendMessage)
	// Deactivates rather than deletes so history keeps resolving.
	g.DELETE("/users/:id", u.Deactivate)

	g.GET("/audit", au.List)
}
