package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/event-ticket-booking/internal/auth"       // role names for route guards
	"github.com/iliyamo/event-ticket-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/event-ticket-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Unauthenticated
// operations live under /v1/auth, while /v1/me requires a valid access
// token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	me := e.Group("/v1")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints:
// event listings, per-event seat maps with derived availability, and
// event reviews.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, rv *handler.ReviewHandler) {
	e.GET("/v1/events", ev.List)
	e.GET("/v1/events/:id", ev.Get)
	// Seat status is derived from is_booked and active holds; values are
	// available, locked or booked.
	e.GET("/v1/events/:id/seats", ev.ListSeats)
	e.GET("/v1/events/:id/reviews", rv.List)
}

// RegisterBooking registers the buyer-facing booking flow: locking and
// releasing seats, converting held seats into a pending order, and
// attaching the payment proof.  Every role may buy tickets.  The
// profile surface (wishlist, reviews) lives here too.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, ev *handler.EventHandler, t *handler.TicketHandler, rv *handler.ReviewHandler, w *handler.WishlistHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(auth.RoleUser, auth.RoleOrganizer, auth.RoleStaff, auth.RoleAdmin))

	g.POST("/events/:id/seats/:seatId/lock", b.LockSeat)
	g.DELETE("/events/:id/seats/:seatId/lock", b.ReleaseSeat)
	g.POST("/events/:id/bookings", b.CreateBooking)
	g.PATCH("/orders/:id/payment-proof", b.AttachPaymentProof)
	g.GET("/orders", b.ListMyOrders)
	g.GET("/tickets", t.ListMyTickets)

	g.POST("/events/:id/waitlist", ev.JoinWaitlist)
	g.GET("/events/:id/waitlist", ev.WaitlistStatus)

	g.POST("/events/:id/reviews", rv.Submit)
	g.POST("/events/:id/wishlist", w.Add)
	g.DELETE("/events/:id/wishlist", w.Remove)
	g.GET("/wishlist", w.ListMine)
}

// RegisterManagement registers the organizer/staff surface: event
// lifecycle, order approval and rejection, and door check-in.  Route
// access is coarse-grained here (organizer, staff or admin); ownership
// scoping happens in the handlers via auth.Authorize.
func RegisterManagement(e *echo.Echo, ev *handler.EventHandler, o *handler.OrderHandler, t *handler.TicketHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(auth.RoleOrganizer, auth.RoleStaff, auth.RoleAdmin))

	g.POST("/events", ev.Create)
	g.POST("/events/:id/seats", ev.PublishSeats)
	g.DELETE("/events/:id", ev.Delete)
	g.GET("/events/:id/orders", o.ListEventOrders)

	g.POST("/orders/:id/approve", o.Approve)
	g.POST("/orders/:id/reject", o.Reject)

	g.POST("/tickets/check-in", t.CheckIn)
}
