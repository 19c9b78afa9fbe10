package router

import (
	"fleet/internal/handlers/booking"
	"fleet/internal/handlers/expense"
	"fleet/internal/handlers/report"
	"fleet/internal/handlers/request"
	"fleet/internal/handlers/vehicle"
	"fleet/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Vehicle vehicle.Handler
	Booking booking.Handler
	Request request.Handler
	Expense expense.Handler
	Report  report.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Auth           middleware.Auth
	App            middleware.AppMiddleware
}

func New(domainHandlers DomainHandlers, auth middleware.Auth, app middleware.AppMiddleware) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Auth:           auth,
		App:            app,
	}
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		routerGroup.Group(func(authed chi.Router) {
			authed.Use(r.Auth.Auth)

			r.DomainHandlers.Vehicle.Router(authed)
			r.DomainHandlers.Booking.Router(authed)
			r.DomainHandlers.Request.Router(authed)
			r.DomainHandlers.Expense.Router(authed)
			r.DomainHandlers.Report.Router(authed)
		})

		// Public submission channel, rate limited but unauthenticated.
		routerGroup.Route("/public", func(public chi.Router) {
			public.Use(r.App.RateLimit())

			r.DomainHandlers.Request.PublicRouter(public)
		})
	})
}
