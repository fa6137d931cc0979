package router

import (
	"net/http"

	"roombook/internal/handlers/auth"
	"roombook/internal/handlers/booking"
	"roombook/internal/handlers/room"
	"roombook/internal/handlers/user"
	"roombook/transport/http/response"

	"github.com/go-chi/chi/v5"
)

const apiVersion = "/v1"

type DomainHandlers struct {
	Auth    auth.Handler
	User    user.Handler
	Room    room.Handler
	Booking booking.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}

// SetupRoutes mounts every domain under /v1. Unknown routes answer with the
// same JSON error envelope as the handlers.
func (r *Router) SetupRoutes(mux chi.Router) {
	mux.NotFound(func(writer http.ResponseWriter, _ *http.Request) {
		response.WithMessage(writer, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	mux.MethodNotAllowed(func(writer http.ResponseWriter, _ *http.Request) {
		response.WithMessage(writer, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	mux.Route(apiVersion, func(v1 chi.Router) {
		r.DomainHandlers.Auth.Router(v1)
		r.DomainHandlers.User.Router(v1)
		r.DomainHandlers.Room.Router(v1)
		r.DomainHandlers.Booking.Router(v1)
	})
}
