// Package api holds the HTTP surface the renderer process talks to: request
// routes, the notification websocket, and server plumbing.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string
	Method() string
}

func NewRouter(routes []Route) *mux.Router {
	router := mux.NewRouter()
	for _, route := range routes {
		log.Info().Msgf("Registering route: %s %s", route.Method(), route.Pattern())
		router.Handle(route.Pattern(), route).Methods(route.Method())
	}
	return router
}
