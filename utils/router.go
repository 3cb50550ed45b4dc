package utils

import (
	"github.com/gorilla/mux"

	"cinetrack/handlers"
)

// NewRouter constructs the application router with request logging
// attached.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(handlers.RequestLogging)
	return r
}
