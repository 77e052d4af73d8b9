package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related api endpoints. Listing books is open,
// every other operation requires the api key.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/api/books", m.public(api.ListBooks))
	router.POST("/api/books", m.public(api.APIKeyMiddleware(api.CreateBook)))
	router.GET("/api/books/:id", m.public(api.APIKeyMiddleware(api.GetOneBook)))
	router.PUT("/api/books/:id", m.public(api.APIKeyMiddleware(api.UpdateBook)))
	router.DELETE("/api/books/:id", m.public(api.APIKeyMiddleware(api.DeleteOneBook)))
	return router
}
