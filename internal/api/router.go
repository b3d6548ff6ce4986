// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/thrifttags/internal/auth"
	"github.com/tomtom215/thrifttags/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	middleware    *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. Rejected authentication is written with the
// standard error envelope.
func NewRouter(handler *Handler, authMiddleware *auth.Middleware, chiMw *ChiMiddleware) *Router {
	authMiddleware.OnUnauthorized(func(w http.ResponseWriter, r *http.Request, err error) {
		NewResponseWriter(w, r).Unauthorized(err.Error())
	})
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		middleware:    authMiddleware,
		chiMiddleware: chiMw,
	}
}

// SetupChi builds the HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAuth))
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Post("/signup", router.handler.Signup)
		r.Post("/login", router.handler.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.middleware.Authenticate)

		r.Get("/profile", router.handler.GetProfile)
		r.Patch("/profile", router.handler.UpdateProfile)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", router.handler.ListEvents)
			r.Post("/", router.handler.CreateEvent)
			r.Get("/history", router.handler.ListHistory)
			r.Post("/history/{entryID}/restore", router.handler.RestoreEvent)
			r.Post("/sweep", router.handler.SweepEvents)
			r.Get("/calendar.ics", router.handler.ExportCalendar)
			r.Delete("/{id}", router.handler.DeleteEvent)
		})

		r.Get("/stores", router.handler.SearchStores)
		r.With(router.chiMiddleware.RateLimitCustom(RateLimitGeocode)).
			Get("/geo/reverse", router.handler.ReverseGeocode)

		r.Get("/reviews", router.handler.ListReviews)
		r.Post("/reviews", router.handler.CreateReview)

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", router.handler.ListFriends)
			r.Get("/search", router.handler.SearchUsers)
			r.Get("/requests", router.handler.ListFriendRequests)
			r.Post("/requests", router.handler.SendFriendRequest)
			r.Post("/requests/{email}/accept", router.handler.AcceptFriendRequest)
			r.Post("/requests/{email}/reject", router.handler.RejectFriendRequest)
			r.Delete("/{email}", router.handler.RemoveFriend)
			r.Get("/{email}/events", router.handler.FriendEvents)
			r.Get("/{email}/reviews", router.handler.FriendReviews)
		})

		r.Get("/ws", router.handler.WebSocket)
	})

	return r
}
