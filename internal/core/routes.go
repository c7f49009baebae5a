package core

import (
	"time"
)

// defaultRequestTimeout is the soft deadline applied to request contexts. It
// comfortably exceeds the provider timeout plus its retry budget.
const defaultRequestTimeout = 30 * time.Second

// MountRoutes registers the global middleware chain, the health endpoint, and
// every domain handler group.
//
// Middleware ordering: Recoverer is outermost so it catches all panics;
// ContextTimeout bounds the request before any work starts; RequestID runs
// before RequestLogger so log lines carry the correlation ID.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(defaultRequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger))

	s.router.Get("/health", s.HandleHealth)

	for _, registrar := range s.RouteRegistrars {
		registrar(s.router)
	}
}
