// internal/server/routes.go
//
// Router assembly.
//
// Order matters with chi: every `Use` must precede the first route, and a
// middleware only wraps routes registered after it.  The chain is:
//
//	RequestID → RealIP → Recoverer → AccessLog → requestinfo.Enrich
//	  → ForceHTTPS? → RateLimit? → Security → BasicAuth?
//	  → discovery, reports, metrics
//
// Notes
// -----
// • When two resources resolve to the same (method, path) the first one
//   registered keeps the route; later ones are skipped with a warning.
// • Oxford commas, two spaces after periods.

package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/kapenta/internal/auth"
	"github.com/yanizio/kapenta/internal/middleware"
	"github.com/yanizio/kapenta/internal/requestinfo"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if s.cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog, requestinfo.Enrich)
	if s.cfg.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}
	if s.limiter != nil {
		r.Use(middleware.RateLimit(s.limiter))
	}
	r.Use(middleware.Security)

	// Must precede every route, discovery included.
	auth.Configure(r, s.cfg.BasicAuth)

	seen := make(map[string]string)
	register := func(method, path, owner string, h http.Handler) bool {
		key := method + " " + path
		if first, dup := seen[key]; dup {
			zap.L().Warn("duplicate route skipped",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("kept", first),
				zap.String("skipped", owner))
			return false
		}
		seen[key] = owner
		r.Method(method, path, h)
		return true
	}

	disc := s.reg.DiscoveryRoute()
	register(http.MethodGet, disc, "discovery", http.HandlerFunc(s.handleDiscovery))
	zap.L().Info("discovery endpoint registered", zap.String("path", disc))

	for _, res := range s.reg.Resources() {
		route := s.reg.Route(res)
		h := s.reportHandler(res, route)
		for _, m := range res.Methods {
			if register(m, route, res.Name, h) {
				zap.L().Info("report route registered",
					zap.String("report", res.Name),
					zap.String("method", m),
					zap.String("path", route),
					zap.Strings("extensions", res.Extensions))
			}
		}
	}

	if s.cfg.Metrics.Enabled {
		path := s.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		register(http.MethodGet, path, "metrics", promhttp.Handler())
	}

	return r
}
