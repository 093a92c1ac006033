// internal/requestinfo/middleware.go
//
// HTTP middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
This handler sits after request-ID, real-IP, and access logging, but before
the security filters and report handlers.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Takes the client IP from `r.RemoteAddr`.  Forwarded headers are only
     honoured when the server mounts chi's RealIP ahead of this handler,
     which rewrites RemoteAddr (see `trustProxy`).
  3. Performs a GeoLite2 lookup when a database is loaded.
  4. Stores a `*RequestInfo` value in the request context, so the rate
     limiter, report templates, and audit log can read UA and IP
     attributes without reparsing.

Instrumentation
---------------
At debug level each invocation logs the client IP, country, browser,
device, bot flag, and path.

Notes
-----
  • All look-ups are read-only, so the middleware is safe under heavy
    concurrency.
*/
package requestinfo

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Enrich wraps an http.Handler, attaches *RequestInfo, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)

		info := &RequestInfo{
			UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Geo:       lookupGeo(ip),
			URL:       r.URL,
			Timestamp: time.Now().UTC(),
		}

		zap.L().Debug("request info",
			zap.Stringer("ip", info.Geo.IP),
			zap.String("country", info.Geo.CountryISO),
			zap.String("browser", info.UA.Browser),
			zap.String("device", info.UA.Device),
			zap.Bool("bot", info.UA.IsBot),
			zap.String("path", r.URL.Path),
		)

		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}

// ClientIP parses r.RemoteAddr ("ip:port" or a bare IP).  Request headers
// are never consulted.
func ClientIP(r *http.Request) net.IP {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
