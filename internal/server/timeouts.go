// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadHeaderTimeout – abort slow-loris headers (10 s)
//   • ReadTimeout       – cap body upload for POSTed report params (30 s)
//   • WriteTimeout      – cap total response time, render included (60 s)
//   • IdleTimeout       – close keep-alives on idle clients (120 s)
//
// Reports can take longer to render than a typical page, so the write cap
// is wider than a plain web handler would use.
//

package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// newHTTPServer constructs an *http.Server with the defaults above.  Serve
// errors that net/http logs internally are routed to zap.
func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(zap.L()),
	}
}
