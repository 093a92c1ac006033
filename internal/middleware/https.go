// Package middleware holds small, composable HTTP wrappers shared by every
// route the server registers.
package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ForceHTTPS wraps h.  A plain-HTTP request for any host other than a
// loopback name gets a 308 Permanent Redirect to the HTTPS version of the
// same URL.  TLS requests, requests already forwarded as https by a proxy,
// and local development hosts pass through unchanged.
func ForceHTTPS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS != nil || isLocal(stripPort(r.Host)) ||
			strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			h.ServeHTTP(w, r)
			return
		}

		target := "https://" + r.Host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
	})
}

func isLocal(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if host, _, err := net.SplitHostPort(h); err == nil {
		return strings.Trim(host, "[]")
	}
	return h
}
