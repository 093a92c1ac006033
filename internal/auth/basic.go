// internal/auth/basic.go
//
// HTTP Basic Authentication filter.
//
// Context
// -------
// The configuration may declare a single `basicAuth.user`, a list under
// `basicAuth.users`, or both.  Credentials merges them in that order and
// Configure installs the filter on the router only when the merged list is
// non-empty.  An empty or absent block leaves the API open.
//
// Because chi applies `Use` middleware to every route registered on the
// router afterwards, Configure must run before any route is added.  The
// filter then precedes every handler, the discovery endpoint included.
//
// Notes
// -----
// • Username and password are compared exactly, in constant time.
// • Oxford commas, two spaces after periods.

package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/kapenta/internal/config"
	"github.com/yanizio/kapenta/internal/metrics"
)

// DefaultRealm labels the challenge when no credential names one.
const DefaultRealm = "kapenta"

// Credential is one accepted username / password pair.
type Credential struct {
	Username string
	Password string
	Realm    string
}

// Credentials merges `user` and `users` into one ordered list.
func Credentials(cfg *config.BasicAuth) []Credential {
	if cfg == nil {
		return nil
	}
	out := make([]Credential, 0, len(cfg.Users)+1)
	if cfg.User != nil {
		out = append(out, fromConfig(*cfg.User))
	}
	for _, u := range cfg.Users {
		out = append(out, fromConfig(u))
	}
	return out
}

func fromConfig(u config.User) Credential {
	return Credential{Username: u.Username, Password: u.Password, Realm: u.Realm}
}

// Configure installs BasicAuth on r when cfg yields at least one credential.
// It reports whether a filter was installed.
func Configure(r chi.Router, cfg *config.BasicAuth) bool {
	if cfg == nil {
		return false
	}
	creds := Credentials(cfg)
	if len(creds) == 0 {
		zap.L().Info("basic auth block present but empty, authentication disabled")
		return false
	}
	zap.L().Info("configuring HTTP basic auth from configuration", zap.Int("users", len(creds)))
	r.Use(BasicAuth(creds))
	return true
}

// BasicAuth returns middleware that admits only requests carrying one of
// creds.  Anything else gets 401 with a challenge and never reaches next.
func BasicAuth(creds []Credential) func(http.Handler) http.Handler {
	challenge := fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, realmOf(creds))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok {
				if c, hit := match(creds, user, pass); hit {
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), c.Username)))
					return
				}
			}

			metrics.AuthFailuresTotal.Inc()
			zap.L().Debug("basic auth rejected",
				zap.String("path", r.URL.Path),
				zap.Bool("credentials_present", ok))
			w.Header().Set("WWW-Authenticate", challenge)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}
}

// match walks every credential so timing does not reveal which entry hit.
func match(creds []Credential, user, pass string) (Credential, bool) {
	var (
		found Credential
		hit   bool
	)
	for _, c := range creds {
		u := subtle.ConstantTimeCompare([]byte(user), []byte(c.Username))
		p := subtle.ConstantTimeCompare([]byte(pass), []byte(c.Password))
		if u&p == 1 && !hit {
			found, hit = c, true
		}
	}
	return found, hit
}

func realmOf(creds []Credential) string {
	for _, c := range creds {
		if c.Realm != "" {
			return c.Realm
		}
	}
	return DefaultRealm
}
