package auth

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/kapenta/internal/config"
)

func TestCredentials_Order(t *testing.T) {
	cfg := &config.BasicAuth{
		User: &config.User{Username: "admin", Password: "a"},
		Users: []config.User{
			{Username: "carol", Password: "c"},
			{Username: "bob", Password: "b", Realm: "ops"},
		},
	}
	var got []string
	for _, c := range Credentials(cfg) {
		got = append(got, c.Username)
	}
	if want := []string{"admin", "carol", "bob"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	if n := len(Credentials(&config.BasicAuth{Users: cfg.Users})); n != 2 {
		t.Errorf("users only: len = %d, want 2", n)
	}
	if n := len(Credentials(&config.BasicAuth{User: cfg.User})); n != 1 {
		t.Errorf("user only: len = %d, want 1", n)
	}
	if Credentials(nil) != nil {
		t.Error("nil config should yield nil")
	}
}

// newRouter mirrors the server: auth first, then a route.
func newRouter(cfg *config.BasicAuth) (chi.Router, bool) {
	r := chi.NewRouter()
	installed := Configure(r, cfg)
	r.Get("/api/reports.json", func(w http.ResponseWriter, r *http.Request) {
		name, _ := User(r.Context())
		w.Header().Set("X-User", name)
		w.WriteHeader(http.StatusOK)
	})
	return r, installed
}

func TestConfigure_InstallsOnlyWhenNonEmpty(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.BasicAuth
		want bool
	}{
		{"absent", nil, false},
		{"empty block", &config.BasicAuth{}, false},
		{"single user", &config.BasicAuth{User: &config.User{Username: "u", Password: "p"}}, true},
		{"users list", &config.BasicAuth{Users: []config.User{{Username: "u", Password: "p"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, installed := newRouter(tt.cfg)
			if installed != tt.want {
				t.Fatalf("installed = %v, want %v", installed, tt.want)
			}

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/reports.json", nil))
			wantCode := http.StatusOK
			if tt.want {
				wantCode = http.StatusUnauthorized
			}
			if rr.Code != wantCode {
				t.Errorf("anonymous status = %d, want %d", rr.Code, wantCode)
			}
		})
	}
}

func TestBasicAuth_Challenge(t *testing.T) {
	r, _ := newRouter(&config.BasicAuth{
		User:  &config.User{Username: "admin", Password: "secret"},
		Users: []config.User{{Username: "alice", Password: "wonderland", Realm: "finance"}},
	})

	tests := []struct {
		name     string
		user     string
		pass     string
		setAuth  bool
		wantCode int
		wantUser string
	}{
		{"no header", "", "", false, http.StatusUnauthorized, ""},
		{"wrong password", "admin", "nope", true, http.StatusUnauthorized, ""},
		{"unknown user", "mallory", "secret", true, http.StatusUnauthorized, ""},
		{"case differs", "Admin", "secret", true, http.StatusUnauthorized, ""},
		{"single user", "admin", "secret", true, http.StatusOK, "admin"},
		{"list user", "alice", "wonderland", true, http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/reports.json", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusUnauthorized {
				if got := rr.Header().Get("WWW-Authenticate"); got != `Basic realm="finance", charset="UTF-8"` {
					t.Errorf("challenge = %q", got)
				}
				return
			}
			if got := rr.Header().Get("X-User"); got != tt.wantUser {
				t.Errorf("context user = %q, want %q", got, tt.wantUser)
			}
		})
	}
}

func TestBasicAuth_DefaultRealm(t *testing.T) {
	h := BasicAuth([]Credential{{Username: "u", Password: "p"}})(http.NotFoundHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rr.Header().Get("WWW-Authenticate"); got != `Basic realm="kapenta", charset="UTF-8"` {
		t.Errorf("challenge = %q", got)
	}
}
