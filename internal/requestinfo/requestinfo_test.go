package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const googlebot = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		xrip   string
		want   string
	}{
		{"remote addr", "192.0.2.10:5555", "", "", "192.0.2.10"},
		{"forwarded ignored", "10.0.0.1:1", "203.0.113.7, 10.0.0.2", "", "10.0.0.1"},
		{"real ip ignored", "10.0.0.1:1", "", "198.51.100.9", "10.0.0.1"},
		{"bare remote", "192.0.2.11", "", "", "192.0.2.11"},
		{"ipv6 remote", "[2001:db8::1]:443", "198.51.100.4", "", "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xrip != "" {
				r.Header.Set("X-Real-Ip", tt.xrip)
			}
			if got := ClientIP(r); got.String() != tt.want {
				t.Errorf("ClientIP = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestParseUA(t *testing.T) {
	ua := parseUA(chromeMac, "en-US,en;q=0.9")
	if ua.Browser != "Chrome" {
		t.Errorf("Browser = %q, want Chrome", ua.Browser)
	}
	if ua.Device != "Desktop" {
		t.Errorf("Device = %q, want Desktop", ua.Device)
	}
	if ua.IsBot {
		t.Error("desktop Chrome flagged as bot")
	}
	if ua.PrimaryLang != "en-us" {
		t.Errorf("PrimaryLang = %q, want en-us", ua.PrimaryLang)
	}
	if ua.Raw != chromeMac {
		t.Error("Raw header not preserved")
	}

	if !parseUA(googlebot, "").IsBot {
		t.Error("Googlebot not flagged as bot")
	}
}

func TestPrimaryLang(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"fr":                 "fr",
		"de-DE;q=0.8, en":    "de-de",
		" es , en-GB;q=0.5 ": "es",
	}
	for in, want := range cases {
		if got := primaryLang(in); got != want {
			t.Errorf("primaryLang(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnrich(t *testing.T) {
	var got *RequestInfo
	h := Enrich(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/sales?year=2024", nil)
	r.RemoteAddr = "192.0.2.1:4000"
	r.Header.Set("User-Agent", chromeMac)
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got == nil {
		t.Fatal("RequestInfo not attached")
	}
	if got.Geo.IP.String() != "192.0.2.1" {
		t.Errorf("IP = %v", got.Geo.IP)
	}
	if got.Geo.CountryISO != "" {
		t.Errorf("CountryISO = %q without a geo database", got.Geo.CountryISO)
	}
	if got.URL.Path != "/api/sales" {
		t.Errorf("URL.Path = %q", got.URL.Path)
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestFromContext_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if FromContext(r.Context()) != nil {
		t.Error("expected nil without middleware")
	}
}

func TestInitGeo_MissingFile(t *testing.T) {
	if err := InitGeo(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatal("expected error for missing database")
	}
}
