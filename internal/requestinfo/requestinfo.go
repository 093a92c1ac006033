//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, IP + geolocation, URL, and timestamp).
//  These structs are inert.  They contain no pointers to database
//  handles or large buffers, so they are safe to log, audit, or hand to a
//  report template.
//
//  Dependencies
//  • github.com/avct/uasurfer            (UA parsing)
//  • github.com/oschwald/geoip2-golang   (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties exposed to report templates.
//
// Example (Chrome on macOS):
//
//	Browser   "BrowserChrome"  → "Chrome"
//	OS        "OSMacOSX"       → "MacOSX"
//	Device    "Desktop"
type UA struct {
	Raw         string
	Browser     string
	Version     string
	OS          string
	OSVersion   string
	Device      string // "Desktop", "Mobile", "Tablet", or "Other"
	Platform    string
	IsBot       bool
	PrimaryLang string // first tag from Accept-Language
}

// Geo holds IP-based geolocation hints.  Country and City stay empty when
// no GeoLite2 database is configured or the address has no match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	URL       *url.URL // read-only
	Timestamp time.Time
}

//
//  -----------------------------
//  Package-level state
//  -----------------------------
//

// geoReader is the optional MaxMind handle.  It is safe for concurrent
// reads, which is all we ever perform.
var (
	geoMu     sync.RWMutex
	geoReader *geoip2.Reader
)

// InitGeo opens the GeoLite2-City database.  Call it once at startup when
// `geoipDatabase` is configured; without it lookups return the bare IP.
func InitGeo(dbPath string) error {
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open GeoLite2 DB %q: %w", dbPath, err)
	}
	geoMu.Lock()
	old := geoReader
	geoReader = r
	geoMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// CloseGeo releases the MaxMind handle, if any.
func CloseGeo() error {
	geoMu.Lock()
	defer geoMu.Unlock()
	if geoReader == nil {
		return nil
	}
	err := geoReader.Close()
	geoReader = nil
	return err
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// WithInfo stores info in ctx.  Enrich uses it; tests may too.
func WithInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// parseUA converts a raw header into our UA struct.  The third-party enums
// never leave this file.
func parseUA(raw, acceptLang string) UA {
	u := surfer.Parse(raw)

	info := UA{
		Raw:         raw,
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:     versionToString(u.Browser.Version),
		OS:          strings.TrimPrefix(u.OS.Name.String(), "OS"),
		OSVersion:   versionToString(u.OS.Version),
		Platform:    strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}

	switch u.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}

// versionToString renders a version in dotted form while trimming trailing
// zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	switch {
	case v.Major == 0 && v.Minor == 0 && v.Patch == 0:
		return ""
	case v.Patch != 0:
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	case v.Minor != 0:
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	default:
		return strconv.Itoa(v.Major)
	}
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag := strings.TrimSpace(strings.Split(al, ",")[0])
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}

// lookupGeo returns best-effort Geo data using the shared reader.
func lookupGeo(ip net.IP) Geo {
	geoMu.RLock()
	r := geoReader
	geoMu.RUnlock()

	if r == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := r.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}
