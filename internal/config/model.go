// internal/config/model.go
//
// Typed configuration model for kapenta.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env` next to the YAML file    – dotenv values,
//   • the YAML document passed on the CLI       – primary static file,
//   • `KAPENTA_`-prefixed environment overrides – highest precedence.
//
// Any secret whose string begins with the prefix `vault:` is resolved
// through a SecretGetter after unmarshalling (see secrets.go), so the
// model handed to the rest of the program never carries Vault URIs.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Keys are camelCase to
//     match the documented configuration format (`apiRoot`, `reportName`).
//   • `BaseDir` is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// Reports section
//

// Report declares one report endpoint.  Path and Methods are optional; the
// report mapper derives defaults from ReportName.
type Report struct {
	ReportName       string   `koanf:"reportName"       validate:"required"`
	Path             string   `koanf:"path"`
	Methods          []string `koanf:"methods"`
	Extensions       []string `koanf:"extensions"`
	TemplateLocation string   `koanf:"templateLocation"`
}

//
// Basic auth section
//

// User is one credential entry.  Realm is optional and only labels the
// WWW-Authenticate challenge.
type User struct {
	Username string `koanf:"username" validate:"required"`
	Password string `koanf:"password"`
	Realm    string `koanf:"realm"`
}

// BasicAuth accepts a single `user`, a `users` list, or both.  The auth
// configurator merges them in that order.
type BasicAuth struct {
	User  *User  `koanf:"user"  validate:"omitempty"`
	Users []User `koanf:"users" validate:"dive"`
}

//
// Logging section
//

// Logging tunes the zap logger.  Both fields default in the loader.
type Logging struct {
	Directory string `koanf:"directory"`
	Level     string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Storage sections
//

// Database holds the DSN for the render audit log.  The password may be a
// `vault:` reference and is injected into the DSN at connect time, keeping
// credentials out of flat files and git history.
type Database struct {
	DSN          string `koanf:"dsn"`
	Password     string `koanf:"password"`
	MaxOpenConns int    `koanf:"maxOpenConns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"maxIdleConns" validate:"gte=0"`
}

// Backup enables writing a copy of every rendered report to disk.
type Backup struct {
	Directory string `koanf:"directory"`
}

//
// HTTP tunables
//

// Metrics controls the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// RateLimit is a per-client-IP token bucket.  Zero disables it.
type RateLimit struct {
	RequestsPerSecond float64 `koanf:"requestsPerSecond" validate:"gte=0"`
	Burst             int     `koanf:"burst"             validate:"gte=0"`
}

// Render tunes the template engine.
type Render struct {
	CacheSize int `koanf:"cacheSize" validate:"gte=0"`
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load().  It is passed by
// pointer into every component; nothing reads it from ambient state.
type Config struct {
	ApiRoot         string        `koanf:"apiRoot" validate:"required,startswith=/"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"    validate:"required,min=1,max=65535"`
	Reports         []Report      `koanf:"reports" validate:"required,min=1,dive"`
	BasicAuth       *BasicAuth    `koanf:"basicAuth"`
	Logging         *Logging      `koanf:"logging"`
	Database        *Database     `koanf:"database"`
	Backup          *Backup       `koanf:"backup"`
	Metrics         Metrics       `koanf:"metrics"`
	RateLimit       RateLimit     `koanf:"rateLimit"`
	Render          Render        `koanf:"render"`
	ForceHTTPS      bool          `koanf:"forceHttps"`
	TrustProxy      bool          `koanf:"trustProxy"` // honour X-Forwarded-For / X-Real-IP
	ShutdownTimeout time.Duration `koanf:"shutdownTimeout"`
	GeoIPDatabase   string        `koanf:"geoipDatabase"`
	BaseDir         string        `koanf:"-"` // directory of the YAML file
}

// Addr is the host:port the HTTP service binds to.
func (c *Config) Addr() string {
	return joinHostPort(c.Host, c.Port)
}
