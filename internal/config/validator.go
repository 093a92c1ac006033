// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals and defaults the merged Koanf tree.  Any tag mismatch or
// validation error aborts startup, ensuring the binary never runs with
// partial, malformed, or missing configuration.
//
// Rules in use: `required` (apiRoot, port, reports, reportName, username),
// range checks on port and pool sizes, and `oneof` on the log level.
// HTTP-method rules live in the report mapper instead, since they are
// evaluated per report.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns a readable error listing every failed field, or
// nil on success.
func validateStruct(c *Config) error {
	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// ErrInvalid wraps every validation failure so callers can branch on it.
var ErrInvalid = errors.New("invalid configuration")
