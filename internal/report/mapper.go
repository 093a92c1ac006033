// internal/report/mapper.go
//
// MapResource: one config.Report in, one Mapping out.
//
// Order of checks
// ---------------
// 1. Methods first, so a report with no GET or POST aborts the boot even if
//    its path would also have been rejected.
// 2. Path syntax, then collision with the API root and discovery endpoint.
// 3. Extensions and the template location are normalized last; they never
//    reject.

package report

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/kapenta/internal/config"
	"github.com/yanizio/kapenta/internal/routing"
)

// ErrNoMethod aborts the whole boot: a report that cannot be reached by GET
// or POST is a configuration mistake, not a skippable entry.
var ErrNoMethod = errors.New("specify at least one HTTP method between GET or POST")

// Kind tags the three possible mapping outcomes.
type Kind int

const (
	Resolved Kind = iota
	Rejected      // dropped from the registry, boot continues
	Fatal         // boot aborts
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Mapping is the result of MapResource.  Resource is set only for Resolved,
// Reason only for Rejected, and Err only for Fatal.
type Mapping struct {
	Kind     Kind
	Resource Resource
	Reason   string
	Err      error
}

// MapResource resolves one report definition against the API root.
// Templates with a relative location are anchored at baseDir.
func MapResource(rc config.Report, apiRoot, baseDir string) Mapping {
	path := rc.Path
	if strings.TrimSpace(path) == "" {
		path = routing.RouteSegment(rc.ReportName)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	methods, err := resolveMethods(rc.Methods)
	if err != nil {
		return Mapping{Kind: Fatal, Err: fmt.Errorf("report %q: %w", rc.ReportName, err)}
	}

	if !routing.IsValidPath(path) {
		return Mapping{Kind: Rejected, Reason: fmt.Sprintf("invalid path %q", path)}
	}
	if routing.IsReservedPath(apiRoot, path) {
		return Mapping{Kind: Rejected, Reason: fmt.Sprintf("path %q is reserved under %q", path, apiRoot)}
	}

	return Mapping{
		Kind: Resolved,
		Resource: Resource{
			Name:       rc.ReportName,
			Path:       path,
			Methods:    methods,
			Extensions: normalizeExtensions(rc.Extensions),
			Template:   resolveTemplate(rc.TemplateLocation, baseDir),
		},
	}
}

// resolveMethods upper-cases and de-duplicates the declared methods, keeping
// declared order.  Only GET and POST are served; anything else is dropped
// with a warning.  Blank entries count as absent, so a list holding only
// blanks gets the defaults.
func resolveMethods(declared []string) ([]string, error) {
	named := make([]string, 0, len(declared))
	for _, m := range declared {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			named = append(named, m)
		}
	}
	if len(named) == 0 {
		return DefaultMethods(), nil
	}

	out := make([]string, 0, 2)
	for _, m := range named {
		switch m {
		case http.MethodGet, http.MethodPost:
			if !slices.Contains(out, m) {
				out = append(out, m)
			}
		default:
			zap.L().Warn("unsupported report method ignored", zap.String("method", m))
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMethod
	}
	return out, nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" || slices.Contains(out, e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func resolveTemplate(loc, baseDir string) string {
	if loc == "" || filepath.IsAbs(loc) || baseDir == "" {
		return loc
	}
	return filepath.Join(baseDir, loc)
}
