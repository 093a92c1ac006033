// internal/report/registry.go
//
// Registry of resolved report resources for one API root.  Built once at
// boot and read by every request.

package report

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/yanizio/kapenta/internal/config"
	"github.com/yanizio/kapenta/internal/metrics"
	"github.com/yanizio/kapenta/internal/routing"
)

// ErrNoReports is returned when every declared report was rejected.  Zero
// endpoints is a hard stop, not a degraded mode.
var ErrNoReports = errors.New("server cannot boot without reports correctly configured, please review the configuration")

// ErrInvalidAPIRoot aborts the boot: every route hangs off the root, so a
// malformed one cannot be skipped like a single report.
var ErrInvalidAPIRoot = errors.New("invalid apiRoot")

// Registry holds the resolved resources for one API root, in registration
// order.  It is never mutated after construction.
type Registry struct {
	apiRoot   string
	resources []Resource
}

// NewRegistry wraps already-resolved resources, e.g. when embedding kapenta
// without a YAML file.  The slice is copied.
func NewRegistry(apiRoot string, resources []Resource) *Registry {
	return &Registry{
		apiRoot:   config.NormalizeAPIRoot(apiRoot),
		resources: cloneResources(resources),
	}
}

// BuildRegistry maps every report in order.  A malformed API root fails
// with ErrInvalidAPIRoot before any report is looked at.  Rejected entries are logged and
// skipped, the first Fatal aborts, and an empty result fails with
// ErrNoReports.  Duplicate non-reserved paths are kept as declared.
func BuildRegistry(apiRoot string, reports []config.Report, baseDir string) (*Registry, error) {
	apiRoot = config.NormalizeAPIRoot(apiRoot)
	if !routing.IsValidPath(apiRoot) {
		return nil, fmt.Errorf("%w %q", ErrInvalidAPIRoot, apiRoot)
	}
	resources := make([]Resource, 0, len(reports))

	for _, rc := range reports {
		m := MapResource(rc, apiRoot, baseDir)
		switch m.Kind {
		case Fatal:
			zap.L().Error("report configuration is fatal",
				zap.String("report", rc.ReportName), zap.Error(m.Err))
			return nil, m.Err
		case Rejected:
			metrics.RejectedReportsTotal.Inc()
			zap.L().Warn("report skipped",
				zap.String("report", rc.ReportName), zap.String("reason", m.Reason))
		case Resolved:
			resources = append(resources, m.Resource)
		}
	}

	if len(resources) == 0 {
		return nil, ErrNoReports
	}

	metrics.RegisteredReports.Set(float64(len(resources)))
	zap.L().Info("registered report resource endpoints", zap.Int("count", len(resources)))
	return &Registry{apiRoot: apiRoot, resources: resources}, nil
}

// APIRoot is the shared prefix of every resource route.
func (r *Registry) APIRoot() string { return r.apiRoot }

// Len is the number of registered resources.
func (r *Registry) Len() int { return len(r.resources) }

// Resources returns a deep copy of the resources in registration order.
func (r *Registry) Resources() []Resource { return cloneResources(r.resources) }

func cloneResources(in []Resource) []Resource {
	out := make([]Resource, len(in))
	for i, res := range in {
		out[i] = NewResource(res.Name, res.Path, res.Methods, res.Extensions, res.Template)
	}
	return out
}

// Route is the absolute route of res under this registry's API root.
func (r *Registry) Route(res Resource) string {
	return routing.BuildPath(r.apiRoot, res.Path)
}

// DiscoveryRoute is where the listing endpoint is mounted.
func (r *Registry) DiscoveryRoute() string {
	return routing.BuildPath(r.apiRoot, routing.DiscoveryPath)
}

//
// Discovery document
//

// Entry is one resource as shown by the discovery endpoint.
type Entry struct {
	Path       string   `json:"path"`
	Methods    []string `json:"methods"`
	Extensions []string `json:"extensions"`
}

// Listing is the body of GET <apiRoot>/reports.json.
type Listing struct {
	APIRoot string  `json:"apiRoot"`
	Reports []Entry `json:"reports"`
}

// Listing snapshots the registry for the discovery endpoint.
func (r *Registry) Listing() Listing {
	out := Listing{APIRoot: r.apiRoot, Reports: make([]Entry, 0, len(r.resources))}
	for _, res := range r.resources {
		exts := res.Extensions
		if exts == nil {
			exts = []string{}
		}
		out.Reports = append(out.Reports, Entry{
			Path:       res.Path,
			Methods:    slices.Clone(res.Methods),
			Extensions: slices.Clone(exts),
		})
	}
	return out
}
