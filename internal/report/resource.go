// Package report turns declared report definitions into validated resource
// descriptors and aggregates them into the registry served under one API
// root.
//
// Flow:
//
//	config.Report ─► MapResource ─► Mapping{Resolved|Rejected|Fatal}
//	               └─► BuildRegistry collects Resolved in input order
//
// A Resource is immutable once created and the Registry is read-only after
// construction, so request handlers share both without locking.
package report

import (
	"net/http"
	"slices"
)

// DefaultMethods returns the methods applied when a report declares none.
// Each call returns a fresh slice.
func DefaultMethods() []string {
	return []string{http.MethodGet, http.MethodPost}
}

// Resource is the resolved, defaulted form of one report endpoint.  Path is
// relative to the API root and always starts with “/”.
type Resource struct {
	Name       string
	Path       string
	Methods    []string
	Extensions []string
	Template   string // absolute, or relative to the process cwd
}

// NewResource copies its slice arguments so the caller cannot mutate the
// descriptor afterwards.
func NewResource(name, path string, methods, extensions []string, template string) Resource {
	return Resource{
		Name:       name,
		Path:       path,
		Methods:    slices.Clone(methods),
		Extensions: slices.Clone(extensions),
		Template:   template,
	}
}

// Allows reports whether the resource accepts the given file extension.  A
// resource without declared extensions accepts only DefaultExtension.
func (r Resource) Allows(ext string) bool {
	if len(r.Extensions) == 0 {
		return ext == DefaultExtension
	}
	return slices.Contains(r.Extensions, ext)
}

// PrimaryExtension is the extension used when a request names none.
func (r Resource) PrimaryExtension() string {
	if len(r.Extensions) == 0 {
		return DefaultExtension
	}
	return r.Extensions[0]
}

// DefaultExtension is assumed for reports that declare no extensions.
const DefaultExtension = "html"
