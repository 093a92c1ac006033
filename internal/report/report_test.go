package report

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/yanizio/kapenta/internal/config"
)

func TestMapResource_Defaults(t *testing.T) {
	m := MapResource(config.Report{ReportName: "Sales Report"}, "/api", "/etc/kapenta")
	if m.Kind != Resolved {
		t.Fatalf("Kind = %v, want resolved (reason %q, err %v)", m.Kind, m.Reason, m.Err)
	}
	if m.Resource.Path != "/sales_report" {
		t.Errorf("Path = %q, want /sales_report", m.Resource.Path)
	}
	if !reflect.DeepEqual(m.Resource.Methods, []string{"GET", "POST"}) {
		t.Errorf("Methods = %v, want [GET POST]", m.Resource.Methods)
	}
}

func TestMapResource_ExplicitMethodsPreserved(t *testing.T) {
	tests := []struct {
		declared []string
		want     []string
	}{
		{[]string{"GET"}, []string{"GET"}},
		{[]string{"post"}, []string{"POST"}},
		{[]string{"POST", "GET"}, []string{"POST", "GET"}},
		{[]string{"get", "GET", "PUT"}, []string{"GET"}},
		{[]string{" ", ""}, []string{"GET", "POST"}},
	}
	for _, tt := range tests {
		m := MapResource(config.Report{ReportName: "r", Methods: tt.declared}, "/api", "")
		if m.Kind != Resolved {
			t.Fatalf("%v: Kind = %v", tt.declared, m.Kind)
		}
		if !reflect.DeepEqual(m.Resource.Methods, tt.want) {
			t.Errorf("%v: Methods = %v, want %v", tt.declared, m.Resource.Methods, tt.want)
		}
	}
}

func TestDefaultMethods_FreshCopy(t *testing.T) {
	DefaultMethods()[0] = "DELETE"
	m := MapResource(config.Report{ReportName: "r"}, "/api", "")
	if !reflect.DeepEqual(m.Resource.Methods, []string{"GET", "POST"}) {
		t.Errorf("Methods = %v after caller mutation, want [GET POST]", m.Resource.Methods)
	}
	m.Resource.Methods[0] = "PUT"
	if got := DefaultMethods(); got[0] != "GET" {
		t.Errorf("DefaultMethods()[0] = %q after resource mutation", got[0])
	}
}

func TestMapResource_NoGetOrPostIsFatal(t *testing.T) {
	m := MapResource(config.Report{ReportName: "r", Methods: []string{"PUT", "DELETE"}}, "/api", "")
	if m.Kind != Fatal {
		t.Fatalf("Kind = %v, want fatal", m.Kind)
	}
	if !errors.Is(m.Err, ErrNoMethod) {
		t.Errorf("Err = %v, want ErrNoMethod", m.Err)
	}
}

func TestMapResource_PathOverride(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
		want string
	}{
		{"monthly", Resolved, "/monthly"},
		{"/stock/levels", Resolved, "/stock/levels"},
		{"reports.json", Rejected, ""},
		{"/Reports.JSON", Rejected, ""},
		{"/api", Rejected, ""},
		{"/", Rejected, ""},
		{"/with space", Rejected, ""},
		{"/a//b", Rejected, ""},
		{"/a{b", Rejected, ""},
		{"/a*b", Rejected, ""},
		{"/x/{id}", Rejected, ""},
		{"/a%20b", Rejected, ""},
		{"sales.v2", Resolved, "/sales.v2"},
	}
	for _, tt := range tests {
		m := MapResource(config.Report{ReportName: "x", Path: tt.path}, "/api", "")
		if m.Kind != tt.kind {
			t.Errorf("path %q: Kind = %v, want %v", tt.path, m.Kind, tt.kind)
			continue
		}
		if tt.kind == Resolved && m.Resource.Path != tt.want {
			t.Errorf("path %q: resolved %q, want %q", tt.path, m.Resource.Path, tt.want)
		}
		if tt.kind == Rejected && m.Reason == "" {
			t.Errorf("path %q: rejected without reason", tt.path)
		}
	}
}

func TestMapResource_TemplateAndExtensions(t *testing.T) {
	base := filepath.Join("/srv", "kapenta")
	m := MapResource(config.Report{
		ReportName:       "r",
		Extensions:       []string{".HTML", "csv", "html", ""},
		TemplateLocation: "templates/r.html",
	}, "/api", base)
	if m.Kind != Resolved {
		t.Fatalf("Kind = %v", m.Kind)
	}
	if want := filepath.Join(base, "templates", "r.html"); m.Resource.Template != want {
		t.Errorf("Template = %q, want %q", m.Resource.Template, want)
	}
	if !reflect.DeepEqual(m.Resource.Extensions, []string{"html", "csv"}) {
		t.Errorf("Extensions = %v", m.Resource.Extensions)
	}

	abs := filepath.Join(string(filepath.Separator), "opt", "r.txt")
	m = MapResource(config.Report{ReportName: "r", TemplateLocation: abs}, "/api", base)
	if m.Resource.Template != abs {
		t.Errorf("absolute template rewritten: %q", m.Resource.Template)
	}
}

func TestBuildRegistry_ScenarioSingleReport(t *testing.T) {
	reg, err := BuildRegistry("/api", []config.Report{
		{ReportName: "Sales Report", Methods: []string{"GET"}},
	}, "")
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if reg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", reg.Len())
	}
	res := reg.Resources()[0]
	if got := reg.Route(res); got != "/api/sales_report" {
		t.Errorf("Route = %q, want /api/sales_report", got)
	}
	if reg.DiscoveryRoute() != "/api/reports.json" {
		t.Errorf("DiscoveryRoute = %q", reg.DiscoveryRoute())
	}

	l := reg.Listing()
	if l.APIRoot != "/api" || len(l.Reports) != 1 {
		t.Fatalf("Listing = %#v", l)
	}
	if l.Reports[0].Path != "/sales_report" || !reflect.DeepEqual(l.Reports[0].Methods, []string{"GET"}) {
		t.Errorf("listing entry = %#v", l.Reports[0])
	}
}

func TestBuildRegistry_ReservedSkipped(t *testing.T) {
	reg, err := BuildRegistry("/api", []config.Report{
		{ReportName: "Listing Clash", Path: "reports.json"},
		{ReportName: "Daily", Path: "/daily"},
	}, "")
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if reg.Len() != 1 || reg.Resources()[0].Path != "/daily" {
		t.Fatalf("resources = %#v", reg.Resources())
	}
}

func TestBuildRegistry_FatalWinsOverValidEntries(t *testing.T) {
	_, err := BuildRegistry("/api", []config.Report{
		{ReportName: "Good"},
		{ReportName: "Bad", Methods: []string{"PATCH"}},
	}, "")
	if !errors.Is(err, ErrNoMethod) {
		t.Fatalf("err = %v, want ErrNoMethod", err)
	}
}

func TestBuildRegistry_InvalidAPIRoot(t *testing.T) {
	for _, root := range []string{"/my api", "/api{", "/api/*", "/a%20pi", "/a//b"} {
		_, err := BuildRegistry(root, []config.Report{{ReportName: "ok"}}, "")
		if !errors.Is(err, ErrInvalidAPIRoot) {
			t.Errorf("apiRoot %q: err = %v, want ErrInvalidAPIRoot", root, err)
		}
	}
	if _, err := BuildRegistry("/", []config.Report{{ReportName: "ok"}}, ""); err != nil {
		t.Errorf("apiRoot \"/\": %v", err)
	}
}

func TestBuildRegistry_AllRejected(t *testing.T) {
	_, err := BuildRegistry("/api", []config.Report{
		{ReportName: "a", Path: "/api"},
		{ReportName: "b", Path: "/reports.json"},
	}, "")
	if !errors.Is(err, ErrNoReports) {
		t.Fatalf("err = %v, want ErrNoReports", err)
	}
}

func TestBuildRegistry_OrderAndDuplicates(t *testing.T) {
	reg, err := BuildRegistry("/api", []config.Report{
		{ReportName: "Zeta"},
		{ReportName: "Alpha"},
		{ReportName: "Other", Path: "/zeta"},
	}, "")
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	var paths []string
	for _, e := range reg.Listing().Reports {
		paths = append(paths, e.Path)
	}
	if !reflect.DeepEqual(paths, []string{"/zeta", "/alpha", "/zeta"}) {
		t.Errorf("paths = %v", paths)
	}
}

func TestRegistry_IsReadOnly(t *testing.T) {
	reg := NewRegistry("api/", []Resource{NewResource("a", "/a", []string{"GET"}, nil, "")})
	if reg.APIRoot() != "/api" {
		t.Errorf("APIRoot = %q", reg.APIRoot())
	}

	got := reg.Resources()
	got[0].Methods[0] = "DELETE"
	got[0].Path = "/mutated"

	again := reg.Resources()[0]
	if again.Path != "/a" || again.Methods[0] != "GET" {
		t.Errorf("Resources() leaked the backing storage: %#v", again)
	}
	l := reg.Listing()
	if l.Reports[0].Extensions == nil {
		t.Error("Extensions should encode as [] not null")
	}
}

func TestResource_Extensions(t *testing.T) {
	r := NewResource("a", "/a", nil, nil, "")
	if !r.Allows("html") || r.Allows("csv") || r.PrimaryExtension() != "html" {
		t.Errorf("default extension handling wrong: %#v", r)
	}
	r = NewResource("a", "/a", nil, []string{"csv", "json"}, "")
	if r.Allows("html") || !r.Allows("json") || r.PrimaryExtension() != "csv" {
		t.Errorf("declared extension handling wrong: %#v", r)
	}
}
