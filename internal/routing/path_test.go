// internal/routing/path_test.go
//
// Unit-tests for route-path helpers.
//
// These tests verify four behaviours:
//
//   • RouteSegment lower-cases and replaces spaces        → "sales_report"
//   • IsValidPath rejects relative, “//”, router syntax   → false
//   • IsReservedPath catches root and discovery, any case → true
//   • BuildPath never doubles or drops the separator

package routing

import "testing"

func TestRouteSegment(t *testing.T) {
	cases := map[string]string{
		"Sales Report":      "sales_report",
		"monthly":           "monthly",
		"Q1  Totals":        "q1__totals",
		"Already_Snake Out": "already_snake_out",
	}
	for in, want := range cases {
		if got := RouteSegment(in); got != want {
			t.Errorf("RouteSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsValidPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/sales_report", true},
		{"/stock/levels", true},
		{"/reports.json", true}, // syntactically fine; reservation is separate
		{"/a-b/c_d/e.csv", true},
		{"", false},
		{"sales", false},
		{"//sales", false},
		{"/a//b", false},
		{"/has space", false},
		{"/tab\there", false},
		{"/q?x=1", false},
		{"/frag#x", false},
		{"/bad%zz", false},
		{"/a%20b", false},
		{"/a{b", false},
		{"/a}b", false},
		{"/a*b", false},
		{"/a*b/c", false},
		{"/x/{id}", false},
		{"/files/*", false},
		{"/café", false},
		{"/a\\b", false},
		{"/q1;v=2/(draft)", true},
		{"/user@host:80", true},
		{"/", true},
	}
	for _, tt := range tests {
		if got := IsValidPath(tt.path); got != tt.want {
			t.Errorf("IsValidPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIsReservedPath(t *testing.T) {
	tests := []struct {
		root string
		path string
		want bool
	}{
		{"/api", "/reports.json", true},
		{"/api", "/REPORTS.JSON", true},
		{"/api", "/api", true},
		{"/api", "/API/", true},
		{"/api", "/api/reports.json", true},
		{"/api", "/", true},
		{"/api", "/sales_report", false},
		{"/api", "/reports.json/daily", false},
		{"/", "/reports.json", true},
		{"/", "/", true},
		{"/", "/sales", false},
	}
	for _, tt := range tests {
		if got := IsReservedPath(tt.root, tt.path); got != tt.want {
			t.Errorf("IsReservedPath(%q, %q) = %v, want %v", tt.root, tt.path, got, tt.want)
		}
	}
}

func TestBuildPath(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/api", "/sales_report", "/api/sales_report"},
		{"/api/", "sales", "/api/sales"},
		{"/", "/sales", "/sales"},
		{"", "", "/"},
		{"/api", "", "/api"},
		{"/api", "/reports.json", "/api/reports.json"},
	}
	for _, tt := range tests {
		if got := BuildPath(tt.root, tt.path); got != tt.want {
			t.Errorf("BuildPath(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}
