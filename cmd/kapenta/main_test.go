package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kapenta.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck_PrintsRoutes(t *testing.T) {
	path := writeConfig(t, `
apiRoot: /api
port: 8080
reports:
  - reportName: Sales Report
    extensions: [csv, html]
  - reportName: Broken
    path: "/has space"
  - reportName: Stock
    path: /inventory/stock
    methods: [get]
`)
	out, err := runCLI(t, "check", "-c", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}

	for _, want := range []string{
		"listen   0.0.0.0:8080",
		"discover GET /api/reports.json",
		"/api/sales_report  [csv,html]  Sales Report",
		"GET       /api/inventory/stock  [html]  Stock",
		"2 of 3 reports registered",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheck_FatalMapping(t *testing.T) {
	path := writeConfig(t, `
apiRoot: /api
port: 8080
reports:
  - reportName: Deleter
    methods: [DELETE]
`)
	if _, err := runCLI(t, "check", "-c", path); err == nil {
		t.Fatal("expected fatal error for report without GET or POST")
	}
}

func TestCheck_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "apiRoot: /api\nreports: []\n")
	if _, err := runCLI(t, "check", "-c", path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestResolve(t *testing.T) {
	if got := resolve("/etc/kapenta", "geo.mmdb"); got != "/etc/kapenta/geo.mmdb" {
		t.Errorf("relative = %q", got)
	}
	if got := resolve("/etc/kapenta", "/var/geo.mmdb"); got != "/var/geo.mmdb" {
		t.Errorf("absolute = %q", got)
	}
}
