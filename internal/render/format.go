// internal/render/format.go
//
// Output-extension negotiation and content types.

package render

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/yanizio/kapenta/internal/report"
)

// FormatParam is the request parameter naming the desired extension.
const FormatParam = "format"

// ErrUnsupportedExtension is returned when a request asks for an extension
// the report does not declare.  Handlers answer 406.
var ErrUnsupportedExtension = errors.New("unsupported report extension")

// reportTypes are registered with the mime package on Boot.
var reportTypes = map[string]string{
	"csv":  "text/csv; charset=utf-8",
	"json": "application/json",
	"txt":  "text/plain; charset=utf-8",
	"xml":  "application/xml",
	"md":   "text/markdown; charset=utf-8",
}

// SelectExtension picks the output extension for res.  An empty request
// yields the primary extension.
func SelectExtension(res report.Resource, requested string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(requested), "."))
	if ext == "" {
		return res.PrimaryExtension(), nil
	}
	if !res.Allows(ext) {
		return "", fmt.Errorf("%w: %q for report %q", ErrUnsupportedExtension, ext, res.Name)
	}
	return ext, nil
}

// ContentType maps an extension to a Content-Type header value.
func ContentType(ext string) string {
	switch ext {
	case "html", "htm":
		return "text/html; charset=utf-8"
	}
	if t, ok := reportTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func isHTML(ext string) bool { return ext == "html" || ext == "htm" }
