// internal/render/funcs.go
//
// Template helpers available in every report:
//
//	{{ upper .Params.region }}  {{ join .Values.tag ", " }}
//	{{ browser .Request }} on {{ os .Request }} ({{ device .Request }})
//	{{ if isBot .Request }}crawler{{ end }}
//	{{ template "row" dict "k" 1 "v" "x" }}
package render

import (
	"strings"

	"github.com/yanizio/kapenta/internal/requestinfo"
)

func funcMap() map[string]any {
	return map[string]any{
		"dict":  dict,
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"join":  join,

		"browser": func(ri *requestinfo.RequestInfo) string { return ua(ri).Browser },
		"os":      func(ri *requestinfo.RequestInfo) string { return ua(ri).OS },
		"device":  func(ri *requestinfo.RequestInfo) string { return ua(ri).Device },
		"isBot":   func(ri *requestinfo.RequestInfo) bool { return ua(ri).IsBot },
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// join has the argument order templates read naturally.
func join(elems []string, sep string) string { return strings.Join(elems, sep) }

func ua(ri *requestinfo.RequestInfo) requestinfo.UA {
	if ri == nil {
		return requestinfo.UA{}
	}
	return ri.UA
}
