// internal/routing/path.go
//
// Route-path helpers.
//
// • RouteSegment(name) ─ derives the default route segment for a report:
//   lower-case everything and replace each space with “_”.
// • BuildPath(root, path) ─ joins an API root and a resource path with a
//   single “/” and guarantees exactly one leading slash.
// • IsValidPath(p) ─ syntactic check for a resource path.
// • IsReservedPath(root, p) ─ collision check against the API root and the
//   discovery endpoint.
//
// Rules (IsValidPath)
// -------------------
// 1. Non-empty and starts with “/”.
// 2. No whitespace anywhere.
// 3. No empty segment (“//”).
// 4. Every byte is a literal RFC 3986 path character: unreserved, a
//    sub-delim other than “*”, “:” or “@”.  Percent-escapes are refused
//    because routes match the decoded request path, and “{”, “}” and “*”
//    are router pattern syntax.
//
// Notes
// -----
// • Reserved-path comparison is case-insensitive and ignores a trailing
//   “/”, so “/API/Reports.JSON/” still collides.

package routing

import "strings"

// DiscoveryPath is appended to the API root for the listing endpoint.
const DiscoveryPath = "/reports.json"

// RouteSegment converts a report name into its default route segment.
func RouteSegment(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// IsValidPath reports whether p is a well-formed resource path.
func IsValidPath(p string) bool {
	if p == "" || p[0] != '/' {
		return false
	}
	if strings.Contains(p, "//") {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] != '/' && !isPathChar(p[i]) {
			return false
		}
	}
	return true
}

// isPathChar covers RFC 3986 pchar minus pct-encoded and “*”.
func isPathChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~!$&'()+,;=:@", c) != -1
}

// IsReservedPath reports whether p collides with the API root itself or with
// the discovery endpoint.  p is checked both as given and prefixed with root.
func IsReservedPath(root, p string) bool {
	reserved := []string{
		trimSlash(root),
		trimSlash(BuildPath(root, DiscoveryPath)),
	}
	for _, candidate := range []string{trimSlash(p), trimSlash(BuildPath(root, p))} {
		for _, r := range reserved {
			if strings.EqualFold(candidate, r) {
				return true
			}
		}
	}
	return false
}

// BuildPath joins root + path ensuring exactly one leading slash and no
// duplicate separators at the join.
func BuildPath(root, path string) string {
	root = strings.Trim(root, "/")
	path = strings.Trim(path, "/")

	switch {
	case root == "" && path == "":
		return "/"
	case root == "":
		return "/" + path
	case path == "":
		return "/" + root
	default:
		return "/" + root + "/" + path
	}
}

// trimSlash strips trailing slashes but keeps the bare root.
func trimSlash(p string) string {
	if t := strings.TrimRight(p, "/"); t != "" {
		return t
	}
	return "/"
}
