package transport

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// placeholderPattern matches {name} and {name: regex}. The regex may itself
// contain one level of braces, as in {id: [0-9]{3}}.
var placeholderPattern = regexp.MustCompile(`\{\s*([\w.\-]+)\s*(?::\s*((?:[^{}]|\{[^{}]*\})*))?\}`)

// Placeholders returns the distinct placeholder names of a path template in
// order of first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// JoinPath joins two path templates with a single slash. "/" and "" are
// empty paths.
func JoinPath(base, path string) string {
	base = strings.TrimRight(base, "/")
	path = strings.Trim(path, "/")
	if path == "" {
		return base
	}
	return base + "/" + path
}

// Target is an immutable URL builder. Every method returns a new Target.
type Target struct {
	base  string
	path  string
	query url.Values
	order []string
}

// NewTarget creates a target for a base URL such as "http://host:8080/api".
func NewTarget(baseURL string) Target {
	return Target{base: strings.TrimRight(baseURL, "/")}
}

// Path appends a path template.
func (t Target) Path(template string) Target {
	t.path = JoinPath(t.path, template)
	return t
}

// Resolve replaces every {name} or {name: regex} placeholder with the
// path-escaped value.
func (t Target) Resolve(name, value string) Target {
	escaped := url.PathEscape(value)
	t.path = placeholderPattern.ReplaceAllStringFunc(t.path, func(m string) string {
		if placeholderPattern.FindStringSubmatch(m)[1] == name {
			return escaped
		}
		return m
	})
	return t
}

// Query adds query parameter values.
func (t Target) Query(name string, values ...string) Target {
	if len(values) == 0 {
		return t
	}
	q := make(url.Values, len(t.query)+1)
	for k, v := range t.query {
		q[k] = v
	}
	if _, ok := q[name]; !ok {
		t.order = append(append([]string(nil), t.order...), name)
	}
	q[name] = append(append([]string(nil), q[name]...), values...)
	t.query = q
	return t
}

// Matrix adds ;name=value parameters to the last path segment.
func (t Target) Matrix(name string, values ...string) Target {
	var b strings.Builder
	b.WriteString(t.path)
	for _, v := range values {
		b.WriteByte(';')
		b.WriteString(url.PathEscape(name))
		b.WriteByte('=')
		b.WriteString(url.PathEscape(v))
	}
	t.path = b.String()
	return t
}

// Template returns the path as built so far, unresolved placeholders included.
func (t Target) Template() string { return t.path }

// Base returns the base URL.
func (t Target) Base() string { return t.base }

// URL renders the full URL. Query parameters keep the order they were added in.
func (t Target) URL() string {
	u := t.base + t.path
	if len(t.query) == 0 {
		return u
	}
	var b strings.Builder
	for _, k := range t.order {
		vals := t.query[k]
		for _, v := range vals {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return u + "?" + b.String()
}

// QueryValues returns a copy of the query parameters.
func (t Target) QueryValues() url.Values {
	out := make(url.Values, len(t.query))
	keys := make([]string, 0, len(t.query))
	for k := range t.query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = append([]string(nil), t.query[k]...)
	}
	return out
}
