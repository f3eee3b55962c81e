// Package spec provides the in-memory OpenAPI specification model used for
// operation resolution and response-contract validation. The document is
// immutable once loaded and safe for unsynchronized concurrent reads.
package spec

import (
	"encoding/json"
	"sort"
	"strings"
)

// Extension key recognized on an operation for an explicit controller-module
// override. The name follows the swagger-router community convention.
const ControllerExtension = "x-swagger-router-controller"

// Document is an immutable specification tree keyed by normalized path
// template, then by lowercase HTTP method.
type Document struct {
	Version  string
	Title    string
	BasePath string

	// Source holds the document as parsed, for serving back over HTTP.
	Source map[string]any

	paths map[string]*PathItem
}

// PathItem holds the operations declared for one path template.
type PathItem struct {
	Template   string
	Operations map[string]*Operation
}

// Operation is the document's data for one (path, method) entry.
type Operation struct {
	Method      string
	Path        string
	Summary     string
	OperationID string

	// Controller is the explicit controller-module override, empty when the
	// specification does not declare one.
	Controller string

	// Responses maps a status code string (including "default") to the
	// declared response contract.
	Responses map[string]*Response
}

// Response is the contract declared for one status code of an operation.
type Response struct {
	Description string

	// Schemas maps content type to a raw JSON Schema. A v2-style response
	// schema is stored under "application/json".
	Schemas map[string]json.RawMessage
}

// JSONSchema returns the schema declared for a JSON content type, or nil
// when the response declares no JSON content.
func (r *Response) JSONSchema() json.RawMessage {
	if r == nil {
		return nil
	}
	if s, ok := r.Schemas["application/json"]; ok {
		return s
	}
	for ct, s := range r.Schemas {
		if strings.Contains(ct, "json") {
			return s
		}
	}
	return nil
}

// Paths returns all path templates in sorted order.
func (d *Document) Paths() []string {
	out := make([]string, 0, len(d.paths))
	for p := range d.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Operation returns the descriptor for a path template and method.
func (d *Document) Operation(path, method string) (*Operation, bool) {
	item, ok := d.paths[NormalizePath(path)]
	if !ok {
		return nil, false
	}
	op, ok := item.Operations[strings.ToLower(method)]
	return op, ok
}

// Operations returns every operation in the document, ordered by path then
// method. Useful for coverage checks at deploy time.
func (d *Document) Operations() []*Operation {
	var out []*Operation
	for _, p := range d.Paths() {
		item := d.paths[p]
		methods := make([]string, 0, len(item.Operations))
		for m := range item.Operations {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, m := range methods {
			out = append(out, item.Operations[m])
		}
	}
	return out
}

// AllowedMethods returns the uppercase HTTP methods declared for the
// template matching a concrete path, in sorted order. An empty result means
// no template matches at all.
func (d *Document) AllowedMethods(path string) []string {
	path = NormalizePath(path)

	item, ok := d.paths[path]
	if !ok {
		for _, tmpl := range d.Paths() {
			if _, match := matchTemplate(tmpl, path); match {
				item = d.paths[tmpl]
				break
			}
		}
	}
	if item == nil {
		return nil
	}

	out := make([]string, 0, len(item.Operations))
	for m := range item.Operations {
		out = append(out, strings.ToUpper(m))
	}
	sort.Strings(out)
	return out
}

// Match is the result of matching a concrete request path against the
// document's templates.
type Match struct {
	Template  string
	Operation *Operation
	Params    map[string]string
}

// MatchRequest matches a method and concrete path against the document.
// Templates use {param} placeholders that match exactly one segment.
// Exact templates win over parameterized ones.
func (d *Document) MatchRequest(method, path string) (*Match, bool) {
	method = strings.ToLower(method)
	path = NormalizePath(path)

	if item, ok := d.paths[path]; ok {
		if op, ok := item.Operations[method]; ok {
			return &Match{Template: path, Operation: op, Params: map[string]string{}}, true
		}
	}

	for _, tmpl := range d.Paths() {
		params, ok := matchTemplate(tmpl, path)
		if !ok {
			continue
		}
		op, ok := d.paths[tmpl].Operations[method]
		if !ok {
			continue
		}
		return &Match{Template: tmpl, Operation: op, Params: params}, true
	}

	return nil, false
}

// matchTemplate checks a concrete path against a template with {param}
// placeholders and extracts the parameter values.
func matchTemplate(template, path string) (map[string]string, bool) {
	tparts := strings.Split(template, "/")
	pparts := strings.Split(path, "/")

	if len(tparts) != len(pparts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, part := range tparts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			if pparts[i] == "" {
				return nil, false
			}
			params[strings.Trim(part, "{}")] = pparts[i]
			continue
		}
		if part != pparts[i] {
			return nil, false
		}
	}

	return params, true
}

// NormalizePath ensures a leading slash and strips a trailing one.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
