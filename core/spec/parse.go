package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// httpMethods are the keys of a path item that describe operations.
var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// Load reads and parses a specification document from a YAML or JSON file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse spec %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses a specification document. YAML is a superset of JSON, so both
// encodings go through the same decoder.
func Parse(data []byte) (*Document, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	raw, ok := stringifyKeys(root).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document is not a mapping")
	}

	doc := &Document{Source: raw, paths: make(map[string]*PathItem)}

	if v, ok := raw["openapi"].(string); ok {
		doc.Version = v
	} else if v, ok := raw["swagger"].(string); ok {
		doc.Version = v
	}
	if info, ok := raw["info"].(map[string]any); ok {
		doc.Title, _ = info["title"].(string)
	}
	doc.BasePath, _ = raw["basePath"].(string)

	paths, ok := raw["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return nil, fmt.Errorf("document declares no paths")
	}

	for tmpl, v := range paths {
		if !strings.HasPrefix(tmpl, "/") {
			return nil, fmt.Errorf("path %q must start with /", tmpl)
		}
		pm, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("path %q is not a mapping", tmpl)
		}

		norm := NormalizePath(tmpl)
		item := &PathItem{Template: norm, Operations: make(map[string]*Operation)}

		for method, ov := range pm {
			method = strings.ToLower(method)
			if !httpMethods[method] {
				continue
			}
			om, ok := ov.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s %s is not a mapping", method, tmpl)
			}
			op, err := parseOperation(norm, method, om)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", method, tmpl, err)
			}
			item.Operations[method] = op
		}

		if len(item.Operations) == 0 {
			continue
		}
		doc.paths[norm] = item
	}

	if len(doc.paths) == 0 {
		return nil, fmt.Errorf("document declares no operations")
	}

	return doc, nil
}

// stringifyKeys rewrites every mapping in the decoded tree to string keys.
// Unquoted numeric keys, which is how status codes are usually written
// (`200:`), decode as ints and land the whole responses mapping in a
// map[any]any that neither the response lookup nor JSON re-encoding of the
// document can use.
func stringifyKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringifyKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringifyKeys(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = stringifyKeys(val)
		}
		return t
	}
	return v
}

func parseOperation(path, method string, om map[string]any) (*Operation, error) {
	op := &Operation{
		Method:    method,
		Path:      path,
		Responses: make(map[string]*Response),
	}
	op.Summary, _ = om["summary"].(string)
	op.OperationID, _ = om["operationId"].(string)
	op.Controller, _ = om[ControllerExtension].(string)

	responses, ok := om["responses"].(map[string]any)
	if !ok {
		return op, nil
	}

	for code, rv := range responses {
		rm, ok := rv.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("response %q is not a mapping", code)
		}
		resp, err := parseResponse(rm)
		if err != nil {
			return nil, fmt.Errorf("response %q: %w", code, err)
		}
		op.Responses[code] = resp
	}

	return op, nil
}

func parseResponse(rm map[string]any) (*Response, error) {
	resp := &Response{Schemas: make(map[string]json.RawMessage)}
	resp.Description, _ = rm["description"].(string)

	// v2-style inline schema
	if sv, ok := rm["schema"]; ok {
		raw, err := json.Marshal(sv)
		if err != nil {
			return nil, fmt.Errorf("encode schema: %w", err)
		}
		resp.Schemas["application/json"] = raw
	}

	// v3-style content map
	if cv, ok := rm["content"].(map[string]any); ok {
		for ct, mv := range cv {
			mm, ok := mv.(map[string]any)
			if !ok {
				continue
			}
			sv, ok := mm["schema"]
			if !ok {
				continue
			}
			raw, err := json.Marshal(sv)
			if err != nil {
				return nil, fmt.Errorf("encode %s schema: %w", ct, err)
			}
			resp.Schemas[ct] = raw
		}
	}

	return resp, nil
}
