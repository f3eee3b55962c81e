// Package contract validates served response payloads against the response
// schemas declared in the service document. Validation is observational:
// callers record the outcome but never alter the bytes or status already
// chosen for the client.
package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/specgate/specgate/core/spec"
)

// Skip reasons reported when a response cannot be checked.
const (
	ReasonNoSchema          = "no_schema"
	ReasonUnspecifiedStatus = "unspecified_status"
)

// Report is the outcome of checking one response against its contract.
type Report struct {
	// Skipped is set when no schema applies to the response; Reason says why.
	Skipped bool
	Reason  string

	// Violations holds one human-readable message per schema failure. Empty
	// and not Skipped means the payload conforms.
	Violations []string
}

// OK reports whether the response was checked and conforms.
func (r Report) OK() bool {
	return !r.Skipped && len(r.Violations) == 0
}

// Message joins all violation messages into a single line.
func (r Report) Message() string {
	return strings.Join(r.Violations, ". ")
}

type opKey struct {
	method   string
	template string
}

type opSchemas struct {
	// declared status code strings, including codes without schemas
	declared map[string]bool

	// compiled schema per status code string; "default" applies to any
	// undeclared code
	compiled map[string]*jsonschema.Schema
}

// Validator checks response payloads against compiled schemas. All schemas
// are compiled once at construction; Check is safe for concurrent use.
type Validator struct {
	ops map[opKey]*opSchemas
}

// NewValidator compiles every JSON response schema in the document. A
// malformed schema fails construction rather than surfacing per request.
func NewValidator(doc *spec.Document) (*Validator, error) {
	v := &Validator{ops: make(map[opKey]*opSchemas)}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	n := 0
	for _, op := range doc.Operations() {
		os := &opSchemas{
			declared: make(map[string]bool),
			compiled: make(map[string]*jsonschema.Schema),
		}
		for code, resp := range op.Responses {
			os.declared[code] = true

			raw := resp.JSONSchema()
			if raw == nil {
				continue
			}
			url := fmt.Sprintf("inline://%d.json", n)
			n++
			if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
				return nil, fmt.Errorf("response schema for %s %s %s: %w",
					strings.ToUpper(op.Method), op.Path, code, err)
			}
			sch, err := compiler.Compile(url)
			if err != nil {
				return nil, fmt.Errorf("compile response schema for %s %s %s: %w",
					strings.ToUpper(op.Method), op.Path, code, err)
			}
			os.compiled[code] = sch
		}
		v.ops[opKey{method: strings.ToLower(op.Method), template: op.Path}] = os
	}

	return v, nil
}

// Check validates a payload delivered for the operation at (method,
// template) with the given status code. Template must be the document's
// path template, not the concrete request path.
func (v *Validator) Check(method, template string, status int, payload []byte) Report {
	os, ok := v.ops[opKey{method: strings.ToLower(method), template: template}]
	if !ok {
		return Report{Skipped: true, Reason: ReasonUnspecifiedStatus}
	}

	code := strconv.Itoa(status)
	sch, hasSchema := os.compiled[code]
	if !hasSchema {
		if os.declared[code] {
			// declared but carries no JSON schema, nothing to check
			return Report{Skipped: true, Reason: ReasonNoSchema}
		}
		sch, hasSchema = os.compiled["default"]
		if !hasSchema {
			if os.declared["default"] {
				return Report{Skipped: true, Reason: ReasonNoSchema}
			}
			return Report{Skipped: true, Reason: ReasonUnspecifiedStatus}
		}
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return Report{Violations: []string{
			fmt.Sprintf("response body is not valid JSON: %v", err),
		}}
	}

	if err := sch.Validate(value); err != nil {
		return Report{Violations: flatten(err)}
	}
	return Report{}
}

// flatten converts a validation error tree into leaf messages prefixed with
// the failing instance location.
func flatten(err error) []string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
