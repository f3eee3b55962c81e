// Package resolve computes which handler module owns an operation and which
// operation identifier to invoke within it. Resolution is a pure function of
// the operation descriptor, the matched path template, and the set of
// registered modules.
package resolve

import (
	"strings"

	"github.com/specgate/specgate/core/spec"
)

// ControllerSuffix is appended to a path-derived name to form the
// conventional handler-module name.
const ControllerSuffix = "_controller"

// DefaultModule is the fallback module name when neither an override nor a
// conventional module applies.
const DefaultModule = "default"

// Module-name provenance, recorded for diagnostics.
const (
	ModuleFromOverride   = "override"
	ModuleFromConvention = "convention"
	ModuleFromDefault    = "default"
)

// Operation-identifier provenance.
const (
	OperationExplicit    = "explicit"
	OperationSynthesized = "synthesized"
)

// Modules answers whether a handler module is registered under a name.
// *registry.Registry satisfies it.
type Modules interface {
	Has(name string) bool
}

// Resolver maps operation descriptors to (module, operation) pairs.
type Resolver struct {
	modules       Modules
	defaultModule string
}

// New creates a resolver over the given module set. An empty defaultModule
// selects DefaultModule.
func New(modules Modules, defaultModule string) *Resolver {
	if defaultModule == "" {
		defaultModule = DefaultModule
	}
	return &Resolver{modules: modules, defaultModule: defaultModule}
}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	Module    string
	Operation string

	// ModuleSource and OperationSource record which precedence rule fired.
	ModuleSource    string
	OperationSource string
}

// Resolve determines the handler module and operation identifier for the
// operation matched at the given path template. Template must be the
// document's template for the request, not the concrete path. Resolution
// never fails; missing modules or operations surface at dispatch time.
func (r *Resolver) Resolve(op *spec.Operation, template string) Resolution {
	res := Resolution{}

	switch {
	case op.Controller != "":
		res.Module = op.Controller
		res.ModuleSource = ModuleFromOverride
	default:
		conventional := ConventionalModule(template)
		if r.modules.Has(conventional) {
			res.Module = conventional
			res.ModuleSource = ModuleFromConvention
		} else {
			res.Module = r.defaultModule
			res.ModuleSource = ModuleFromDefault
		}
	}

	if op.OperationID != "" {
		res.Operation = op.OperationID
		res.OperationSource = OperationExplicit
	} else {
		res.Operation = SynthesizeOperationID(op.Method, template)
		res.OperationSource = OperationSynthesized
	}

	return res
}

// ConventionalModule derives the conventional handler-module name from a
// path template: the template with its leading slash stripped, plus the
// controller suffix.
func ConventionalModule(template string) string {
	return strings.TrimPrefix(spec.NormalizePath(template), "/") + ControllerSuffix
}

// SynthesizeOperationID builds a fallback operation identifier from the
// method verb and the path-derived resource name.
func SynthesizeOperationID(method, template string) string {
	return verbFor(method) + "_" + resourceName(template)
}

func verbFor(method string) string {
	switch strings.ToLower(method) {
	case "get":
		return "list"
	case "post":
		return "create"
	case "put":
		return "update"
	default:
		return "delete"
	}
}

// resourceName is the last segment of the template that is not a path
// parameter. A template with no such segment names the root resource.
func resourceName(template string) string {
	segments := strings.Split(strings.TrimPrefix(spec.NormalizePath(template), "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		s := segments[i]
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			continue
		}
		return s
	}
	return "root"
}
