package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/specgate/specgate/pkg/jsonapi"
	"github.com/specgate/specgate/ports"
)

// ViolationsHandler exposes the recorded contract violations for
// inspection. Mounted under /violations by the router.
type ViolationsHandler struct {
	store  ports.ViolationStore
	logger zerolog.Logger
}

// NewViolationsHandler creates the violations sub-router.
func NewViolationsHandler(store ports.ViolationStore, logger zerolog.Logger) http.Handler {
	h := &ViolationsHandler{store: store, logger: logger}

	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Delete("/", h.Purge)
	return r
}

// List returns recent violations, newest first.
//
//	@Summary		List recorded contract violations
//	@Tags			Violations
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of violations to return"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		400		{object}	jsonapi.Document
//	@Router			/violations [get]
func (h *ViolationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			jsonapi.WriteError(w, jsonapi.NewError(400, "bad_request", "Bad Request").
				Detailf("limit must be a non-negative integer, got %q", raw).
				Parameter("limit").
				Build())
			return
		}
		limit = n
	}

	violations, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("listing violations")
		jsonapi.WriteInternalError(w, "")
		return
	}

	resources := make([]jsonapi.Resource, 0, len(violations))
	for _, v := range violations {
		resources = append(resources, violationResource(v))
	}
	jsonapi.WriteCollection(w, http.StatusOK, resources, jsonapi.Meta{
		"count": len(resources),
	})
}

// Purge deletes violations recorded before the given time.
//
//	@Summary		Purge old contract violations
//	@Tags			Violations
//	@Produce		json
//	@Param			before	query		string	true	"RFC 3339 cutoff; violations recorded before this time are deleted"
//	@Success		200		{object}	jsonapi.Document	"meta.purged holds the number deleted"
//	@Failure		400		{object}	jsonapi.Document
//	@Router			/violations [delete]
func (h *ViolationsHandler) Purge(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("before")
	if raw == "" {
		jsonapi.WriteError(w, jsonapi.NewError(400, "bad_request", "Bad Request").
			Detail("before is required").
			Parameter("before").
			Build())
		return
	}
	before, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		jsonapi.WriteError(w, jsonapi.NewError(400, "bad_request", "Bad Request").
			Detailf("before must be an RFC 3339 timestamp, got %q", raw).
			Parameter("before").
			Build())
		return
	}

	purged, err := h.store.Purge(r.Context(), before)
	if err != nil {
		h.logger.Error().Err(err).Msg("purging violations")
		jsonapi.WriteInternalError(w, "")
		return
	}

	jsonapi.WriteMeta(w, http.StatusOK, jsonapi.Meta{"purged": purged})
}

func violationResource(v ports.ContractViolation) jsonapi.Resource {
	return jsonapi.Resource{
		Type: "violation",
		ID:   v.ID,
		Attributes: map[string]any{
			"request_id":  v.RequestID,
			"method":      v.Method,
			"path":        v.Path,
			"template":    v.Template,
			"module":      v.Module,
			"operation":   v.OperationID,
			"status":      v.Status,
			"kind":        v.Kind,
			"detail":      v.Detail,
			"occurred_at": v.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}
}
