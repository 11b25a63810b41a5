package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/render"
)

// Reloader re-reads the watch file and swaps the renderer's catalog.
// It returns the number of watches now served.
type Reloader interface {
	Reload() (int, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	renderer *render.Renderer
	reloader Reloader
	log      *slog.Logger
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
// reloader may be nil, in which case POST /v1/watches/reload answers 501.
func New(renderer *render.Renderer, reloader Reloader, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{renderer: renderer, reloader: reloader, log: log, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /v1/watches", h.listWatches)
	h.mux.HandleFunc("GET /v1/watches/{id}", h.getWatch)
	h.mux.HandleFunc("POST /v1/watches/reload", h.reloadWatches)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(log, h.mux)
}

type watchSummary struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// GET /v1/watches: ids and fingerprints in file order.
func (h *Handler) listWatches(w http.ResponseWriter, r *http.Request) {
	cat := h.renderer.Catalog()
	out := make([]watchSummary, 0, cat.Len())
	for _, id := range cat.IDs() {
		e := cat.Entry(id)
		out = append(out, watchSummary{ID: id, Description: e.Description, Fingerprint: e.Fingerprint})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(out),
		"watches": out,
	})
}

// GET /v1/watches/{id}?format=json|pretty|yaml|canonical: one rendered document.
func (h *Handler) getWatch(w http.ResponseWriter, r *http.Request) {
	ct := doc.JSON
	if f := r.URL.Query().Get("format"); f != "" {
		var err error
		if ct, err = doc.ParseContentType(f); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	id := r.PathValue("id")
	out, err := h.renderer.Render(id, ct)
	switch {
	case errors.Is(err, render.ErrUnknownWatch):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		h.log.Error("render failed", "watch", id, "format", ct.String(), "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Each format is its own representation, so the tag carries it.
	if rev, ok := h.renderer.Catalog().Revision(id); ok {
		w.Header().Set("ETag", `"`+rev+"."+ct.String()+`"`)
	}
	writeDocument(w, ct, out)
}

// POST /v1/watches/reload: hot-reload watches from disk.
func (h *Handler) reloadWatches(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		writeError(w, http.StatusNotImplemented, "reload is not configured")
		return
	}
	n, err := h.reloader.Reload()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":      true,
		"watches_count": n,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 until the catalog holds at least one watch.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	n := h.renderer.Catalog().Len()
	if n == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "empty",
			"watches": n,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ready",
		"watches": n,
	})
}
