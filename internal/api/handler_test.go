package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/watchsource/internal/api"
	"github.com/gyaneshwarpardhi/watchsource/internal/catalog"
	"github.com/gyaneshwarpardhi/watchsource/internal/component"
	"github.com/gyaneshwarpardhi/watchsource/internal/config"
	"github.com/gyaneshwarpardhi/watchsource/internal/render"
)

type stubReloader struct {
	n   int
	err error
}

func (s *stubReloader) Reload() (int, error) { return s.n, s.err }

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	cfg := &config.WatchConfig{
		Version: "v1",
		Watches: []config.WatchDef{
			{
				ID:          "error_alert",
				Description: "errors in the last 5 minutes",
				Trigger:     &config.ComponentDef{Type: "schedule", Params: map[string]any{"interval": "5m"}},
				Actions:     []config.ActionDef{{ID: "log", Type: "logging", Params: map[string]any{"text": "fired"}}},
			},
		},
	}
	cat, err := catalog.Build(cfg, component.DefaultRegistry())
	require.NoError(t, err)
	return render.New(cat, 2, nil)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListWatches(t *testing.T) {
	r := newRenderer(t)
	h := api.New(r, nil, nil)

	rec := do(t, h, http.MethodGet, "/v1/watches")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])

	watches := body["watches"].([]any)
	first := watches[0].(map[string]any)
	fp, _ := r.Catalog().Fingerprint("error_alert")
	assert.Equal(t, "error_alert", first["id"])
	assert.Equal(t, "errors in the last 5 minutes", first["description"])
	assert.Equal(t, fp, first["fingerprint"])
}

func TestGetWatch(t *testing.T) {
	h := api.New(newRenderer(t), nil, nil)

	rec := do(t, h, http.MethodGet, "/v1/watches/error_alert")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.Equal(t,
		`{"trigger":{"schedule":{"interval":"5m"}},"input":{"none":{}},"condition":{"always":{}},"actions":{"log":{"logging":{"text":"fired"}}}}`,
		rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/watches/error_alert?format=yaml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "trigger:\n"))

	rec = do(t, h, http.MethodGet, "/v1/watches/error_alert?format=pretty")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\n  \"trigger\": {")
}

func TestETagFollowsRenderedBytes(t *testing.T) {
	build := func(order ...string) *catalog.Catalog {
		wd := config.WatchDef{
			ID:      "pair",
			Trigger: &config.ComponentDef{Type: "schedule", Params: map[string]any{"interval": "5m"}},
		}
		for _, id := range order {
			wd.Actions = append(wd.Actions, config.ActionDef{ID: id, Type: "logging", Params: map[string]any{"text": id}})
		}
		cat, err := catalog.Build(&config.WatchConfig{Version: "v1", Watches: []config.WatchDef{wd}}, component.DefaultRegistry())
		require.NoError(t, err)
		return cat
	}
	r := render.New(build("a", "b"), 1, nil)
	require.NoError(t, r.EnableCache(4))
	h := api.New(r, nil, nil)

	jsonTag := do(t, h, http.MethodGet, "/v1/watches/pair").Header().Get("ETag")
	yamlTag := do(t, h, http.MethodGet, "/v1/watches/pair?format=yaml").Header().Get("ETag")
	assert.NotEqual(t, jsonTag, yamlTag)
	assert.Equal(t, jsonTag, do(t, h, http.MethodGet, "/v1/watches/pair").Header().Get("ETag"))

	r.Swap(build("b", "a"))
	rec := do(t, h, http.MethodGet, "/v1/watches/pair")
	assert.NotEqual(t, jsonTag, rec.Header().Get("ETag"))
	assert.Contains(t, rec.Body.String(), `"actions":{"b":`)
}

func TestGetWatchErrors(t *testing.T) {
	h := api.New(newRenderer(t), nil, nil)

	rec := do(t, h, http.MethodGet, "/v1/watches/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown watch: missing", decode(t, rec)["error"])

	rec = do(t, h, http.MethodGet, "/v1/watches/error_alert?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], `unknown content type "xml"`)
}

func TestReload(t *testing.T) {
	r := newRenderer(t)

	rec := do(t, api.New(r, nil, nil), http.MethodPost, "/v1/watches/reload")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = do(t, api.New(r, &stubReloader{n: 3}, nil), http.MethodPost, "/v1/watches/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["reloaded"])
	assert.EqualValues(t, 3, body["watches_count"])

	rec = do(t, api.New(r, &stubReloader{err: errors.New("config validation errors")}, nil), http.MethodPost, "/v1/watches/reload")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "config validation errors", decode(t, rec)["error"])
}

func TestProbes(t *testing.T) {
	h := api.New(newRenderer(t), nil, nil)
	rec := do(t, h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])

	empty := api.New(render.New(nil, 1, nil), nil, nil)
	rec = do(t, empty, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = do(t, empty, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := api.New(newRenderer(t), nil, nil)
	do(t, h, http.MethodGet, "/v1/watches/error_alert")

	rec := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "watchsource_renders_total")
}

func TestRequestID(t *testing.T) {
	h := api.New(newRenderer(t), nil, nil)

	rec := do(t, h, http.MethodGet, "/healthz")
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestMethodNotAllowed(t *testing.T) {
	h := api.New(newRenderer(t), nil, nil)
	rec := do(t, h, http.MethodDelete, "/v1/watches/error_alert")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
