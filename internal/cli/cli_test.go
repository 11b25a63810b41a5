package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/watchsource/internal/component"
	"github.com/gyaneshwarpardhi/watchsource/internal/config"
	"github.com/gyaneshwarpardhi/watchsource/internal/render"
)

const testConfig = "testdata/watches.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "watchctl", cmd.Use)

	for _, name := range []string{"render", "export", "validate", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "json", format.DefValue)

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)
}

func TestConfigFlagDefaultsFromEnv(t *testing.T) {
	t.Setenv("WATCHCTL_CONFIG", testConfig)
	t.Setenv("WATCHCTL_FORMAT", "yaml")

	cmd := NewRootCommand()
	assert.Equal(t, testConfig, cmd.PersistentFlags().Lookup("config").DefValue)

	out, err := execute(t, "render", "heartbeat")
	require.NoError(t, err)
	assert.Contains(t, out, "text: alive")
}

func TestRenderGolden(t *testing.T) {
	out, err := execute(t, "--config", testConfig, "--format", "pretty", "render", "error_alert")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "render_error_alert", []byte(out))
}

func TestRenderFormats(t *testing.T) {
	out, err := execute(t, "-c", testConfig, "render", "heartbeat")
	require.NoError(t, err)
	assert.Equal(t,
		`{"trigger":{"schedule":{"cron":"0 * * * *"}},"input":{"none":{}},"condition":{"always":{}},"actions":{"log":{"logging":{"text":"alive","level":"info"}}}}`+"\n",
		out)

	out, err = execute(t, "-c", testConfig, "--format", "yaml", "render", "heartbeat")
	require.NoError(t, err)
	assert.Contains(t, out, "cron:")
	assert.Contains(t, out, "0 * * * *")
	assert.Contains(t, out, "text: alive")

	out, err = execute(t, "-c", testConfig, "--format", "canonical", "render", "error_alert")
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "10m", decoded["throttle_period_human"])
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		want string
	}{
		{"bad format", []string{"-c", testConfig, "--format", "xml", "render", "heartbeat"}, ExitCommandError, "invalid --format"},
		{"missing config", []string{"-c", "testdata/nope.yaml", "validate"}, ExitCommandError, "failed to load config"},
		{"invalid config", []string{"-c", "testdata/invalid.yaml", "validate"}, ExitFailure, `duplicate watch id "broken"`},
		{"uncompilable config", []string{"-c", "testdata/uncompilable.yaml", "validate"}, ExitFailure, `watch bad_email: action email: action email: invalid address "nobody"`},
		{"unknown watch", []string{"-c", testConfig, "render", "nope"}, ExitCommandError, "unknown watch: nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "-c", testConfig, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "WATCH")
	assert.Contains(t, out, "error_alert")
	assert.Contains(t, out, "heartbeat")
	assert.Contains(t, out, "✓ 2 watch(es) valid")
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	out, err := execute(t, "-c", testConfig, "--format", "yaml", "export", "--out", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 watch(es)")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"error_alert.yaml", "heartbeat.yaml"}, names)

	data, err := os.ReadFile(filepath.Join(dir, "heartbeat.yaml"))
	require.NoError(t, err)
	rendered, err := execute(t, "-c", testConfig, "--format", "yaml", "render", "heartbeat")
	require.NoError(t, err)
	assert.Equal(t, rendered, string(data))
}

func TestServe(t *testing.T) {
	dir := t.TempDir()
	src, err := os.ReadFile(testConfig)
	require.NoError(t, err)
	cfgPath := filepath.Join(dir, "watches.yaml")
	require.NoError(t, os.WriteFile(cfgPath, src, 0o644))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	opts := &RootOptions{ConfigPath: cfgPath, log: newLogger(io.Discard, false)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, opts, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/readyz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/v1/watches/heartbeat")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"cron":"0 * * * *"`)

	// Drop heartbeat and reload through the API.
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
version: v1
watches:
  - id: only
    trigger: {type: schedule, params: {interval: 1m}}
`), 0o644))
	resp, err = http.Post(base+"/v1/watches/reload", "application/json", nil)
	require.NoError(t, err)
	var reloaded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reloaded))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, reloaded["watches_count"])

	resp, err = http.Get(base + "/v1/watches/heartbeat")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// A watch file that parses but does not compile is rejected and the
	// previous catalog keeps serving.
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
version: v1
watches:
  - id: only
    trigger: {type: schedule, params: {interval: 1m}}
    actions: [{id: e, type: email, params: {to: nobody}}]
`), 0o644))
	resp, err = http.Post(base+"/v1/watches/reload", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Get(base + "/v1/watches/only")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestLiveCatalogReportsItsOwnReload(t *testing.T) {
	good, err := config.Parse([]byte(`
version: v1
watches:
  - id: only
    trigger: {type: schedule, params: {interval: 1m}}
`))
	require.NoError(t, err)
	uncompilable, err := os.ReadFile("testdata/uncompilable.yaml")
	require.NoError(t, err)
	bad, err := config.Parse(uncompilable)
	require.NoError(t, err)

	tests := []struct {
		name        string
		file        []byte
		interleaved *config.WatchConfig
		wantErr     string
	}{
		{"bad file, good watcher reload", uncompilable, good, "bad_email"},
		{"good file, bad watcher reload", []byte("version: v1\nwatches:\n  - id: a\n    trigger: {type: schedule, params: {interval: 1m}}\n"), bad, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "watches.yaml")
			require.NoError(t, os.WriteFile(path, tt.file, 0o644))
			log := newLogger(io.Discard, false)
			loader, err := config.NewLoader(path, log)
			require.NoError(t, err)

			live := &liveCatalog{
				loader:   loader,
				registry: component.DefaultRegistry(),
				renderer: render.New(nil, 1, log),
				log:      log,
			}
			loader.OnChange(live.apply)
			// Another reload lands between this one's apply and its result.
			loader.OnChange(func(*config.WatchConfig) { live.apply(tt.interleaved) })

			_, err = live.Reload()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
