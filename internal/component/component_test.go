package component

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

func bodyJSON(t *testing.T, c watch.Component) string {
	t.Helper()
	b := doc.NewBuilder()
	require.NoError(t, c.WriteBody(b))
	v, err := b.Result()
	require.NoError(t, err)
	out, err := doc.Encode(v, doc.JSON)
	require.NoError(t, err)
	return string(out)
}

func TestDefaultRegistryBodies(t *testing.T) {
	reg := DefaultRegistry()
	tests := []struct {
		kind   Kind
		tag    string
		params map[string]any
		want   string
	}{
		{KindTrigger, "schedule", map[string]any{"interval": "5m"}, `{"interval":"5m"}`},
		{KindTrigger, "schedule", map[string]any{"interval": "90s"}, `{"interval":"90s"}`},
		{KindTrigger, "schedule", map[string]any{"interval": "1h1m"}, `{"interval":"61m"}`},
		{KindTrigger, "schedule", map[string]any{"cron": "0 */5 * * * *"}, `{"cron":"0 */5 * * * *"}`},
		{KindTrigger, "schedule", map[string]any{"hourly": map[string]any{"minute": []any{30, 0, 30}}}, `{"hourly":{"minute":[0,30]}}`},
		{KindInput, "none", nil, `{}`},
		{KindInput, "simple", map[string]any{"b": 1, "a": "x"}, `{"a":"x","b":1}`},
		{KindInput, "simple", nil, `{}`},
		{KindCondition, "always", nil, `{}`},
		{KindCondition, "never", nil, `{}`},
		{KindCondition, "compare", map[string]any{"path": "ctx.payload.hits", "op": "gt", "value": 5}, `{"ctx.payload.hits":{"gt":5}}`},
		{KindCondition, "script", map[string]any{"source": "return true", "lang": "painless"}, `{"source":"return true","lang":"painless"}`},
		{KindTransform, "script", map[string]any{"source": "return x", "params": map[string]any{"n": 1}}, `{"source":"return x","params":{"n":1}}`},
		{KindAction, "logging", map[string]any{"text": "hi", "level": "WARN"}, `{"text":"hi","level":"warn"}`},
		{KindAction, "email", map[string]any{"to": "a@b.com", "subject": "s"}, `{"to":"a@b.com","subject":"s"}`},
		{KindAction, "email", map[string]any{"to": []any{"a@b.com", "c@d.com"}}, `{"to":["a@b.com","c@d.com"]}`},
		{KindAction, "webhook", map[string]any{"url": "https://x.io/hook", "headers": map[string]any{"X-B": "2", "X-A": "1"}}, `{"method":"POST","url":"https://x.io/hook","headers":{"X-A":"1","X-B":"2"}}`},
		{KindAction, "index", map[string]any{"index": "alerts", "doc_id": "1"}, `{"index":"alerts","doc_id":"1"}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.tag, func(t *testing.T) {
			c, err := reg.New(tt.kind, tt.tag, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, c.Type())
			assert.Equal(t, tt.want, bodyJSON(t, c))
		})
	}
}

func TestDefaultRegistryRejects(t *testing.T) {
	reg := DefaultRegistry()
	tests := []struct {
		name   string
		kind   Kind
		tag    string
		params map[string]any
		want   string
	}{
		{"unknown type", KindAction, "pagerduty", nil, `no action registered for type "pagerduty"`},
		{"wrong kind", KindTrigger, "email", nil, `no trigger registered`},
		{"schedule without spec", KindTrigger, "schedule", nil, "exactly one of interval, cron or hourly"},
		{"schedule with two specs", KindTrigger, "schedule", map[string]any{"interval": "1m", "cron": "* * * * *"}, "exactly one"},
		{"bad interval", KindTrigger, "schedule", map[string]any{"interval": "soon"}, "interval"},
		{"zero interval", KindTrigger, "schedule", map[string]any{"interval": "0s"}, "must be positive"},
		{"sub-ms interval", KindTrigger, "schedule", map[string]any{"interval": "1500us"}, "finer than a millisecond"},
		{"bad cron", KindTrigger, "schedule", map[string]any{"cron": "not a cron"}, "cron"},
		{"bad minute", KindTrigger, "schedule", map[string]any{"hourly": map[string]any{"minute": []any{75}}}, "out of range"},
		{"compare op", KindCondition, "compare", map[string]any{"path": "p", "op": "like"}, `unknown compare op "like"`},
		{"compare path", KindCondition, "compare", map[string]any{"op": "eq"}, "path is required"},
		{"script source", KindTransform, "script", map[string]any{"lang": "x"}, "source is required"},
		{"logging level", KindAction, "logging", map[string]any{"text": "t", "level": "loud"}, "unknown level"},
		{"email to", KindAction, "email", map[string]any{}, "to is required"},
		{"email address", KindAction, "email", map[string]any{"to": "nobody"}, "invalid address"},
		{"email to type", KindAction, "email", map[string]any{"to": 5}, "must be a string or a list"},
		{"webhook scheme", KindAction, "webhook", map[string]any{"url": "ftp://x"}, "must be http or https"},
		{"webhook header", KindAction, "webhook", map[string]any{"url": "http://x", "headers": map[string]any{"n": 1}}, "headers.n must be a string"},
		{"index name", KindAction, "index", map[string]any{"index": 3}, "index must be a string"},
		{"chain empty", KindInput, "chain", map[string]any{"inputs": []any{}}, "at least one input"},
		{"chain not list", KindInput, "chain", map[string]any{"inputs": "x"}, "inputs must be a list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := reg.New(tt.kind, tt.tag, tt.params)
			assert.Nil(t, c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestChainInput(t *testing.T) {
	reg := DefaultRegistry()
	c, err := reg.New(KindInput, "chain", map[string]any{
		"inputs": []any{
			map[string]any{"name": "first", "type": "simple", "params": map[string]any{"k": "v"}},
			map[string]any{"name": "second", "type": "none"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"inputs":[{"first":{"simple":{"k":"v"}}},{"second":{"none":{}}}]}`, bodyJSON(t, c))

	_, err = reg.New(KindInput, "chain", map[string]any{
		"inputs": []any{
			map[string]any{"name": "a", "type": "none"},
			map[string]any{"name": "a", "type": "none"},
		},
	})
	assert.ErrorContains(t, err, `duplicate name "a"`)

	_, err = reg.New(KindInput, "chain", map[string]any{
		"inputs": []any{map[string]any{"name": "a", "type": "http"}},
	})
	assert.ErrorContains(t, err, `inputs[0]: no input registered for type "http"`)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(KindAction, "x", newIndex)
	assert.Panics(t, func() { reg.Register(KindAction, "x", newIndex) })
	assert.NotPanics(t, func() { reg.Register(KindTransform, "x", newScript) })
}

func TestRegistryTypes(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{"email", "index", "logging", "webhook"}, reg.Types(KindAction))
	assert.Equal(t, []string{"always", "compare", "never", "script"}, reg.Types(KindCondition))
	assert.Equal(t, []string{"chain", "none", "simple"}, reg.Types(KindInput))
	assert.Empty(t, NewRegistry().Types(KindTrigger))
}

func TestScheduleNext(t *testing.T) {
	from := time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)

	interval, err := IntervalSchedule(5 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, from.Add(5*time.Minute), interval.Next(from))

	hourly, err := HourlySchedule(45, 15)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 45, 0, 0, time.UTC), hourly.Next(from))
	assert.Equal(t, time.Date(2024, 5, 1, 11, 15, 0, 0, time.UTC), hourly.Next(from.Add(30*time.Minute)))

	cron, err := CronSchedule("0 * * * *")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), cron.Next(from))
}

func TestScheduleAsWatchTrigger(t *testing.T) {
	trigger, err := IntervalSchedule(10 * time.Minute)
	require.NoError(t, err)
	s := watch.NewSourceBuilder().
		Trigger(trigger).
		Condition(NeverCondition).
		AddAction("log", &Logging{Text: "fired"})
	out, err := s.ToBytes(doc.JSON)
	require.NoError(t, err)
	assert.Equal(t,
		`{"trigger":{"schedule":{"interval":"10m"}},"input":{"none":{}},"condition":{"never":{}},"actions":{"log":{"logging":{"text":"fired"}}}}`,
		string(out))
}
