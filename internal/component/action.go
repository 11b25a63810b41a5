package component

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/gyaneshwarpardhi/watchsource/internal/doc"
	"github.com/gyaneshwarpardhi/watchsource/internal/watch"
)

const (
	LoggingActionType = "logging"
	EmailActionType   = "email"
	WebhookActionType = "webhook"
	IndexActionType   = "index"
)

// Logging writes a line to the executor's log.
type Logging struct {
	Text     string
	Level    string
	Category string
}

func newLogging(params map[string]any) (watch.Component, error) {
	text, err := stringParam(params, "text", true)
	if err != nil {
		return nil, err
	}
	level, err := stringParam(params, "level", false)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(level) {
	case "", "error", "warn", "info", "debug", "trace":
	default:
		return nil, fmt.Errorf("unknown level %q", level)
	}
	category, err := stringParam(params, "category", false)
	if err != nil {
		return nil, err
	}
	return &Logging{Text: text, Level: strings.ToLower(level), Category: category}, nil
}

func (l *Logging) Type() string { return LoggingActionType }

func (l *Logging) WriteBody(b *doc.Builder) error {
	b.StartObject().KeyValue("text", l.Text)
	if l.Level != "" {
		b.KeyValue("level", l.Level)
	}
	if l.Category != "" {
		b.KeyValue("category", l.Category)
	}
	b.EndObject()
	return b.Err()
}

// Email sends a message. A single recipient renders as a string, several as a list.
type Email struct {
	To      []string
	Subject string
	Body    string
}

func newEmail(params map[string]any) (watch.Component, error) {
	to, err := stringsParam(params, "to")
	if err != nil {
		return nil, err
	}
	if len(to) == 0 {
		return nil, errors.New("to is required")
	}
	for _, addr := range to {
		if !strings.Contains(addr, "@") {
			return nil, fmt.Errorf("invalid address %q", addr)
		}
	}
	subject, err := stringParam(params, "subject", false)
	if err != nil {
		return nil, err
	}
	body, err := stringParam(params, "body", false)
	if err != nil {
		return nil, err
	}
	return &Email{To: to, Subject: subject, Body: body}, nil
}

func (e *Email) Type() string { return EmailActionType }

func (e *Email) WriteBody(b *doc.Builder) error {
	b.StartObject()
	if len(e.To) == 1 {
		b.KeyValue("to", e.To[0])
	} else {
		b.KeyValue("to", e.To)
	}
	if e.Subject != "" {
		b.KeyValue("subject", e.Subject)
	}
	if e.Body != "" {
		b.KeyValue("body", e.Body)
	}
	b.EndObject()
	return b.Err()
}

// Webhook calls an HTTP endpoint.
type Webhook struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

func newWebhook(params map[string]any) (watch.Component, error) {
	raw, err := stringParam(params, "url", true)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url %q must be http or https", raw)
	}
	method, err := stringParam(params, "method", false)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = "POST"
	}
	headers, err := stringMapParam(params, "headers")
	if err != nil {
		return nil, err
	}
	body, err := stringParam(params, "body", false)
	if err != nil {
		return nil, err
	}
	return &Webhook{Method: strings.ToUpper(method), URL: raw, Headers: maps.Clone(headers), Body: body}, nil
}

func (w *Webhook) Type() string { return WebhookActionType }

func (w *Webhook) WriteBody(b *doc.Builder) error {
	b.StartObject().KeyValue("method", w.Method).KeyValue("url", w.URL)
	if len(w.Headers) > 0 {
		b.KeyValue("headers", w.Headers)
	}
	if w.Body != "" {
		b.KeyValue("body", w.Body)
	}
	b.EndObject()
	return b.Err()
}

// Index stores the payload as a document.
type Index struct {
	Index string
	DocID string
}

func newIndex(params map[string]any) (watch.Component, error) {
	index, err := stringParam(params, "index", true)
	if err != nil {
		return nil, err
	}
	docID, err := stringParam(params, "doc_id", false)
	if err != nil {
		return nil, err
	}
	return &Index{Index: index, DocID: docID}, nil
}

func (i *Index) Type() string { return IndexActionType }

func (i *Index) WriteBody(b *doc.Builder) error {
	b.StartObject().KeyValue("index", i.Index)
	if i.DocID != "" {
		b.KeyValue("doc_id", i.DocID)
	}
	b.EndObject()
	return b.Err()
}
