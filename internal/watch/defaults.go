package watch

import "github.com/gyaneshwarpardhi/watchsource/internal/doc"

// emptyBody writes {}.
type emptyBody struct{ tag string }

func (e emptyBody) Type() string { return e.tag }

func (e emptyBody) WriteBody(b *doc.Builder) error {
	b.StartObject().EndObject()
	return b.Err()
}

var (
	// NoneInput loads no data. It is the input of a new SourceBuilder.
	NoneInput Input = emptyBody{tag: "none"}
	// AlwaysCondition always passes. It is the condition of a new SourceBuilder.
	AlwaysCondition Condition = emptyBody{tag: "always"}
)
