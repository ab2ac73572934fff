// Package argjson renders call arguments as JSON for logs and audit records.
package argjson

import (
	"context"

	jsoniter "github.com/json-iterator/go"
)

var api = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// Render encodes args as a JSON array. Context arguments are left out and values that cannot
// be encoded become null.
func Render(args []any) string {
	rendered := make([]jsoniter.RawMessage, 0, len(args))

	for _, arg := range args {
		if _, isContext := arg.(context.Context); isContext {
			continue
		}

		raw, err := api.Marshal(arg)
		if err != nil {
			raw = []byte("null")
		}

		rendered = append(rendered, raw)
	}

	out, err := api.MarshalToString(rendered)
	if err != nil {
		return "[]"
	}

	return out
}
