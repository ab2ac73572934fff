package argjson_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/argjson"
)

type book struct {
	Title  string `json:"title"`
	Copies int    `json:"copies"`
}

func Test_Render(t *testing.T) {
	testCases := []struct {
		name string
		args []any
		want string
	}{
		{name: "no arguments", args: nil, want: `[]`},
		{name: "scalars", args: []any{"dune", 3, true, nil}, want: `["dune",3,true,null]`},
		{name: "context is left out", args: []any{context.Background(), "dune"}, want: `["dune"]`},
		{name: "structs use json tags", args: []any{book{Title: "Dune", Copies: 2}}, want: `[{"title":"Dune","copies":2}]`},
		{name: "map keys are sorted", args: []any{map[string]int{"b": 2, "a": 1}}, want: `[{"a":1,"b":2}]`},
		{name: "unencodable values become null", args: []any{make(chan int), "x"}, want: `[null,"x"]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, argjson.Render(tc.args))
		})
	}
}
