package shapegen_test

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/shapegen"
)

func Test_Render_ProducesFormattedForwardingShapes(t *testing.T) {
	file, err := shapegen.FromTypes(checkLibrary(t), []string{"Catalog", "Clash"})
	require.NoError(t, err)

	src, err := shapegen.Render(file)
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "// Code generated by proxygen. DO NOT EDIT.\n\npackage library\n")
	assert.Contains(t, out, `dynproxy.RegisterShape(func(h dynproxy.Handler) Catalog { return &catalogShape{h} })`)
	assert.Contains(t, out, `dynproxy.RegisterShape(func(h dynproxy.Handler) Clash { return &clashShape{h} })`)
	assert.Contains(t, out, "func (s *catalogShape) ProxyHandler() dynproxy.Handler { return s.h }")

	assert.Contains(t, out, `func (s *catalogShape) Find(ctx context.Context, isbn string) (*Book, error) {
	out := s.h.Invoke("Find", ctx, isbn)
	r0, _ := out[0].(*Book)
	r1, _ := out[1].(error)

	return r0, r1
}`)
	assert.Contains(t, out, `func (s *catalogShape) Titles(prefix string, tags ...string) []string {
	out := s.h.Invoke("Titles", prefix, tags)`)
	assert.Contains(t, out, `func (s *catalogShape) Export(w io.Writer) {
	s.h.Invoke("Export", w)
}`)
	assert.Contains(t, out, `func (s *clashShape) Put(p0 string, p1 int, p2 bool, p3 string) {`)

	_, err = parser.ParseFile(token.NewFileSet(), "shapes.go", src, parser.AllErrors)
	assert.NoError(t, err)
}
