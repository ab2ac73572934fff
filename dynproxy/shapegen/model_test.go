package shapegen_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/shapegen"
)

const librarySource = `package library

import (
	"context"
	"io"
)

type Book struct{ Title string }

type Catalog interface {
	Find(ctx context.Context, isbn string) (*Book, error)
	Titles(prefix string, tags ...string) []string
	Export(w io.Writer)
	Self() Catalog
}

type Reader interface {
	io.Reader
	Close() error
}

type Box[T any] interface{ Get() T }

type Number interface{ ~int | ~float64 }

type Mixed interface {
	Public()
	private()
}

type Empty interface{}

type Clash interface {
	Put(s string, out int, r0 bool, _ string)
}

type hidden interface{ Do() }
`

func checkLibrary(t *testing.T) *types.Package {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "library.go", librarySource, parser.AllErrors)
	require.NoError(t, err)

	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg, err := conf.Check("example.com/library", fset, []*ast.File{file}, nil)
	require.NoError(t, err)

	return pkg
}

func Test_FromTypes_DescribesTheNamedInterfaces(t *testing.T) {
	file, err := shapegen.FromTypes(checkLibrary(t), []string{"Catalog"})
	require.NoError(t, err)

	assert.Equal(t, "library", file.Package)
	require.Len(t, file.Shapes, 1)

	shape := file.Shapes[0]
	assert.Equal(t, "Catalog", shape.Interface)
	assert.Equal(t, "catalogShape", shape.TypeName)

	byName := map[string]shapegen.Method{}
	for _, m := range shape.Methods {
		byName[m.Name] = m
	}
	require.Len(t, byName, 4)

	assert.Equal(t, []shapegen.Param{
		{Name: "ctx", Type: "context.Context"},
		{Name: "isbn", Type: "string"},
	}, byName["Find"].Params)
	assert.Equal(t, []string{"*Book", "error"}, byName["Find"].Results)

	assert.Equal(t, shapegen.Param{Name: "tags", Type: "string", Variadic: true}, byName["Titles"].Params[1])
	assert.Equal(t, "tags ...string", byName["Titles"].Params[1].Declaration())

	assert.Equal(t, "io.Writer", byName["Export"].Params[0].Type)
	assert.Empty(t, byName["Export"].Results)
	assert.Equal(t, []string{"Catalog"}, byName["Self"].Results)

	assert.ElementsMatch(t, []shapegen.Import{
		{Name: "context", Path: "context"},
		{Name: "dynproxy", Path: "github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"},
		{Name: "io", Path: "io"},
	}, file.Imports)
}

func Test_FromTypes_IncludesEmbeddedMethods(t *testing.T) {
	file, err := shapegen.FromTypes(checkLibrary(t), []string{"Reader"})
	require.NoError(t, err)

	var names []string
	for _, m := range file.Shapes[0].Methods {
		names = append(names, m.Name)
	}

	assert.ElementsMatch(t, []string{"Close", "Read"}, names)
}

func Test_FromTypes_RenamesClashingParameters(t *testing.T) {
	file, err := shapegen.FromTypes(checkLibrary(t), []string{"Clash"})
	require.NoError(t, err)

	var names []string
	for _, p := range file.Shapes[0].Methods[0].Params {
		names = append(names, p.Name)
	}

	assert.Equal(t, []string{"p0", "p1", "p2", "p3"}, names)
}

func Test_FromTypes_PicksSuitableInterfacesWithoutNames(t *testing.T) {
	file, err := shapegen.FromTypes(checkLibrary(t), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Catalog", "Clash", "Reader"}, file.ShapeNames())
}

func Test_FromTypes_RejectsUnsuitableInterfaces(t *testing.T) {
	testCases := []struct {
		name    string
		wantErr error
	}{
		{name: "Missing", wantErr: shapegen.ErrInterfaceNotFound},
		{name: "Book", wantErr: shapegen.ErrNotAnInterface},
		{name: "Box", wantErr: shapegen.ErrGenericInterface},
		{name: "Number", wantErr: shapegen.ErrConstraint},
		{name: "Mixed", wantErr: shapegen.ErrUnexportedMethod},
		{name: "Empty", wantErr: shapegen.ErrNoInterfaces},
	}

	pkg := checkLibrary(t)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := shapegen.FromTypes(pkg, []string{tc.name})
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func Test_FromTypes_AliasesPackagesWithEqualNames(t *testing.T) {
	self := types.NewPackage("example.com/sink", "sink")
	itemA := types.NewNamed(types.NewTypeName(token.NoPos, types.NewPackage("a.com/store", "store"), "Item", nil), types.Typ[types.Int], nil)
	itemB := types.NewNamed(types.NewTypeName(token.NoPos, types.NewPackage("b.com/store", "store"), "Item", nil), types.Typ[types.Int], nil)

	sig := types.NewSignatureType(nil, nil, nil, types.NewTuple(
		types.NewVar(token.NoPos, self, "a", itemA),
		types.NewVar(token.NoPos, self, "b", itemB),
	), nil, false)
	iface := types.NewInterfaceType([]*types.Func{types.NewFunc(token.NoPos, self, "Put", sig)}, nil)
	iface.Complete()

	obj := types.NewTypeName(token.NoPos, self, "Sink", nil)
	types.NewNamed(obj, iface, nil)
	self.Scope().Insert(obj)

	file, err := shapegen.FromTypes(self, []string{"Sink"})
	require.NoError(t, err)

	params := file.Shapes[0].Methods[0].Params
	assert.Equal(t, "store.Item", params[0].Type)
	assert.Equal(t, "store2.Item", params[1].Type)

	assert.Contains(t, file.Imports, shapegen.Import{Name: "store2", Path: "b.com/store"})
	assert.Equal(t, "store2", shapegen.Import{Name: "store2", Path: "b.com/store"}.Alias())
	assert.Empty(t, shapegen.Import{Name: "store", Path: "a.com/store"}.Alias())
}
