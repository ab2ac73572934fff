package shapegen

import (
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"path"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const dynproxyPath = "github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"

var (
	ErrInterfaceNotFound = errors.New("interface not found")
	ErrNotAnInterface    = errors.New("type is not an interface")
	ErrGenericInterface  = errors.New("generic interfaces cannot have shapes")
	ErrUnexportedMethod  = errors.New("interface has unexported methods")
	ErrConstraint        = errors.New("constraint interfaces cannot have shapes")
	ErrNoInterfaces      = errors.New("no interfaces to generate shapes for")
)

// File is everything one generated file declares.
type File struct {
	Package string
	Imports []Import
	Shapes  []Shape
}

type Import struct {
	Name string
	Path string
}

// Alias is the import name to write, empty when it matches the last path element.
func (i Import) Alias() string {
	if i.Name == path.Base(i.Path) {
		return ""
	}

	return i.Name
}

// Shape is the forwarding type generated for one interface.
type Shape struct {
	Interface string
	TypeName  string
	Methods   []Method
}

type Method struct {
	Name    string
	Params  []Param
	Results []string
}

type Param struct {
	Name     string
	Type     string
	Variadic bool
}

// Declaration renders the parameter the way it appears in the signature.
func (p Param) Declaration() string {
	if p.Variadic {
		return p.Name + " ..." + p.Type
	}

	return p.Name + " " + p.Type
}

// ShapeNames lists the interfaces of f.
func (f *File) ShapeNames() []string {
	names := make([]string, len(f.Shapes))
	for i, s := range f.Shapes {
		names[i] = s.Interface
	}

	return names
}

// FromTypes describes shapes for the named interfaces of pkg. Without names, every exported
// interface that can have a shape is used, and the others are skipped silently.
func FromTypes(pkg *types.Package, names []string) (*File, error) {
	imports := newImportSet(pkg)
	file := &File{Package: pkg.Name()}

	explicit := len(names) > 0
	if !explicit {
		names = exportedInterfaces(pkg)
	}

	for _, name := range names {
		shape, err := describe(pkg, name, imports)
		if err != nil {
			if explicit {
				return nil, err
			}

			continue
		}

		file.Shapes = append(file.Shapes, shape)
	}

	if len(file.Shapes) == 0 {
		return nil, fmt.Errorf("%w in package %s", ErrNoInterfaces, pkg.Path())
	}

	file.Imports = imports.list()

	return file, nil
}

func exportedInterfaces(pkg *types.Package) []string {
	var names []string

	for _, name := range pkg.Scope().Names() {
		obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
		if !ok || !obj.Exported() || obj.IsAlias() {
			continue
		}

		if _, isInterface := obj.Type().Underlying().(*types.Interface); isInterface {
			names = append(names, name)
		}
	}

	return names
}

func describe(pkg *types.Package, name string, imports *importSet) (Shape, error) {
	obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
	if !ok {
		return Shape{}, fmt.Errorf("%w: %s.%s", ErrInterfaceNotFound, pkg.Path(), name)
	}

	iface, ok := obj.Type().Underlying().(*types.Interface)
	if !ok {
		return Shape{}, fmt.Errorf("%w: %s", ErrNotAnInterface, name)
	}

	if named, isNamed := obj.Type().(*types.Named); isNamed && named.TypeParams().Len() > 0 {
		return Shape{}, fmt.Errorf("%w: %s", ErrGenericInterface, name)
	}

	if !iface.IsMethodSet() {
		return Shape{}, fmt.Errorf("%w: %s", ErrConstraint, name)
	}

	if iface.NumMethods() == 0 {
		return Shape{}, fmt.Errorf("%w: %s has no methods", ErrNoInterfaces, name)
	}

	shape := Shape{Interface: name, TypeName: shapeTypeName(name)}

	for i := 0; i < iface.NumMethods(); i++ {
		fn := iface.Method(i)
		if !fn.Exported() {
			return Shape{}, fmt.Errorf("%w: %s.%s", ErrUnexportedMethod, name, fn.Name())
		}

		shape.Methods = append(shape.Methods, describeMethod(fn, imports))
	}

	return shape, nil
}

func describeMethod(fn *types.Func, imports *importSet) Method {
	sig := fn.Type().(*types.Signature)
	m := Method{Name: fn.Name()}

	taken := map[string]bool{"s": true, "out": true}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		t := p.Type()

		variadic := sig.Variadic() && i == params.Len()-1
		if variadic {
			t = t.(*types.Slice).Elem()
		}

		name := paramName(p.Name(), i, taken)
		taken[name] = true

		m.Params = append(m.Params, Param{
			Name:     name,
			Type:     types.TypeString(t, imports.qualify),
			Variadic: variadic,
		})
	}

	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		m.Results = append(m.Results, types.TypeString(results.At(i).Type(), imports.qualify))
	}

	return m
}

var resultName = regexp.MustCompile(`^r[0-9]+$`)

// paramName keeps the declared name unless it is blank or clashes with generated identifiers.
func paramName(declared string, i int, taken map[string]bool) string {
	if declared != "" && declared != "_" && !taken[declared] && !resultName.MatchString(declared) && !token.IsKeyword(declared) {
		return declared
	}

	return fmt.Sprintf("p%d", i)
}

func shapeTypeName(iface string) string {
	first, size := utf8.DecodeRuneInString(iface)
	return string(unicode.ToLower(first)) + iface[size:] + "Shape"
}

// importSet names the packages referenced by the generated file, avoiding clashes between
// packages with equal names.
type importSet struct {
	self   string
	byPath map[string]string
	byName map[string]string
}

func newImportSet(self *types.Package) *importSet {
	s := &importSet{
		self:   self.Path(),
		byPath: map[string]string{},
		byName: map[string]string{},
	}

	s.add(dynproxyPath, "dynproxy")

	return s
}

func (s *importSet) add(importPath, name string) string {
	if existing, ok := s.byPath[importPath]; ok {
		return existing
	}

	candidate := name
	for n := 2; s.byName[candidate] != ""; n++ {
		candidate = fmt.Sprintf("%s%d", name, n)
	}

	s.byPath[importPath] = candidate
	s.byName[candidate] = importPath

	return candidate
}

func (s *importSet) qualify(p *types.Package) string {
	if p == nil || p.Path() == s.self {
		return ""
	}

	return s.add(p.Path(), p.Name())
}

func (s *importSet) list() []Import {
	out := make([]Import, 0, len(s.byPath))
	for importPath, name := range s.byPath {
		if importPath == s.self {
			continue
		}

		out = append(out, Import{Name: name, Path: importPath})
	}

	slices.SortFunc(out, func(a, b Import) int { return strings.Compare(a.Path, b.Path) })

	return out
}
