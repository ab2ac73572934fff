package shapegen

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

var ErrLoadFailed = errors.New("loading the package failed")

// LoadConfig selects the package to read interfaces from.
type LoadConfig struct {
	// Dir is the directory go/packages runs in, the current directory when empty.
	Dir string
	// Pattern selects exactly one package, "." when empty.
	Pattern string
	// BuildTags are passed to the build system.
	BuildTags []string
	// Skip lists files, relative to Dir or absolute, that are ignored while type checking.
	Skip []string
}

// Load type-checks one package.
func Load(ctx context.Context, cfg LoadConfig) (*types.Package, error) {
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "."
	}

	skip, err := skipSet(cfg.Dir, cfg.Skip)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	pcfg := &packages.Config{
		Context: ctx,
		Dir:     cfg.Dir,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			if skip[filepath.Clean(filename)] {
				return parser.ParseFile(fset, filename, src, parser.PackageClauseOnly)
			}

			return parser.ParseFile(fset, filename, src, parser.AllErrors|parser.ParseComments)
		},
	}
	if len(cfg.BuildTags) > 0 {
		pcfg.BuildFlags = append(pcfg.BuildFlags, "-tags="+strings.Join(cfg.BuildTags, ","))
	}

	pkgs, err := packages.Load(pcfg, pattern)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	if len(pkgs) != 1 {
		return nil, fmt.Errorf("%w: pattern %q matched %d packages", ErrLoadFailed, pattern, len(pkgs))
	}

	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		errs := []error{ErrLoadFailed}
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}

		return nil, errors.Join(errs...)
	}

	return pkg.Types, nil
}

func skipSet(dir string, files []string) (map[string]bool, error) {
	set := make(map[string]bool, len(files))

	for _, f := range files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}

		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}

		set[filepath.Clean(abs)] = true
	}

	return set, nil
}
