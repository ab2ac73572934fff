package shapegen

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
)

// DefaultOutput is the file name shapes are written to.
const DefaultOutput = "proxy_shapes_gen.go"

var ErrWriteFailed = errors.New("writing the generated file failed")

// Config describes one generation run.
type Config struct {
	LoadConfig
	// Interfaces to generate shapes for; all suitable exported interfaces when empty.
	Interfaces []string
	// Output is the generated file, relative to Dir. DefaultOutput when empty.
	Output string
}

// Result reports what a run produced.
type Result struct {
	Path    string
	Shapes  []string
	Changed bool
}

// OutputPath resolves the generated file's path.
func (c Config) OutputPath() string {
	output := c.Output
	if output == "" {
		output = DefaultOutput
	}

	if filepath.IsAbs(output) {
		return output
	}

	return filepath.Join(c.Dir, output)
}

// Generate loads the package, renders its shapes and writes them. The file is left untouched
// when its content would not change.
func Generate(ctx context.Context, cfg Config) (Result, error) {
	out, err := filepath.Abs(cfg.OutputPath())
	if err != nil {
		return Result{}, errors.Join(ErrWriteFailed, err)
	}

	load := cfg.LoadConfig
	load.Skip = append(append([]string(nil), load.Skip...), out)

	pkg, err := Load(ctx, load)
	if err != nil {
		return Result{}, err
	}

	file, err := FromTypes(pkg, cfg.Interfaces)
	if err != nil {
		return Result{}, err
	}

	src, err := Render(file)
	if err != nil {
		return Result{}, err
	}

	result := Result{Path: out, Shapes: file.ShapeNames()}

	existing, readErr := os.ReadFile(out)
	if readErr == nil && bytes.Equal(existing, src) {
		return result, nil
	}

	if writeErr := os.WriteFile(out, src, 0o644); writeErr != nil { //nolint:gosec
		return Result{}, errors.Join(ErrWriteFailed, writeErr)
	}

	result.Changed = true

	return result, nil
}
