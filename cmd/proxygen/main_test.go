package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogSource = `package library

import "context"

type Catalog interface {
	Find(ctx context.Context, isbn string) (string, error)
}
`

func Test_Run_GeneratesShapes(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages through the go command")
	}

	t.Chdir(t.TempDir())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/library\n\ngo 1.24\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.go"), []byte(catalogSource), 0o600))

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-dir", dir, "-interfaces", "Catalog", "-output", "shapes_gen.go"}, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	src, err := os.ReadFile(filepath.Join(dir, "shapes_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "type catalogShape struct")
	assert.Contains(t, stderr.String(), "shapes generated")
}

func Test_Run_ReportsFailures(t *testing.T) {
	t.Chdir(t.TempDir())

	testCases := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{name: "unknown flag", args: []string{"-bogus"}, wantCode: exitUsage},
		{name: "invalid configuration", args: []string{"-log-level", "chatty"}, wantCode: exitUsage},
		{name: "missing package", args: []string{"-dir", filepath.Join(os.TempDir(), "proxygen-missing-dir")}, wantCode: exitGenerateFailed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tc.wantCode, run(context.Background(), tc.args, &stderr))
		})
	}
}
