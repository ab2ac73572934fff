// Command proxygen generates dynproxy shapes for the interfaces of a Go package.
//
// Usage:
//
//	proxygen [-config proxygen.toml] [-dir .] [-interfaces Catalog,Loans] [-output proxy_shapes_gen.go] [-watch]
//
// Settings come from defaults, the TOML file, PROXYGEN_ environment variables and flags,
// in that order. A typical use is a go:generate directive next to the interfaces:
//
//	//go:generate go run github.com/AntonStoeckl/dynamic-proxy-go/cmd/proxygen -interfaces Catalog
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/shapegen"
)

const (
	logMsgGenerated      = "shapes generated"
	logMsgUnchanged      = "shapes unchanged"
	logMsgGenerateFailed = "generating shapes failed"
	logAttrPath          = "path"
	logAttrShapes        = "shapes"
	exitOK               = 0
	exitGenerateFailed   = 1
	exitUsage            = 2
	flagConfig           = "config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stderr))
}

// run executes proxygen with args and returns the exit code.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	flags := flag.NewFlagSet("proxygen", flag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.String(flagConfig, "", "TOML configuration file (default "+DefaultConfigFile+" if present)")
	flags.String("dir", ".", "directory of the package")
	flags.String("pattern", ".", "package pattern, relative to -dir")
	flags.String("interfaces", "", "comma separated interface names, all suitable interfaces when empty")
	flags.String("output", shapegen.DefaultOutput, "generated file, relative to -dir")
	flags.String("tags", "", "comma separated build tags")
	flags.Bool("watch", false, "regenerate whenever the package changes")
	flags.Duration("debounce", defaultDebounce, "quiet period before regenerating in watch mode")
	flags.String("log-level", "info", "debug, info, warn or error")

	if err := flags.Parse(args); err != nil {
		return exitUsage
	}

	overrides := map[string]string{}
	flags.Visit(func(f *flag.Flag) {
		if f.Name == flagConfig {
			return
		}

		overrides[strings.ReplaceAll(f.Name, "-", "_")] = f.Value.String()
	})

	cfg, err := LoadConfig(*configPath, overrides)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "proxygen:", err)
		return exitUsage
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	generate := func(ctx context.Context) bool {
		result, genErr := shapegen.Generate(ctx, cfg.Generator())
		if genErr != nil {
			logger.Error(logMsgGenerateFailed, logAttrError, genErr.Error())
			return false
		}

		msg := logMsgUnchanged
		if result.Changed {
			msg = logMsgGenerated
		}
		logger.Info(msg, logAttrPath, result.Path, logAttrShapes, strings.Join(result.Shapes, ","))

		return true
	}

	ok := generate(ctx)
	if !cfg.Watch {
		if !ok {
			return exitGenerateFailed
		}

		return exitOK
	}

	output := cfg.Generator().OutputPath()
	if err = watch(ctx, filepath.Clean(cfg.Dir), output, cfg.Debounce, logger, func(ctx context.Context) { generate(ctx) }); err != nil {
		logger.Error(logMsgWatchError, logAttrError, err.Error())
		return exitGenerateFailed
	}

	return exitOK
}
