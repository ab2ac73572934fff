package main

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	logMsgWatching       = "watching for changes"
	logMsgWatchError     = "file watcher error"
	logMsgChangeDetected = "change detected"
	logAttrDir           = "dir"
	logAttrFile          = "file"
	logAttrError         = "error"
)

// watch calls regenerate after Go source files in dir change, once per burst of changes.
// Changes to the output file are ignored. It returns when ctx is done.
func watch(ctx context.Context, dir, output string, debounce time.Duration, logger *slog.Logger, regenerate func(context.Context)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err = watcher.Add(dir); err != nil {
		return err
	}

	outputAbs, err := filepath.Abs(output)
	if err != nil {
		return err
	}

	logger.Info(logMsgWatching, logAttrDir, dir)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !relevant(ev, outputAbs) {
				continue
			}

			logger.Debug(logMsgChangeDetected, logAttrFile, ev.Name)
			timer.Reset(debounce)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			if errors.Is(watchErr, fsnotify.ErrEventOverflow) {
				timer.Reset(debounce)
			}

			logger.Warn(logMsgWatchError, logAttrError, watchErr.Error())

		case <-timer.C:
			regenerate(ctx)
		}
	}
}

func relevant(ev fsnotify.Event, outputAbs string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}

	if !strings.HasSuffix(ev.Name, ".go") || strings.HasSuffix(ev.Name, "_test.go") {
		return false
	}

	abs, err := filepath.Abs(ev.Name)

	return err == nil && abs != outputAbs
}
