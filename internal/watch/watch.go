// Package watch re-materializa funciones cuando cambia su código.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/qrioso-software/qrioslambda/internal/util"
	"github.com/rs/zerolog"
)

const DefaultDebounce = 800 * time.Millisecond

// Handler recibe cada función que cambió, una vez por ráfaga de eventos.
type Handler func(ctx context.Context, rec lambda.FunctionRecord)

type Options struct {
	Debounce time.Duration
	// Ignore son nombres de directorio que no se vigilan (salida de builds).
	Ignore []string
}

// Watcher vigila los paths de un conjunto de funciones.
type Watcher struct {
	records []lambda.FunctionRecord
	handle  Handler
	opts    Options
	watcher *fsnotify.Watcher
	lg      zerolog.Logger
}

func New(records []lambda.FunctionRecord, handle Handler, opts Options, lg zerolog.Logger) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		records: records,
		handle:  handle,
		opts:    opts,
		watcher: fw,
		lg:      lg.With().Str("component", "watch").Logger(),
	}, nil
}

// Run agrega los watchers y procesa eventos hasta que ctx termine.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.setup(); err != nil {
		return err
	}

	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	changed := map[string]lambda.FunctionRecord{}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				w.watchNewDir(event.Name)
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if rec, ok := w.FindFunctionByPath(event.Name); ok {
				changed[rec.Runtime+"/"+rec.Name] = rec
				debounceTimer.Reset(w.opts.Debounce)
			}

		case <-debounceTimer.C:
			w.flush(ctx, changed)
			changed = map[string]lambda.FunctionRecord{}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.lg.Warn().Err(err).Msg("watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) flush(ctx context.Context, changed map[string]lambda.FunctionRecord) {
	keys := make([]string, 0, len(changed))
	for k := range changed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	w.lg.Info().Strs("functions", keys).Msg("🔄 changes detected")
	for _, k := range keys {
		w.handle(ctx, changed[k])
	}
}

func (w *Watcher) setup() error {
	dirs := map[string]bool{}
	for _, rec := range w.records {
		info, err := os.Stat(rec.Path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", rec.Path, err)
		}
		if !info.IsDir() {
			dirs[filepath.Dir(rec.Path)] = true
			continue
		}
		if err := w.collectDirs(rec.Path, dirs); err != nil {
			return err
		}
	}

	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.lg.Debug().Str("dir", dir).Msg("👀 watching")
	}
	return nil
}

func (w *Watcher) collectDirs(root string, dirs map[string]bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		dirs[path] = true
		return nil
	})
}

func (w *Watcher) ignored(name string) bool {
	return util.IsHidden(name) || slices.Contains(w.opts.Ignore, name)
}

func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.ignored(filepath.Base(path)) {
		return
	}
	if _, ok := w.FindFunctionByPath(path); !ok {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.lg.Warn().Err(err).Str("dir", path).Msg("could not watch new directory")
	}
}

// FindFunctionByPath retorna la función dueña de path: el mismo archivo, o
// el directorio de función más largo que lo contiene.
func (w *Watcher) FindFunctionByPath(path string) (lambda.FunctionRecord, bool) {
	var best lambda.FunctionRecord
	found := false
	for _, rec := range w.records {
		if path != rec.Path && !strings.HasPrefix(path, rec.Path+string(filepath.Separator)) {
			continue
		}
		if w.insideIgnored(rec.Path, path) {
			continue
		}
		if !found || len(rec.Path) > len(best.Path) {
			best, found = rec, true
		}
	}
	return best, found
}

func (w *Watcher) insideIgnored(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if w.ignored(part) {
			return true
		}
	}
	return false
}
