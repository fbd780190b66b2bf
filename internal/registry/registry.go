// Package registry descubre las funciones disponibles en los directorios
// configurados y arma la tabla runtime -> nombre -> path.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/qrioso-software/qrioslambda/internal/util"
	"github.com/rs/zerolog"
)

// MaxNestingDepth es cuántos directorios por debajo del runtime se buscan
// archivos en runtimes sin build.
const MaxNestingDepth = 2

// Registry es la tabla de funciones descubiertas.
type Registry struct {
	isBuild   func(runtime string) bool
	functions map[string]map[string]string
	lg        zerolog.Logger
}

// New crea un registry vacío. isBuild decide si un runtime requiere build.
func New(isBuild func(runtime string) bool, lg zerolog.Logger) *Registry {
	return &Registry{
		isBuild:   isBuild,
		functions: map[string]map[string]string{},
		lg:        lg.With().Str("component", "registry").Logger(),
	}
}

// Discover recorre los directorios y reemplaza la tabla. Valida todos los
// directorios antes de escanear, así un error no deja la tabla a medias.
func (r *Registry) Discover(directories []string) error {
	var invalid []string
	for _, dir := range directories {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			invalid = append(invalid, dir)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: invalid lambda directory paths provided: %s",
			lambda.ErrConfiguration, strings.Join(invalid, ", "))
	}

	functions := map[string]map[string]string{}
	for _, dir := range directories {
		if err := r.scanRoot(dir, functions); err != nil {
			return err
		}
	}

	r.functions = functions

	total := 0
	for _, names := range functions {
		total += len(names)
	}
	r.lg.Debug().Int("functions", total).Int("runtimes", len(functions)).Msg("discovery finished")
	return nil
}

func (r *Registry) scanRoot(root string, functions map[string]map[string]string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading lambda directory %s: %w", root, err)
	}

	for _, entry := range entries {
		if util.IsHidden(entry.Name()) || !isDir(root, entry) {
			continue
		}
		runtime := entry.Name()
		runtimeDir := filepath.Join(root, runtime)

		if r.isBuild(runtime) {
			err = r.scanBuildRuntime(runtime, runtimeDir, functions)
		} else {
			err = r.scanSourceRuntime(runtime, runtimeDir, functions)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// scanBuildRuntime: cada subdirectorio es una función.
func (r *Registry) scanBuildRuntime(runtime, runtimeDir string, functions map[string]map[string]string) error {
	entries, err := os.ReadDir(runtimeDir)
	if err != nil {
		return fmt.Errorf("reading runtime directory %s: %w", runtimeDir, err)
	}
	for _, entry := range entries {
		if util.IsHidden(entry.Name()) || !isDir(runtimeDir, entry) {
			continue
		}
		r.set(functions, runtime, entry.Name(), filepath.Join(runtimeDir, entry.Name()))
	}
	return nil
}

// scanSourceRuntime: cada archivo es una función; el nombre es el path
// relativo sin separadores ni extensión.
func (r *Registry) scanSourceRuntime(runtime, runtimeDir string, functions map[string]map[string]string) error {
	files, err := util.FindFiles(runtimeDir, MaxNestingDepth)
	if err != nil {
		return fmt.Errorf("scanning runtime directory %s: %w", runtimeDir, err)
	}
	for _, file := range files {
		r.set(functions, runtime, FunctionName(runtimeDir, file), file)
	}
	return nil
}

// isDir sigue symlinks; un link roto no es un directorio.
func isDir(dir string, entry os.DirEntry) bool {
	info, err := util.StatEntry(dir, entry)
	return err == nil && info.IsDir()
}

func (r *Registry) set(functions map[string]map[string]string, runtime, name, path string) {
	names, ok := functions[runtime]
	if !ok {
		names = map[string]string{}
		functions[runtime] = names
	}
	if prev, dup := names[name]; dup {
		r.lg.Warn().Str("runtime", runtime).Str("function", name).
			Str("previous", prev).Str("path", path).Msg("duplicate function name, keeping the last one")
	}
	names[name] = path
}

// FunctionName deriva el nombre lógico de un archivo: "api/users/get.py"
// bajo runtimeDir queda como "apiusersget".
func FunctionName(runtimeDir, file string) string {
	rel, err := filepath.Rel(runtimeDir, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(rel, string(filepath.Separator), "")
}

// Resolve busca una función. Sin runtime, el nombre debe existir en
// exactamente un runtime.
func (r *Registry) Resolve(name, runtime string) (lambda.FunctionRecord, error) {
	if runtime == "" {
		var matches []string
		for rt, names := range r.functions {
			if _, ok := names[name]; ok {
				matches = append(matches, rt)
			}
		}
		switch len(matches) {
		case 0:
			return lambda.FunctionRecord{}, &lambda.NotFoundError{Name: name}
		case 1:
			runtime = matches[0]
		default:
			sort.Strings(matches)
			return lambda.FunctionRecord{}, &lambda.AmbiguousError{Name: name, Runtimes: matches}
		}
	}

	path, ok := r.functions[runtime][name]
	if !ok {
		return lambda.FunctionRecord{}, &lambda.NotFoundError{Name: name, Runtime: runtime}
	}
	return lambda.FunctionRecord{Name: name, Runtime: runtime, Path: path}, nil
}

// Records lista todas las funciones ordenadas por runtime y nombre.
func (r *Registry) Records() []lambda.FunctionRecord {
	var out []lambda.FunctionRecord
	for runtime, names := range r.functions {
		for name, path := range names {
			out = append(out, lambda.FunctionRecord{Name: name, Runtime: runtime, Path: path})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Runtime != out[j].Runtime {
			return out[i].Runtime < out[j].Runtime
		}
		return out[i].Name < out[j].Name
	})
	return out
}
