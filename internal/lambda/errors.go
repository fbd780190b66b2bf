package lambda

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels para clasificar errores con errors.Is.
var (
	ErrConfiguration   = errors.New("invalid configuration")
	ErrNotFound        = errors.New("lambda function not found")
	ErrAmbiguous       = errors.New("ambiguous lambda function")
	ErrBuildFailed     = errors.New("lambda build failed")
	ErrMissingArtifact = errors.New("lambda build artifact not found")
	ErrStorage         = errors.New("lambda storage error")
)

// NotFoundError indica que no existe la función (name, runtime).
type NotFoundError struct {
	Name    string
	Runtime string
}

func (e *NotFoundError) Error() string {
	if e.Runtime != "" {
		return fmt.Sprintf("failed to locate lambda function `%s` in runtime `%s`", e.Name, e.Runtime)
	}
	return fmt.Sprintf("failed to locate lambda function `%s`", e.Name)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AmbiguousError lista los runtimes (ordenados) que definen la misma función.
type AmbiguousError struct {
	Name     string
	Runtimes []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("multiple lambda function matches for `%s` (in runtimes: `%s`)",
		e.Name, strings.Join(e.Runtimes, "`, `"))
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguous }

// BuildError guarda la salida completa del comando de build fallido.
type BuildError struct {
	Path    string
	Command string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("failed to build lambda asset (path: `%s`, command: `%s`): %v", e.Path, e.Command, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

func (e *BuildError) Is(target error) bool { return target == ErrBuildFailed }

// MissingArtifactError indica que el build terminó bien pero el glob no
// encontró ningún artefacto.
type MissingArtifactError struct {
	Path    string
	Pattern string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("failed to locate generated build asset (path: `%s`, pattern: `%s`)", e.Path, e.Pattern)
}

func (e *MissingArtifactError) Is(target error) bool { return target == ErrMissingArtifact }

// StorageError envuelve fallos del object store.
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	target := e.Bucket
	if e.Key != "" {
		target += "/" + e.Key
	}
	return fmt.Sprintf("storage %s failed (%s): %v", e.Op, target, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
