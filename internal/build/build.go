// Package build ejecuta el comando de build de un runtime sobre el código de
// una función y localiza el artefacto generado.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/qrioso-software/qrioslambda/internal/config"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Executor corre comandos de build. Timeout cero significa sin límite.
type Executor struct {
	timeout time.Duration
	lg      zerolog.Logger
}

func NewExecutor(timeout time.Duration, lg zerolog.Logger) *Executor {
	return &Executor{
		timeout: timeout,
		lg:      lg.With().Str("component", "build").Logger(),
	}
}

// Build corre spec.BuildCommand con path como directorio de trabajo y
// retorna el path del artefacto generado.
func (e *Executor) Build(ctx context.Context, path string, spec config.BuildSpec) (string, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.lg.Info().Str("path", path).Str("command", spec.BuildCommand).Msg("🔨 building lambda asset")

	stdout, stderr, err := e.run(ctx, path, spec.BuildCommand)
	if err != nil {
		e.lg.Error().Str("path", path).Msg("failed to build lambda assets for storage")
		e.lg.Debug().Str("command", spec.BuildCommand).Msg("build command used which generated failure")
		e.lg.Debug().Str("stdout", stdout).Str("stderr", stderr).Msg("build output")
		return "", &lambda.BuildError{
			Path:    path,
			Command: spec.BuildCommand,
			Stdout:  stdout,
			Stderr:  stderr,
			Err:     err,
		}
	}

	artifact, err := FindArtifact(path, spec)
	if err != nil {
		return "", err
	}
	e.lg.Info().Str("artifact", artifact).Msg("✅ build asset located")
	return artifact, nil
}

// run arranca el proceso y drena stdout y stderr en goroutines propias
// mientras espera; leer solo desde acá bloquearía con un pipe lleno.
func (e *Executor) run(ctx context.Context, dir, command string) (string, string, error) {
	name, args := shellCommand(command)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	configureProcess(cmd)

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", fmt.Errorf("stdout pipe: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", "", fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return "", "", fmt.Errorf("starting build command: %w", err)
	}

	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&stdout, outPipe)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&stderr, errPipe)
		return err
	})

	drainErr := g.Wait()
	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		return stdout.String(), stderr.String(), fmt.Errorf("build command aborted: %w", ctx.Err())
	case waitErr != nil:
		return stdout.String(), stderr.String(), waitErr
	case drainErr != nil && !errors.Is(drainErr, os.ErrClosed):
		return stdout.String(), stderr.String(), fmt.Errorf("reading build output: %w", drainErr)
	}
	return stdout.String(), stderr.String(), nil
}

// ArtifactPattern es el glob que se usa para encontrar el artefacto.
func ArtifactPattern(path string, spec config.BuildSpec) string {
	return filepath.Join(path, spec.OutputDirectory, "*."+strings.TrimPrefix(spec.AssetExtension, "."))
}

// FindArtifact retorna el primer archivo (orden léxico) que coincide con
// ArtifactPattern.
func FindArtifact(path string, spec config.BuildSpec) (string, error) {
	pattern := ArtifactPattern(path, spec)
	outputDir := filepath.Dir(pattern)
	namePattern := filepath.Base(pattern)

	missing := &lambda.MissingArtifactError{Path: path, Pattern: pattern}

	// ReadDir + Match evita que metacaracteres en path se interpreten como glob.
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", missing
		}
		return "", fmt.Errorf("reading build output directory %s: %w", outputDir, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := filepath.Match(namePattern, entry.Name())
		if err != nil {
			return "", fmt.Errorf("%w: invalid asset extension %q: %v", lambda.ErrConfiguration, spec.AssetExtension, err)
		}
		if ok {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		return "", missing
	}
	sort.Strings(matches)
	return filepath.Join(outputDir, matches[0]), nil
}
