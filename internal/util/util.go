package util

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DigestChunkSize es el tamaño de lectura al calcular digests.
const DigestChunkSize = 2048

// IsHidden indica si el nombre empieza con "." (como .git, .vscode, etc.)
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// FileSHA256 calcula el SHA-256 del archivo leyendo en bloques fijos, sin
// cargarlo completo en memoria.
func FileSHA256(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, DigestChunkSize)
	if _, err := io.CopyBuffer(onlyWriter{hasher}, onlyReader{f}, buf); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return hasher.Sum(nil), nil
}

// FindFiles retorna los archivos regulares bajo root, ignorando entradas
// ocultas y sin bajar más de maxDepth directorios. maxDepth 0 solo mira root.
// Los symlinks se siguen; un link roto se ignora. El orden es léxico en
// preorden, como filepath.WalkDir.
func FindFiles(root string, maxDepth int) ([]string, error) {
	var files []string
	if err := findFiles(root, 0, maxDepth, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func findFiles(dir string, depth, maxDepth int, files *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if IsHidden(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		info, err := StatEntry(dir, entry)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}

		switch {
		case info.IsDir():
			if depth < maxDepth {
				if err := findFiles(path, depth+1, maxDepth, files); err != nil {
					return err
				}
			}
		case info.Mode().IsRegular():
			*files = append(*files, path)
		}
	}
	return nil
}

// StatEntry retorna la info de entry siguiendo symlinks.
func StatEntry(dir string, entry fs.DirEntry) (fs.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		return os.Stat(filepath.Join(dir, entry.Name()))
	}
	return entry.Info()
}

// onlyWriter/onlyReader ocultan ReaderFrom/WriterTo para que io.CopyBuffer
// use de verdad el buffer de tamaño fijo.
type onlyWriter struct{ io.Writer }

type onlyReader struct{ io.Reader }
