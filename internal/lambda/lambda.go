// Package lambda contiene el modelo compartido: registros de funciones
// descubiertas y el contenido resuelto que consume el template.
package lambda

import "fmt"

// FunctionRecord identifica una función descubierta en disco.
// Path es un archivo para runtimes sin build y un directorio para los
// runtimes que requieren build.
type FunctionRecord struct {
	Name    string
	Runtime string
	Path    string
}

func (r FunctionRecord) String() string {
	return fmt.Sprintf("%s/%s (%s)", r.Runtime, r.Name, r.Path)
}

// Content es el artefacto resuelto para una función: Inline o Remote.
type Content interface {
	isContent()
}

// Inline lleva el código fuente para embeberlo directamente en el template.
type Inline struct {
	Raw []byte
}

// Remote referencia un artefacto subido al object store.
// Version está vacío cuando el bucket no tiene versionado.
type Remote struct {
	Bucket  string
	Key     string
	Version string
}

func (Inline) isContent() {}
func (Remote) isContent() {}
