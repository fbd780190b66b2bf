// Package keys genera las claves de almacenamiento de los artefactos.
package keys

import (
	"encoding/base64"
	"path"
	"path/filepath"

	"github.com/qrioso-software/qrioslambda/internal/util"
)

// Namer arma claves bajo un prefijo fijo (sfn.lambda por defecto).
type Namer struct {
	prefix string
}

func NewNamer(prefix string) *Namer {
	return &Namer{prefix: prefix}
}

// Name retorna "<prefix>/<runtime>/<basename>". Sin versionado se agrega el
// digest del contenido para que dos artefactos distintos con el mismo nombre
// nunca compartan clave.
func (n *Namer) Name(artifactPath, runtime string, versioned bool) (string, error) {
	base := filepath.Base(artifactPath)
	if versioned {
		return path.Join(n.prefix, runtime, base), nil
	}

	sum, err := util.FileSHA256(artifactPath)
	if err != nil {
		return "", err
	}
	return path.Join(n.prefix, runtime, base+"-"+EncodeDigest(sum)), nil
}

// EncodeDigest usa base64 URL-safe sin padding: nunca mete "/" en la clave.
func EncodeDigest(sum []byte) string {
	return base64.RawURLEncoding.EncodeToString(sum)
}
