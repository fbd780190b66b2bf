// Package storage define el acceso al object store donde se suben los
// artefactos que no se pueden embeber.
package storage

import (
	"context"
	"io"
)

// Gateway es lo mínimo que necesita el resolver del object store.
type Gateway interface {
	// BucketExists falla si el bucket no existe o no es accesible.
	BucketExists(ctx context.Context, bucket string) error
	// VersioningEnabled consulta el estado de versionado del bucket.
	VersioningEnabled(ctx context.Context, bucket string) (bool, error)
	// Put sube body bajo key.
	Put(ctx context.Context, bucket, key string, body io.Reader, size int64) error
	// ObjectVersion lee el version id actual del objeto (HEAD).
	ObjectVersion(ctx context.Context, bucket, key string) (string, error)
}
