// Package content decide si una función se embebe en el template o se sube
// al object store, y arma el descriptor correspondiente.
package content

import (
	"context"
	"fmt"
	"os"

	"github.com/qrioso-software/qrioslambda/internal/config"
	"github.com/qrioso-software/qrioslambda/internal/keys"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/qrioso-software/qrioslambda/internal/storage"
	"github.com/rs/zerolog"
)

// Builder compila el código de una función y retorna el artefacto.
type Builder interface {
	Build(ctx context.Context, path string, spec config.BuildSpec) (string, error)
}

// Resolver materializa funciones. Consulta el bucket una sola vez por
// instancia; el resultado, incluido "sin versionado", queda cacheado.
type Resolver struct {
	cfg     config.Resolution
	builder Builder
	namer   *keys.Namer
	gw      storage.Gateway
	lg      zerolog.Logger

	bucketChecked bool
	versioned     bool
}

func NewResolver(cfg config.Resolution, builder Builder, gw storage.Gateway, lg zerolog.Logger) *Resolver {
	return &Resolver{
		cfg:     cfg,
		builder: builder,
		namer:   keys.NewNamer(cfg.Prefix),
		gw:      gw,
		lg:      lg.With().Str("component", "content").Logger(),
	}
}

// CanInline indica si rec puede ir embebido: runtime no restringido y
// tamaño <= InlineMaxSize.
func (r *Resolver) CanInline(rec lambda.FunctionRecord) (bool, error) {
	if r.cfg.InlineRestrictedFor(rec.Runtime) {
		return false, nil
	}
	info, err := os.Stat(rec.Path)
	if err != nil {
		return false, fmt.Errorf("stat lambda source %s: %w", rec.Path, err)
	}
	if info.IsDir() {
		return false, nil
	}
	return info.Size() <= r.cfg.InlineMaxSize, nil
}

// Materialize retorna lambda.Inline o lambda.Remote para rec.
func (r *Resolver) Materialize(ctx context.Context, rec lambda.FunctionRecord) (lambda.Content, error) {
	inline, err := r.CanInline(rec)
	if err != nil {
		return nil, err
	}
	if inline {
		raw, err := os.ReadFile(rec.Path)
		if err != nil {
			return nil, fmt.Errorf("reading lambda source %s: %w", rec.Path, err)
		}
		r.lg.Debug().Str("function", rec.Name).Str("runtime", rec.Runtime).Int("bytes", len(raw)).Msg("inlining function")
		return lambda.Inline{Raw: raw}, nil
	}

	if r.cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: no bucket configured for lambda storage (set lambda.upload.bucket)", lambda.ErrConfiguration)
	}

	artifact := rec.Path
	if spec, ok := r.cfg.BuildSpecFor(rec.Runtime); ok {
		artifact, err = r.builder.Build(ctx, rec.Path, spec)
		if err != nil {
			return nil, err
		}
	}

	versioned, err := r.versioning(ctx)
	if err != nil {
		return nil, err
	}

	key, err := r.namer.Name(artifact, rec.Runtime, versioned)
	if err != nil {
		return nil, fmt.Errorf("generating storage key for %s: %w", artifact, err)
	}

	if err := r.upload(ctx, artifact, key); err != nil {
		return nil, err
	}

	remote := lambda.Remote{Bucket: r.cfg.Bucket, Key: key}
	if versioned {
		version, err := r.gw.ObjectVersion(ctx, r.cfg.Bucket, key)
		if err != nil {
			return nil, &lambda.StorageError{Op: "head", Bucket: r.cfg.Bucket, Key: key, Err: err}
		}
		remote.Version = version
	}

	r.lg.Info().Str("function", rec.Name).Str("runtime", rec.Runtime).
		Str("bucket", remote.Bucket).Str("key", remote.Key).Str("version", remote.Version).
		Msg("📦 lambda asset uploaded")
	return remote, nil
}

// versioning valida el bucket y lee su estado de versionado la primera vez.
func (r *Resolver) versioning(ctx context.Context) (bool, error) {
	if r.bucketChecked {
		return r.versioned, nil
	}

	if err := r.gw.BucketExists(ctx, r.cfg.Bucket); err != nil {
		return false, &lambda.StorageError{Op: "lookup", Bucket: r.cfg.Bucket, Err: err}
	}
	versioned, err := r.gw.VersioningEnabled(ctx, r.cfg.Bucket)
	if err != nil {
		return false, &lambda.StorageError{Op: "versioning", Bucket: r.cfg.Bucket, Err: err}
	}

	r.bucketChecked = true
	r.versioned = versioned
	r.lg.Debug().Str("bucket", r.cfg.Bucket).Bool("versioned", versioned).Msg("bucket versioning resolved")
	return versioned, nil
}

func (r *Resolver) upload(ctx context.Context, artifact, key string) error {
	f, err := os.Open(artifact)
	if err != nil {
		return fmt.Errorf("opening lambda asset %s: %w", artifact, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat lambda asset %s: %w", artifact, err)
	}

	if err := r.gw.Put(ctx, r.cfg.Bucket, key, f, info.Size()); err != nil {
		return &lambda.StorageError{Op: "put", Bucket: r.cfg.Bucket, Key: key, Err: err}
	}
	return nil
}
