// Package control une configuración, registry y resolver. Es lo único que
// consume la capa que genera templates.
package control

import (
	"context"
	"errors"

	"github.com/qrioso-software/qrioslambda/internal/build"
	"github.com/qrioso-software/qrioslambda/internal/config"
	"github.com/qrioso-software/qrioslambda/internal/content"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/qrioso-software/qrioslambda/internal/registry"
	"github.com/qrioso-software/qrioslambda/internal/storage"
	"github.com/rs/zerolog"
)

var ErrAlreadyDiscovered = errors.New("lambda functions already discovered")

// Control se crea una vez por proceso y se pasa explícitamente.
type Control struct {
	cfg        config.Resolution
	registry   *registry.Registry
	resolver   *content.Resolver
	lg         zerolog.Logger
	discovered bool
}

// Load lee la configuración de src y arma el Control.
func Load(src config.Source, gw storage.Gateway, lg zerolog.Logger) (*Control, error) {
	cfg, err := config.LoadResolution(src)
	if err != nil {
		return nil, err
	}
	return New(cfg, gw, lg), nil
}

func New(cfg config.Resolution, gw storage.Gateway, lg zerolog.Logger) *Control {
	isBuild := func(runtime string) bool {
		_, ok := cfg.BuildSpecFor(runtime)
		return ok
	}
	return &Control{
		cfg:      cfg,
		registry: registry.New(isBuild, lg),
		resolver: content.NewResolver(cfg, build.NewExecutor(cfg.BuildTimeout, lg), gw, lg),
		lg:       lg.With().Str("component", "control").Logger(),
	}
}

func (c *Control) Config() config.Resolution {
	return c.cfg
}

// Discover escanea los directorios configurados. Solo se llama una vez.
func (c *Control) Discover() error {
	if c.discovered {
		return ErrAlreadyDiscovered
	}
	if err := c.registry.Discover(c.cfg.Directories); err != nil {
		return err
	}
	c.discovered = true
	c.lg.Debug().Strs("directories", c.cfg.Directories).Msg("lambda functions discovered")
	return nil
}

// Resolve busca la función name; runtime vacío busca en todos.
func (c *Control) Resolve(name, runtime string) (lambda.FunctionRecord, error) {
	return c.registry.Resolve(name, runtime)
}

// Materialize retorna el contenido listo para el template.
func (c *Control) Materialize(ctx context.Context, rec lambda.FunctionRecord) (lambda.Content, error) {
	return c.resolver.Materialize(ctx, rec)
}

// Functions lista todo lo descubierto.
func (c *Control) Functions() []lambda.FunctionRecord {
	return c.registry.Records()
}
