package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/spf13/cast"
)

const (
	DefaultDirectory     = "lambda"
	DefaultPrefix        = "sfn.lambda"
	DefaultInlineMaxSize = 4096
)

// BuildSpec describe cómo compilar un runtime y dónde buscar el artefacto.
type BuildSpec struct {
	Runtime         string `mapstructure:"-" yaml:"-"`
	BuildCommand    string `mapstructure:"build_command" yaml:"build_command"`
	OutputDirectory string `mapstructure:"output_directory" yaml:"output_directory"`
	AssetExtension  string `mapstructure:"asset_extension" yaml:"asset_extension"`
}

// Resolution es la configuración de solo lectura que usan registry y resolver.
type Resolution struct {
	Directories      []string
	Bucket           string
	Prefix           string
	InlineMaxSize    int64
	InlineRestricted []string
	BuildRequired    map[string]BuildSpec
	BuildTimeout     time.Duration
}

// Defaults retorna los valores por defecto: java8 se compila con maven y
// nunca se embebe.
func Defaults() Resolution {
	return Resolution{
		Directories:      []string{DefaultDirectory},
		Prefix:           DefaultPrefix,
		InlineMaxSize:    DefaultInlineMaxSize,
		InlineRestricted: []string{"java8"},
		BuildRequired: map[string]BuildSpec{
			"java8": {
				Runtime:         "java8",
				BuildCommand:    "mvn package",
				OutputDirectory: "./target",
				AssetExtension:  "jar",
			},
		},
	}
}

// LoadResolution mezcla Defaults con lo que traiga src, campo por campo.
func LoadResolution(src Source) (Resolution, error) {
	res := Defaults()

	if raw, ok := src.Fetch("lambda", "directory"); ok {
		dirs, err := toStrings(raw)
		if err != nil {
			return res, fmt.Errorf("%w: lambda.directory: %v", lambda.ErrConfiguration, err)
		}
		res.Directories = dirs
	}
	dirs, err := absUnique(res.Directories)
	if err != nil {
		return res, err
	}
	res.Directories = dirs

	if raw, ok := src.Fetch("lambda", "upload", "bucket"); ok {
		res.Bucket = cast.ToString(raw)
	} else if raw, ok := src.Fetch("nesting_bucket"); ok {
		res.Bucket = cast.ToString(raw)
	}

	if raw, ok := src.Fetch("lambda", "upload", "prefix"); ok {
		res.Prefix = strings.Trim(cast.ToString(raw), "/")
	}

	if raw, ok := src.Fetch("lambda", "config", "inline_max_size"); ok {
		size, err := cast.ToInt64E(raw)
		if err != nil || size < 0 {
			return res, fmt.Errorf("%w: lambda.config.inline_max_size must be a non-negative integer, got %v", lambda.ErrConfiguration, raw)
		}
		res.InlineMaxSize = size
	}

	if raw, ok := src.Fetch("lambda", "config", "inline_restricted"); ok {
		restricted, err := toStrings(raw)
		if err != nil {
			return res, fmt.Errorf("%w: lambda.config.inline_restricted: %v", lambda.ErrConfiguration, err)
		}
		res.InlineRestricted = restricted
	}

	if raw, ok := src.Fetch("lambda", "config", "build_required"); ok {
		specs, err := decodeBuildSpecs(raw)
		if err != nil {
			return res, err
		}
		res.BuildRequired = specs
	}

	if raw, ok := src.Fetch("lambda", "config", "build_timeout"); ok {
		d, err := cast.ToDurationE(raw)
		if err != nil || d < 0 {
			return res, fmt.Errorf("%w: lambda.config.build_timeout must be a duration, got %v", lambda.ErrConfiguration, raw)
		}
		res.BuildTimeout = d
	}

	return res, nil
}

// BuildSpecFor retorna el BuildSpec del runtime si requiere compilación.
// La comparación ignora mayúsculas: viper guarda las claves de mapas del
// archivo en minúsculas y el runtime viene del nombre del directorio.
func (r Resolution) BuildSpecFor(runtime string) (BuildSpec, bool) {
	if spec, ok := r.BuildRequired[runtime]; ok {
		return spec, true
	}
	for name, spec := range r.BuildRequired {
		if strings.EqualFold(name, runtime) {
			return spec, true
		}
	}
	return BuildSpec{}, false
}

// InlineRestrictedFor indica si el runtime nunca puede embeberse. Los
// runtimes con build siempre lo están.
func (r Resolution) InlineRestrictedFor(runtime string) bool {
	if _, ok := r.BuildSpecFor(runtime); ok {
		return true
	}
	return slices.ContainsFunc(r.InlineRestricted, func(name string) bool {
		return strings.EqualFold(name, runtime)
	})
}

func decodeBuildSpecs(raw any) (map[string]BuildSpec, error) {
	specs := map[string]BuildSpec{}
	if err := mapstructure.Decode(raw, &specs); err != nil {
		return nil, fmt.Errorf("%w: lambda.config.build_required: %v", lambda.ErrConfiguration, err)
	}
	for runtime, spec := range specs {
		if strings.TrimSpace(spec.BuildCommand) == "" {
			return nil, fmt.Errorf("%w: lambda.config.build_required.%s.build_command is required", lambda.ErrConfiguration, runtime)
		}
		if spec.AssetExtension == "" {
			return nil, fmt.Errorf("%w: lambda.config.build_required.%s.asset_extension is required", lambda.ErrConfiguration, runtime)
		}
		if spec.OutputDirectory == "" {
			spec.OutputDirectory = "."
		}
		spec.Runtime = runtime
		specs[runtime] = spec
	}
	return specs, nil
}

// toStrings acepta un string suelto o una lista; cast.ToStringSlice partiría
// un string con espacios.
func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	default:
		return cast.ToStringSliceE(v)
	}
}

func absUnique(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving lambda directory %s: %v", lambda.ErrConfiguration, p, err)
		}
		if !slices.Contains(out, abs) {
			out = append(out, abs)
		}
	}
	return out, nil
}
