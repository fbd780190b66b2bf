package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/qrioso-software/qrioslambda/internal/config"
	"github.com/qrioso-software/qrioslambda/internal/control"
	"github.com/qrioso-software/qrioslambda/internal/lambda"
	"github.com/qrioso-software/qrioslambda/internal/storage"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// app guarda los flags globales y arma las dependencias de cada comando.
type app struct {
	cfgPath string
	region  string
	profile string
	debug   bool
	lg      zerolog.Logger
}

func (a *app) project() (*config.Project, error) {
	p, err := config.LoadProject(a.cfgPath)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// optionalProject carga el proyecto si existe. Solo la ausencia del archivo
// se tolera; un YAML inválido es un error.
func (a *app) optionalProject() (*config.Project, error) {
	p, err := config.LoadProject(a.cfgPath)
	if errors.Is(err, os.ErrNotExist) {
		a.lg.Debug().Str("file", a.cfgPath).Msg("project file not found, using defaults")
		return nil, nil
	}
	return p, err
}

// gateway usa la región del flag o, si no hay, la del proyecto.
func (a *app) gateway(ctx context.Context, p *config.Project) (storage.Gateway, error) {
	region := a.region
	if region == "" && p != nil {
		region = p.Region
	}
	return storage.NewS3Gateway(ctx, region, a.profile)
}

// control carga la sección lambda del mismo archivo y descubre las funciones.
func (a *app) control(ctx context.Context, p *config.Project) (*control.Control, error) {
	src, err := config.NewSource(a.cfgPath)
	if err != nil {
		return nil, err
	}
	gw, err := a.gateway(ctx, p)
	if err != nil {
		return nil, err
	}
	ctl, err := control.Load(src, gw, a.lg)
	if err != nil {
		return nil, err
	}
	if err := ctl.Discover(); err != nil {
		return nil, err
	}
	return ctl, nil
}

// cdkApp es el comando que el CDK CLI ejecuta vía CDK_APP.
func (a *app) cdkApp() string {
	bin, err := os.Executable()
	if err != nil {
		bin = "qrioslambda"
	}
	return fmt.Sprintf("%q cdkapp --config %q", bin, a.cfgPath)
}

func (a *app) runCDK(ctx context.Context, args ...string) error {
	if _, err := exec.LookPath("cdk"); err != nil {
		return fmt.Errorf("cdk CLI no encontrado. Instala con: npm i -g aws-cdk")
	}
	if a.profile != "" {
		args = append(args, "--profile", a.profile)
	}

	ex := exec.CommandContext(ctx, "cdk", args...)
	ex.Env = append(os.Environ(), "CDK_APP="+a.cdkApp())
	ex.Stdout = os.Stdout
	ex.Stderr = os.Stderr

	a.lg.Info().Strs("args", args).Msg("🚀 running cdk")
	if err := ex.Run(); err != nil {
		return fmt.Errorf("error en cdk %s: %w", args[0], err)
	}
	return nil
}

// sampleProject es lo que escribe init.
func sampleProject(service, stage, region string) *config.Project {
	return &config.Project{
		Service: service,
		Stage:   stage,
		Region:  region,
		Functions: map[string]config.FunctionDecl{
			"hello": {
				Runtime:    "python3.12",
				Handler:    "handler",
				Role:       "arn:aws:iam::123456789012:role/lambda-basic-execution",
				MemorySize: 128,
				Timeout:    10,
			},
		},
		Lambda: map[string]any{
			"directory": config.DefaultDirectory,
			"upload": map[string]any{
				"bucket": service + "-" + stage + "-artifacts",
				"prefix": config.DefaultPrefix,
			},
			"config": map[string]any{
				"inline_max_size": config.DefaultInlineMaxSize,
			},
		},
	}
}

const sampleHandler = `def handler(event, context):
    return {"statusCode": 200, "body": "hello"}
`

// writeSample crea el archivo de proyecto y una función de ejemplo en dir.
func writeSample(dir string, p *config.Project) error {
	path := filepath.Join(dir, config.DefaultProjectFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("ya existe %s en el directorio", config.DefaultProjectFile)
	}

	b, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}

	fnDir := filepath.Join(dir, config.DefaultDirectory, "python3.12")
	if err := os.MkdirAll(fnDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(fnDir, "hello.py"), []byte(sampleHandler), 0o644)
}

// describe arma la vista imprimible de un contenido resuelto.
func describe(rec lambda.FunctionRecord, c lambda.Content) map[string]any {
	out := map[string]any{
		"name":    rec.Name,
		"runtime": rec.Runtime,
		"path":    rec.Path,
	}
	switch v := c.(type) {
	case lambda.Inline:
		out["inline"] = map[string]any{"size": len(v.Raw)}
	case lambda.Remote:
		remote := map[string]any{"bucket": v.Bucket, "key": v.Key}
		if v.Version != "" {
			remote["version"] = v.Version
		}
		out["remote"] = remote
	}
	return out
}

// ignoredOutputs son los directorios de salida de builds, que watch no vigila.
func ignoredOutputs(cfg config.Resolution) []string {
	var out []string
	for _, spec := range cfg.BuildRequired {
		base := filepath.Base(filepath.Clean(spec.OutputDirectory))
		if base != "." && base != string(filepath.Separator) {
			out = append(out, base)
		}
	}
	return out
}

// buildTool es el ejecutable de un build_command ("mvn package" -> "mvn").
func buildTool(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
