// internal/config/project.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultProjectFile es el archivo que leen todos los comandos si no se pasa --config.
const DefaultProjectFile = "qrioso-lambda.yml"

// Project describe el stack que se sintetiza con las funciones resueltas.
// La sección lambda se conserva tal cual; la resolución la lee viper a
// través de Source.
type Project struct {
	Service   string                  `yaml:"service"`
	Stage     string                  `yaml:"stage"`
	Region    string                  `yaml:"region,omitempty"`
	Functions map[string]FunctionDecl `yaml:"functions"`
	Lambda    map[string]any          `yaml:"lambda,omitempty"`
	RootPath  string                  `yaml:"-"`
}

// FunctionDecl declara una función del stack. Name es el nombre lógico en el
// registry; si falta se usa la clave del mapa.
type FunctionDecl struct {
	Name       string `yaml:"name,omitempty"`
	UniqueName string `yaml:"uniqueName,omitempty"`
	Runtime    string `yaml:"runtime,omitempty"`
	Handler    string `yaml:"handler,omitempty"`
	Role       string `yaml:"role"`
	MemorySize int    `yaml:"memorySize,omitempty"`
	Timeout    int    `yaml:"timeout,omitempty"`
}

func LoadProject(path string) (*Project, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p.RootPath = filepath.Dir(abs)

	for id, fn := range p.Functions {
		if fn.Name == "" {
			fn.Name = id
			p.Functions[id] = fn
		}
	}

	return &p, nil
}

func (p *Project) Validate() error {
	if p.Service == "" {
		return fmt.Errorf("field 'service' is required")
	}

	if !isValidServiceName(p.Service) {
		return fmt.Errorf("service name '%s' is invalid. Only alphanumeric and hyphens allowed", p.Service)
	}

	if p.Stage == "" {
		return fmt.Errorf("field 'stage' is required")
	}

	for id, fn := range p.Functions {
		if err := fn.Validate(id); err != nil {
			return err
		}
	}

	return nil
}

func (f *FunctionDecl) Validate(id string) error {
	if f.Role == "" {
		return fmt.Errorf("functions.%s.role is required", id)
	}

	if f.MemorySize != 0 && (f.MemorySize < 128 || f.MemorySize > 10240) {
		return fmt.Errorf("memorySize must be between 128 and 10240 for function '%s'", id)
	}

	if f.Timeout != 0 && (f.Timeout < 1 || f.Timeout > 900) {
		return fmt.Errorf("timeout must be between 1 and 900 seconds for function '%s'", id)
	}

	return nil
}

// StackName arma el nombre del stack como service-stage.
func (p *Project) StackName() string {
	return fmt.Sprintf("%s-%s", p.Service, p.Stage)
}

func isValidServiceName(name string) bool {
	// Solo letras, números y guiones
	match, _ := regexp.MatchString("^[a-zA-Z0-9-]+$", name)
	return match
}
