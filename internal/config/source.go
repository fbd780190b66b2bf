package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix se antepone a las variables de entorno que sobrescriben el YAML,
// p.ej. QRIOSLAMBDA_LAMBDA_UPLOAD_BUCKET.
const EnvPrefix = "QRIOSLAMBDA"

// Source es la búsqueda jerárquica de claves que consume el resolver.
type Source interface {
	Fetch(path ...string) (any, bool)
}

// ViperSource implementa Source sobre viper (archivo + entorno + flags).
type ViperSource struct {
	v *viper.Viper
}

// NewSource lee el archivo de configuración en path. Un path vacío deja solo
// entorno y valores seteados a mano.
func NewSource(path string) (*ViperSource, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return &ViperSource{v: v}, nil
}

// NewSourceFrom envuelve una instancia de viper ya preparada.
func NewSourceFrom(v *viper.Viper) *ViperSource {
	return &ViperSource{v: v}
}

// Viper expone la instancia para enlazar flags de cobra.
func (s *ViperSource) Viper() *viper.Viper {
	return s.v
}

func (s *ViperSource) Fetch(path ...string) (any, bool) {
	key := strings.Join(path, ".")
	if !s.v.IsSet(key) {
		return nil, false
	}
	return s.v.Get(key), true
}
