package config

import "github.com/leapstack-labs/leapml/pkg/core"

// Default configuration values.
const (
	DefaultNamespace    = "default"
	DefaultArtifactsDir = "artifacts"
	DefaultFinalDir     = "final_model"
	DefaultStateFile    = ".leapml/state.db"
	DefaultSchemaFile   = "schema.yaml"
	DefaultTestRatio    = 0.2
	DefaultSeed         = 42
	DefaultFolds        = 3
)

// defaultPorts are applied when a network source leaves Port unset.
var defaultPorts = map[string]int{
	"postgres": 5432,
	"mongo":    27017,
	"redis":    6379,
}

// ApplySourceDefaults fills type-specific defaults into a source config.
func ApplySourceDefaults(s *core.SourceConfig) {
	if s == nil {
		return
	}
	if s.Port == 0 && s.URI == "" {
		s.Port = defaultPorts[s.Type]
	}
	if s.Options == nil {
		s.Options = make(map[string]string)
	}
}
