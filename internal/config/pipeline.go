package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"metricquery/internal/spec"
)

const SupportedSchema = "v1"

// LoadPipelineSpec parses a run file, validates schema_version, and returns
// the parsed spec and an absolute path to the source config (if set).
// Relative sink config paths are resolved against the run file as well.
func LoadPipelineSpec(path string) (spec.File, string, error) {
	var cfg spec.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, "", err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, "", fmt.Errorf("%s: %w", path, err)
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, "", fmt.Errorf("pipeline schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if len(cfg.Operations) > 0 && len(cfg.Transformations) > 0 {
		return cfg, "", fmt.Errorf("%s: operations and transformations are mutually exclusive", path)
	}
	cfg.SinkConfigs.Kafka.Config = resolve(path, cfg.SinkConfigs.Kafka.Config)
	return cfg, resolve(path, cfg.Source.Config), nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(base), p)
}
