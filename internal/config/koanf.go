package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvDelim separates nesting levels in environment variable names.
const EnvDelim = "__"

// Load merges the YAML file at path (optional; a missing file is not an
// error) with environment variables starting with envPrefix, then decodes
// the result into out using `koanf` struct tags. Environment wins.
//
// METRICQUERY_KAFKA__SOURCE__MAX_MESSAGES=10 sets source.max_messages.
func Load(path, envPrefix string, out any) error {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: %s: %w", path, err)
		}
	}

	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return fmt.Errorf("config: %s: schema_version %q not supported (want %q)", path, sv, SupportedSchema)
	}

	if envPrefix != "" {
		cb := func(s string) string {
			return strings.ToLower(strings.TrimPrefix(s, envPrefix))
		}
		if err := k.Load(env.Provider(envPrefix, EnvDelim, cb), nil); err != nil {
			return fmt.Errorf("config: env %s: %w", envPrefix, err)
		}
	}

	if err := k.Unmarshal("", out); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}
