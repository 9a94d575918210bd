package config

// EnvPrefix is the environment prefix of the engine config.
const EnvPrefix = "METRICQUERY__"

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Engine configures the long-running query server.
type Engine struct {
	GRPCPort    int `koanf:"grpc_port"`
	MetricsPort int `koanf:"metrics_port"`

	// Pipeline is an optional run file executed once at startup.
	Pipeline string `koanf:"pipeline"`

	Log LogConfig `koanf:"log"`
}

func LoadEngine(path string) (Engine, error) {
	var cfg Engine
	if err := Load(path, EnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Engine) applyDefaults() {
	if c.GRPCPort == 0 {
		c.GRPCPort = 7070
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = 9100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
