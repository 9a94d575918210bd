package spec

// Operation is one declarative pipeline step, as written in run files and
// query requests. Which fields apply depends on Op.
type Operation struct {
	Op           string   `yaml:"operation" json:"operation"`
	Type         string   `yaml:"type,omitempty" json:"type,omitempty"`
	Value        *int64   `yaml:"value,omitempty" json:"value,omitempty"`
	TimeGrouping string   `yaml:"time_grouping,omitempty" json:"time_grouping,omitempty"`
	Aggregation  string   `yaml:"aggregation,omitempty" json:"aggregation,omitempty"`
	Label        *string  `yaml:"label,omitempty" json:"label,omitempty"`
	Labels       []string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// LegacyFilter is the {type, value} filter of a legacy transformation record.
type LegacyFilter struct {
	Type  string `yaml:"type" json:"type"`
	Value int64  `yaml:"value" json:"value"`
}

// LegacyTransformation is the fixed-vocabulary record accepted by the legacy
// transform entry point.
type LegacyTransformation struct {
	Filter       *LegacyFilter `yaml:"filter,omitempty" json:"filter,omitempty"`
	Aggregation  string        `yaml:"aggregation,omitempty" json:"aggregation,omitempty"`
	TimeGrouping string        `yaml:"time_grouping,omitempty" json:"time_grouping,omitempty"`
}

type stdoutSink struct {
	Pretty bool `yaml:"pretty"`
}

type kafkaSink struct {
	Config string `yaml:"config"` // path to a koanf-loaded producer config
}

type sinkConfigs struct {
	Stdout stdoutSink `yaml:"stdout"`
	Kafka  kafkaSink  `yaml:"kafka"`
}

type File struct {
	SchemaVersion string `yaml:"schema_version"`

	Source struct {
		Driver string `yaml:"driver"` // "file", "kafka"
		Config string `yaml:"config"`

		// Validate rejects metrics timestamped before the epoch or in the future.
		Validate bool `yaml:"validate"`
	} `yaml:"source"`

	// Ordered pipeline steps. Mutually exclusive with Transformations.
	Operations      []Operation            `yaml:"operations"`
	Transformations []LegacyTransformation `yaml:"transformations"`

	// Sort orders the result by timestamp before it reaches the sinks.
	Sort bool `yaml:"sort"`

	Sinks       []string    `yaml:"sinks"`
	SinkConfigs sinkConfigs `yaml:"sink_configs"`
}
