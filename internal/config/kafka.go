package config

import (
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// KafkaEnvPrefix is the environment prefix of the Kafka config file shared by
// the Kafka source and sink.
const KafkaEnvPrefix = "METRICQUERY_KAFKA__"

type KafkaSource struct {
	Topic      string  `koanf:"topic"`
	Partitions []int32 `koanf:"partitions"` // empty = all
	StartFrom  string  `koanf:"start_from"` // oldest|newest (default oldest)

	// A snapshot ends after MaxMessages metrics, or once no message arrived
	// for IdleTimeout.
	MaxMessages int           `koanf:"max_messages"`
	IdleTimeout time.Duration `koanf:"idle_timeout"`
	Validate    bool          `koanf:"validate"`
}

type KafkaSink struct {
	Topic string `koanf:"topic"`

	// RequiredAcks is 0, 1 or -1. Unset means 1 (wait for the leader).
	RequiredAcks *int16 `koanf:"required_acks"`
}

// Acks maps required_acks to the sarama setting.
func (s KafkaSink) Acks() sarama.RequiredAcks {
	if s.RequiredAcks == nil {
		return sarama.WaitForLocal
	}
	return sarama.RequiredAcks(*s.RequiredAcks)
}

type Kafka struct {
	Brokers  []string `koanf:"brokers"`
	Version  string   `koanf:"version"`
	ClientID string   `koanf:"client_id"`
	TLSEn    bool     `koanf:"tls_enabled"`
	SASLUser string   `koanf:"sasl_user"`
	SASLPass string   `koanf:"sasl_pass"`

	Source KafkaSource `koanf:"source"`
	Sink   KafkaSink   `koanf:"sink"`
}

// LoadKafka merges YAML (if present) with env vars (prefix METRICQUERY_KAFKA__,
// delimiter __) and applies defaults.
func LoadKafka(path string) (Kafka, error) {
	var cfg Kafka
	if err := Load(path, KafkaEnvPrefix, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Kafka) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "metricquery"
	}
	if c.Source.StartFrom == "" {
		c.Source.StartFrom = "oldest"
	}
	if c.Source.MaxMessages == 0 {
		c.Source.MaxMessages = 100_000
	}
	if c.Source.IdleTimeout == 0 {
		c.Source.IdleTimeout = 2 * time.Second
	}
	if c.Sink.RequiredAcks == nil {
		acks := int16(sarama.WaitForLocal)
		c.Sink.RequiredAcks = &acks
	}
}

// Sarama builds the client config shared by consumer and producer.
func (c Kafka) Sarama() (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = c.ClientID
	if c.Version != "" {
		ver, err := sarama.ParseKafkaVersion(c.Version)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		sc.Version = ver
	}
	sc.Consumer.Return.Errors = true
	if c.TLSEn {
		sc.Net.TLS.Enable = true
	}
	if c.SASLUser != "" {
		sc.Net.SASL.Enable = true
		sc.Net.SASL.User, sc.Net.SASL.Password = c.SASLUser, c.SASLPass
	}
	return sc, nil
}

// Offset maps start_from to the sarama initial offset.
func (s KafkaSource) Offset() int64 {
	if s.StartFrom == "newest" {
		return sarama.OffsetNewest
	}
	return sarama.OffsetOldest
}
