package kafka

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"metricquery/internal/config"
	"metricquery/internal/metric"
	"metricquery/sink"
)

// driver publishes each result metric as one JSON message, keyed by label
// when the metric has one.
type driver struct {
	topic string
	p     sarama.SyncProducer
}

// NewSyncDriver wraps an existing producer; Configure is not needed.
func NewSyncDriver(p sarama.SyncProducer, topic string) sink.Adapter {
	return &driver{topic: topic, p: p}
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(config.Kafka)
	if !ok {
		return fmt.Errorf("kafka-sink: want config.Kafka, got %T", c)
	}
	if cfg.Sink.Topic == "" {
		return errors.New("kafka-sink: sink.topic required")
	}
	sc, err := cfg.Sarama()
	if err != nil {
		return err
	}
	sc.Producer.RequiredAcks = cfg.Sink.Acks()
	sc.Producer.Return.Successes = true

	d.topic = cfg.Sink.Topic
	d.p, err = sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	return nil
}

func (d *driver) Push(ms []metric.Metric) error {
	if len(ms) == 0 {
		return nil
	}
	batch := make([]*sarama.ProducerMessage, 0, len(ms))
	for _, m := range ms {
		val, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("kafka-sink: %w", err)
		}
		msg := &sarama.ProducerMessage{Topic: d.topic, Value: sarama.ByteEncoder(val)}
		if l, ok := m.LabelValue(); ok {
			msg.Key = sarama.StringEncoder(l)
		}
		batch = append(batch, msg)
	}
	if err := d.p.SendMessages(batch); err != nil {
		return fmt.Errorf("kafka-sink: %w", err)
	}
	return nil
}

func (d *driver) Close() error {
	if d.p == nil {
		return nil
	}
	err := d.p.Close()
	d.p = nil
	return err
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
