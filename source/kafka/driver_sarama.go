// Package kafka reads a bounded snapshot of metrics from Kafka partitions.
//
// Each message value is one JSON metric. A snapshot ends when max_messages
// metrics were read, when no message arrived for idle_timeout, or when the
// context is done.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"metricquery/internal/config"
	"metricquery/internal/logging"
	"metricquery/internal/metric"
	"metricquery/source"
)

type SaramaDriver struct {
	cfg      config.KafkaSource
	validate bool
	now      func() time.Time

	consumer sarama.Consumer
}

// NewSaramaDriver wraps an existing consumer; Configure is not needed.
func NewSaramaDriver(consumer sarama.Consumer, cfg config.KafkaSource) *SaramaDriver {
	return &SaramaDriver{cfg: cfg, validate: cfg.Validate, now: time.Now, consumer: consumer}
}

func (d *SaramaDriver) Configure(sc source.Config) error {
	kc, err := config.LoadKafka(sc.Path)
	if err != nil {
		return err
	}
	if kc.Source.Topic == "" {
		return errors.New("kafka-source: source.topic required")
	}
	saramaCfg, err := kc.Sarama()
	if err != nil {
		return err
	}

	d.cfg, d.validate, d.now = kc.Source, kc.Source.Validate || sc.Validate, time.Now
	d.consumer, err = sarama.NewConsumer(kc.Brokers, saramaCfg)
	if err != nil {
		return fmt.Errorf("kafka-source: %w", err)
	}
	return nil
}

func (d *SaramaDriver) Load(ctx context.Context) ([]metric.Metric, error) {
	if d.consumer == nil {
		return nil, errors.New("kafka-source: not configured")
	}
	log := logging.With("kafka-source")

	parts := d.cfg.Partitions
	if len(parts) == 0 {
		var err error
		if parts, err = d.consumer.Partitions(d.cfg.Topic); err != nil {
			return nil, fmt.Errorf("kafka-source: partitions of %s: %w", d.cfg.Topic, err)
		}
	}

	pcs := make([]sarama.PartitionConsumer, 0, len(parts))
	defer func() {
		for _, pc := range pcs {
			_ = pc.Close()
		}
	}()
	for _, p := range parts {
		pc, err := d.consumer.ConsumePartition(d.cfg.Topic, p, d.cfg.Offset())
		if err != nil {
			return nil, fmt.Errorf("kafka-source: consume %s[%d]: %w", d.cfg.Topic, p, err)
		}
		pcs = append(pcs, pc)
	}

	done := make(chan struct{})
	msgs := make(chan *sarama.ConsumerMessage)
	errs := make(chan error)
	var wg sync.WaitGroup
	for _, pc := range pcs {
		wg.Add(1)
		go func(pc sarama.PartitionConsumer) {
			defer wg.Done()
			fanIn(pc, msgs, errs, done)
		}(pc)
	}
	defer func() {
		close(done)
		wg.Wait()
	}()

	idle := time.NewTimer(d.cfg.IdleTimeout)
	defer idle.Stop()

	out := make([]metric.Metric, 0, 64)
	for d.cfg.MaxMessages <= 0 || len(out) < d.cfg.MaxMessages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-idle.C:
			log.Debug("snapshot idle", "topic", d.cfg.Topic, "count", len(out))
			return d.finish(out)
		case err := <-errs:
			return nil, fmt.Errorf("kafka-source: %w", err)
		case msg := <-msgs:
			m, err := decode(msg.Value)
			if err != nil {
				log.Warn("skipping undecodable message",
					"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "err", err)
			} else {
				out = append(out, m)
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(d.cfg.IdleTimeout)
		}
	}
	log.Debug("snapshot full", "topic", d.cfg.Topic, "count", len(out))
	return d.finish(out)
}

func (d *SaramaDriver) finish(out []metric.Metric) ([]metric.Metric, error) {
	if d.validate {
		if err := source.ValidateAll(out, d.now()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *SaramaDriver) Close() error {
	if d.consumer == nil {
		return nil
	}
	return d.consumer.Close()
}

func fanIn(pc sarama.PartitionConsumer, msgs chan<- *sarama.ConsumerMessage, errs chan<- error, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case m, ok := <-pc.Messages():
			if !ok {
				return
			}
			select {
			case msgs <- m:
			case <-done:
				return
			}
		case e, ok := <-pc.Errors():
			if !ok {
				return
			}
			select {
			case errs <- e:
			case <-done:
				return
			}
		}
	}
}

type wireMetric struct {
	Value     *int64  `json:"value"`
	Timestamp *int64  `json:"timestamp"`
	Label     *string `json:"label"`
}

func decode(raw []byte) (metric.Metric, error) {
	var w wireMetric
	if err := json.Unmarshal(raw, &w); err != nil {
		return metric.Metric{}, err
	}
	if w.Value == nil || w.Timestamp == nil {
		return metric.Metric{}, errors.New("value and timestamp are required")
	}
	return metric.Metric{Value: *w.Value, Timestamp: *w.Timestamp, Label: w.Label}, nil
}

func init() {
	source.Register("kafka", func() source.Adapter { return &SaramaDriver{} })
}
