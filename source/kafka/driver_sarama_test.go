package kafka

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"metricquery/internal/config"
	"metricquery/internal/metric"
	"metricquery/source"
)

func snapshotCfg(max int) config.KafkaSource {
	return config.KafkaSource{
		Topic:       "metrics",
		StartFrom:   "oldest",
		MaxMessages: max,
		IdleTimeout: 50 * time.Millisecond,
	}
}

func newConsumer(t *testing.T) *mocks.Consumer {
	sc := sarama.NewConfig()
	sc.Consumer.Return.Errors = true
	return mocks.NewConsumer(t, sc)
}

func yield(pc *mocks.PartitionConsumer, values ...string) {
	for _, v := range values {
		pc.YieldMessage(&sarama.ConsumerMessage{Value: []byte(v)})
	}
}

func TestSaramaDriver_LoadUntilIdle(t *testing.T) {
	c := newConsumer(t)
	c.SetTopicMetadata(map[string][]int32{"metrics": {0}})
	pc := c.ExpectConsumePartition("metrics", 0, sarama.OffsetOldest)
	yield(pc,
		`{"value":10,"timestamp":100,"label":"cpu"}`,
		`not json`,
		`{"value":20}`,
		`{"value":30,"timestamp":200}`,
	)

	d := NewSaramaDriver(c, snapshotCfg(100))
	got, err := d.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []metric.Metric{metric.NewLabeled(10, 100, "cpu"), metric.New(30, 200)}
	if len(got) != len(want) || got[0].String() != want[0].String() || got[1].String() != want[1].String() {
		t.Fatalf("got %v, want %v", got, want)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSaramaDriver_StopsAtMaxMessages(t *testing.T) {
	c := newConsumer(t)
	pc := c.ExpectConsumePartition("metrics", 3, sarama.OffsetOldest)
	yield(pc, `{"value":1,"timestamp":1}`, `{"value":2,"timestamp":2}`, `{"value":3,"timestamp":3}`)

	cfg := snapshotCfg(2)
	cfg.Partitions = []int32{3}
	cfg.IdleTimeout = time.Hour

	got, err := NewSaramaDriver(c, cfg).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].Value != 1 || got[1].Value != 2 {
		t.Fatalf("unexpected snapshot: %v", got)
	}
}

func TestSaramaDriver_PartitionError(t *testing.T) {
	c := newConsumer(t)
	c.SetTopicMetadata(map[string][]int32{"metrics": {0}})
	pc := c.ExpectConsumePartition("metrics", 0, sarama.OffsetOldest)
	pc.YieldError(sarama.ErrOutOfBrokers)

	cfg := snapshotCfg(10)
	cfg.IdleTimeout = time.Hour
	_, err := NewSaramaDriver(c, cfg).Load(context.Background())
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("want ErrOutOfBrokers, got %v", err)
	}
}

func TestSaramaDriver_Validate(t *testing.T) {
	c := newConsumer(t)
	c.SetTopicMetadata(map[string][]int32{"metrics": {0}})
	pc := c.ExpectConsumePartition("metrics", 0, sarama.OffsetOldest)
	yield(pc, `{"value":1,"timestamp":-5}`)

	cfg := snapshotCfg(10)
	cfg.Validate = true
	_, err := NewSaramaDriver(c, cfg).Load(context.Background())
	if !errors.Is(err, metric.ErrBeforeEpoch) {
		t.Fatalf("want ErrBeforeEpoch, got %v", err)
	}
}

func TestSaramaDriver_ContextCancelled(t *testing.T) {
	c := newConsumer(t)
	c.SetTopicMetadata(map[string][]int32{"metrics": {0}})
	c.ExpectConsumePartition("metrics", 0, sarama.OffsetOldest)

	cfg := snapshotCfg(10)
	cfg.IdleTimeout = time.Hour
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewSaramaDriver(c, cfg).Load(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}

func TestSaramaDriver_ConfigureRequiresTopic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kafka.yml")
	if err := os.WriteFile(path, []byte("brokers: [localhost:1]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := source.NewAdapter("kafka")
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if err := a.Configure(source.Config{Path: path}); err == nil {
		t.Fatal("expected error without source.topic")
	}
}

func TestSaramaDriver_LoadUnconfigured(t *testing.T) {
	if _, err := (&SaramaDriver{}).Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
