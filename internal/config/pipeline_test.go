package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPipelineSpec_ResolvesRelativeSourceConfigAndSchema(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`schema_version: v1
source:
  driver: kafka
  config: kafka_source.yml
operations:
  - operation: greater_than
    value: 10
  - operation: group_by_day
    aggregation: sum
sort: true
sinks: [stdout, kafka]
sink_configs:
  kafka:
    config: kafka_sink.yml
`)
	if err := os.WriteFile(filepath.Join(dir, "pipeline.yml"), pipe, 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	cfg, abs, err := LoadPipelineSpec(filepath.Join(dir, "pipeline.yml"))
	if err != nil {
		t.Fatalf("LoadPipelineSpec: %v", err)
	}
	if cfg.SchemaVersion != SupportedSchema {
		t.Fatalf("want schema %s, got %s", SupportedSchema, cfg.SchemaVersion)
	}
	if abs != filepath.Join(dir, "kafka_source.yml") {
		t.Fatalf("want absolute source config path, got %q", abs)
	}
	if got := cfg.SinkConfigs.Kafka.Config; got != filepath.Join(dir, "kafka_sink.yml") {
		t.Fatalf("want absolute sink config path, got %q", got)
	}
	if len(cfg.Operations) != 2 || cfg.Operations[0].Op != "greater_than" || *cfg.Operations[0].Value != 10 {
		t.Fatalf("unexpected operations: %+v", cfg.Operations)
	}
	if cfg.Operations[1].Aggregation != "sum" || !cfg.Sort {
		t.Fatalf("unexpected spec: %+v", cfg)
	}
}

func TestLoadPipelineSpec_DefaultsSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yml")
	if err := os.WriteFile(path, []byte("source: {driver: file, config: /abs/metrics.json}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, abs, err := LoadPipelineSpec(path)
	if err != nil {
		t.Fatalf("LoadPipelineSpec: %v", err)
	}
	if cfg.SchemaVersion != "v1" || abs != "/abs/metrics.json" {
		t.Fatalf("got schema %q path %q", cfg.SchemaVersion, abs)
	}
}

func TestLoadPipelineSpec_InvalidSchema(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`schema_version: v999
source: { driver: file, config: m.json }
sinks: [stdout]
`)
	if err := os.WriteFile(filepath.Join(dir, "pipeline.yml"), pipe, 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	_, _, err := LoadPipelineSpec(filepath.Join(dir, "pipeline.yml"))
	if err == nil {
		t.Fatal("expected error for invalid schema_version")
	}
}

func TestLoadPipelineSpec_RejectsBothStepLists(t *testing.T) {
	dir := t.TempDir()
	pipe := []byte(`source: { driver: file, config: m.json }
operations: [{operation: sum}]
transformations: [{aggregation: sum}]
`)
	path := filepath.Join(dir, "pipeline.yml")
	if err := os.WriteFile(path, pipe, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadPipelineSpec(path); err == nil {
		t.Fatal("expected error when both operations and transformations are set")
	}
}

func TestLoadPipelineSpec_Missing(t *testing.T) {
	if _, _, err := LoadPipelineSpec(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
