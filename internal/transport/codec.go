package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"metricquery/internal/metric"
	"metricquery/internal/spec"
)

// Request is the Execute document. Operations win over Transformations when
// both are set.
type Request struct {
	Metrics         []metric.Metric             `json:"metrics"`
	Operations      []spec.Operation            `json:"operations,omitempty"`
	Transformations []spec.LegacyTransformation `json:"transformations,omitempty"`
	Sort            bool                        `json:"sort,omitempty"`
}

type Response struct {
	Metrics []metric.Metric `json:"metrics"`
}

// Plugins lists the registry of the serving engine.
type Plugins struct {
	Filters       []string `json:"filters"`
	Aggregations  []string `json:"aggregations"`
	TimeGroupings []string `json:"time_groupings"`
}

// MaxExactInt is the largest magnitude a struct number carries without
// rounding.
const MaxExactInt = 1<<53 - 1

var ErrInexactInteger = errors.New("integer outside ±(2^53-1) cannot cross the wire exactly")

func exact(v int64) bool { return v >= -MaxExactInt && v <= MaxExactInt }

func checkMetrics(ms []metric.Metric) error {
	for i, m := range ms {
		if !exact(m.Value) {
			return fmt.Errorf("metrics[%d].value %d: %w", i, m.Value, ErrInexactInteger)
		}
		if !exact(m.Timestamp) {
			return fmt.Errorf("metrics[%d].timestamp %d: %w", i, m.Timestamp, ErrInexactInteger)
		}
	}
	return nil
}

// checkRequest rejects requests whose integers a struct would round. Any
// double at or beyond 2^53 decodes outside the exact range, so this also
// catches values already rounded on the way in.
func checkRequest(req Request) error {
	if err := checkMetrics(req.Metrics); err != nil {
		return err
	}
	for i, op := range req.Operations {
		if op.Value != nil && !exact(*op.Value) {
			return fmt.Errorf("operations[%d].value %d: %w", i, *op.Value, ErrInexactInteger)
		}
	}
	for i, t := range req.Transformations {
		if t.Filter != nil && !exact(t.Filter.Value) {
			return fmt.Errorf("transformations[%d].filter.value %d: %w", i, t.Filter.Value, ErrInexactInteger)
		}
	}
	return nil
}

// toStruct encodes v through its JSON form. Struct numbers are doubles;
// callers check integers against MaxExactInt first.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// fromStruct decodes s into v, rejecting unknown fields.
func fromStruct(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
