package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	pb "metricquery/api/proto/v1"
	"metricquery/internal/legacy"
	"metricquery/internal/logging"
	"metricquery/internal/metric"
	"metricquery/internal/pipeline"
	"metricquery/internal/plugin"
	"metricquery/internal/queryerr"
	"metricquery/internal/runner"
	"metricquery/internal/telemetry"
)

// QueryService runs one pipeline per Execute call against a shared registry.
type QueryService struct {
	pb.UnimplementedQueryServer

	registry *plugin.Registry
	metrics  *telemetry.Metrics
	log      *slog.Logger
}

func NewQueryService(reg *plugin.Registry, m *telemetry.Metrics) *QueryService {
	if reg == nil {
		reg = plugin.Default()
	}
	return &QueryService{registry: reg, metrics: m, log: logging.With("transport")}
}

func (s *QueryService) Execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req Request
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := checkRequest(req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	out, err := s.run(req)
	s.metrics.ObserveExecution("grpc", len(req.Metrics), len(out), err)
	if err != nil {
		s.log.Debug("execute failed", "metrics", len(req.Metrics), "err", err)
		return nil, toStatus(err)
	}

	// sums can leave the exact range even when every input is inside it
	if err := checkMetrics(out); err != nil {
		return nil, status.Error(codes.OutOfRange, err.Error())
	}
	resp, err := toStruct(Response{Metrics: out})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func (s *QueryService) run(req Request) ([]metric.Metric, error) {
	p := pipeline.New(s.registry, req.Metrics)
	if err := runner.Plan(p, req.Operations, req.Transformations); err != nil {
		return nil, err
	}
	out, err := p.ExecuteObserved(func(step string, in, n int, elapsed time.Duration, err error) {
		s.metrics.ObserveStep(step, in, n, elapsed, err)
	})
	if err != nil {
		return nil, err
	}
	if req.Sort {
		metric.SortByTimestamp(out)
	}
	return out, nil
}

func (s *QueryService) Plugins(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	resp, err := toStruct(Plugins{
		Filters:       s.registry.FilterNames(),
		Aggregations:  s.registry.AggregationNames(),
		TimeGroupings: s.registry.TimeGroupingNames(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// toStatus maps engine errors to gRPC codes: caller mistakes are
// InvalidArgument, failures inside a plugin are Internal.
func toStatus(err error) error {
	switch queryerr.KindOf(err) {
	case queryerr.KindInvalidFilter, queryerr.KindInvalidAggregation,
		queryerr.KindInvalidTimeGrouping, queryerr.KindEmptyMetricStream:
		return status.Error(codes.InvalidArgument, err.Error())
	case queryerr.KindOperationFailed:
		return status.Error(codes.Internal, err.Error())
	}
	if errors.Is(err, pipeline.ErrUnknownOperation) ||
		errors.Is(err, legacy.ErrEmptyTransformation) ||
		errors.Is(err, legacy.ErrGroupingWithoutAgg) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
