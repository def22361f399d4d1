package walker

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for traversal operations.
var (
	tracer = otel.Tracer("osgraph.walker")
	meter  = otel.Meter("osgraph.walker")
)

var (
	hooksTotal  metric.Int64Counter
	hookErrors  metric.Int64Counter
	runsTotal   metric.Int64Counter
	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		hooksTotal, err = meter.Int64Counter(
			"osgraph_walker_hooks_total",
			metric.WithDescription("Total hook invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		hookErrors, err = meter.Int64Counter(
			"osgraph_walker_hook_errors_total",
			metric.WithDescription("Total hook invocations that failed or panicked"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runsTotal, err = meter.Int64Counter(
			"osgraph_walker_runs_total",
			metric.WithDescription("Total traversal runs by final state"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startRunSpan(ctx context.Context, class, id string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Walker.Run",
		trace.WithAttributes(
			attribute.String("walker.class", class),
			attribute.String("walker.id", id),
		),
	)
}

func startHookSpan(ctx context.Context, label, targetID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Walker.Hook",
		trace.WithAttributes(
			attribute.String("hook", label),
			attribute.String("target.id", targetID),
		),
	)
}

func recordHook(ctx context.Context, label string, failed bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("hook", label))
	hooksTotal.Add(ctx, 1, attrs)
	if failed {
		hookErrors.Add(ctx, 1, attrs)
	}
}

func recordRun(ctx context.Context, class string, state State) {
	if err := initMetrics(); err != nil {
		return
	}
	runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("walker.class", class),
		attribute.String("state", state.String()),
	))
}
