package fixall

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("fixall.engine")

var (
	runLatency   metric.Float64Histogram
	runTotal     metric.Int64Counter
	fixesTotal   metric.Int64Counter
	changesTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runLatency, err = meter.Float64Histogram(
			"fixall_run_duration_seconds",
			metric.WithDescription("Duration of fix-all runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runTotal, err = meter.Int64Counter(
			"fixall_runs_total",
			metric.WithDescription("Fix-all runs by scope and status"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		fixesTotal, err = meter.Int64Counter(
			"fixall_fixes_total",
			metric.WithDescription("Candidate fixes that took part in a merge"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		changesTotal, err = meter.Int64Counter(
			"fixall_changes_total",
			metric.WithDescription("Merged text changes"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

// recordRun records metrics for one run. res is nil when the run failed.
func recordRun(ctx context.Context, scope ScopeKind, res *Result, duration time.Duration, runErr error) {
	if err := initMetrics(); err != nil {
		return
	}

	status := "error"
	if runErr == nil && res != nil {
		status = res.Status.String()
	}
	attrs := metric.WithAttributes(
		attribute.String("scope", scope.String()),
		attribute.String("status", status),
	)

	// метрики не должны зависеть от отмены контекста
	ctx = context.WithoutCancel(ctx)
	runLatency.Record(ctx, duration.Seconds(), attrs)
	runTotal.Add(ctx, 1, attrs)
	if res != nil && res.Status == StatusFixed {
		fixesTotal.Add(ctx, int64(res.FixCount()), metric.WithAttributes(attribute.String("key", res.EquivalenceKey)))
		changesTotal.Add(ctx, int64(res.ChangeCount()), metric.WithAttributes(attribute.String("key", res.EquivalenceKey)))
	}
}
