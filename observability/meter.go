package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/connector/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the global OpenTelemetry meter provider.
// The provider must be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(ctx, config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric names.
const (
	MetricCalls              = "connector.calls"
	MetricDuration           = "connector.duration"
	MetricRejections         = "connector.rejections"
	MetricCacheWrites        = "connector.cache.writes"
	MetricCircuitTransitions = "connector.circuit.transitions"
)

// Metrics holds the pipeline instruments. A nil *Metrics records nothing.
type Metrics struct {
	calls       metric.Int64Counter
	duration    metric.Float64Histogram
	rejections  metric.Int64Counter
	cacheWrites metric.Int64Counter
	transitions metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	calls, err := meter.Int64Counter(MetricCalls,
		metric.WithDescription("Completed pipeline calls by endpoint and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCalls, err)
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Pipeline call duration excluding cache write-back"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDuration, err)
	}

	rejections, err := meter.Int64Counter(MetricRejections,
		metric.WithDescription("Calls rejected by a guard without running the command"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRejections, err)
	}

	cacheWrites, err := meter.Int64Counter(MetricCacheWrites,
		metric.WithDescription("Asynchronous cache write-backs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCacheWrites, err)
	}

	transitions, err := meter.Int64Counter(MetricCircuitTransitions,
		metric.WithDescription("Circuit breaker state transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCircuitTransitions, err)
	}

	return &Metrics{
		calls:       calls,
		duration:    duration,
		rejections:  rejections,
		cacheWrites: cacheWrites,
		transitions: transitions,
	}, nil
}

// RecordCall records one completed call. code is empty on success.
func (m *Metrics) RecordCall(ctx context.Context, endpoint, code string, fromCache bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if code != "" {
		status = code
	}
	m.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrCode, status),
		attribute.Bool(AttrFromCache, fromCache),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
	))
}

// RecordRejection records a guard rejection (bulkhead, rate_limiter, circuit_breaker).
func (m *Metrics) RecordRejection(ctx context.Context, endpoint, guard string) {
	if m == nil {
		return
	}
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrGuard, guard),
	))
}

// RecordCacheWrite records the outcome of a write-back.
func (m *Metrics) RecordCacheWrite(ctx context.Context, endpoint string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.cacheWrites.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String(AttrStatus, status),
	))
}

// RecordTransition records a circuit breaker state change.
func (m *Metrics) RecordTransition(ctx context.Context, endpoint, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrEndpoint, endpoint),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}
