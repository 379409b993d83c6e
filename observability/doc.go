// Package observability wires OpenTelemetry tracing and metrics into the
// connector pipeline and reports service health from circuit states.
//
// Bootstrap:
//
//	shutdown, err := observability.Setup(ctx, cfg.Telemetry, "connector", version.Version, "prod")
//	defer shutdown(ctx)
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("connector"))
//	ctx, call := observability.StartCall(ctx, metrics, "orders", callID)
//	defer call.End(ctx, "", false, nil)
//
// Health:
//
//	health := observability.NewServiceHealth("connector", version.Version)
//	health.AddComponent(observability.CircuitHealth("orders", cb.State()))
package observability
