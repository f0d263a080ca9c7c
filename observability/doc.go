// Package observability provides OpenTelemetry tracing and metrics for
// client calls, plus a Prometheus alternative.
//
// Tracing and metrics providers:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
// A Recorder observes every dispatched call. NewOTelRecorder opens a client
// span and records call metrics; NewPrometheusRecorder records the same
// metrics as Prometheus collectors:
//
//	rec, err := observability.NewOTelRecorder(observability.Tracer("users"), observability.Meter("users"))
//	ctx, finish := rec.Start(ctx, observability.Call{Interface: "Users", Method: "Get"})
//	finish(resp.StatusCode, err)
package observability
