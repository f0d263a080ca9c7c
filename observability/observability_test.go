package observability

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/transport"
)

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestNewMetrics(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	metrics.RecordCallStart(ctx)
	metrics.RecordCallEnd(ctx, Call{Interface: "Users", Method: "Get"}, "ok", 100*time.Millisecond)
	metrics.RecordError(ctx, "mapped", "Users")
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   string
	}{
		{"success", 200, nil, "ok"},
		{"mapped", 404, fmt.Errorf("not found"), "mapped"},
		{"default mapper", 0, errors.WebApplication(500, nil), "mapped"},
		{"transport", 0, &transport.Error{Code: transport.ErrCodeTimeout, Err: fmt.Errorf("slow")}, "transport"},
		{"other", 0, fmt.Errorf("conversion"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Outcome(tt.status, tt.err); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOTelRecorder(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer tp.Shutdown(context.Background())

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	rec, err := NewOTelRecorder(tp.Tracer("test"), mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	_, finish := rec.Start(context.Background(), Call{Interface: "Users", Method: "Get", HTTPMethod: "GET", URL: "http://h/users/1"})
	finish(404, fmt.Errorf("not found"))

	ended := spans.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	span := ended[0]
	if span.Name() != SpanClientCall || span.Status().Code != codes.Error {
		t.Errorf("unexpected span %s %v", span.Name(), span.Status())
	}
	var status int64
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key(AttrStatusCode) {
			status = kv.Value.AsInt64()
		}
	}
	if status != 404 {
		t.Errorf("expected status attribute 404, got %d", status)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	for _, n := range []string{"restproxy.call.total", "restproxy.call.duration", "restproxy.error.total"} {
		if !names[n] {
			t.Errorf("expected metric %s, got %v", n, names)
		}
	}
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorder(reg, "test")

	_, finish := rec.Start(context.Background(), Call{Interface: "Users", Method: "Get"})
	if got := testutil.ToFloat64(rec.active); got != 1 {
		t.Errorf("expected 1 active call, got %v", got)
	}
	finish(200, nil)

	if got := testutil.ToFloat64(rec.calls.WithLabelValues("Users", "Get", "200", "ok")); got != 1 {
		t.Errorf("expected 1 call, got %v", got)
	}
	if got := testutil.ToFloat64(rec.active); got != 0 {
		t.Errorf("expected 0 active calls, got %v", got)
	}
	if n := testutil.CollectAndCount(rec.duration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}
}

type countingRecorder struct{ started, finished *[]string }

func (c countingRecorder) Start(ctx context.Context, call Call) (context.Context, Finish) {
	*c.started = append(*c.started, call.Method)
	return ctx, func(int, error) { *c.finished = append(*c.finished, call.Method) }
}

func TestMulti(t *testing.T) {
	var started, finished []string
	r := Multi(nil, countingRecorder{&started, &finished}, countingRecorder{&started, &finished})
	_, finish := r.Start(context.Background(), Call{Method: "m"})
	finish(200, nil)
	if len(started) != 2 || len(finished) != 2 {
		t.Errorf("expected both recorders used, got %v %v", started, finished)
	}
	if _, ok := Multi(nil).(nopRecorder); !ok {
		t.Error("expected nop recorder when empty")
	}
}

func TestInjectHeaders(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	defer span.End()

	h := http.Header{}
	InjectHeaders(ctx, h)
	if tp := h.Get("Traceparent"); !strings.Contains(tp, span.SpanContext().TraceID().String()) {
		t.Errorf("expected traceparent with trace id, got %q", tp)
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-operation")
	defer span.End()
	if SpanFromContext(ctx) == nil {
		t.Fatal("expected span in context")
	}
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("ignored without recording span"))
}

func TestInitTracer(t *testing.T) {
	for _, rate := range []float64{1.0, 0.5, 0} {
		cfg := DefaultTracerConfig("test")
		cfg.SampleRate = rate
		tp, err := InitTracer(context.Background(), &cfg)
		if err != nil {
			t.Skipf("InitTracer failed (known schema conflict): %v", err)
		}
		_ = tp.Shutdown(context.Background())
	}
}

func TestInitMeter(t *testing.T) {
	cfg := DefaultMeterConfig("test")
	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Skipf("InitMeter failed (known schema conflict): %v", err)
	}
	_ = mp.Shutdown(context.Background())
}
