package observability

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/restproxy/errors"
	"github.com/kbukum/restproxy/transport"
)

// Call identifies one client invocation.
type Call struct {
	Interface    string
	Method       string
	HTTPMethod   string
	URL          string
	InvocationID string
	Async        bool
}

// Finish completes a recorded call. status is 0 when no response arrived.
type Finish func(status int, err error)

// Recorder observes client calls.
type Recorder interface {
	Start(ctx context.Context, call Call) (context.Context, Finish)
}

// Outcome classifies a finished call: "ok", "mapped", "transport" or "error".
func Outcome(status int, err error) string {
	if err == nil {
		return "ok"
	}
	var te *transport.Error
	if stderrors.As(err, &te) {
		return "transport"
	}
	if status > 0 || errors.IsWebApplication(err) {
		return "mapped"
	}
	return "error"
}

type nopRecorder struct{}

func (nopRecorder) Start(ctx context.Context, _ Call) (context.Context, Finish) {
	return ctx, func(int, error) {}
}

// Nop returns a recorder that records nothing.
func Nop() Recorder { return nopRecorder{} }

type multiRecorder []Recorder

func (m multiRecorder) Start(ctx context.Context, call Call) (context.Context, Finish) {
	finishes := make([]Finish, 0, len(m))
	for _, r := range m {
		var f Finish
		ctx, f = r.Start(ctx, call)
		finishes = append(finishes, f)
	}
	return ctx, func(status int, err error) {
		for i := len(finishes) - 1; i >= 0; i-- {
			finishes[i](status, err)
		}
	}
}

// Multi combines recorders. Nil entries are skipped.
func Multi(recorders ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return Nop()
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// OTelRecorder opens a client span per call and records Metrics.
type OTelRecorder struct {
	tracer  trace.Tracer
	metrics *Metrics
}

// NewOTelRecorder creates a recorder; a nil meter disables metrics.
func NewOTelRecorder(tracer trace.Tracer, meter metric.Meter) (*OTelRecorder, error) {
	if tracer == nil {
		tracer = Tracer(defaultTracerName)
	}
	r := &OTelRecorder{tracer: tracer}
	if meter != nil {
		m, err := NewMetrics(meter)
		if err != nil {
			return nil, err
		}
		r.metrics = m
	}
	return r, nil
}

// Start implements Recorder.
func (r *OTelRecorder) Start(ctx context.Context, call Call) (context.Context, Finish) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, SpanClientCall,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrInterface, call.Interface),
			attribute.String(AttrMethod, call.Method),
			attribute.String(AttrHTTPMethod, call.HTTPMethod),
			attribute.String(AttrURL, call.URL),
			attribute.String(AttrInvocationID, call.InvocationID),
			attribute.Bool(AttrAsync, call.Async),
		),
	)
	if r.metrics != nil {
		r.metrics.RecordCallStart(ctx)
	}
	return ctx, func(status int, err error) {
		duration := time.Since(start)
		if status > 0 {
			span.SetAttributes(attribute.Int(AttrStatusCode, status))
		}
		span.SetAttributes(attribute.Int64(AttrDurationMs, duration.Milliseconds()))
		outcome := Outcome(status, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if r.metrics != nil {
			r.metrics.RecordCallEnd(ctx, call, outcome, duration)
			if err != nil {
				r.metrics.RecordError(ctx, outcome, call.Interface)
			}
		}
	}
}

// PrometheusRecorder records call counts and durations as Prometheus
// collectors.
type PrometheusRecorder struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	active   prometheus.Gauge
}

// NewPrometheusRecorder registers the collectors on reg
// (prometheus.DefaultRegisterer when nil) under the given namespace.
func NewPrometheusRecorder(reg prometheus.Registerer, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "restproxy_calls_total",
				Help:      "Total number of client calls",
			},
			[]string{"interface", "method", "status", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "restproxy_call_duration_seconds",
				Help:      "Client call duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"interface", "method"},
		),
		active: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "restproxy_calls_active",
				Help:      "Number of client calls in flight",
			},
		),
	}
}

// Start implements Recorder.
func (r *PrometheusRecorder) Start(ctx context.Context, call Call) (context.Context, Finish) {
	start := time.Now()
	r.active.Inc()
	return ctx, func(status int, err error) {
		r.active.Dec()
		r.calls.WithLabelValues(call.Interface, call.Method, strconv.Itoa(status), Outcome(status, err)).Inc()
		r.duration.WithLabelValues(call.Interface, call.Method).Observe(time.Since(start).Seconds())
	}
}

var (
	_ Recorder = (*OTelRecorder)(nil)
	_ Recorder = (*PrometheusRecorder)(nil)
)
