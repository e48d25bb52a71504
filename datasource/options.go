package datasource

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/Plato-solutions/cherry/datasource"

type options struct {
	log       *zap.Logger
	tracer    trace.Tracer
	durations *prometheus.SummaryVec
	testMode  bool
	err       error
}

// Option configures a registry or a pool.
type Option func(o *options)

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.L()
	}
	if o.tracer == nil {
		o.tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return o
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// WithTestMode makes a repeated registry initialization a no-op.
func WithTestMode() Option {
	return func(o *options) { o.testMode = true }
}

// WithMetrics registers the statement duration summary, labeled by datasource and operation.
// An already registered summary is reused.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(o *options) {
		durations := prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: "cherry",
			Subsystem: "datasource",
			Name:      "statement_duration_seconds",
			Help:      "Duration of the statements executed by a datasource pool.",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		}, []string{"datasource", "op"})
		if err := registerer.Register(durations); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				o.err = errors.Wrap(err, "register statement metrics")
				return
			}
			if existing, ok := already.ExistingCollector.(*prometheus.SummaryVec); ok {
				durations = existing
			}
		}
		o.durations = durations
	}
}
