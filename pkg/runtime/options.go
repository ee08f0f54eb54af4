package runtime

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-go/weft/pkg/dom"
)

// DefaultTracerName is the tracer used when none is configured.
const DefaultTracerName = "weft"

type options struct {
	ctx     context.Context
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	root    *dom.Node
	name    string
}

func defaultOptions() options {
	return options{
		ctx:    context.Background(),
		logger: slog.Default(),
		tracer: otel.Tracer(DefaultTracerName),
		name:   "app",
	}
}

// Option configures a Runtime.
type Option func(*options)

// WithLogger sets the runtime's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics reports render and event metrics to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer sets the tracer for render and update spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithContext sets the parent context of the runtime's spans.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithRoot sets the node returned by Actions.Root. Mount sets it to the
// mount container.
func WithRoot(root *dom.Node) Option {
	return func(o *options) { o.root = root }
}

// WithName names the runtime in logs and spans.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}
