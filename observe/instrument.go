package observe

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/tokenops/oautherr"
)

// Instrumenter wraps engine operations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Context: the span context is propagated to fn.
//   - Errors: errors returned by fn are recorded and returned unchanged.
type Instrumenter struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

// NewInstrumenter creates an Instrumenter. Nil components are replaced by
// no-op implementations.
func NewInstrumenter(tracer Tracer, metrics Metrics, logger Logger) *Instrumenter {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Instrumenter{tracer: tracer, metrics: metrics, logger: logger, now: time.Now}
}

// InstrumenterFromObserver builds an Instrumenter from an Observer.
func InstrumenterFromObserver(obs Observer) (*Instrumenter, error) {
	if obs == nil {
		return NewInstrumenter(nil, nil, nil), nil
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewInstrumenter(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Logger returns the logger used for operation records.
func (i *Instrumenter) Logger() Logger {
	return i.logger
}

// Observe runs fn inside a span. fn may fill in op fields (such as the
// client id) as they become known.
func (i *Instrumenter) Observe(ctx context.Context, op *Operation, fn func(ctx context.Context) error) error {
	ctx, span := i.tracer.StartSpan(ctx, *op)
	start := i.now()

	err := fn(ctx)

	duration := i.now().Sub(start)
	i.tracer.EndSpan(span, *op, err)
	i.metrics.RecordRequest(ctx, *op, duration, err)

	fields := []Field{
		F("endpoint", op.Endpoint),
		F("duration_ms", float64(duration.Microseconds())/1000),
	}
	if op.GrantType != "" {
		fields = append(fields, F("grant_type", op.GrantType))
	}
	if op.ClientID != "" {
		fields = append(fields, F("client_id", op.ClientID))
	}

	switch oe, ok := oautherr.As(err); {
	case err == nil:
		i.logger.Debug(ctx, "oauth2 request completed", fields...)
	case ok && oe.Status() < 500:
		fields = append(fields, F("error", oe.Name()), F("error_description", oe.Description()))
		// Guard denials are routine for protected resources.
		if op.Endpoint == EndpointGuard {
			i.logger.Debug(ctx, "oauth2 request rejected", fields...)
		} else {
			i.logger.Info(ctx, "oauth2 request rejected", fields...)
		}
	default:
		fields = append(fields, F("error", err))
		if cause := errors.Unwrap(err); cause != nil {
			fields = append(fields, F("cause", cause))
		}
		i.logger.Error(ctx, "oauth2 request failed", fields...)
	}

	return err
}
