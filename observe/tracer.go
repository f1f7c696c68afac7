package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/jonwraymond/tokenops/oautherr"
)

// Endpoint names used in Operation.
const (
	EndpointToken     = "token"
	EndpointAuthorize = "authorize"
	EndpointGuard     = "guard"
)

// Operation describes one engine request for telemetry purposes.
type Operation struct {
	Endpoint  string // token|authorize|guard (required)
	GrantType string // grant or response type, if known
	ClientID  string // authenticated client, if known
}

// SpanName returns the deterministic span name for this operation.
// Format: oauth2.<endpoint>.<grant_type> or oauth2.<endpoint>
func (o Operation) SpanName() string {
	if o.GrantType != "" {
		return "oauth2." + o.Endpoint + "." + o.GrantType
	}
	return "oauth2." + o.Endpoint
}

// Validate checks the required fields.
func (o Operation) Validate() error {
	if o.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

func (o Operation) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("oauth2.endpoint", o.Endpoint),
	}
	if o.GrantType != "" {
		attrs = append(attrs, attribute.String("oauth2.grant_type", o.GrantType))
	}
	return attrs
}

// ErrorName returns the OAuth 2.0 error name for err, "server_error" for
// other errors and "" for nil.
func ErrorName(err error) string {
	if err == nil {
		return ""
	}
	if oe, ok := oautherr.As(err); ok {
		return oe.Name()
	}
	return oautherr.ServerError.Name()
}

// Tracer wraps OpenTelemetry tracing for engine operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span)
	EndSpan(span trace.Span, op Operation, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, op.SpanName(),
		trace.WithAttributes(op.attributes()...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// EndSpan renames the span once the grant type is known and records the
// client id and the error. Client-caused OAuth2 errors do not mark the span
// failed.
func (t *tracerImpl) EndSpan(span trace.Span, op Operation, err error) {
	span.SetName(op.SpanName())
	span.SetAttributes(op.attributes()...)
	if op.ClientID != "" {
		span.SetAttributes(attribute.String("oauth2.client_id", op.ClientID))
	}
	if err != nil {
		span.SetAttributes(attribute.String("oauth2.error", ErrorName(err)))
		span.RecordError(err)
		if oe, ok := oautherr.As(err); ok && oe.Status() < 500 {
			span.SetStatus(codes.Unset, oe.Name())
		} else {
			span.SetStatus(codes.Error, err.Error())
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, op Operation) (context.Context, trace.Span) {
	return t.noop.Start(ctx, op.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, _ Operation, _ error) {
	span.End()
}
