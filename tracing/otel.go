package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type otelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer adapts an OpenTelemetry tracer, typically obtained from a
// TracerProvider, to RequestTracer.
func NewOtelTracer(tracer trace.Tracer) RequestTracer {
	return &otelTracer{tracer: tracer}
}

func (o *otelTracer) RequestSpan(parentContext RequestSpanContext, operationName string) RequestSpan {
	ctx := parentContext.RefCtx
	if ctx == nil {
		ctx = context.Background()
	}

	spanCtx, span := o.tracer.Start(ctx, operationName)

	return &otelSpan{ctx: spanCtx, span: span}
}

type otelSpan struct {
	ctx  context.Context
	span trace.Span
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) Context() RequestSpanContext {
	return RequestSpanContext{RefCtx: s.ctx, Value: s.span.SpanContext()}
}

func (s *otelSpan) AddEvent(name string, timestamp time.Time) {
	s.span.AddEvent(name, trace.WithTimestamp(timestamp))
}

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(toAttribute(key, value))
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case float64:
		return attribute.Float64(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
