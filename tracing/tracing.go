package tracing

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TracerContext
// ---------------------------------------------------------------------------------------------------------------------
var tracerCtx = tracerContext{tracer: &NoopTracer{}}

type tracerContext struct {
	tracer RequestTracer
	mu     sync.RWMutex
}

func RegisterRequestTracer(requestTracer RequestTracer) error {
	tracerCtx.mu.Lock()
	defer tracerCtx.mu.Unlock()

	if _, ok := tracerCtx.tracer.(*NoopTracer); ok {
		tracerCtx.tracer = requestTracer
		return nil
	}

	return fmt.Errorf("RequestTracer already registered %v", tracerCtx.tracer)
}

func ResetRequestTracer() {
	tracerCtx.mu.Lock()
	defer tracerCtx.mu.Unlock()

	tracerCtx.tracer = &NoopTracer{}
}

func registeredTracer() RequestTracer {
	tracerCtx.mu.RLock()
	defer tracerCtx.mu.RUnlock()

	return tracerCtx.tracer
}

// ---------------------------------------------------------------------------------------------------------------------

type RequestTracer interface {
	RequestSpan(parentContext RequestSpanContext, operationName string) RequestSpan
}

type RequestSpanContext struct {
	RefCtx context.Context
	Value  interface{}
}

type RequestSpan interface {
	End()
	Context() RequestSpanContext
	AddEvent(name string, timestamp time.Time)
	SetAttribute(key string, value interface{})
}

// noop tracer
// ---------------------------------------------------------------------------------------------------------------------
type noopSpan struct{}

var (
	defaultNoopSpanContext = RequestSpanContext{RefCtx: context.TODO(), Value: nil}
	defaultNoopSpan        = noopSpan{}
)

type NoopTracer struct{}

func (tracer *NoopTracer) RequestSpan(parentContext RequestSpanContext, operationName string) RequestSpan {
	return defaultNoopSpan
}

func (span noopSpan) End() {
}

func (span noopSpan) Context() RequestSpanContext {
	return defaultNoopSpanContext
}

func (span noopSpan) SetAttribute(key string, value interface{}) {
}

func (span noopSpan) AddEvent(key string, timestamp time.Time) {
}

// Trace
// ---------------------------------------------------------------------------------------------------------------------

type Trace struct {
	rsc RequestSpanContext
	rs  RequestSpan
}

func (t *Trace) Finish() {
	if t.rs != nil {
		t.rs.End()
	}
}

func (t *Trace) AddEvent(name string) {
	if t.rs != nil {
		t.rs.AddEvent(name, time.Now())
	}
}

func (t *Trace) SetAttribute(key string, value interface{}) {
	if t.rs != nil {
		t.rs.SetAttribute(key, value)
	}
}

func (t *Trace) RootContext() RequestSpanContext {
	if t.rs != nil {
		return t.rs.Context()
	}
	return t.rsc
}

// ---------------------------------------------------------------------------------------------------------------------

type TracerComponent struct {
	tracer RequestTracer
}

// NewTracerComponent uses whatever tracer was registered with RegisterRequestTracer.
func NewTracerComponent() *TracerComponent {
	return &TracerComponent{tracer: registeredTracer()}
}

func NewTracerComponentWith(tracer RequestTracer) *TracerComponent {
	if tracer == nil {
		tracer = &NoopTracer{}
	}
	return &TracerComponent{tracer: tracer}
}

func (tc *TracerComponent) StartOp(operation string, attributes map[string]interface{}) *Trace {
	parent := RequestSpanContext{RefCtx: context.Background()}
	span := tc.tracer.RequestSpan(parent, operation)

	for key, value := range attributes {
		span.SetAttribute(key, value)
	}

	return &Trace{rsc: parent, rs: span}
}
