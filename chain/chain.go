package chain

import (
	"fmt"

	"github.com/asaskevich/EventBus"

	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/tracing"
)

type Handler[R any] interface {
	CanHandle(request R) bool
	Handle(request R)
}

type Named interface {
	Name() string
}

type Outcome int

const (
	Unhandled Outcome = iota
	Handled
)

func (o Outcome) String() string {
	if o == Handled {
		return "handled"
	}
	return "unhandled"
}

// Result tells which handler consumed a request. Position is -1 when unhandled.
type Result struct {
	Handler  string
	Outcome  Outcome
	Position int
}

func (r Result) Handled() bool {
	return r.Outcome == Handled
}

type HandlerFunc[R any] struct {
	canHandle func(R) bool
	handle    func(R)
	name      string
}

func (h *HandlerFunc[R]) CanHandle(request R) bool {
	return h.canHandle(request)
}

func (h *HandlerFunc[R]) Handle(request R) {
	h.handle(request)
}

func (h *HandlerFunc[R]) Name() string {
	return h.name
}

func Match[R any](name string, canHandle func(R) bool, handle func(R)) *HandlerFunc[R] {
	return &HandlerFunc[R]{name: name, canHandle: canHandle, handle: handle}
}

// Equal matches requests equal to want.
func Equal[R comparable](name string, want R, handle func(R)) *HandlerFunc[R] {
	return Match(name, func(request R) bool { return request == want }, handle)
}

type Option func(*options)

type options struct {
	bus    EventBus.Bus
	tracer *tracing.TracerComponent
	name   string
}

func WithBus(bus EventBus.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func WithTracer(tracer *tracing.TracerComponent) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// Chain is an ordered, immutable list of handlers. The first handler whose
// CanHandle accepts a request consumes it.
type Chain[R any] struct {
	options
	handlers []Handler[R]
}

func New[R any](handlers []Handler[R], opts ...Option) *Chain[R] {
	c := &Chain[R]{
		handlers: append([]Handler[R](nil), handlers...),
		options:  options{tracer: tracing.NewTracerComponent()},
	}

	for _, opt := range opts {
		opt(&c.options)
	}

	return c
}

func (c *Chain[R]) Handle(request R) Result {
	trace := c.tracer.StartOp("chain.handle", map[string]interface{}{
		"chain":   c.name,
		"request": fmt.Sprint(request),
	})
	defer trace.Finish()

	for i, h := range c.handlers {
		if !h.CanHandle(request) {
			continue
		}

		h.Handle(request)

		result := Result{Outcome: Handled, Handler: handlerName(h, i), Position: i}
		trace.SetAttribute("handler", result.Handler)

		logger.Log.Debug("chain %s: %v handled by %s", c.name, request, result.Handler)
		helpers.Publish(c.bus, helpers.RequestHandledBusEventName, models.RequestEvent{
			Source:   c.name,
			Handler:  result.Handler,
			Position: i,
		})

		return result
	}

	logger.Log.Warn("chain %s: request %v cannot be handled", c.name, request)
	helpers.Publish(c.bus, helpers.RequestUnhandledBusEventName, models.RequestEvent{
		Source:   c.name,
		Position: -1,
	})

	return Result{Outcome: Unhandled, Position: -1}
}

func (c *Chain[R]) Len() int {
	return len(c.handlers)
}

func (c *Chain[R]) Names() []string {
	names := make([]string, len(c.handlers))
	for i, h := range c.handlers {
		names[i] = handlerName(h, i)
	}
	return names
}

func (c *Chain[R]) Name() string {
	return c.name
}

func handlerName(h interface{}, position int) string {
	if n, ok := h.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("handler-%d", position)
}
