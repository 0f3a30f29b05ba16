package mediator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/asaskevich/EventBus"

	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/tracing"
)

var (
	ErrDuplicateComponent = errors.New("duplicate component")
	ErrUnknownComponent   = errors.New("unknown component")
	ErrUnknownAction      = errors.New("unknown action")
	ErrRoutingCycle       = errors.New("routing cycle")
)

// Route is one step triggered by an event: the named action of the named component.
type Route struct {
	Component string
	Action    string
}

type Routes map[EventTag][]Route

type Option func(*Hub)

func WithBus(bus EventBus.Bus) Option {
	return func(h *Hub) {
		h.bus = bus
	}
}

func WithName(name string) Option {
	return func(h *Hub) {
		h.name = name
	}
}

func WithTracer(tracer *tracing.TracerComponent) Option {
	return func(h *Hub) {
		h.tracer = tracer
	}
}

// Hub is the Mediator implementation. Routing table and component actions are
// captured when the hub is built and never change afterwards.
type Hub struct {
	bus        EventBus.Bus
	tracer     *tracing.TracerComponent
	components map[string]Component
	actions    map[string]map[string]Action
	routes     Routes
	name       string
}

// New validates routes against components and wires every component to the
// returned hub. An event that can retrigger itself is rejected with ErrRoutingCycle.
func New(routes Routes, components []Component, opts ...Option) (*Hub, error) {
	h := &Hub{
		components: make(map[string]Component, len(components)),
		actions:    make(map[string]map[string]Action, len(components)),
		routes:     make(Routes, len(routes)),
		tracer:     tracing.NewTracerComponent(),
	}

	for _, opt := range opts {
		opt(h)
	}

	for _, c := range components {
		if _, ok := h.components[c.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateComponent, c.Name())
		}

		actions := make(map[string]Action, len(c.Actions()))
		for name, action := range c.Actions() {
			actions[name] = action
		}

		h.components[c.Name()] = c
		h.actions[c.Name()] = actions
	}

	for tag, steps := range routes {
		for _, step := range steps {
			if err := h.lookup(step.Component, step.Action); err != nil {
				return nil, fmt.Errorf("route %s: %w", tag, err)
			}
		}
		h.routes[tag] = append([]Route(nil), steps...)
	}

	if err := h.validateAcyclic(); err != nil {
		return nil, err
	}

	for _, c := range components {
		c.SetMediator(h)
	}

	return h, nil
}

func (h *Hub) lookup(component string, action string) error {
	actions, ok := h.actions[component]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}

	if _, ok := actions[action]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrUnknownAction, action, component)
	}

	return nil
}

const (
	unvisited = iota
	visiting
	visited
)

func (h *Hub) validateAcyclic() error {
	state := make(map[EventTag]int, len(h.routes))

	var visit func(tag EventTag, path []EventTag) error
	visit = func(tag EventTag, path []EventTag) error {
		switch state[tag] {
		case visiting:
			return fmt.Errorf("%w: %s", ErrRoutingCycle, formatPath(append(path, tag)))
		case visited:
			return nil
		}

		state[tag] = visiting
		for _, step := range h.routes[tag] {
			next := h.actions[step.Component][step.Action].Emits
			if next == "" {
				continue
			}
			if err := visit(next, append(path, tag)); err != nil {
				return err
			}
		}
		state[tag] = visited

		return nil
	}

	for _, tag := range h.Tags() {
		if err := visit(tag, nil); err != nil {
			return err
		}
	}

	return nil
}

func formatPath(path []EventTag) string {
	parts := make([]string, len(path))
	for i := range path {
		parts[i] = string(path[i])
	}
	return strings.Join(parts, " -> ")
}

// Notify runs the steps routed for tag in declared order. Sender is only
// reported, routing never depends on it. Tags without routes are ignored.
func (h *Hub) Notify(sender Component, tag EventTag) {
	senderName := ""
	if sender != nil {
		senderName = sender.Name()
	}

	steps := h.routes[tag]
	if len(steps) == 0 {
		logger.Log.Trace("mediator %s has no route for %s from %s", h.name, tag, senderName)
		return
	}

	trace := h.tracer.StartOp("mediator.notify", map[string]interface{}{
		"mediator": h.name,
		"sender":   senderName,
		"tag":      string(tag),
	})
	defer trace.Finish()

	logger.Log.Debug("mediator %s reacts on %s from %s", h.name, tag, senderName)

	for _, step := range steps {
		h.run(step.Component, step.Action)
	}

	helpers.Publish(h.bus, helpers.MediatorDispatchedBusEventName, models.DispatchEvent{
		Source: h.name,
		Sender: senderName,
		Tag:    string(tag),
		Steps:  len(steps),
	})
}

func (h *Hub) run(component string, action string) {
	a := h.actions[component][action]
	if a.Do != nil {
		a.Do()
	}

	if a.Emits != "" {
		h.Notify(h.components[component], a.Emits)
	}
}

// Perform invokes a component action from outside, as if the component did it.
func (h *Hub) Perform(component string, action string) error {
	if err := h.lookup(component, action); err != nil {
		return err
	}

	h.run(component, action)

	return nil
}

func (h *Hub) Tags() []EventTag {
	tags := make([]EventTag, 0, len(h.routes))
	for tag := range h.routes {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func (h *Hub) Components() []string {
	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Hub) Name() string {
	return h.name
}
