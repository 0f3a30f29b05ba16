package observer

import (
	"reflect"
	"sync"

	"github.com/asaskevich/EventBus"

	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/tracing"
)

type Observer[T any] interface {
	Update(payload T)
}

// ObserverFunc adapts a function. Attach a pointer to it when it has to be
// detached later, func values are not comparable.
type ObserverFunc[T any] func(payload T)

func (f *ObserverFunc[T]) Update(payload T) {
	(*f)(payload)
}

func Func[T any](fn func(payload T)) *ObserverFunc[T] {
	f := ObserverFunc[T](fn)
	return &f
}

// Memento is an opaque snapshot of a Subject's state.
type Memento[T any] struct {
	state T
}

type Subject[T any] struct {
	bus       EventBus.Bus
	tracer    *tracing.TracerComponent
	state     T
	name      string
	observers []Observer[T]
	lock      sync.Mutex
}

type Option[T any] func(*Subject[T])

func WithBus[T any](bus EventBus.Bus) Option[T] {
	return func(s *Subject[T]) {
		s.bus = bus
	}
}

func WithName[T any](name string) Option[T] {
	return func(s *Subject[T]) {
		s.name = name
	}
}

func WithTracer[T any](tracer *tracing.TracerComponent) Option[T] {
	return func(s *Subject[T]) {
		s.tracer = tracer
	}
}

func NewSubject[T any](opts ...Option[T]) *Subject[T] {
	s := &Subject[T]{
		tracer: tracing.NewTracerComponent(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Attach appends the observer. Attaching the same observer twice makes it
// receive every notification twice.
func (s *Subject[T]) Attach(observer Observer[T]) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.observers = append(s.observers, observer)
}

// Detach removes the first subscription of observer, if any. Observers whose
// dynamic type is not comparable can never match and are left attached.
func (s *Subject[T]) Detach(observer Observer[T]) {
	if !isComparable(observer) {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	for i := range s.observers {
		if same(s.observers[i], observer) {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

func isComparable(v interface{}) bool {
	return v != nil && reflect.TypeOf(v).Comparable()
}

// same reports identity of two observers. Comparable struct types may still
// hold uncomparable values behind interface fields, those never match.
func same(a interface{}, b interface{}) (equal bool) {
	if !isComparable(a) {
		return false
	}

	defer func() {
		if recover() != nil {
			equal = false
		}
	}()

	return a == b
}

// Notify delivers payload to the observers subscribed when the call starts.
// Attach and Detach made by an observer take effect on the next call.
func (s *Subject[T]) Notify(payload T) {
	s.lock.Lock()
	snapshot := make([]Observer[T], len(s.observers))
	copy(snapshot, s.observers)
	s.lock.Unlock()

	trace := s.tracer.StartOp("subject.notify", map[string]interface{}{
		"subject":   s.name,
		"observers": len(snapshot),
	})
	defer trace.Finish()

	for _, o := range snapshot {
		o.Update(payload)
	}

	logger.Log.Debug("subject %s notified %d observers", s.name, len(snapshot))

	helpers.Publish(s.bus, helpers.ObserverNotifiedBusEventName, models.NotifyEvent{
		Source:    s.name,
		Observers: len(snapshot),
	})
}

func (s *Subject[T]) SetState(state T) {
	s.lock.Lock()
	s.state = state
	s.lock.Unlock()

	s.Notify(state)
}

func (s *Subject[T]) State() T {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.state
}

func (s *Subject[T]) Snapshot() Memento[T] {
	s.lock.Lock()
	defer s.lock.Unlock()

	return Memento[T]{state: s.state}
}

// Restore sets the state captured by m and notifies observers with it.
func (s *Subject[T]) Restore(m Memento[T]) {
	s.SetState(m.state)
}

func (s *Subject[T]) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.observers)
}

func (s *Subject[T]) Name() string {
	return s.name
}
