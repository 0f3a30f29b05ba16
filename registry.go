package dispatch

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Trendyol/go-dispatch/chain"
	"github.com/Trendyol/go-dispatch/command"
	"github.com/Trendyol/go-dispatch/mediator"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/observer"
	"github.com/Trendyol/go-dispatch/wrapper"
)

var ErrAlreadyRegistered = errors.New("already registered")

type registry struct {
	subjects  *wrapper.ConcurrentSwissMap[*observer.Subject[string]]
	mediators *wrapper.ConcurrentSwissMap[*mediator.Hub]
	chains    *wrapper.ConcurrentSwissMap[*chain.Chain[string]]
	invokers  *wrapper.ConcurrentSwissMap[*command.Invoker]
	lock      sync.Mutex
}

func newRegistry() *registry {
	return &registry{
		subjects:  wrapper.CreateConcurrentSwissMap[*observer.Subject[string]](0),
		mediators: wrapper.CreateConcurrentSwissMap[*mediator.Hub](0),
		chains:    wrapper.CreateConcurrentSwissMap[*chain.Chain[string]](0),
		invokers:  wrapper.CreateConcurrentSwissMap[*command.Invoker](0),
	}
}

// register stores value unless name is taken. build runs under the registry
// lock so that a failed build leaves nothing behind.
func register[V any](r *registry, m *wrapper.ConcurrentSwissMap[V], kind string, name string, build func() (V, error)) (V, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var zero V
	if _, ok := m.Load(name); ok {
		return zero, fmt.Errorf("%s %s: %w", kind, name, ErrAlreadyRegistered)
	}

	value, err := build()
	if err != nil {
		return zero, err
	}

	m.Store(name, value)
	return value, nil
}

func (r *registry) Subject(name string) (*observer.Subject[string], bool) {
	return r.subjects.Load(name)
}

func (r *registry) Mediator(name string) (*mediator.Hub, bool) {
	return r.mediators.Load(name)
}

func (r *registry) Chain(name string) (*chain.Chain[string], bool) {
	return r.chains.Load(name)
}

func (r *registry) Invoker(name string) (*command.Invoker, bool) {
	return r.invokers.Load(name)
}

func (r *registry) SubjectSizes() map[string]int {
	sizes := map[string]int{}
	r.subjects.Range(func(name string, subject *observer.Subject[string]) bool {
		sizes[name] = subject.Len()
		return true
	})
	return sizes
}

func (r *registry) PendingCommands() map[string]int {
	pending := map[string]int{}
	r.invokers.Range(func(name string, invoker *command.Invoker) bool {
		pending[name] = len(invoker.Pending())
		return true
	})
	return pending
}

func (r *registry) Snapshot() models.RegistrySnapshot {
	snapshot := models.RegistrySnapshot{
		Subjects:  r.SubjectSizes(),
		Mediators: map[string][]string{},
		Chains:    map[string][]string{},
		Invokers:  map[string][]string{},
	}

	for _, name := range r.mediators.Keys() {
		hub, ok := r.mediators.Load(name)
		if !ok {
			continue
		}
		tags := hub.Tags()
		names := make([]string, len(tags))
		for i := range tags {
			names[i] = string(tags[i])
		}
		snapshot.Mediators[name] = names
	}

	for _, name := range r.chains.Keys() {
		if c, ok := r.chains.Load(name); ok {
			snapshot.Chains[name] = c.Names()
		}
	}

	for _, name := range r.invokers.Keys() {
		if invoker, ok := r.invokers.Load(name); ok {
			snapshot.Invokers[name] = invoker.Pending()
		}
	}

	return snapshot
}
