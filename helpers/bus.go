package helpers

import (
	"sync"

	"github.com/asaskevich/EventBus"
)

type publication struct {
	topic string
	args  []interface{}
}

// queuedBus delivers publications one at a time. A publish made while another
// one is being delivered, from a listener or another goroutine, is queued and
// delivered by the in-flight publisher once its listeners have returned.
// Subscribe and Unsubscribe must still not be called from a listener.
type queuedBus struct {
	EventBus.Bus
	queue      []publication
	publishing bool
	lock       sync.Mutex
}

func NewBus() EventBus.Bus {
	return &queuedBus{Bus: EventBus.New()}
}

func (b *queuedBus) Publish(topic string, args ...interface{}) {
	b.lock.Lock()
	b.queue = append(b.queue, publication{topic: topic, args: args})
	if b.publishing {
		b.lock.Unlock()
		return
	}
	b.publishing = true
	b.lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			b.reset()
			panic(r)
		}
	}()

	for {
		next, ok := b.next()
		if !ok {
			return
		}
		if b.Bus.HasCallback(next.topic) {
			b.Bus.Publish(next.topic, next.args...)
		}
	}
}

// next pops the oldest publication. It clears the publishing flag under the
// same lock when the queue is empty so that no publication is left behind.
func (b *queuedBus) next() (publication, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if len(b.queue) == 0 {
		b.publishing = false
		return publication{}, false
	}

	next := b.queue[0]
	b.queue[0] = publication{}
	b.queue = b.queue[1:]
	return next, true
}

func (b *queuedBus) reset() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.queue = nil
	b.publishing = false
}

// Publish is a no-op when bus is nil. Buses built by NewBus accept publishes
// from their own listeners.
func Publish(bus EventBus.Bus, topic string, event interface{}) {
	if bus == nil {
		return
	}

	bus.Publish(topic, event)
}
