package metric

import (
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/models"
)

// Source exposes point in time gauges of registered instances.
type Source interface {
	SubjectSizes() map[string]int
	PendingCommands() map[string]int
}

type labelPair struct {
	first  string
	second string
}

// Counters accumulates totals from bus events.
type Counters struct {
	notifications map[string]float64
	dispatches    map[labelPair]float64
	handled       map[labelPair]float64
	unhandled     map[string]float64
	executed      map[string]float64
	undone        map[string]float64
	lock          sync.Mutex
}

func newCounters() *Counters {
	return &Counters{
		notifications: map[string]float64{},
		dispatches:    map[labelPair]float64{},
		handled:       map[labelPair]float64{},
		unhandled:     map[string]float64{},
		executed:      map[string]float64{},
		undone:        map[string]float64{},
	}
}

func (c *Counters) Notifications(subject string) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.notifications[subject]
}

func (c *Counters) Dispatches(mediator string, tag string) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.dispatches[labelPair{mediator, tag}]
}

func (c *Counters) Handled(chain string, handler string) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.handled[labelPair{chain, handler}]
}

func (c *Counters) Unhandled(chain string) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.unhandled[chain]
}

func (c *Counters) Executed(invoker string) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.executed[invoker]
}

func (c *Counters) Undone(invoker string) float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.undone[invoker]
}

type Collector struct {
	bus      EventBus.Bus
	source   Source
	counters *Counters

	notifications *prometheus.Desc
	observers     *prometheus.Desc
	dispatches    *prometheus.Desc
	requests      *prometheus.Desc
	executed      *prometheus.Desc
	undone        *prometheus.Desc
	pending       *prometheus.Desc
}

func (s *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.notifications
	ch <- s.observers
	ch <- s.dispatches
	ch <- s.requests
	ch <- s.executed
	ch <- s.undone
	ch <- s.pending
}

func (s *Collector) Collect(ch chan<- prometheus.Metric) {
	s.counters.lock.Lock()

	for subject, total := range s.counters.notifications {
		ch <- prometheus.MustNewConstMetric(s.notifications, prometheus.CounterValue, total, subject)
	}

	for key, total := range s.counters.dispatches {
		ch <- prometheus.MustNewConstMetric(s.dispatches, prometheus.CounterValue, total, key.first, key.second)
	}

	for key, total := range s.counters.handled {
		ch <- prometheus.MustNewConstMetric(s.requests, prometheus.CounterValue, total, key.first, key.second, "handled")
	}

	for chain, total := range s.counters.unhandled {
		ch <- prometheus.MustNewConstMetric(s.requests, prometheus.CounterValue, total, chain, "", "unhandled")
	}

	for invoker, total := range s.counters.executed {
		ch <- prometheus.MustNewConstMetric(s.executed, prometheus.CounterValue, total, invoker)
	}

	for invoker, total := range s.counters.undone {
		ch <- prometheus.MustNewConstMetric(s.undone, prometheus.CounterValue, total, invoker)
	}

	s.counters.lock.Unlock()

	if s.source == nil {
		return
	}

	for subject, size := range s.source.SubjectSizes() {
		ch <- prometheus.MustNewConstMetric(s.observers, prometheus.GaugeValue, float64(size), subject)
	}

	for invoker, size := range s.source.PendingCommands() {
		ch <- prometheus.MustNewConstMetric(s.pending, prometheus.GaugeValue, float64(size), invoker)
	}
}

func (s *Collector) Counters() *Counters {
	return s.counters
}

func (s *Collector) observerNotified(event models.NotifyEvent) {
	s.counters.lock.Lock()
	defer s.counters.lock.Unlock()
	s.counters.notifications[event.Source]++
}

func (s *Collector) mediatorDispatched(event models.DispatchEvent) {
	s.counters.lock.Lock()
	defer s.counters.lock.Unlock()
	s.counters.dispatches[labelPair{event.Source, event.Tag}]++
}

func (s *Collector) requestHandled(event models.RequestEvent) {
	s.counters.lock.Lock()
	defer s.counters.lock.Unlock()
	s.counters.handled[labelPair{event.Source, event.Handler}]++
}

func (s *Collector) requestUnhandled(event models.RequestEvent) {
	s.counters.lock.Lock()
	defer s.counters.lock.Unlock()
	s.counters.unhandled[event.Source]++
}

func (s *Collector) commandExecuted(event models.CommandEvent) {
	s.counters.lock.Lock()
	defer s.counters.lock.Unlock()
	s.counters.executed[event.Source]++
}

func (s *Collector) commandUndone(event models.CommandEvent) {
	s.counters.lock.Lock()
	defer s.counters.lock.Unlock()
	s.counters.undone[event.Source]++
}

func (s *Collector) listeners() map[string]interface{} {
	return map[string]interface{}{
		helpers.ObserverNotifiedBusEventName:   s.observerNotified,
		helpers.MediatorDispatchedBusEventName: s.mediatorDispatched,
		helpers.RequestHandledBusEventName:     s.requestHandled,
		helpers.RequestUnhandledBusEventName:   s.requestUnhandled,
		helpers.CommandExecutedBusEventName:    s.commandExecuted,
		helpers.CommandUndoneBusEventName:      s.commandUndone,
	}
}

// Close unsubscribes the collector from the bus.
func (s *Collector) Close() {
	for topic, listener := range s.listeners() {
		if err := s.bus.Unsubscribe(topic, listener); err != nil {
			logger.Log.Error("error while unsubscribe %s: %v", topic, err)
		}
	}
}

func NewCollector(namespace string, bus EventBus.Bus, source Source) (*Collector, error) {
	s := &Collector{
		bus:      bus,
		source:   source,
		counters: newCounters(),

		notifications: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "subject", "notifications_total"),
			"Notify calls per subject",
			[]string{"subject"},
			nil,
		),
		observers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "subject", "observers"),
			"Currently attached observers per subject",
			[]string{"subject"},
			nil,
		),
		dispatches: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "mediator", "dispatches_total"),
			"Routed events per mediator and tag",
			[]string{"mediator", "tag"},
			nil,
		),
		requests: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "requests_total"),
			"Requests per chain, handler and outcome",
			[]string{"chain", "handler", "outcome"},
			nil,
		),
		executed: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "invoker", "executed_total"),
			"Executed commands per invoker",
			[]string{"invoker"},
			nil,
		),
		undone: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "invoker", "undone_total"),
			"Undone commands per invoker",
			[]string{"invoker"},
			nil,
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "invoker", "pending"),
			"Pending commands per invoker",
			[]string{"invoker"},
			nil,
		),
	}

	for topic, listener := range s.listeners() {
		if err := bus.Subscribe(topic, listener); err != nil {
			logger.Log.Error("error while subscribe to %s event, err: %v", topic, err)
			return nil, err
		}
	}

	return s, nil
}
