package dispatch

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Trendyol/go-dispatch/api"
	"github.com/Trendyol/go-dispatch/chain"
	"github.com/Trendyol/go-dispatch/command"
	"github.com/Trendyol/go-dispatch/config"
	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/mediator"
	"github.com/Trendyol/go-dispatch/metric"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/observer"
	"github.com/Trendyol/go-dispatch/tracing"
)

var ErrClosed = errors.New("dispatcher closed")

type Dispatcher interface {
	Start(ctx context.Context) error
	Close()

	NewSubject(name string) (*observer.Subject[string], error)
	NewMediator(name string, routes mediator.Routes, components ...mediator.Component) (*mediator.Hub, error)
	NewChain(name string, handlers ...chain.Handler[string]) (*chain.Chain[string], error)
	NewInvoker(name string) (*command.Invoker, error)

	Subject(name string) (*observer.Subject[string], bool)
	Mediator(name string) (*mediator.Hub, bool)
	Chain(name string) (*chain.Chain[string], bool)
	Invoker(name string) (*command.Invoker, bool)
	Snapshot() models.RegistrySnapshot

	// Bus returns the bus the cores publish lifecycle events on. Listeners may
	// drive the cores, publishes they cause are delivered after they return.
	// They must not subscribe or unsubscribe.
	Bus() EventBus.Bus
	Counters() *metric.Counters
	GetConfig() *config.Dispatch
	SetEventHandler(handler models.EventHandler)
	SetMetricRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer)
}

type dispatcher struct {
	*registry
	bus          EventBus.Bus
	api          api.API
	eventHandler models.EventHandler
	config       *config.Dispatch
	collector    *metric.Collector
	tracer       *tracing.TracerComponent
	reg          prometheus.Registerer
	gatherer     prometheus.Gatherer
	cancel       context.CancelFunc
	closeOnce    sync.Once
	lock         sync.Mutex
	closed       bool
}

func (d *dispatcher) NewSubject(name string) (*observer.Subject[string], error) {
	return register(d.registry, d.subjects, "subject", name, func() (*observer.Subject[string], error) {
		return observer.NewSubject[string](
			observer.WithName[string](name),
			observer.WithBus[string](d.bus),
			observer.WithTracer[string](d.tracer),
		), nil
	})
}

func (d *dispatcher) NewMediator(
	name string,
	routes mediator.Routes,
	components ...mediator.Component,
) (*mediator.Hub, error) {
	return register(d.registry, d.mediators, "mediator", name, func() (*mediator.Hub, error) {
		return mediator.New(routes, components,
			mediator.WithName(name),
			mediator.WithBus(d.bus),
			mediator.WithTracer(d.tracer),
		)
	})
}

func (d *dispatcher) NewChain(name string, handlers ...chain.Handler[string]) (*chain.Chain[string], error) {
	return register(d.registry, d.chains, "chain", name, func() (*chain.Chain[string], error) {
		return chain.New(handlers,
			chain.WithName(name),
			chain.WithBus(d.bus),
			chain.WithTracer(d.tracer),
		), nil
	})
}

func (d *dispatcher) NewInvoker(name string) (*command.Invoker, error) {
	return register(d.registry, d.invokers, "invoker", name, func() (*command.Invoker, error) {
		return command.NewInvoker(
			command.WithName(name),
			command.WithBus(d.bus),
			command.WithTracer(d.tracer),
			command.WithHistoryDepth(d.config.Command.HistoryDepth),
		), nil
	})
}

func (d *dispatcher) Bus() EventBus.Bus {
	return d.bus
}

func (d *dispatcher) Counters() *metric.Counters {
	return d.collector.Counters()
}

func (d *dispatcher) GetConfig() *config.Dispatch {
	return d.config
}

func (d *dispatcher) SetEventHandler(handler models.EventHandler) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.eventHandler = handler
}

func (d *dispatcher) SetMetricRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.reg = reg
	d.gatherer = gatherer
}

// Start serves the api when enabled and blocks until ctx is done, Close is
// called, a termination signal arrives or the api fails.
func (d *dispatcher) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.lock.Lock()
	if d.closed {
		d.lock.Unlock()
		return ErrClosed
	}
	d.cancel = cancel
	if d.config.API.Enabled {
		d.api = api.NewAPI(d.config, d.registry, []prometheus.Collector{d.collector}, d.reg, d.gatherer)
	}
	server, handler := d.api, d.eventHandler
	d.lock.Unlock()

	handler.BeforeStart()

	g, gCtx := errgroup.WithContext(ctx)

	if server != nil {
		g.Go(server.Listen)
		g.Go(func() error {
			<-gCtx.Done()
			return server.Shutdown()
		})
	}

	logger.Log.Info("dispatcher %s started", d.config.Name)
	handler.AfterStart()

	g.Go(func() error {
		<-gCtx.Done()
		return nil
	})

	return g.Wait()
}

// Close stops a running Start, which shuts the api down, and releases metric
// collectors and bus listeners.
func (d *dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.lock.Lock()
		d.closed = true
		cancel, server, handler := d.cancel, d.api, d.eventHandler
		d.lock.Unlock()

		handler.BeforeClose()

		if cancel != nil {
			cancel()
		}
		if server != nil {
			server.UnregisterMetricCollectors()
		}
		d.collector.Close()

		logger.Log.Info("dispatcher %s closed", d.config.Name)
		handler.AfterClose()
	})
}

func newDispatcher(cfg *config.Dispatch) (Dispatcher, error) {
	cfg.ApplyDefaults()
	logger.InitDefaultLogger(cfg.Logging.Level)

	bus := helpers.NewBus()
	d := &dispatcher{
		registry:     newRegistry(),
		bus:          bus,
		config:       cfg,
		eventHandler: models.DefaultEventHandler,
		tracer:       tracing.NewTracerComponent(),
		reg:          prometheus.DefaultRegisterer,
		gatherer:     prometheus.DefaultGatherer,
	}

	collector, err := metric.NewCollector("dispatch", bus, d.registry)
	if err != nil {
		return nil, err
	}
	d.collector = collector

	return d, nil
}

// NewDispatcher creates a dispatcher from a yaml configuration file.
func NewDispatcher(configPath string) (Dispatcher, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return newDispatcher(cfg)
}

func NewDispatcherWithConfig(cfg *config.Dispatch) (Dispatcher, error) {
	return newDispatcher(cfg)
}

func NewDispatcherWithLogger(cfg *config.Dispatch, l logger.Logger) (Dispatcher, error) {
	d, err := newDispatcher(cfg)
	if err != nil {
		return nil, err
	}
	logger.SetLogger(l)
	return d, nil
}
