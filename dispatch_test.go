package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Trendyol/go-dispatch/chain"
	"github.com/Trendyol/go-dispatch/command"
	"github.com/Trendyol/go-dispatch/config"
	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/mediator"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/observer"
	"github.com/Trendyol/go-dispatch/output"
	"github.com/Trendyol/go-dispatch/tracing"
)

type recordingEventHandler struct {
	calls []string
}

func (h *recordingEventHandler) BeforeStart() { h.calls = append(h.calls, "beforeStart") }
func (h *recordingEventHandler) AfterStart()  { h.calls = append(h.calls, "afterStart") }
func (h *recordingEventHandler) BeforeClose() { h.calls = append(h.calls, "beforeClose") }
func (h *recordingEventHandler) AfterClose()  { h.calls = append(h.calls, "afterClose") }

func newTestDispatcher(t *testing.T) Dispatcher {
	t.Helper()

	d, err := NewDispatcherWithConfig(&config.Dispatch{Name: "test"})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	return d
}

func TestNewDispatcherAppliesDefaults(t *testing.T) {
	d := newTestDispatcher(t)

	assert.Equal(t, "test", d.GetConfig().Name)
	assert.Equal(t, config.DefaultHistoryDepth, d.GetConfig().Command.HistoryDepth)
	assert.False(t, d.GetConfig().API.Enabled)
}

func TestNewDispatcherLoadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: from-file\ncommand:\n  historyDepth: 3\n"), 0o600))

	d, err := NewDispatcher(path)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, "from-file", d.GetConfig().Name)
	assert.Equal(t, 3, d.GetConfig().Command.HistoryDepth)
}

func TestNewDispatcherMissingFile(t *testing.T) {
	_, err := NewDispatcher(filepath.Join(t.TempDir(), "missing.yml"))

	assert.Error(t, err)
}

func TestRegisterDuplicateNames(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.NewSubject("news")
	require.NoError(t, err)
	_, err = d.NewSubject("news")
	assert.True(t, errors.Is(err, ErrAlreadyRegistered))

	_, err = d.NewInvoker("remote")
	require.NoError(t, err)
	_, err = d.NewInvoker("remote")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = d.NewChain("requests")
	require.NoError(t, err)
	_, err = d.NewChain("requests")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestFailedMediatorLeavesNameFree(t *testing.T) {
	d := newTestDispatcher(t)
	c := mediator.NewBaseComponent("component1")

	_, err := d.NewMediator("ui", mediator.Routes{"A": {{Component: "missing", Action: "doA"}}}, c)
	require.ErrorIs(t, err, mediator.ErrUnknownComponent)

	_, ok := d.Mediator("ui")
	assert.False(t, ok)

	c.Handle("doA", "", func() {})
	_, err = d.NewMediator("ui", mediator.Routes{"A": {{Component: "component1", Action: "doA"}}}, c)
	assert.NoError(t, err)
}

func TestDispatcherCountsThroughBus(t *testing.T) {
	d := newTestDispatcher(t)
	out := output.NewRecorder()

	subject, err := d.NewSubject("news")
	require.NoError(t, err)
	subject.Attach(observer.Func(func(payload string) { out.Printf("got %s", payload) }))
	subject.SetState("hello")

	requests, err := d.NewChain("requests",
		chain.Equal("HandlerA", "A", func(string) { out.Printf("HandlerA handles A") }),
	)
	require.NoError(t, err)
	requests.Handle("A")
	requests.Handle("Z")

	invoker, err := d.NewInvoker("remote")
	require.NoError(t, err)
	invoker.SetCommand(command.New("light", func() { out.Printf("on") }, func() { out.Printf("off") }))
	invoker.PressButton()
	invoker.UndoButton()

	assert.Equal(t, []string{"got hello", "HandlerA handles A", "on", "off"}, out.Lines())

	counters := d.Counters()
	assert.Equal(t, 1.0, counters.Notifications("news"))
	assert.Equal(t, 1.0, counters.Handled("requests", "HandlerA"))
	assert.Equal(t, 1.0, counters.Unhandled("requests"))
	assert.Equal(t, 1.0, counters.Executed("remote"))
	assert.Equal(t, 1.0, counters.Undone("remote"))
}

func TestDispatcherBusAcceptsCustomListeners(t *testing.T) {
	d := newTestDispatcher(t)
	var events []models.NotifyEvent

	require.NoError(t, d.Bus().Subscribe(helpers.ObserverNotifiedBusEventName, func(event models.NotifyEvent) {
		events = append(events, event)
	}))

	subject, err := d.NewSubject("news")
	require.NoError(t, err)
	subject.Notify("x")

	require.Len(t, events, 1)
	assert.Equal(t, "news", events[0].Source)
}

func TestSnapshot(t *testing.T) {
	d := newTestDispatcher(t)

	subject, err := d.NewSubject("news")
	require.NoError(t, err)
	subject.Attach(observer.Func(func(string) {}))

	_, err = d.NewChain("requests", chain.Equal("HandlerA", "A", func(string) {}))
	require.NoError(t, err)

	invoker, err := d.NewInvoker("remote")
	require.NoError(t, err)
	invoker.SetCommand(command.New("light", func() {}, func() {}))

	button := mediator.NewBaseComponent("button")
	button.Handle("click", "", func() {})
	_, err = d.NewMediator("ui", mediator.Routes{
		"B": {{Component: "button", Action: "click"}},
		"A": {{Component: "button", Action: "click"}},
	}, button)
	require.NoError(t, err)

	snapshot := d.Snapshot()
	assert.Equal(t, map[string]int{"news": 1}, snapshot.Subjects)
	assert.Equal(t, []string{"HandlerA"}, snapshot.Chains["requests"])
	assert.Equal(t, []string{"light"}, snapshot.Invokers["remote"])
	assert.Equal(t, map[string][]string{"ui": {"A", "B"}}, snapshot.Mediators)
}

func TestStartReturnsWhenContextDone(t *testing.T) {
	d := newTestDispatcher(t)
	handler := &recordingEventHandler{}
	d.SetEventHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, d.Start(ctx))
	d.Close()
	d.Close()

	assert.Equal(t, []string{"beforeStart", "afterStart", "beforeClose", "afterClose"}, handler.calls)
}

func TestDispatcherUsesRegisteredTracer(t *testing.T) {
	defer tracing.ResetRequestTracer()

	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	require.NoError(t, tracing.RegisterRequestTracer(tracing.NewOtelTracer(provider.Tracer("dispatch"))))

	d := newTestDispatcher(t)
	invoker, err := d.NewInvoker("remote")
	require.NoError(t, err)
	invoker.SetCommand(command.New("light", func() {}, func() {}))
	invoker.PressButton()
	invoker.UndoButton()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "command.execute", spans[0].Name)
	assert.Equal(t, "command.undo", spans[1].Name)
}

type startedEventHandler struct {
	models.EmptyEventHandler
	started chan struct{}
}

func (h *startedEventHandler) AfterStart() {
	close(h.started)
}

func TestCloseStopsRunningStart(t *testing.T) {
	d := newTestDispatcher(t)
	handler := &startedEventHandler{started: make(chan struct{})}
	d.SetEventHandler(handler)

	result := make(chan error, 1)
	go func() {
		result <- d.Start(context.Background())
	}()

	select {
	case <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not start")
	}

	d.Close()

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("start did not return after close")
	}
}

func TestStartAfterClose(t *testing.T) {
	d := newTestDispatcher(t)
	d.Close()

	assert.ErrorIs(t, d.Start(context.Background()), ErrClosed)
}

func TestBusListenerMayDriveCores(t *testing.T) {
	d := newTestDispatcher(t)
	out := output.NewRecorder()

	subject, err := d.NewSubject("news")
	require.NoError(t, err)
	subject.Attach(observer.Func(func(payload string) { out.Printf("got %s", payload) }))

	require.NoError(t, d.Bus().Subscribe(helpers.CommandExecutedBusEventName, func(event models.CommandEvent) {
		subject.Notify(event.Name + " executed")
	}))

	invoker, err := d.NewInvoker("remote")
	require.NoError(t, err)
	invoker.SetCommand(command.New("light", func() { out.Printf("on") }, nil))

	done := make(chan struct{})
	go func() {
		invoker.PressButton()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("press did not return")
	}

	assert.Equal(t, []string{"on", "got light executed"}, out.Lines())
	assert.Equal(t, 1.0, d.Counters().Notifications("news"))
}

func TestNewDispatcherWithLogger(t *testing.T) {
	previous := logger.Log
	defer logger.SetLogger(previous)

	base, hook := logrustest.NewNullLogger()
	d, err := NewDispatcherWithLogger(&config.Dispatch{Name: "logged"}, &logger.Loggers{Logrus: base})
	require.NoError(t, err)

	d.Close()

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "dispatcher logged closed", hook.LastEntry().Message)
}
