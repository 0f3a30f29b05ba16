package command

import (
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/tracing"
)

const DefaultHistoryDepth = 1

type Record struct {
	Command     Command
	ExecutionID string
	Name        string
}

type Option func(*Invoker)

func WithBus(bus EventBus.Bus) Option {
	return func(i *Invoker) {
		i.bus = bus
	}
}

func WithName(name string) Option {
	return func(i *Invoker) {
		i.name = name
	}
}

// WithHistoryDepth bounds how many executed commands can be undone. Values
// below 1 are ignored.
func WithHistoryDepth(depth int) Option {
	return func(i *Invoker) {
		if depth > 0 {
			i.depth = depth
		}
	}
}

func WithTracer(tracer *tracing.TracerComponent) Option {
	return func(i *Invoker) {
		i.tracer = tracer
	}
}

// Invoker keeps pending commands on a stack and remembers executed ones for undo.
type Invoker struct {
	bus     EventBus.Bus
	tracer  *tracing.TracerComponent
	name    string
	pending []Command
	history []Record
	depth   int
	lock    sync.Mutex
}

func NewInvoker(opts ...Option) *Invoker {
	i := &Invoker{
		depth:  DefaultHistoryDepth,
		tracer: tracing.NewTracerComponent(),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

func (i *Invoker) SetCommand(command Command) {
	i.lock.Lock()
	defer i.lock.Unlock()

	i.pending = append(i.pending, command)
}

// PressButton executes the most recently set command. It reports false when
// nothing is pending.
func (i *Invoker) PressButton() bool {
	i.lock.Lock()
	if len(i.pending) == 0 {
		i.lock.Unlock()
		logger.Log.Debug("invoker %s: nothing to execute", i.name)
		return false
	}

	last := len(i.pending) - 1
	command := i.pending[last]
	i.pending[last] = nil
	i.pending = i.pending[:last]
	pending := len(i.pending)
	i.lock.Unlock()

	record := Record{Command: command, ExecutionID: uuid.NewString(), Name: nameOf(command)}

	trace := i.tracer.StartOp("command.execute", map[string]interface{}{
		"invoker":      i.name,
		"command":      record.Name,
		"execution_id": record.ExecutionID,
	})
	command.Execute()
	trace.Finish()

	i.lock.Lock()
	i.history = append(i.history, record)
	if len(i.history) > i.depth {
		i.history = append([]Record(nil), i.history[len(i.history)-i.depth:]...)
	}
	i.lock.Unlock()

	logger.Log.Debug("invoker %s executed %s", i.name, record.Name)
	helpers.Publish(i.bus, helpers.CommandExecutedBusEventName, models.CommandEvent{
		Source:      i.name,
		ExecutionID: record.ExecutionID,
		Name:        record.Name,
		Pending:     pending,
	})

	return true
}

// UndoButton undoes the most recent executed command and forgets it. It
// reports false when there is nothing to undo.
func (i *Invoker) UndoButton() bool {
	i.lock.Lock()
	if len(i.history) == 0 {
		i.lock.Unlock()
		logger.Log.Debug("invoker %s: nothing to undo", i.name)
		return false
	}

	last := len(i.history) - 1
	record := i.history[last]
	i.history = i.history[:last]
	pending := len(i.pending)
	i.lock.Unlock()

	trace := i.tracer.StartOp("command.undo", map[string]interface{}{
		"invoker":      i.name,
		"command":      record.Name,
		"execution_id": record.ExecutionID,
	})
	record.Command.Undo()
	trace.Finish()

	logger.Log.Debug("invoker %s undid %s", i.name, record.Name)
	helpers.Publish(i.bus, helpers.CommandUndoneBusEventName, models.CommandEvent{
		Source:      i.name,
		ExecutionID: record.ExecutionID,
		Name:        record.Name,
		Pending:     pending,
	})

	return true
}

// Pending lists pending command names, next to execute first.
func (i *Invoker) Pending() []string {
	i.lock.Lock()
	defer i.lock.Unlock()

	names := make([]string, 0, len(i.pending))
	for j := len(i.pending) - 1; j >= 0; j-- {
		names = append(names, nameOf(i.pending[j]))
	}
	return names
}

// History lists undoable executions, most recent first.
func (i *Invoker) History() []Record {
	i.lock.Lock()
	defer i.lock.Unlock()

	records := make([]Record, 0, len(i.history))
	for j := len(i.history) - 1; j >= 0; j-- {
		records = append(records, i.history[j])
	}
	return records
}

func (i *Invoker) Name() string {
	return i.name
}
