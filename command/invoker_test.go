package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Trendyol/go-dispatch/helpers"
	"github.com/Trendyol/go-dispatch/models"
	"github.com/Trendyol/go-dispatch/output"
)

type light struct {
	out output.Output
}

func (l *light) TurnOn()  { l.out.Printf("Light is on") }
func (l *light) TurnOff() { l.out.Printf("Light is off") }

type lightOnCommand struct {
	light *light
}

func (c *lightOnCommand) Execute() { c.light.TurnOn() }
func (c *lightOnCommand) Undo()    { c.light.TurnOff() }

func recorded(out output.Output, name string) Command {
	return New(name, func() { out.Printf("execute %s", name) }, func() { out.Printf("undo %s", name) })
}

func TestLightCommand(t *testing.T) {
	out := output.NewRecorder()
	invoker := NewInvoker()
	invoker.SetCommand(&lightOnCommand{light: &light{out: out}})

	assert.True(t, invoker.PressButton())
	assert.True(t, invoker.UndoButton())

	assert.Equal(t, []string{"Light is on", "Light is off"}, out.Lines())
}

func TestPressButtonIsLastInFirstExecuted(t *testing.T) {
	out := output.NewRecorder()
	invoker := NewInvoker()
	invoker.SetCommand(recorded(out, "cmd1"))
	invoker.SetCommand(recorded(out, "cmd2"))

	assert.Equal(t, []string{"cmd2", "cmd1"}, invoker.Pending())

	invoker.PressButton()
	assert.True(t, invoker.UndoButton())
	assert.False(t, invoker.UndoButton())

	assert.Equal(t, []string{"execute cmd2", "undo cmd2"}, out.Lines())
	assert.Equal(t, []string{"cmd1"}, invoker.Pending())
}

func TestSingleLevelUndoKeepsOnlyMostRecent(t *testing.T) {
	out := output.NewRecorder()
	invoker := NewInvoker()
	invoker.SetCommand(recorded(out, "cmd1"))
	invoker.SetCommand(recorded(out, "cmd2"))

	invoker.PressButton()
	invoker.PressButton()
	require.Len(t, invoker.History(), 1)

	assert.True(t, invoker.UndoButton())
	assert.False(t, invoker.UndoButton())

	assert.Equal(t, []string{"execute cmd2", "execute cmd1", "undo cmd1"}, out.Lines())
}

func TestEmptyQueueAndEmptyHistoryAreNoops(t *testing.T) {
	invoker := NewInvoker()

	assert.False(t, invoker.PressButton())
	assert.False(t, invoker.UndoButton())
	assert.Empty(t, invoker.Pending())
	assert.Empty(t, invoker.History())
}

func TestHistoryDepth(t *testing.T) {
	out := output.NewRecorder()
	invoker := NewInvoker(WithHistoryDepth(2))
	for _, name := range []string{"cmd1", "cmd2", "cmd3"} {
		invoker.SetCommand(recorded(out, name))
	}

	for invoker.PressButton() {
	}
	for invoker.UndoButton() {
	}

	assert.Equal(t, []string{
		"execute cmd3", "execute cmd2", "execute cmd1",
		"undo cmd1", "undo cmd2",
	}, out.Lines())
}

func TestHistoryDepthIgnoresInvalidValues(t *testing.T) {
	assert.Equal(t, DefaultHistoryDepth, NewInvoker(WithHistoryDepth(0)).depth)
}

func TestMacroUndoesInReverse(t *testing.T) {
	out := output.NewRecorder()
	invoker := NewInvoker()
	invoker.SetCommand(NewMacro("morning", recorded(out, "lights"), recorded(out, "coffee")))

	invoker.PressButton()
	invoker.UndoButton()

	assert.Equal(t, []string{"execute lights", "execute coffee", "undo coffee", "undo lights"}, out.Lines())
}

func TestInvokerPublishesEvents(t *testing.T) {
	bus := helpers.NewBus()
	var executed, undone []models.CommandEvent
	require.NoError(t, bus.Subscribe(helpers.CommandExecutedBusEventName, func(e models.CommandEvent) {
		executed = append(executed, e)
	}))
	require.NoError(t, bus.Subscribe(helpers.CommandUndoneBusEventName, func(e models.CommandEvent) {
		undone = append(undone, e)
	}))

	invoker := NewInvoker(WithBus(bus), WithName("remote"))
	invoker.SetCommand(recorded(output.NewRecorder(), "cmd1"))
	invoker.PressButton()
	invoker.UndoButton()

	require.Len(t, executed, 1)
	require.Len(t, undone, 1)
	assert.Equal(t, "remote", executed[0].Source)
	assert.Equal(t, "cmd1", executed[0].Name)
	assert.NotEmpty(t, executed[0].ExecutionID)
	assert.Equal(t, executed[0].ExecutionID, undone[0].ExecutionID)
}

func TestUnnamedCommandUsesTypeName(t *testing.T) {
	invoker := NewInvoker()
	invoker.SetCommand(&lightOnCommand{light: &light{out: output.NewRecorder()}})

	assert.Equal(t, []string{"*command.lightOnCommand"}, invoker.Pending())
}
