package command

import "fmt"

// Command is a reified action. Undo performs the compensating action defined
// by the command kind.
type Command interface {
	Execute()
	Undo()
}

type Named interface {
	Name() string
}

type funcCommand struct {
	execute func()
	undo    func()
	name    string
}

func (c *funcCommand) Execute() {
	if c.execute != nil {
		c.execute()
	}
}

func (c *funcCommand) Undo() {
	if c.undo != nil {
		c.undo()
	}
}

func (c *funcCommand) Name() string {
	return c.name
}

func New(name string, execute func(), undo func()) Command {
	return &funcCommand{name: name, execute: execute, undo: undo}
}

// Macro executes its commands in order and undoes them in reverse order.
type Macro struct {
	name     string
	commands []Command
}

func NewMacro(name string, commands ...Command) *Macro {
	return &Macro{name: name, commands: append([]Command(nil), commands...)}
}

func (m *Macro) Execute() {
	for _, c := range m.commands {
		c.Execute()
	}
}

func (m *Macro) Undo() {
	for i := len(m.commands) - 1; i >= 0; i-- {
		m.commands[i].Undo()
	}
}

func (m *Macro) Name() string {
	return m.name
}

func nameOf(c Command) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}
