package mediator

import "fmt"

type EventTag string

// Action is one component method: its local effect and the event it raises
// afterwards. An empty Emits raises nothing.
type Action struct {
	Do    func()
	Emits EventTag
}

type Mediator interface {
	Notify(sender Component, tag EventTag)
}

type Component interface {
	Name() string
	SetMediator(mediator Mediator)
	Actions() map[string]Action
	Perform(action string) error
}

// BaseComponent is meant to be embedded. Peers are reached only through the
// mediator, a component never holds references to other components.
type BaseComponent struct {
	mediator Mediator
	self     Component
	actions  map[string]Action
	name     string
}

func NewBaseComponent(name string) *BaseComponent {
	return &BaseComponent{
		name:    name,
		actions: map[string]Action{},
	}
}

func (c *BaseComponent) Name() string {
	return c.name
}

func (c *BaseComponent) SetMediator(mediator Mediator) {
	c.mediator = mediator
}

// Bind sets the component reported as sender, useful when BaseComponent is embedded.
func (c *BaseComponent) Bind(self Component) {
	c.self = self
}

func (c *BaseComponent) Handle(action string, emits EventTag, do func()) {
	c.actions[action] = Action{Do: do, Emits: emits}
}

func (c *BaseComponent) Actions() map[string]Action {
	return c.actions
}

// Perform runs the action's local effect then notifies the mediator.
func (c *BaseComponent) Perform(action string) error {
	a, ok := c.actions[action]
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrUnknownAction, action, c.name)
	}

	if a.Do != nil {
		a.Do()
	}

	if a.Emits != "" && c.mediator != nil {
		var sender Component = c
		if c.self != nil {
			sender = c.self
		}
		c.mediator.Notify(sender, a.Emits)
	}

	return nil
}
