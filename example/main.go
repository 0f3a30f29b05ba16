package main

import (
	"context"

	"github.com/Trendyol/go-dispatch"
	"github.com/Trendyol/go-dispatch/chain"
	"github.com/Trendyol/go-dispatch/command"
	"github.com/Trendyol/go-dispatch/logger"
	"github.com/Trendyol/go-dispatch/mediator"
	"github.com/Trendyol/go-dispatch/observer"
	"github.com/Trendyol/go-dispatch/output"
)

var console = output.NewConsole()

type component1 struct {
	*mediator.BaseComponent
}

func newComponent1() *component1 {
	c := &component1{BaseComponent: mediator.NewBaseComponent("component1")}
	c.Bind(c)
	c.Handle("doA", "A", func() { console.Printf("Component 1 does A.") })
	c.Handle("doB", "B", func() { console.Printf("Component 1 does B.") })
	return c
}

type component2 struct {
	*mediator.BaseComponent
}

func newComponent2() *component2 {
	c := &component2{BaseComponent: mediator.NewBaseComponent("component2")}
	c.Bind(c)
	c.Handle("doC", "C", func() { console.Printf("Component 2 does C.") })
	c.Handle("doD", "D", func() { console.Printf("Component 2 does D.") })
	return c
}

type light struct{}

func (l *light) turnOn()  { console.Printf("Light is on") }
func (l *light) turnOff() { console.Printf("Light is off") }

func observers(d dispatch.Dispatcher) {
	subject, err := d.NewSubject("greetings")
	if err != nil {
		panic(err)
	}

	received := func(payload string) { console.Printf("Received data: %s", payload) }
	observer1, observer2 := observer.Func(received), observer.Func(received)

	subject.Attach(observer1)
	subject.Attach(observer2)
	subject.Notify("Hello, observers!")

	subject.Detach(observer1)
	subject.Notify("Goodbye, observer 1!")
}

func components(d dispatch.Dispatcher) {
	c1, c2 := newComponent1(), newComponent2()

	_, err := d.NewMediator("ui", mediator.Routes{
		"A": {{Component: "component2", Action: "doC"}},
		"D": {{Component: "component1", Action: "doB"}, {Component: "component2", Action: "doC"}},
	}, c1, c2)
	if err != nil {
		panic(err)
	}

	if err = c1.Perform("doA"); err != nil {
		panic(err)
	}
	if err = c2.Perform("doD"); err != nil {
		panic(err)
	}
}

func requests(d dispatch.Dispatcher) {
	handle := func(name string) func(string) {
		return func(request string) { console.Printf("%s handles request: %s", name, request) }
	}

	c, err := d.NewChain("requests",
		chain.Equal("ConcreteHandlerA", "A", handle("ConcreteHandlerA")),
		chain.Equal("ConcreteHandlerB", "B", handle("ConcreteHandlerB")),
		chain.Equal("ConcreteHandlerC", "C", handle("ConcreteHandlerC")),
	)
	if err != nil {
		panic(err)
	}

	for _, request := range []string{"B", "C", "D"} {
		if result := c.Handle(request); !result.Handled() {
			console.Printf("Request cannot be handled.")
		}
	}
}

func remote(d dispatch.Dispatcher) {
	invoker, err := d.NewInvoker("remote")
	if err != nil {
		panic(err)
	}

	l := &light{}
	invoker.SetCommand(command.New("lightOn", l.turnOn, l.turnOff))
	invoker.PressButton()
	invoker.UndoButton()
}

func main() {
	d, err := dispatch.NewDispatcher("config.yml")
	if err != nil {
		panic(err)
	}
	defer d.Close()

	observers(d)
	components(d)
	requests(d)
	remote(d)

	logger.Log.Info("demo finished, api serving until interrupted")

	if err = d.Start(context.Background()); err != nil {
		logger.Log.Error("dispatcher stopped: %v", err)
	}
}
