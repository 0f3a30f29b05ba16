package models

// EventHandler receives Dispatcher lifecycle hooks.
type EventHandler interface {
	BeforeStart()
	AfterStart()
	BeforeClose()
	AfterClose()
}

type EmptyEventHandler struct{}

func (h *EmptyEventHandler) BeforeStart() {
}

func (h *EmptyEventHandler) AfterStart() {
}

func (h *EmptyEventHandler) BeforeClose() {
}

func (h *EmptyEventHandler) AfterClose() {
}

var DefaultEventHandler EventHandler = &EmptyEventHandler{}
