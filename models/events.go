package models

// Payloads published on the internal bus. Source is the registry name of the
// publishing instance, empty when it was built outside a Dispatcher.

type NotifyEvent struct {
	Source    string
	Observers int
}

type DispatchEvent struct {
	Source string
	Sender string
	Tag    string
	Steps  int
}

type RequestEvent struct {
	Source   string
	Handler  string
	Position int
}

type CommandEvent struct {
	Source      string
	ExecutionID string
	Name        string
	Pending     int
}

type NotifyRequest struct {
	Payload string `json:"payload"`
}

type ChainRequest struct {
	Request string `json:"request"`
}

type RegistrySnapshot struct {
	Subjects  map[string]int      `json:"subjects"`
	Mediators map[string][]string `json:"mediators"`
	Chains    map[string][]string `json:"chains"`
	Invokers  map[string][]string `json:"invokers"`
}
