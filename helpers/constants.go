package helpers

const Name = "go-dispatch"

const (
	ObserverNotifiedBusEventName   string = "observerNotified"
	MediatorDispatchedBusEventName string = "mediatorDispatched"
	RequestHandledBusEventName     string = "requestHandled"
	RequestUnhandledBusEventName   string = "requestUnhandled"
	CommandExecutedBusEventName    string = "commandExecuted"
	CommandUndoneBusEventName      string = "commandUndone"
)
