package resolver

// Event is something the resolver reports while it works
type Event interface {
	isEvent()
}

// StepEvent is sent each time a resolvent is decided
type StepEvent struct{}

// StageEvent is sent when the resolver moves on to a new stage
type StageEvent struct {
	Stage string
}

func (StepEvent) isEvent()  {}
func (StageEvent) isEvent() {}

const (
	StageDeciding   = "deciding"
	StageDependents = "finding dependents"
	StageOrdering   = "ordering"
)

// Notifier receives progress events. It must not call back into the resolver.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to a Notifier
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) {
	f(e)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
