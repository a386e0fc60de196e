package events

// CallbackEvent calls listener functions synchronously on the notifying goroutine
type CallbackEvent[T any] struct {
	reg registry[T, func(T)]
}

// NewCallbackEvent creates a CallbackEvent. With replayLast set, a new listener
// is called immediately with the most recent value if one has been sent.
func NewCallbackEvent[T any](replayLast bool) *CallbackEvent[T] {
	return &CallbackEvent[T]{reg: newRegistry[T, func(T)](replayLast)}
}

// Listen registers fn and returns a function that unregisters it
func (e *CallbackEvent[T]) Listen(fn func(T)) func() {
	if fn == nil {
		panic("events: callback cannot be nil")
	}
	id, last, replay := e.reg.add(fn)
	if replay {
		fn(last)
	}
	return func() { e.reg.remove(id) }
}

// Notify calls every registered listener with value. No lock is held during the calls,
// so listeners may register or unregister from inside a callback.
func (e *CallbackEvent[T]) Notify(value T) {
	for _, fn := range e.reg.record(value) {
		fn(value)
	}
}

func (e *CallbackEvent[T]) ListenerCount() int {
	return e.reg.count()
}
