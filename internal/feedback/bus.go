package feedback

import (
	"go.uber.org/zap"
)

// Listener receives feedback events.
type Listener interface {
	OnEvent(ev Event)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(ev Event)

func (f ListenerFunc) OnEvent(ev Event) { f(ev) }

// Emitter is what simulation systems depend on. *Bus implements it; tests may
// pass a Recorder directly.
type Emitter interface {
	Emit(ev Event)
}

// Bus broadcasts events synchronously to subscribers in subscription order.
// Subscribe and Clear are expected only at startup and teardown; Emit runs on
// the simulation thread. A panicking listener is logged and skipped.
type Bus struct {
	listeners []Listener
	log       *zap.Logger
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log}
}

func (b *Bus) Subscribe(l Listener) {
	if l == nil {
		return
	}
	b.listeners = append(b.listeners, l)
}

func (b *Bus) Emit(ev Event) {
	for i, l := range b.listeners {
		b.deliver(i, l, ev)
	}
}

func (b *Bus) deliver(i int, l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Warn("feedback listener panicked",
				zap.Int("listener", i),
				zap.Stringer("type", ev.Type),
				zap.Any("panic", r))
		}
	}()
	l.OnEvent(ev)
}

// Clear detaches all listeners.
func (b *Bus) Clear() {
	b.listeners = nil
}

// Len returns the number of subscribed listeners.
func (b *Bus) Len() int { return len(b.listeners) }

// SetLogger replaces the logger used to report listener panics.
func (b *Bus) SetLogger(log *zap.Logger) {
	if log != nil {
		b.log = log
	}
}

var defaultBus = NewBus(nil)

// Default returns the process-wide bus for hosts that want one.
// Library code takes an Emitter instead of reaching for this.
func Default() *Bus { return defaultBus }

// Discard drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}
