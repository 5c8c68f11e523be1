package event

import "reflect"

// Bus is a double-buffered command bus. Commands emitted during frame N are
// readable after the next SwapBuffers, which the input system calls at the
// start of each fixed step. A frame with no fixed step keeps its commands in
// the back buffer until one runs.
type Bus struct {
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	order    []reflect.Type // first-emit order, keeps dispatch deterministic
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues a command into the back buffer.
func Emit[T any](b *Bus, cmd T) {
	t := typeOf[T]()
	if _, seen := b.back[t]; !seen {
		if _, known := b.front[t]; !known {
			b.order = append(b.order, t)
		}
	}
	b.back[t] = append(b.back[t], cmd)
}

// Subscribe registers a typed handler for commands of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(v any) { fn(v.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer commands to their subscribed handlers,
// grouped by type in first-emit order.
func (b *Bus) DispatchAll() {
	for _, t := range b.order {
		handlers := b.handlers[t]
		for _, cmd := range b.front[t] {
			for _, h := range handlers {
				h(cmd)
			}
		}
	}
}

// Pending reports how many commands wait in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, cmds := range b.back {
		n += len(cmds)
	}
	return n
}
