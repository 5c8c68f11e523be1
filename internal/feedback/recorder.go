package feedback

// Recorder keeps every event it sees. It is both a Listener and an Emitter,
// handy for tests and replay tooling.
type Recorder struct {
	Events []Event
}

func (r *Recorder) OnEvent(ev Event) { r.Events = append(r.Events, ev) }
func (r *Recorder) Emit(ev Event)    { r.OnEvent(ev) }

// Types returns the recorded event types in order.
func (r *Recorder) Types() []Type {
	out := make([]Type, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}

// Count returns how many events of type t were recorded.
func (r *Recorder) Count(t Type) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// Reset drops all recorded events.
func (r *Recorder) Reset() { r.Events = r.Events[:0] }
