package input

import (
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// Terminal reads key and mouse events from a tcell screen. A background
// goroutine blocks in PollEvent; Poll drains what has arrived without
// blocking, so the sim thread owns the Mapper.
type Terminal struct {
	screen tcell.Screen
	mapper *Mapper
	events chan tcell.Event
	now    func() time.Time

	resized bool

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewTerminal starts reading from screen, which must already be initialised.
func NewTerminal(screen tcell.Screen, hold time.Duration) *Terminal {
	screen.EnableMouse(tcell.MouseMotionEvents)
	t := &Terminal{
		screen: screen,
		mapper: NewMapper(hold),
		events: make(chan tcell.Event, 128),
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.pollLoop()
	return t
}

func (t *Terminal) pollLoop() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return // screen finalised
		}
		select {
		case <-t.stop:
			return
		default:
		}
		select {
		case t.events <- ev:
		case <-t.stop:
			return
		}
	}
}

// Poll implements Source.
func (t *Terminal) Poll() Frame {
	for {
		select {
		case ev := <-t.events:
			t.handle(ev)
		default:
			return t.mapper.Frame(t.now())
		}
	}
}

func (t *Terminal) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.mapper.HandleKey(ev.Key(), ev.Rune(), ev.Modifiers(), t.now())
	case *tcell.EventMouse:
		x, y := ev.Position()
		t.mapper.HandleMouse(x, y)
	case *tcell.EventResize:
		t.resized = true
	}
}

// Resized reports and clears a pending terminal resize.
func (t *Terminal) Resized() bool {
	r := t.resized
	t.resized = false
	return r
}

// Close stops the reader goroutine. The caller still owns the screen and
// must call Fini after Close.
func (t *Terminal) Close() {
	t.once.Do(func() {
		close(t.stop)
		// 喚醒阻塞中的 PollEvent
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	<-t.done
}
