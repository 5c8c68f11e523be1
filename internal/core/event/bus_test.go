package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fireCmd struct{ Slot string }
type lockCmd struct{}

func TestBus_DoubleBuffered(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(c fireCmd) { got = append(got, c.Slot) })

	Emit(b, fireCmd{Slot: "primary"})
	b.DispatchAll()
	assert.Empty(t, got, "not visible before swap")
	assert.Equal(t, 1, b.Pending())

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"primary"}, got)

	// next step: nothing new
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"primary"}, got)
}

func TestBus_TypesAreIndependent(t *testing.T) {
	b := NewBus()
	fires, locks := 0, 0
	Subscribe(b, func(fireCmd) { fires++ })
	Subscribe(b, func(lockCmd) { locks++ })

	Emit(b, lockCmd{})
	Emit(b, fireCmd{})
	Emit(b, fireCmd{})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 2, fires)
	assert.Equal(t, 1, locks)
}
