package events

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitRunsEveryHandler(t *testing.T) {
	bus := NewEventBus()
	var calls int32

	bus.On("audit.created", func(interface{}) { atomic.AddInt32(&calls, 1) })
	bus.On("audit.created", func(interface{}) { atomic.AddInt32(&calls, 1) })
	bus.On("other", func(interface{}) { atomic.AddInt32(&calls, 100) })

	bus.Emit("audit.created", "payload")
	bus.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestEmitRecoversFromPanickingHandler(t *testing.T) {
	bus := NewEventBus()
	var ran int32

	bus.On("x", func(interface{}) { panic("boom") })
	bus.On("x", func(interface{}) { atomic.StoreInt32(&ran, 1) })

	assert.NotPanics(t, func() {
		bus.Emit("x", nil)
		bus.Wait()
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}
