package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/internal/domain"
	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
)

func newTestHub() *Hub {
	return NewHub(logger.NewLogger("error"))
}

func TestSendToUnknownConnection(t *testing.T) {
	hub := newTestHub()
	assert.False(t, hub.SendTo("ghost", domain.Frame{Event: domain.EventAck}))
}

func TestSendToDropsWhenBufferFull(t *testing.T) {
	hub := newTestHub()
	conn := &Connection{ID: "c1", Send: make(chan domain.Frame, 1)}
	hub.Register(conn)

	assert.True(t, hub.SendTo("c1", domain.Frame{Event: domain.EventAck}))
	assert.False(t, hub.SendTo("c1", domain.Frame{Event: domain.EventAck}), "full buffer drops, never blocks")
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := newTestHub()
	conn := &Connection{ID: "c1", Send: make(chan domain.Frame, 1)}
	hub.Register(conn)

	hub.Unregister("c1")
	hub.Unregister("c1")
	assert.False(t, hub.Connected("c1"))
	assert.False(t, hub.SendTo("c1", domain.Frame{Event: domain.EventAck}))
}

// Direct deliveries (acks, private copies, read notifications) can
// target a connection that is tearing down at the same moment. A send
// must never hit the closed channel, whichever side wins.
func TestSendToRacingUnregisterNeverPanics(t *testing.T) {
	hub := newTestHub()

	const rounds = 2000
	const senders = 4

	for round := 0; round < rounds; round++ {
		id := fmt.Sprintf("c%d", round)
		hub.Register(&Connection{ID: id, Send: make(chan domain.Frame, 1)})

		var wg sync.WaitGroup
		wg.Add(senders + 1)
		start := make(chan struct{})

		for s := 0; s < senders; s++ {
			go func() {
				defer wg.Done()
				<-start
				hub.SendTo(id, domain.Frame{Event: domain.EventMessageRead})
			}()
		}
		go func() {
			defer wg.Done()
			<-start
			hub.Unregister(id)
		}()

		close(start)
		wg.Wait()
		assert.False(t, hub.Connected(id))
	}
}
