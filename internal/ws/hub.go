// Package ws streams the clock widget's elapsed-time ticks. Each connected
// client watches one employee's clock; the hub publishes a tick per second
// while that employee is clocked in. Shift data comes from the synchronizer
// cache, so ticking does not hammer the backend.
package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"gocard/gateway/internal/shiftclock"
	"gocard/gateway/internal/upstream"
)

type Tick struct {
	Mode           shiftclock.Mode `json:"mode"`
	ElapsedSeconds int64           `json:"elapsedSeconds"`
	StartedAt      *time.Time      `json:"startedAt,omitempty"`
}

type Hub struct {
	machine *shiftclock.Machine
	log     zerolog.Logger

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
}

func NewHub(machine *shiftclock.Machine, log zerolog.Logger) *Hub {
	return &Hub{
		machine:    machine,
		log:        log,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run owns the client set; it must run in its own goroutine.
func (h *Hub) Run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case <-ticker.C:
			h.publish()
		case <-h.stop:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Stop disconnects every client and ends the run loop.
func (h *Hub) Stop() {
	close(h.stop)
}

func (h *Hub) publish() {
	for client := range h.clients {
		tick, err := h.tickFor(client)
		if err != nil {
			h.log.Debug().Err(err).Int("employee_id", client.employeeID).Msg("clock tick failed")
			continue
		}

		payload, err := json.Marshal(tick)
		if err != nil {
			continue
		}

		select {
		case client.send <- payload:
		default:
			// Slow consumer; drop it rather than stalling the loop.
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) tickFor(client *Client) (Tick, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 900*time.Millisecond)
	defer cancel()
	ctx = upstream.WithCredential(ctx, client.credential)

	snap, err := h.machine.Snapshot(ctx, client.employeeID)
	if err != nil {
		return Tick{}, err
	}
	return Tick{
		Mode:           snap.Mode,
		ElapsedSeconds: snap.ElapsedSeconds,
		StartedAt:      snap.StartedAt,
	}, nil
}
