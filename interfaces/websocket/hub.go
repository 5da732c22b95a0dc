package websocket

import (
	"context"

	"go.uber.org/zap"

	"siostam-backend/pkg/observability"
)

// Hub tracks connected subscribers and fans broadcast messages out to
// them. It also remembers the last broadcast, so a subscriber that
// connects between updates still learns the current version.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// last is only touched by the Run loop
	last []byte

	metrics *observability.Collector
	logger  *zap.Logger
}

func NewHub(metrics *observability.Collector, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		metrics:    metrics,
		logger:     logger,
	}
}

// Run dispatches registrations, departures and broadcasts until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.metrics.Subscribers.Set(float64(len(h.clients)))
			h.logger.Debug("Subscriber connected",
				zap.String("connectionID", client.id),
				zap.Int("subscribers", len(h.clients)),
			)
			if h.last != nil {
				select {
				case client.send <- h.last:
				default:
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.Subscribers.Set(float64(len(h.clients)))
				h.logger.Debug("Subscriber disconnected",
					zap.String("connectionID", client.id),
					zap.Int("subscribers", len(h.clients)),
				)
			}

		case message := <-h.broadcast:
			h.last = message
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// A subscriber that cannot keep up is dropped
					// rather than allowed to stall the loop.
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn("Dropped slow subscriber",
						zap.String("connectionID", client.id),
					)
				}
			}
			h.metrics.Subscribers.Set(float64(len(h.clients)))

		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*Client]bool)
			h.metrics.Subscribers.Set(0)
			h.logger.Info("WebSocket hub stopped")
			return ctx.Err()
		}
	}
}

// Broadcast queues a message for every connected subscriber. It never
// blocks; with the dispatch loop gone the message is dropped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast queue full, dropping message")
	}
}
