// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

// Package websocket pushes event-list changes to the owner's open browser
// tabs. A client is bound to one identity at connect time and only ever
// receives messages addressed to that identity.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/thrifttags/internal/lifecycle"
	"github.com/tomtom215/thrifttags/internal/logging"
	"github.com/tomtom215/thrifttags/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types on the wire. Lifecycle notifications use the
// lifecycle.Notify* names.
const (
	MessageTypePing  = "ping"
	MessageTypePong  = "pong"
	MessageTypeHello = "hello"
)

// Message is one websocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type delivery struct {
	owner string
	msg   Message
}

// Hub tracks connected clients per owner and routes messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan delivery
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

var _ lifecycle.Notifier = (*Hub)(nil)

// NewHub creates a Hub. Call RunWithContext to start routing.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan delivery, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext routes messages until ctx is done, then closes every
// client and returns ctx.Err().
//
// Shutdown is checked first and lifecycle events before deliveries, so a
// client registered before a message is queued always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.add(client)
			continue
		case client := <-h.Unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case d := <-h.broadcast:
			h.deliver(d)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Str("owner", client.owner).Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Debug().Str("owner", client.owner).Int("total_clients", total).Msg("websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

// deliver sends d to the owner's clients in connection order. A client
// whose buffer is full is dropped.
func (h *Hub) deliver(d delivery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make([]*Client, 0, 4)
	for client := range h.clients {
		if client.owner == d.owner {
			targets = append(targets, client)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].id < targets[j].id
	})

	for _, client := range targets {
		select {
		case client.send <- d.msg:
			metrics.WSMessagesSent.Inc()
		default:
			metrics.WSMessagesDropped.Inc()
			close(client.send)
			delete(h.clients, client)
			logging.Warn().Str("owner", client.owner).Uint64("client_id", client.id).Msg("websocket client too slow, disconnected")
		}
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// SendTo queues msg for every client of owner. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) SendTo(owner string, msg Message) {
	select {
	case h.broadcast <- delivery{owner: owner, msg: msg}:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", msg.Type).Msg("broadcast channel full, dropping message")
	}
}

// Notify implements lifecycle.Notifier.
func (h *Hub) Notify(owner string, n lifecycle.Notification) {
	h.SendTo(owner, Message{Type: n.Type, Data: n})
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ClientCountFor returns the number of clients of owner.
func (h *Hub) ClientCountFor(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.owner == owner {
			n++
		}
	}
	return n
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
