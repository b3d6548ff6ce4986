// ThriftTags - Thrift Store Discovery and Event Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/thrifttags

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/thrifttags/internal/lifecycle"
	"github.com/tomtom215/thrifttags/internal/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHubRoutesByOwner(t *testing.T) {
	hub, _, _ := startHub(t)

	alice1 := NewClient(hub, nil, "alice@example.com")
	alice2 := NewClient(hub, nil, "alice@example.com")
	bob := NewClient(hub, nil, "bob@example.com")
	for _, c := range []*Client{alice1, alice2, bob} {
		hub.Register <- c
	}
	waitFor(t, func() bool { return hub.GetClientCount() == 3 })
	if hub.ClientCountFor("alice@example.com") != 2 {
		t.Errorf("expected 2 alice clients, got %d", hub.ClientCountFor("alice@example.com"))
	}

	hub.Notify("alice@example.com", lifecycle.Notification{
		Type:  lifecycle.NotifyEventCreated,
		Event: models.Event{ID: "e1", Name: "Swap"},
	})

	for _, c := range []*Client{alice1, alice2} {
		msg := receive(t, c)
		if msg.Type != lifecycle.NotifyEventCreated {
			t.Errorf("unexpected message type %q", msg.Type)
		}
		n, ok := msg.Data.(lifecycle.Notification)
		if !ok || n.Event.ID != "e1" {
			t.Errorf("unexpected payload %+v", msg.Data)
		}
	}

	select {
	case msg := <-bob.send:
		t.Errorf("bob must not receive alice's notification, got %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub, _, _ := startHub(t)
	c := NewClient(hub, nil, "a@x.io")
	hub.Register <- c
	hub.Unregister <- c
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })

	if _, ok := <-c.send; ok {
		t.Error("expected send channel closed")
	}

	// Unregistering an unknown client is harmless.
	hub.Unregister <- NewClient(hub, nil, "b@x.io")
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _, _ := startHub(t)
	c := NewClient(hub, nil, "slow@x.io")
	hub.Register <- c
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	for i := 0; i < cap(c.send)+1; i++ {
		hub.SendTo("slow@x.io", Message{Type: "tick"})
	}
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub, cancel, done := startHub(t)
	c := NewClient(hub, nil, "a@x.io")
	hub.Register <- c
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.GetClientCount() != 0 {
		t.Error("expected all clients closed")
	}
	if _, ok := <-c.send; ok {
		t.Error("expected send channel closed")
	}
}

func TestServeEndToEnd(t *testing.T) {
	hub, _, _ := startHub(t)
	upgrader := Upgrader(nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.Serve(&upgrader, w, r, "alice@example.com"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello Message
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != MessageTypeHello {
		t.Fatalf("expected hello, got %+v (%v)", hello, err)
	}

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	var pong Message
	if err := conn.ReadJSON(&pong); err != nil || pong.Type != MessageTypePong {
		t.Fatalf("expected pong, got %+v (%v)", pong, err)
	}

	waitFor(t, func() bool { return hub.ClientCountFor("alice@example.com") == 1 })
	hub.Notify("alice@example.com", lifecycle.Notification{Type: lifecycle.NotifyEventRemoved, Reason: models.ReasonExpired})

	var removed Message
	if err := conn.ReadJSON(&removed); err != nil || removed.Type != lifecycle.NotifyEventRemoved {
		t.Fatalf("expected event_removed, got %+v (%v)", removed, err)
	}
}

func TestUpgraderCheckOrigin(t *testing.T) {
	t.Parallel()

	u := Upgrader([]string{"https://app.example.com"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://app.example.com", true},
		{"http://example.com", true},
		{"https://evil.example.net", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := u.CheckOrigin(req); got != tt.want {
			t.Errorf("CheckOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
