package services

import (
	"encoding/json"
	"testing"
	"time"
)

func newTestClient(hub *Hub, id uint, role string) *Client {
	return &Client{
		ID:     id,
		Role:   role,
		Send:   make(chan []byte, 8),
		Hub:    hub,
		topics: map[string]bool{UserRentalsTopic(id): true},
	}
}

func registerAndWait(t *testing.T, hub *Hub, clients ...*Client) {
	t.Helper()
	for _, c := range clients {
		hub.register <- c
	}
	deadline := time.Now().Add(time.Second)
	for hub.ConnectedClients() < len(clients) {
		if time.Now().After(deadline) {
			t.Fatal("clients did not register in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAdminTopicRequiresAdminRole(t *testing.T) {
	hub := NewHub()

	customer := newTestClient(hub, 1, "customer")
	if err := hub.Subscribe(customer, TopicRentals); err == nil {
		t.Error("customer subscription to the admin transactions topic should fail")
	}

	admin := newTestClient(hub, 2, "admin")
	if err := hub.Subscribe(admin, TopicRentals); err != nil {
		t.Errorf("admin subscription failed: %v", err)
	}

	if err := hub.Subscribe(customer, TopicBikes); err != nil {
		t.Errorf("collection topic subscription failed: %v", err)
	}
}

func TestPublishRentalEventRouting(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	owner := newTestClient(hub, 1, "customer")
	other := newTestClient(hub, 2, "customer")
	admin := newTestClient(hub, 3, "admin")
	registerAndWait(t, hub, owner, other, admin)

	if err := hub.Subscribe(admin, TopicRentals); err != nil {
		t.Fatalf("admin subscribe: %v", err)
	}

	hub.PublishRentalEvent(1, DocumentEvent{
		Collection: "transactions",
		Action:     "created",
		Document:   map[string]interface{}{"id": 42},
	})

	select {
	case raw := <-owner.Send:
		var msg WebSocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("owner received invalid frame: %v", err)
		}
		if msg.Type != "document_change" {
			t.Errorf("message type = %q, want document_change", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("owner did not receive the rental event")
	}

	select {
	case <-admin.Send:
	case <-time.After(time.Second):
		t.Fatal("admin feed did not receive the rental event")
	}

	select {
	case raw := <-other.Send:
		t.Fatalf("unrelated customer received a frame: %s", raw)
	default:
	}
}
