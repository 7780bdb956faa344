package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xelth-com/stockflow/internal/events"
)

func TestHubBroadcastsStockEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, "user-1", w, r)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("Client was not registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Publish(context.Background(), events.StockChanged{ItemID: "item-9", OldLevel: 2, NewLevel: 6, Reason: "RESTOCK"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var msg struct {
		Type string              `json:"type"`
		Data events.StockChanged `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("Invalid message: %v", err)
	}
	if msg.Type != "STOCK_CHANGED" {
		t.Errorf("Expected STOCK_CHANGED, got %s", msg.Type)
	}
	if msg.Data.ItemID != "item-9" || msg.Data.NewLevel != 6 {
		t.Errorf("Unexpected payload: %+v", msg.Data)
	}
}

func TestHubDropsClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1), ID: "c1"}
	hub.register <- client

	cancel()
	<-done

	if hub.ClientCount() != 0 {
		t.Errorf("Expected no clients after shutdown, got %d", hub.ClientCount())
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed")
	}
}

func TestHubStoppedDoesNotBlockClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := &Client{hub: hub, send: make(chan []byte, 1), ID: "c1"}
	if !hub.join(client) {
		t.Fatal("Expected join to succeed while the hub runs")
	}
	cancel()
	<-stopped

	finished := make(chan struct{})
	go func() {
		hub.leave(client)
		if hub.join(&Client{hub: hub, send: make(chan []byte, 1), ID: "late"}) {
			t.Error("Expected join to fail after shutdown")
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Clients blocked on a stopped hub")
	}
}

func TestUpgradeAfterShutdownIsClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, "user-1", w, r)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("Expected going-away close, got %v", err)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("Expected no clients, got %d", hub.ClientCount())
	}
}
