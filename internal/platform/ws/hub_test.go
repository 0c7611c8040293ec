package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// ---------------------------------------------------------------------------
// Hub tests
// ---------------------------------------------------------------------------

func TestHub_RegisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "terminal-1",
		Topics: []string{TopicQueue},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount(TopicQueue) != 1 {
		t.Fatalf("expected 1 client on queue, got %d", hub.TopicCount(TopicQueue))
	}
}

func TestHub_UnregisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "terminal-2",
		Topics: []string{TopicQueue},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if hub.TopicCount(TopicQueue) != 0 {
		t.Fatalf("expected 0 clients on queue, got %d", hub.TopicCount(TopicQueue))
	}
}

func TestHub_BroadcastToTopic(t *testing.T) {
	hub := NewHub()

	rxID := uuid.New()
	subscriber := &Client{
		ID:     "sub-1",
		Topics: []string{PrescriptionTopic(rxID)},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	nonSubscriber := &Client{
		ID:     "non-sub-1",
		Topics: []string{TopicQueue},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(subscriber)
	hub.Register(nonSubscriber)

	event := Event{
		Type:           EventItemVerified,
		Topic:          PrescriptionTopic(rxID),
		PrescriptionID: rxID.String(),
		Timestamp:      time.Now(),
	}

	hub.Broadcast(PrescriptionTopic(rxID), event)

	select {
	case msg := <-subscriber.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal event: %v", err)
		}
		if received.Type != EventItemVerified {
			t.Fatalf("expected event type %s, got %s", EventItemVerified, received.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	select {
	case <-nonSubscriber.Send:
		t.Fatal("non-subscriber should not have received event")
	default:
		// expected
	}
}

func TestHub_BroadcastAll(t *testing.T) {
	hub := NewHub()

	c1 := &Client{
		ID:     "all-1",
		Topics: []string{TopicQueue},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	c2 := &Client{
		ID:     "all-2",
		Topics: []string{PrescriptionTopic(uuid.New())},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(c1)
	hub.Register(c2)

	event := Event{
		Type:      "system.alert",
		Topic:     "system",
		Timestamp: time.Now(),
	}

	hub.BroadcastAll(event)

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.Send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if received.Type != "system.alert" {
				t.Fatalf("expected system.alert, got %s", received.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive broadcast", c.ID)
		}
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub()

	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0, got %d", hub.ClientCount())
	}

	clients := make([]*Client, 5)
	for i := range clients {
		clients[i] = &Client{
			ID:     "count-" + string(rune('a'+i)),
			Topics: []string{TopicQueue},
			Send:   make(chan []byte, 256),
			hub:    hub,
		}
		hub.Register(clients[i])
	}

	if hub.ClientCount() != 5 {
		t.Fatalf("expected 5, got %d", hub.ClientCount())
	}

	hub.Unregister(clients[0])
	hub.Unregister(clients[1])

	if hub.ClientCount() != 3 {
		t.Fatalf("expected 3, got %d", hub.ClientCount())
	}
}

func TestHub_UnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "close-1",
		Topics: []string{TopicQueue},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(client)
	hub.Unregister(client)

	// Reading from a closed channel returns zero value immediately
	_, ok := <-client.Send
	if ok {
		t.Fatal("expected Send channel to be closed after unregister")
	}
}

func TestHub_BroadcastToEmptyTopic(t *testing.T) {
	hub := NewHub()

	event := Event{
		Type:      EventDispensingCompleted,
		Topic:     "prescription/nobody-listening",
		Timestamp: time.Now(),
	}

	// Should not panic
	hub.Broadcast("prescription/nobody-listening", event)
}

func TestHub_ConcurrentRegisterUnregister(t *testing.T) {
	hub := NewHub()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	clients := make([]*Client, n)
	for i := 0; i < n; i++ {
		clients[i] = &Client{
			ID:     "concurrent-" + string(rune(i)),
			Topics: []string{TopicQueue},
			Send:   make(chan []byte, 256),
			hub:    hub,
		}
	}

	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}

	for i := 0; i < n; i++ {
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	count := hub.ClientCount()
	if count < 0 {
		t.Fatalf("client count should not be negative, got %d", count)
	}
}

func TestHub_SubscribeAddsTopics(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "dynamic-sub-1",
		Topics: []string{},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	hub.Register(client)

	rxA := PrescriptionTopic(uuid.New())
	rxB := PrescriptionTopic(uuid.New())
	hub.Subscribe(client, []string{rxA, rxB})

	if hub.TopicCount(rxA) != 1 {
		t.Fatalf("expected 1 on %s, got %d", rxA, hub.TopicCount(rxA))
	}
	if hub.TopicCount(rxB) != 1 {
		t.Fatalf("expected 1 on %s, got %d", rxB, hub.TopicCount(rxB))
	}
	if len(client.Topics) != 2 {
		t.Fatalf("expected 2 topics on client, got %d", len(client.Topics))
	}
}

func TestHub_UnsubscribeRemovesTopics(t *testing.T) {
	hub := NewHub()
	rxA := PrescriptionTopic(uuid.New())
	client := &Client{
		ID:     "dynamic-unsub-1",
		Topics: []string{TopicQueue, rxA},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	hub.Register(client)

	hub.Unsubscribe(client, []string{rxA})

	if hub.TopicCount(rxA) != 0 {
		t.Fatalf("expected 0 on %s, got %d", rxA, hub.TopicCount(rxA))
	}
	if hub.TopicCount(TopicQueue) != 1 {
		t.Fatalf("expected 1 on queue, got %d", hub.TopicCount(TopicQueue))
	}
	if len(client.Topics) != 1 {
		t.Fatalf("expected 1 topic remaining, got %d", len(client.Topics))
	}
}

func TestClientMessage_ProcessSubscribe(t *testing.T) {
	hub := NewHub()
	client := &Client{
		ID:     "process-1",
		Topics: []string{},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	hub.Register(client)

	raw := `{"action":"subscribe","topics":["queue"]}`
	var msg ClientMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	hub.ProcessMessage(client, msg)

	if hub.TopicCount(TopicQueue) != 1 {
		t.Fatalf("expected 1 subscriber on queue, got %d", hub.TopicCount(TopicQueue))
	}
}

func TestClientMessage_ProcessUnsubscribe(t *testing.T) {
	hub := NewHub()
	rxA := PrescriptionTopic(uuid.New())
	client := &Client{
		ID:     "process-2",
		Topics: []string{TopicQueue, rxA},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	hub.Register(client)

	raw := `{"action":"unsubscribe","topics":["queue"]}`
	var msg ClientMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}

	hub.ProcessMessage(client, msg)

	if hub.TopicCount(TopicQueue) != 0 {
		t.Fatalf("expected 0 on queue, got %d", hub.TopicCount(TopicQueue))
	}
	if hub.TopicCount(rxA) != 1 {
		t.Fatalf("expected 1 on %s, got %d", rxA, hub.TopicCount(rxA))
	}
}

// ---------------------------------------------------------------------------
// Publisher tests
// ---------------------------------------------------------------------------

func TestHub_PublishEvent(t *testing.T) {
	hub := NewHub()

	rxID := uuid.New()
	client := &Client{
		ID:     "pub-1",
		Topics: []string{PrescriptionTopic(rxID)},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	hub.Register(client)

	var publisher Publisher = hub

	event := Event{
		Type:           EventDispensingCompleted,
		Topic:          PrescriptionTopic(rxID),
		PrescriptionID: rxID.String(),
	}

	if err := publisher.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case msg := <-client.Send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if received.PrescriptionID != rxID.String() {
			t.Fatalf("expected PrescriptionID %s, got %s", rxID, received.PrescriptionID)
		}
		if received.Timestamp.IsZero() {
			t.Fatal("expected Publish to stamp the event timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("did not receive published event")
	}
}

func TestHub_PublishBroadcastsToSubscribers(t *testing.T) {
	hub := NewHub()

	c1 := &Client{
		ID:     "multi-pub-1",
		Topics: []string{TopicQueue},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	c2 := &Client{
		ID:     "multi-pub-2",
		Topics: []string{TopicQueue},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}
	c3 := &Client{
		ID:     "multi-pub-3",
		Topics: []string{PrescriptionTopic(uuid.New())},
		Send:   make(chan []byte, 256),
		hub:    hub,
	}

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(c3)

	rxID := uuid.New()
	event := Event{
		Type:           EventPrescriptionPending,
		Topic:          TopicQueue,
		PrescriptionID: rxID.String(),
		Timestamp:      time.Now(),
	}

	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Both queue subscribers should get the event
	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.Send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client %s: failed to unmarshal: %v", c.ID, err)
			}
			if received.Type != EventPrescriptionPending {
				t.Fatalf("client %s: expected %s, got %s", c.ID, EventPrescriptionPending, received.Type)
			}
		case <-time.After(time.Second):
			t.Fatalf("client %s did not receive event", c.ID)
		}
	}

	select {
	case <-c3.Send:
		t.Fatal("c3 should not have received a queue event")
	default:
		// expected
	}
}

// ---------------------------------------------------------------------------
// Handler tests
// ---------------------------------------------------------------------------

func TestHandler_RegisterRoutes(t *testing.T) {
	hub := NewHub()
	handler := NewHandler(hub)

	e := echo.New()
	g := e.Group("")
	handler.RegisterRoutes(g)

	routes := e.Routes()
	found := false
	for _, r := range routes {
		if r.Path == "/ws" && r.Method == http.MethodGet {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected GET /ws route to be registered")
	}
}

func TestHandler_HandleConnectRequiresWebSocket(t *testing.T) {
	hub := NewHub()
	handler := NewHandler(hub)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.HandleConnect(c)

	// gorilla/websocket upgrader will reject non-WS requests
	if err == nil && rec.Code == http.StatusSwitchingProtocols {
		t.Fatal("expected upgrade to fail for non-websocket request")
	}
}

func TestHandler_FullUpgradeWithDialer(t *testing.T) {
	hub := NewHub()
	handler := NewHandler(hub)

	e := echo.New()
	g := e.Group("")
	handler.RegisterRoutes(g)

	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	dialer := gorillawebsocket.Dialer{}
	conn, resp, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	// Give the goroutine a moment to register
	time.Sleep(50 * time.Millisecond)
	if hub.ClientCount() < 1 {
		t.Fatal("expected at least 1 client registered after connect")
	}

	// New connections start on the queue topic
	if hub.TopicCount(TopicQueue) != 1 {
		t.Fatalf("expected 1 subscriber on queue, got %d", hub.TopicCount(TopicQueue))
	}

	rxID := uuid.New()
	subMsg := ClientMessage{
		Action: "subscribe",
		Topics: []string{PrescriptionTopic(rxID)},
	}
	if err := conn.WriteJSON(subMsg); err != nil {
		t.Fatalf("failed to send subscribe: %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	if hub.TopicCount(PrescriptionTopic(rxID)) != 1 {
		t.Fatalf("expected 1 subscriber on %s, got %d", PrescriptionTopic(rxID), hub.TopicCount(PrescriptionTopic(rxID)))
	}

	event := Event{
		Type:           EventItemVerified,
		Topic:          PrescriptionTopic(rxID),
		PrescriptionID: rxID.String(),
		Timestamp:      time.Now(),
	}
	hub.Broadcast(PrescriptionTopic(rxID), event)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received Event
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	if received.Type != EventItemVerified {
		t.Fatalf("expected %s, got %s", EventItemVerified, received.Type)
	}
	if received.PrescriptionID != rxID.String() {
		t.Fatalf("expected PrescriptionID %s, got %s", rxID, received.PrescriptionID)
	}
}
