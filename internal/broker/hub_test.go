package broker

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// addStubSession registers a session with a buffered send channel and no
// connection, so tests can inspect queued events directly.
func addStubSession(h *Hub, buffer int) *Session {
	s := &Session{ID: newSessionID(), hub: h, send: make(chan Event, buffer)}
	h.add(s)
	return s
}

func drain(s *Session) []Event {
	var out []Event
	for {
		select {
		case e := <-s.send:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestBroadcast_All(t *testing.T) {
	h := NewHub()
	a := addStubSession(h, 4)
	b := addStubSession(h, 4)

	h.Broadcast(Event{Type: EventNotification})

	if got := len(drain(a)); got != 1 {
		t.Errorf("session a received %d events, want 1", got)
	}
	if got := len(drain(b)); got != 1 {
		t.Errorf("session b received %d events, want 1", got)
	}
}

func TestBroadcast_Exclude(t *testing.T) {
	h := NewHub()
	origin := addStubSession(h, 4)
	other := addStubSession(h, 4)

	h.Broadcast(Event{Type: EventCrazyMode}, BroadcastOptions{Exclude: origin.ID})

	if got := len(drain(origin)); got != 0 {
		t.Errorf("excluded session received %d events, want 0", got)
	}
	if got := len(drain(other)); got != 1 {
		t.Errorf("other session received %d events, want 1", got)
	}
}

func TestBroadcast_Target(t *testing.T) {
	h := NewHub()
	target := addStubSession(h, 4)
	other := addStubSession(h, 4)

	// Target wins even when Exclude names the same session.
	h.Broadcast(Event{Type: EventCounterUpdate}, BroadcastOptions{Target: target.ID, Exclude: target.ID})

	if got := len(drain(target)); got != 1 {
		t.Errorf("target received %d events, want 1", got)
	}
	if got := len(drain(other)); got != 0 {
		t.Errorf("other session received %d events, want 0", got)
	}
}

func TestBroadcast_PerSessionOrder(t *testing.T) {
	h := NewHub()
	s := addStubSession(h, 8)

	h.Broadcast(Event{Type: EventCrazyMode})
	h.Broadcast(Event{Type: EventCounterUpdate})
	h.Broadcast(Event{Type: EventNotification})

	got := drain(s)
	want := []string{EventCrazyMode, EventCounterUpdate, EventNotification}
	if len(got) != len(want) {
		t.Fatalf("received %d events, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Type != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, e.Type, want[i])
		}
	}
}

func TestBroadcast_FullBufferDropsEvent(t *testing.T) {
	h := NewHub()
	slow := addStubSession(h, 1)
	fast := addStubSession(h, 4)

	h.Broadcast(Event{Type: EventCrazyMode})
	h.Broadcast(Event{Type: EventCounterUpdate}) // slow session's buffer is full

	if got := drain(slow); len(got) != 1 || got[0].Type != EventCrazyMode {
		t.Errorf("slow session events = %v, want only the first", got)
	}
	if got := len(drain(fast)); got != 2 {
		t.Errorf("fast session received %d events, want 2", got)
	}
}

func TestRemove(t *testing.T) {
	h := NewHub()
	s := addStubSession(h, 4)
	addStubSession(h, 4)

	if got := h.Count(); got != 2 {
		t.Fatalf("Count = %d, want 2", got)
	}

	h.remove(s.ID)
	h.remove(s.ID) // repeated removal is a no-op

	if got := h.Count(); got != 1 {
		t.Errorf("Count after remove = %d, want 1", got)
	}

	h.Broadcast(Event{Type: EventNotification})
	if got := len(drain(s)); got != 0 {
		t.Errorf("removed session received %d events, want 0", got)
	}
}

// TestRegister_RoundTrip runs a real websocket connection through the hub:
// an inbound message reaches the handler, a broadcast reaches the wire,
// and closing the connection deregisters the session.
func TestRegister_RoundTrip(t *testing.T) {
	h := NewHub()
	upgrader := websocket.Upgrader{}

	inbound := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		h.Register(conn, func(sessionID string, raw []byte) {
			inbound <- sessionID + ":" + string(raw)
		})
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer client.Close()

	waitFor(t, func() bool { return h.Count() == 1 })

	if err := client.WriteMessage(websocket.TextMessage, []byte(`{"type":"click"}`)); err != nil {
		t.Fatalf("client write failed: %v", err)
	}
	select {
	case msg := <-inbound:
		if !strings.HasSuffix(msg, `:{"type":"click"}`) {
			t.Errorf("handler received %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never saw the inbound message")
	}

	h.Broadcast(Event{Type: EventNotification, Data: map[string]string{"text": "hi"}})

	var event Event
	if err := client.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if err := client.ReadJSON(&event); err != nil {
		t.Fatalf("client read failed: %v", err)
	}
	if event.Type != EventNotification {
		t.Errorf("event type = %s, want %s", event.Type, EventNotification)
	}

	client.Close()
	waitFor(t, func() bool { return h.Count() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
