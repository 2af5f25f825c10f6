package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type ticketUpdate struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

func decodeFrame(t *testing.T, raw []byte) (string, ticketUpdate) {
	t.Helper()
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	var data ticketUpdate
	if err := json.Unmarshal(frame.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return frame.Event, data
}

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case frame := <-client.Frames():
		return frame
	case <-time.After(time.Second):
		t.Fatalf("no frame delivered to %s", client.UserID())
		return nil
	}
}

func assertEmpty(t *testing.T, client *Client) {
	t.Helper()
	select {
	case frame := <-client.Frames():
		t.Fatalf("unexpected frame for %s: %s", client.UserID(), frame)
	default:
	}
}

func TestBroadcastReachesTicketAndOwnerTopics(t *testing.T) {
	hub := NewHub(nil, Options{})
	owner := hub.Register("u1")
	ownerSecondTab := hub.Register("u1")
	stranger := hub.Register("u2")

	hub.Join(ownerSecondTab, TicketTopic("t1"))
	hub.BroadcastTicketEvent("t1", "u1", ticketUpdate{Action: "created", ID: "t1"})

	for _, client := range []*Client{owner, ownerSecondTab} {
		event, data := decodeFrame(t, receive(t, client))
		if event != EventTicketUpdate || data.Action != "created" || data.ID != "t1" {
			t.Errorf("frame = %s %+v, want ticketUpdate created t1", event, data)
		}
	}
	assertEmpty(t, ownerSecondTab)
	assertEmpty(t, stranger)
}

func TestNotifyUserTargetsPrivateTopic(t *testing.T) {
	hub := NewHub(nil, Options{})
	a := hub.Register("a")
	b := hub.Register("b")

	hub.NotifyUser("a", map[string]string{"message": "hello"})

	var frame Frame
	if err := json.Unmarshal(receive(t, a), &frame); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Event != EventNotification {
		t.Errorf("event = %q, want notification", frame.Event)
	}
	assertEmpty(t, b)
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub(nil, Options{})
	watcher := hub.Register("u2")
	hub.Join(watcher, TicketTopic("t1"))
	hub.Leave(watcher, TicketTopic("t1"))

	hub.BroadcastTicketEvent("t1", "", ticketUpdate{Action: "updated"})
	assertEmpty(t, watcher)
	if size := hub.TopicSize(TicketTopic("t1")); size != 0 {
		t.Errorf("TopicSize() = %d, want empty topics to be dropped", size)
	}
}

func TestOwnerLeaveStopsTicketUpdates(t *testing.T) {
	hub := NewHub(nil, Options{})
	owner := hub.Register("u1")
	hub.Join(owner, TicketTopic("t1"))

	hub.BroadcastTicketEvent("t1", "", ticketUpdate{Action: "updated", ID: "t1"})
	if _, data := decodeFrame(t, receive(t, owner)); data.Action != "updated" {
		t.Errorf("action = %q, want updated while joined", data.Action)
	}

	hub.Leave(owner, TicketTopic("t1"))
	hub.BroadcastTicketEvent("t1", "", ticketUpdate{Action: "updated", ID: "t1"})
	hub.BroadcastTicketEvent("t1", "", ticketUpdate{Action: "deleted", ID: "t1"})
	assertEmpty(t, owner)
}

func TestFullQueueDropsFrames(t *testing.T) {
	hub := NewHub(nil, Options{SendBuffer: 1})
	slow := hub.Register("u1")

	hub.NotifyUser("u1", "first")
	hub.NotifyUser("u1", "second")

	if got := hub.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
	receive(t, slow)
	assertEmpty(t, slow)
}

func TestNilHubIsNoop(t *testing.T) {
	var hub *Hub
	hub.BroadcastTicketEvent("t1", "u1", "x")
	hub.NotifyUser("u1", "x")
	hub.Close()
	if client := hub.Register("u1"); client != nil {
		t.Errorf("nil hub registered a client")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("nil hub reports clients")
	}
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, Options{})
	client := hub.Register("u1")
	hub.Close()

	if _, ok := <-client.Frames(); ok {
		t.Errorf("queue still open after Close")
	}
	if hub.Register("u2") != nil {
		t.Errorf("Register() after Close returned a client")
	}
	hub.Unregister(client)
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
	hub := NewHub(nil, Options{SendBuffer: 4})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := hub.Register("u1")
			for j := 0; j < 50; j++ {
				hub.Join(client, TicketTopic("t1"))
				hub.BroadcastTicketEvent("t1", "u1", j)
				hub.Leave(client, TicketTopic("t1"))
			}
			hub.Unregister(client)
		}()
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}
