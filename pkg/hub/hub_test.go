package hub

import (
	"testing"
)

// stubClient builds a registered client with the given send capacity,
// bypassing the websocket layer.
func stubClient(h *Hub, capacity int) *Client {
	c := &Client{
		ID:   "test",
		hub:  h,
		send: make(chan []byte, capacity),
	}
	h.clients[c] = true
	return c
}

func TestSweep_DeliversToAllHealthyClients(t *testing.T) {
	h := New("test")
	a := stubClient(h, 4)
	b := stubClient(h, 4)

	h.sweep([]byte(`{"speed":0}`))

	for name, c := range map[string]*Client{"a": a, "b": b} {
		select {
		case got := <-c.send:
			if string(got) != `{"speed":0}` {
				t.Errorf("client %s: got %q", name, got)
			}
		default:
			t.Errorf("client %s received nothing", name)
		}
	}
}

func TestSweep_PrunesFailedClientAfterSweep(t *testing.T) {
	h := New("test")
	healthy := stubClient(h, 4)
	// Zero-capacity buffer: every send fails immediately.
	failed := stubClient(h, 0)

	h.sweep([]byte(`snapshot`))

	if h.clients[failed] {
		t.Error("failed client still registered after sweep")
	}
	if !h.clients[healthy] {
		t.Error("healthy client was pruned")
	}
	// The healthy client still got this sweep's snapshot.
	select {
	case got := <-healthy.send:
		if string(got) != "snapshot" {
			t.Errorf("healthy client got %q", got)
		}
	default:
		t.Error("healthy client missed the snapshot that pruned its peer")
	}
	// The pruned client's channel was closed.
	if _, open := <-failed.send; open {
		t.Error("pruned client's send channel left open")
	}
}

func TestSweep_CachesSnapshotForInitialSync(t *testing.T) {
	h := New("test")
	h.sweep([]byte(`latest`))

	if string(h.last) != "latest" {
		t.Errorf("cached snapshot: got %q, want %q", h.last, "latest")
	}
}

func TestSyncPayload_PrefersLiveSnapshot(t *testing.T) {
	h := New("test")
	h.SetSnapshot(func() any { return map[string]int{"speed": 7} })
	h.sweep([]byte(`stale`))

	got := h.syncPayload()
	if string(got) != `{"speed":7}` {
		t.Errorf("initial sync payload: got %q, want live snapshot", got)
	}
}

func TestSyncPayload_FreshHubUsesLiveSnapshot(t *testing.T) {
	// No broadcast has happened yet; an observer connecting right after
	// startup must still receive the current state.
	h := New("test")
	h.SetSnapshot(func() any { return map[string]int{"speed": 0} })

	got := h.syncPayload()
	if string(got) != `{"speed":0}` {
		t.Errorf("initial sync payload: got %q, want startup snapshot", got)
	}
}

func TestSyncPayload_FallsBackToLastBroadcast(t *testing.T) {
	h := New("test")
	if h.syncPayload() != nil {
		t.Error("fresh hub with no source should have nothing to sync")
	}
	h.sweep([]byte(`latest`))
	if got := h.syncPayload(); string(got) != "latest" {
		t.Errorf("initial sync payload: got %q, want cached broadcast", got)
	}
}

func TestRegister_PushesSnapshotToNewObserver(t *testing.T) {
	h := New("test")
	h.SetSnapshot(func() any { return map[string]int{"speed": 3} })
	go h.Run()

	c := &Client{ID: "test", hub: h, send: make(chan []byte, 1)}
	h.register <- c

	got := <-c.send
	if string(got) != `{"speed":3}` {
		t.Errorf("new observer got %q, want current state", got)
	}
}

func TestBroadcastJSON_EncodesAndQueues(t *testing.T) {
	h := New("test")
	if err := h.BroadcastJSON(map[string]int{"speed": 42}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}

	select {
	case data := <-h.broadcast:
		if string(data) != `{"speed":42}` {
			t.Errorf("queued payload: got %q", data)
		}
	default:
		t.Fatal("nothing queued")
	}
}

func TestBroadcastJSON_RejectsUnencodable(t *testing.T) {
	h := New("test")
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Fatal("expected marshal error")
	}
}

func TestClientCount(t *testing.T) {
	h := New("test")
	if h.ClientCount() != 0 {
		t.Fatalf("empty hub count: %d", h.ClientCount())
	}
	stubClient(h, 1)
	stubClient(h, 1)
	if h.ClientCount() != 2 {
		t.Fatalf("count: got %d, want 2", h.ClientCount())
	}
}
