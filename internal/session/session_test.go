package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"vimeet/internal/coordinator"
)

// fakeCoordinator records every call it receives so tests can assert
// dispatch routes frames to the right method with the right arguments.
type fakeCoordinator struct {
	mu    sync.Mutex
	calls []string
	ob    *coordinator.Outbox
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{}
}

func (f *fakeCoordinator) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCoordinator) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeCoordinator) NextUserID() uint64 { return 1 }

func (f *fakeCoordinator) Join(uid uint64, name, room string) *coordinator.Outbox {
	f.record("join")
	return f.ob
}
func (f *fakeCoordinator) Disconnect(uid uint64) { f.record("disconnect") }
func (f *fakeCoordinator) Raise(room string, uid uint64, name, object string) {
	f.record("raise:" + object)
}
func (f *fakeCoordinator) Lower(room string, uid uint64, name, object string) {
	f.record("lower:" + object)
}
func (f *fakeCoordinator) Instant(room string, uid uint64, name string, object json.RawMessage) {
	f.record("instant")
}
func (f *fakeCoordinator) CreatePoll(room string, uid uint64, name, title string) {
	f.record("poll:" + title)
}
func (f *fakeCoordinator) AddPollOption(room string, uid uint64, name, pollTitle, optionTitle string) {
	f.record("polloption:" + pollTitle + ":" + optionTitle)
}
func (f *fakeCoordinator) Vote(room string, uid uint64, name, pollTitle, optionTitle string) {
	f.record("vote:" + pollTitle + ":" + optionTitle)
}
func (f *fakeCoordinator) ClosePoll(room string, uid uint64, pollTitle string) {
	f.record("closepoll:" + pollTitle)
}
func (f *fakeCoordinator) Elevate(room string, requesterUID, targetUID uint64) {
	f.record("elevate")
}
func (f *fakeCoordinator) Recede(room string, requesterUID, targetUID uint64) {
	f.record("recede")
}

func newRealOutbox() *coordinator.Outbox {
	c := coordinator.New()
	return c.Join(c.NextUserID(), "probe", "scratch")
}

func TestSession_DispatchRoutesRaiseToCoordinator(t *testing.T) {
	fake := newFakeCoordinator()
	fake.ob = newRealOutbox()
	s := New(fake, "alice", "room1")

	s.dispatch([]byte(`{"type":"raise","raiseobject":"topic"}`))

	calls := fake.Calls()
	if len(calls) != 1 || calls[0] != "raise:topic" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestSession_DispatchDropsMalformedFrameSilently(t *testing.T) {
	fake := newFakeCoordinator()
	fake.ob = newRealOutbox()
	s := New(fake, "alice", "room1")

	s.dispatch([]byte(`not json`))

	if calls := fake.Calls(); len(calls) != 0 {
		t.Fatalf("expected no coordinator calls for a malformed frame, got %v", calls)
	}
}

func TestSession_DispatchRoutesElevateWithParsedTarget(t *testing.T) {
	fake := newFakeCoordinator()
	fake.ob = newRealOutbox()
	s := New(fake, "alice", "room1")

	s.dispatch([]byte(`{"type":"elevate","object":"7"}`))

	calls := fake.Calls()
	if len(calls) != 1 || calls[0] != "elevate" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

// TestSession_ServeEndToEndOverRealSocket drives Serve over an actual
// WebSocket connection, exercising join, one inbound raise frame, and a
// client-initiated close.
func TestSession_ServeEndToEndOverRealSocket(t *testing.T) {
	fake := newFakeCoordinator()
	fake.ob = newRealOutbox()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Fatalf("upgrade failed: %v", err)
		}
		s := New(fake, "alice", "room1")
		s.Serve(conn)
	}))
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"raise","raiseobject":"topic"}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(fake.Calls()) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	calls := fake.Calls()
	if len(calls) < 2 || calls[0] != "join" || calls[1] != "raise:topic" {
		t.Fatalf("unexpected calls: %v", calls)
	}

	conn.Close()
}
