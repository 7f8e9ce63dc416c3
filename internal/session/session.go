// Package session owns a single client WebSocket: it tags inbound
// frames with the session's (id, name, room) and forwards them to the
// Coordinator, and writes outbound Coordinator frames back to the
// client. A heartbeat loop runs independently of the Coordinator.
package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"vimeet/internal/coordinator"
	"vimeet/internal/protocol"
)

// HeartbeatInterval is how often the session checks liveness and, if
// healthy, sends an empty ping.
const HeartbeatInterval = 5 * time.Second

// ClientTimeout is how long a session tolerates silence (no inbound
// ping or pong) before terminating.
const ClientTimeout = 10 * time.Second

// writeWait bounds how long a single control-frame write may block.
const writeWait = 10 * time.Second

// Coordinator is the subset of *coordinator.Coordinator a session
// needs. Defined here so tests can substitute a fake without pulling in
// the real room/fan-out machinery.
type Coordinator interface {
	NextUserID() uint64
	Join(uid uint64, name, room string) *coordinator.Outbox
	Disconnect(uid uint64)
	Raise(room string, uid uint64, name, object string)
	Lower(room string, uid uint64, name, object string)
	Instant(room string, uid uint64, name string, object json.RawMessage)
	CreatePoll(room string, uid uint64, name, title string)
	AddPollOption(room string, uid uint64, name, pollTitle, optionTitle string)
	Vote(room string, uid uint64, name, pollTitle, optionTitle string)
	ClosePoll(room string, uid uint64, pollTitle string)
	Elevate(room string, requesterUID, targetUID uint64)
	Recede(room string, requesterUID, targetUID uint64)
}

// Session runs Connecting -> Live -> Terminating for one client. The
// zero value is not usable; construct with New.
type Session struct {
	ID   uint64
	Name string
	Room string

	coord   Coordinator
	traceID string

	hbMu   sync.Mutex
	hbLast time.Time
}

// New allocates the session's process-unique id up front, so the
// caller can log it even before the WebSocket upgrade completes.
func New(coord Coordinator, name, room string) *Session {
	return &Session{
		ID:      coord.NextUserID(),
		Name:    name,
		Room:    room,
		coord:   coord,
		traceID: uuid.NewString(),
	}
}

// Serve drives one WebSocket connection to completion: join, pump
// outbound frames, read inbound frames, and disconnect on any terminal
// condition. It blocks until the session terminates.
func (s *Session) Serve(conn *websocket.Conn) {
	ob := s.coord.Join(s.ID, s.Name, s.Room)

	defer func() {
		s.coord.Disconnect(s.ID)
		ob.Close()
		_ = conn.Close()
	}()

	s.touchHeartbeat()
	conn.SetPongHandler(func(string) error {
		s.touchHeartbeat()
		return nil
	})
	conn.SetPingHandler(func(appData string) error {
		s.touchHeartbeat()
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	done := make(chan struct{})
	var stopOnce sync.Once
	stop := func() { stopOnce.Do(func() { close(done) }) }
	defer stop()

	go s.writePump(conn, ob, done)
	go s.heartbeatLoop(conn, stop, done)

	s.readLoop(conn, stop)
}

// writePump is the sole writer of text frames to conn: it relays
// whatever the coordinator enqueued on ob until the session terminates
// or the outbox is closed.
func (s *Session) writePump(conn *websocket.Conn, ob *coordinator.Outbox, done <-chan struct{}) {
	for {
		select {
		case msg, ok := <-ob.Messages():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// heartbeatLoop runs every HeartbeatInterval; it either sends
// an empty ping or, if the peer has been silent past ClientTimeout,
// terminates the session.
func (s *Session) heartbeatLoop(conn *websocket.Conn, stop func(), done <-chan struct{}) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if time.Since(s.lastHeartbeat()) > ClientTimeout {
				log.Printf("session %s (uid=%d): heartbeat timeout, terminating", s.traceID, s.ID)
				_ = conn.Close()
				stop()
				return
			}
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				stop()
				return
			}
		}
	}
}

// readLoop reads inbound frames until the socket errors (close,
// protocol violation, or a forced close from the heartbeat loop).
// gorilla/websocket reassembles fragmented (continuation) frames
// transparently, so any disruption (including a broken continuation
// sequence) surfaces here as a plain ReadMessage error.
func (s *Session) readLoop(conn *websocket.Conn, stop func()) {
	defer stop()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.TextMessage:
			s.dispatch(data)
		case websocket.BinaryMessage:
			log.Printf("session %s (uid=%d): ignoring binary frame (%d bytes)", s.traceID, s.ID, len(data))
		}
	}
}

// dispatch classifies one inbound JSON frame and forwards it to the
// coordinator as a typed command. Malformed frames and unknown types
// are logged and dropped — never echoed back to the client.
func (s *Session) dispatch(data []byte) {
	in, err := protocol.Parse(data)
	if err != nil {
		log.Printf("session %s (uid=%d): dropping frame: %v", s.traceID, s.ID, err)
		return
	}

	switch in.Kind {
	case protocol.KindRaise:
		s.coord.Raise(s.Room, s.ID, s.Name, in.RaiseObject)
	case protocol.KindLower:
		s.coord.Lower(s.Room, s.ID, s.Name, in.LowerObject)
	case protocol.KindInstant:
		s.coord.Instant(s.Room, s.ID, s.Name, in.InstantObject)
	case protocol.KindPoll:
		s.coord.CreatePoll(s.Room, s.ID, s.Name, in.PollTitle)
	case protocol.KindPollOption:
		s.coord.AddPollOption(s.Room, s.ID, s.Name, in.PollTitle, in.OptionTitle)
	case protocol.KindVote:
		s.coord.Vote(s.Room, s.ID, s.Name, in.PollTitle, in.OptionTitle)
	case protocol.KindPollClose:
		s.coord.ClosePoll(s.Room, s.ID, in.PollTitle)
	case protocol.KindElevate:
		s.coord.Elevate(s.Room, s.ID, in.TargetUserID)
	case protocol.KindRecede:
		s.coord.Recede(s.Room, s.ID, in.TargetUserID)
	}
}

func (s *Session) touchHeartbeat() {
	s.hbMu.Lock()
	s.hbLast = time.Now()
	s.hbMu.Unlock()
}

func (s *Session) lastHeartbeat() time.Time {
	s.hbMu.Lock()
	defer s.hbMu.Unlock()
	return s.hbLast
}
