// Package coordinator is the process-wide serialisation point: it owns
// the session-id -> outbox mapping and the room-name -> Room mapping,
// applies the room state machine, and fans messages out to the right
// set of sessions. Every exported method runs under a single mutex, so
// one command finishes its mutations and emissions before the next
// command starts.
package coordinator

import (
	"encoding/json"
	"sync"

	"vimeet/internal/protocol"
	"vimeet/internal/room"
)

// Coordinator is a process singleton in production; tests construct
// their own for isolation.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[uint64]*Outbox
	rooms    map[string]*room.Room
	nextID   uint64
}

// New returns an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{
		sessions: make(map[uint64]*Outbox),
		rooms:    make(map[string]*room.Room),
	}
}

// NextUserID allocates a process-unique, monotonically increasing id
// starting at 1. Id 0 is reserved as the vote-redaction sentinel and
// must never be issued to a real session.
func (c *Coordinator) NextUserID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

// Join registers uid's outbox, creates roomName if it doesn't exist yet,
// admits uid as the room's first (elevated) or a later (non-elevated)
// member, and runs the full join resync: joined to peers, the room
// snapshot and self status to the joiner, then one poll/polloption/vote
// triple per open poll.
func (c *Coordinator) Join(uid uint64, name, roomName string) *Outbox {
	c.mu.Lock()
	defer c.mu.Unlock()

	ob := newOutbox()
	c.sessions[uid] = ob

	r := c.getOrCreateRoom(roomName)
	elevated := r.IsEmpty()
	r.Connected[uid] = room.User{Name: name, Elevated: elevated}

	c.emit(r, fanSkip(uid), protocol.EncodeJoined(uid, name, elevated))
	c.emit(r, fanOnly(uid), protocol.EncodeAll(raisedSnapshot(r), joinedSnapshot(r)))
	c.emit(r, fanOnly(uid), protocol.EncodeSelf(uid, elevated))

	for _, p := range r.OpenPolls() {
		c.emit(r, fanOnly(uid), protocol.EncodePoll(p.Title))
		for _, opt := range p.Options {
			c.emit(r, fanOnly(uid), protocol.EncodePollOption(p.Title, opt.Title))
		}
		for _, v := range p.VotesSorted() {
			c.emit(r, fanOnly(uid), protocol.EncodeVote(p.Title, v.OptionTitle, "", 0))
		}
	}

	return ob
}

// Disconnect removes uid from the coordinator and, if it was a member
// of some room, purges its raises and open-poll votes and broadcasts
// the resulting state.
func (c *Coordinator) Disconnect(uid uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[uid]; !ok {
		return
	}
	delete(c.sessions, uid)

	r, ok := c.findRoomByUser(uid)
	if !ok {
		return
	}
	delete(r.Connected, uid)
	r.RemoveUser(uid)

	c.emit(r, fanAll, protocol.EncodeAll(raisedSnapshot(r), joinedSnapshot(r)))

	for _, p := range r.OpenPolls() {
		optionTitle, had := p.RemoveVote(uid)
		if !had {
			continue
		}
		c.emit(r, fanElevated, protocol.EncodeDeleteVote(p.Title, optionTitle, uid))
		c.emit(r, fanNotElevated, protocol.EncodeDeleteVote(p.Title, optionTitle, 0))
	}
}

// Raise appends a new persistent flag, or rejects with already_raised
// if (object, uid) is already present.
func (c *Coordinator) Raise(roomName string, uid uint64, name, object string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	if r.HasRaised(object, uid) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("already_raised", "this object is already raised by you"))
		return
	}

	elevated := r.IsElevated(uid)
	c.emit(r, fanAll, protocol.EncodeRaised(uid, name, object, elevated))
	r.AddRaised(room.Raised{Object: object, OwnerID: uid, OwnerName: name})
}

// Lower removes a previously raised flag, or rejects with not_raised if
// no matching (object, uid) exists. A user can only lower their own
// raise, since identity is (object, owner_id).
func (c *Coordinator) Lower(roomName string, uid uint64, name, object string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	if !r.HasRaised(object, uid) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("not_raised", "no matching raise to lower"))
		return
	}

	r.RemoveRaised(object, uid)
	elevated := r.IsElevated(uid)
	c.emit(r, fanAll, protocol.EncodeLower(uid, name, object, elevated))
}

// Instant broadcasts an ephemeral signal. No permission check, no state
// mutation.
func (c *Coordinator) Instant(roomName string, uid uint64, name string, object json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	elevated := r.IsElevated(uid)
	c.emit(r, fanAll, protocol.EncodeInstant(uid, name, object, elevated))
}

// CreatePoll creates a new, empty, open poll, requiring the sender be
// elevated and the title be unique within the room.
func (c *Coordinator) CreatePoll(roomName string, uid uint64, name, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	if !r.IsElevated(uid) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("no_permission", "elevated privilege required to create a poll"))
		return
	}
	if r.PollExists(title) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_already_exists", "a poll with this title already exists"))
		return
	}

	r.AddPoll(&room.Poll{Title: title, OwnerID: uid, OwnerName: name, Votes: make(map[uint64]string)})
	c.emit(r, fanAll, protocol.EncodePoll(title))
}

// AddPollOption appends an option to an open poll, requiring the
// sender be elevated, the poll exist and be open, and the option title
// be unique within the poll.
func (c *Coordinator) AddPollOption(roomName string, uid uint64, name, pollTitle, optionTitle string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	if !r.IsElevated(uid) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("no_permission", "elevated privilege required to add a poll option"))
		return
	}
	p, ok := r.FindPoll(pollTitle)
	if !ok {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_does_not_exist", "no such poll"))
		return
	}
	if p.Closed {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_closed", "poll is already closed"))
		return
	}
	if p.OptionExists(optionTitle) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_option_already_exists", "an option with this title already exists"))
		return
	}

	p.AddOption(room.PollOption{Title: optionTitle, OwnerID: uid, OwnerName: name})
	c.emit(r, fanAll, protocol.EncodePollOption(pollTitle, optionTitle))
}

// Vote records uid's vote, overwriting any previous choice on the same
// poll, requiring the poll exist, be open, and the option exist. No
// elevation is required to vote.
func (c *Coordinator) Vote(roomName string, uid uint64, name, pollTitle, optionTitle string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	p, ok := r.FindPoll(pollTitle)
	if !ok {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_does_not_exist", "no such poll"))
		return
	}
	if p.Closed {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_closed", "poll is already closed"))
		return
	}
	if !p.HasOption(optionTitle) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_option_does_not_exist", "no such option"))
		return
	}

	previousOption, had := p.Vote(uid, optionTitle)
	if had {
		c.emit(r, fanElevated, protocol.EncodeDeleteVote(pollTitle, previousOption, uid))
		c.emit(r, fanNotElevated, protocol.EncodeDeleteVote(pollTitle, previousOption, 0))
	}
	c.emit(r, fanElevated, protocol.EncodeVote(pollTitle, optionTitle, name, uid))
	c.emit(r, fanNotElevated, protocol.EncodeVote(pollTitle, optionTitle, "", 0))
}

// ClosePoll freezes a poll against further option/vote/close mutation,
// requiring the sender be elevated and the poll exist and not already
// be closed.
func (c *Coordinator) ClosePoll(roomName string, uid uint64, pollTitle string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	if !r.IsElevated(uid) {
		c.emit(r, fanOnly(uid), protocol.EncodeError("no_permission", "elevated privilege required to close a poll"))
		return
	}
	p, ok := r.FindPoll(pollTitle)
	if !ok {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_does_not_exist", "no such poll"))
		return
	}
	if p.Closed {
		c.emit(r, fanOnly(uid), protocol.EncodeError("poll_closed", "poll is already closed"))
		return
	}

	p.Closed = true
	c.emit(r, fanAll, protocol.EncodeClosePoll(pollTitle))
}

// Elevate promotes targetUID to elevated, if requesterUID is itself
// elevated and targetUID is a member not already elevated. On failure,
// nothing happens — no error is sent.
func (c *Coordinator) Elevate(roomName string, requesterUID, targetUID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPrivilege(roomName, requesterUID, targetUID, true)
}

// Recede demotes targetUID from elevated, under the same conditions as
// Elevate.
func (c *Coordinator) Recede(roomName string, requesterUID, targetUID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPrivilege(roomName, requesterUID, targetUID, false)
}

func (c *Coordinator) setPrivilege(roomName string, requesterUID, targetUID uint64, newElevated bool) {
	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	if !r.IsElevated(requesterUID) {
		return
	}
	target, ok := r.Connected[targetUID]
	if !ok {
		return
	}
	if target.Elevated == newElevated {
		return
	}

	r.SetElevated(targetUID, newElevated)

	// Replay every open poll's votes to the target alone, in its new
	// role, before the room learns of the privilege change, so the
	// re-roled user's vote view is never stale.
	oldElevated := !newElevated
	for _, p := range r.OpenPolls() {
		for _, v := range p.VotesSorted() {
			voterName := r.Connected[v.UserID].Name
			oldUsername, oldUserID := voteIdentity(oldElevated, v.UserID, voterName)
			newUsername, newUserID := voteIdentity(newElevated, v.UserID, voterName)
			c.emit(r, fanOnly(targetUID), protocol.EncodeDeleteVote(p.Title, v.OptionTitle, oldUserID))
			c.emit(r, fanOnly(targetUID), protocol.EncodeVote(p.Title, v.OptionTitle, newUsername, newUserID))
		}
	}

	if newElevated {
		c.emit(r, fanAll, protocol.EncodeElevated(targetUID))
	} else {
		c.emit(r, fanAll, protocol.EncodeReceded(targetUID))
	}
}

// voteIdentity applies the redaction rule shared by every vote-facing
// message: elevated recipients see the real voter, everyone else sees
// the zero sentinel.
func voteIdentity(elevated bool, uid uint64, name string) (username string, userID uint64) {
	if !elevated {
		return "", 0
	}
	return name, uid
}

func (c *Coordinator) getOrCreateRoom(name string) *room.Room {
	r, ok := c.rooms[name]
	if !ok {
		r = room.New()
		c.rooms[name] = r
	}
	return r
}

func (c *Coordinator) findRoomByUser(uid uint64) (*room.Room, bool) {
	for _, r := range c.rooms {
		if _, ok := r.Connected[uid]; ok {
			return r, true
		}
	}
	return nil, false
}

func raisedSnapshot(r *room.Room) []protocol.RaisedSnapshot {
	out := make([]protocol.RaisedSnapshot, 0, len(r.Raised))
	for _, raised := range r.Raised {
		out = append(out, protocol.RaisedSnapshot{Object: raised.Object, OwnerID: raised.OwnerID, OwnerName: raised.OwnerName})
	}
	return out
}

func joinedSnapshot(r *room.Room) map[uint64]protocol.UserSnapshot {
	out := make(map[uint64]protocol.UserSnapshot, len(r.Connected))
	for uid, u := range r.Connected {
		out[uid] = protocol.UserSnapshot{Name: u.Name, Elevated: u.Elevated}
	}
	return out
}
