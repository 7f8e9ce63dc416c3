// Package room holds the per-room state machine: membership, raised
// flags, and polls. It has no knowledge of sessions, sockets, or the
// wire protocol — the coordinator package drives it and turns its state
// into outbound messages.
package room

import "sort"

// User is a room member. Elevated users may create/close polls, add
// options, and elevate or recede other members.
type User struct {
	Name     string
	Elevated bool
}

// Raised is a persistent per-(object, owner) flag. Equality is
// intentionally (Object, OwnerID) only — OwnerName does not participate,
// so renaming a user never changes raise identity.
type Raised struct {
	Object    string
	OwnerID   uint64
	OwnerName string
}

// PollOption is a named choice within a Poll.
type PollOption struct {
	Title     string
	OwnerID   uint64
	OwnerName string
}

// Poll is a named ballot. Votes maps user id to the title of the option
// they picked; a user has at most one entry. Closed polls reject further
// option/vote/close operations but keep their votes.
type Poll struct {
	Title     string
	OwnerID   uint64
	OwnerName string
	Options   []PollOption
	Votes     map[uint64]string
	Closed    bool
}

// OptionExists reports whether an option with this title already exists.
func (p *Poll) OptionExists(title string) bool {
	for _, o := range p.Options {
		if o.Title == title {
			return true
		}
	}
	return false
}

// HasOption reports whether title names one of the poll's options.
func (p *Poll) HasOption(title string) bool {
	return p.OptionExists(title)
}

// AddOption appends a new option in arrival order.
func (p *Poll) AddOption(opt PollOption) {
	p.Options = append(p.Options, opt)
}

// Vote records uid's vote for optionTitle, overwriting any previous
// choice. It returns the previous option title and whether one existed.
func (p *Poll) Vote(uid uint64, optionTitle string) (previous string, hadPrevious bool) {
	previous, hadPrevious = p.Votes[uid]
	p.Votes[uid] = optionTitle
	return previous, hadPrevious
}

// RemoveVote deletes uid's vote, if any, and reports what it was.
func (p *Poll) RemoveVote(uid uint64) (previous string, hadVote bool) {
	previous, hadVote = p.Votes[uid]
	if hadVote {
		delete(p.Votes, uid)
	}
	return previous, hadVote
}

// Vote pairs a voter with their chosen option title.
type Vote struct {
	UserID      uint64
	OptionTitle string
}

// VotesSorted returns the poll's votes ordered by user id, giving
// callers a deterministic iteration order over an otherwise unordered
// map (join resync, elevate/recede replay).
func (p *Poll) VotesSorted() []Vote {
	out := make([]Vote, 0, len(p.Votes))
	for uid, title := range p.Votes {
		out = append(out, Vote{UserID: uid, OptionTitle: title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Room is created lazily on the first Join that names it, and is never
// destroyed for the lifetime of the process, even once empty.
type Room struct {
	Raised    []Raised
	Polls     []*Poll
	Connected map[uint64]User
}

// New returns an empty room.
func New() *Room {
	return &Room{Connected: make(map[uint64]User)}
}

// IsEmpty reports whether the room currently has no connected users.
func (r *Room) IsEmpty() bool {
	return len(r.Connected) == 0
}

// IsElevated reports whether uid is a connected, elevated user.
func (r *Room) IsElevated(uid uint64) bool {
	u, ok := r.Connected[uid]
	return ok && u.Elevated
}

// SetElevated updates uid's elevated flag. No-op if uid is not connected.
func (r *Room) SetElevated(uid uint64, elevated bool) {
	u, ok := r.Connected[uid]
	if !ok {
		return
	}
	u.Elevated = elevated
	r.Connected[uid] = u
}

// RemoveUser purges every Raised owned by uid. It does not touch
// Connected — callers remove membership separately, matching the order
// the disconnect handler needs.
func (r *Room) RemoveUser(uid uint64) {
	kept := r.Raised[:0]
	for _, raised := range r.Raised {
		if raised.OwnerID != uid {
			kept = append(kept, raised)
		}
	}
	r.Raised = kept
}

// HasRaised reports whether (object, ownerID) is already raised.
func (r *Room) HasRaised(object string, ownerID uint64) bool {
	for _, raised := range r.Raised {
		if raised.Object == object && raised.OwnerID == ownerID {
			return true
		}
	}
	return false
}

// AddRaised appends a new raise in arrival order.
func (r *Room) AddRaised(raised Raised) {
	r.Raised = append(r.Raised, raised)
}

// RemoveRaised deletes the (object, ownerID) raise, if present.
func (r *Room) RemoveRaised(object string, ownerID uint64) bool {
	for i, raised := range r.Raised {
		if raised.Object == object && raised.OwnerID == ownerID {
			r.Raised = append(r.Raised[:i], r.Raised[i+1:]...)
			return true
		}
	}
	return false
}

// FindPoll returns the poll with this title, if any.
func (r *Room) FindPoll(title string) (*Poll, bool) {
	for _, p := range r.Polls {
		if p.Title == title {
			return p, true
		}
	}
	return nil, false
}

// PollExists reports whether title names an existing poll.
func (r *Room) PollExists(title string) bool {
	_, ok := r.FindPoll(title)
	return ok
}

// AddPoll appends a new poll in arrival order.
func (r *Room) AddPoll(p *Poll) {
	r.Polls = append(r.Polls, p)
}

// OpenPolls returns every poll that has not been closed, in insertion
// order. Used for the join resync and for disconnect vote cleanup.
func (r *Room) OpenPolls() []*Poll {
	open := make([]*Poll, 0, len(r.Polls))
	for _, p := range r.Polls {
		if !p.Closed {
			open = append(open, p)
		}
	}
	return open
}
