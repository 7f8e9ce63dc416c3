package protocol

import "encoding/json"

// UserSnapshot is the {name, elevated} shape nested under "all".joined.
type UserSnapshot struct {
	Name     string `json:"name"`
	Elevated bool   `json:"elevated"`
}

// RaisedSnapshot is one element of "all".raised.
type RaisedSnapshot struct {
	Object    string `json:"object"`
	OwnerID   uint64 `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

type joinedMsg struct {
	Type   string         `json:"type"`
	Object joinedUserInfo `json:"object"`
}

type joinedUserInfo struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Elevated bool   `json:"elevated"`
}

// EncodeJoined builds the "joined" message sent to every other room
// member when a new user arrives.
func EncodeJoined(id uint64, name string, elevated bool) []byte {
	return mustMarshal(joinedMsg{
		Type:   "joined",
		Object: joinedUserInfo{ID: id, Name: name, Elevated: elevated},
	})
}

type allMsg struct {
	Type   string                    `json:"type"`
	Raised []RaisedSnapshot          `json:"raised"`
	Joined map[uint64]UserSnapshot   `json:"joined"`
}

// EncodeAll builds the full-room snapshot sent to a user on join and to
// every member after a disconnect.
func EncodeAll(raised []RaisedSnapshot, joined map[uint64]UserSnapshot) []byte {
	if raised == nil {
		raised = []RaisedSnapshot{}
	}
	if joined == nil {
		joined = map[uint64]UserSnapshot{}
	}
	return mustMarshal(allMsg{Type: "all", Raised: raised, Joined: joined})
}

type selfMsg struct {
	Type     string `json:"type"`
	Object   uint64 `json:"object"`
	Elevated bool   `json:"elevated"`
}

// EncodeSelf builds the message a freshly joined user receives telling
// them their own id and privilege.
func EncodeSelf(uid uint64, elevated bool) []byte {
	return mustMarshal(selfMsg{Type: "self", Object: uid, Elevated: elevated})
}

type ownedObjectMsg struct {
	Type      string          `json:"type"`
	OwnerID   uint64          `json:"owner_id"`
	OwnerName string          `json:"owner_name"`
	Object    json.RawMessage `json:"object"`
	Elevated  bool            `json:"elevated"`
}

// EncodeRaised builds the "raised" broadcast.
func EncodeRaised(ownerID uint64, ownerName, object string, elevated bool) []byte {
	return mustMarshal(ownedObjectMsg{Type: "raised", OwnerID: ownerID, OwnerName: ownerName, Object: rawString(object), Elevated: elevated})
}

// EncodeLower builds the "lower" broadcast.
func EncodeLower(ownerID uint64, ownerName, object string, elevated bool) []byte {
	return mustMarshal(ownedObjectMsg{Type: "lower", OwnerID: ownerID, OwnerName: ownerName, Object: rawString(object), Elevated: elevated})
}

// EncodeInstant builds the "instant" broadcast. object is forwarded
// verbatim from the inbound frame's instantobject field.
func EncodeInstant(ownerID uint64, ownerName string, object json.RawMessage, elevated bool) []byte {
	return mustMarshal(ownedObjectMsg{Type: "instant", OwnerID: ownerID, OwnerName: ownerName, Object: object, Elevated: elevated})
}

type permissionChangeMsg struct {
	Type     string `json:"type"`
	Object   uint64 `json:"object"`
	Elevated bool   `json:"elevated"`
}

// EncodeElevated builds the "elevated" broadcast.
func EncodeElevated(uid uint64) []byte {
	return mustMarshal(permissionChangeMsg{Type: "elevated", Object: uid, Elevated: true})
}

// EncodeReceded builds the "receded" broadcast.
func EncodeReceded(uid uint64) []byte {
	return mustMarshal(permissionChangeMsg{Type: "receded", Object: uid, Elevated: false})
}

type errorMsg struct {
	Type        string `json:"type"`
	Object      string `json:"object"`
	Description string `json:"description"`
}

// EncodeError builds an "error" message local to the requesting session.
func EncodeError(code, description string) []byte {
	return mustMarshal(errorMsg{Type: "error", Object: code, Description: description})
}

type pollMsg struct {
	Type   string `json:"type"`
	Object string `json:"object"`
}

// EncodePoll builds the "poll" broadcast announcing a new poll title.
func EncodePoll(title string) []byte {
	return mustMarshal(pollMsg{Type: "poll", Object: title})
}

// EncodeClosePoll builds the "closepoll" broadcast.
func EncodeClosePoll(title string) []byte {
	return mustMarshal(pollMsg{Type: "closepoll", Object: title})
}

type pollOptionMsg struct {
	Type             string `json:"type"`
	PollObject       string `json:"pollobject"`
	PollOptionObject string `json:"polloptionobject"`
}

// EncodePollOption builds the "polloption" broadcast.
func EncodePollOption(pollTitle, optionTitle string) []byte {
	return mustMarshal(pollOptionMsg{Type: "polloption", PollObject: pollTitle, PollOptionObject: optionTitle})
}

type voteMsg struct {
	Type             string `json:"type"`
	PollObject       string `json:"pollobject"`
	PollOptionObject string `json:"polloptionobject"`
	Username         string `json:"username"`
	UserID           uint64 `json:"userid"`
}

// EncodeVote builds the "vote" message. Callers pass zeroed username/
// userid when redacting identity for a non-elevated recipient.
func EncodeVote(pollTitle, optionTitle, username string, userID uint64) []byte {
	return mustMarshal(voteMsg{Type: "vote", PollObject: pollTitle, PollOptionObject: optionTitle, Username: username, UserID: userID})
}

type deleteVoteMsg struct {
	Type             string `json:"type"`
	PollObject       string `json:"pollobject"`
	PollOptionObject string `json:"polloptionobject"`
	UserID           uint64 `json:"userid"`
}

// EncodeDeleteVote builds the "deletevote" message. Callers pass userid
// 0 when redacting identity for a non-elevated recipient.
func EncodeDeleteVote(pollTitle, optionTitle string, userID uint64) []byte {
	return mustMarshal(deleteVoteMsg{Type: "deletevote", PollObject: pollTitle, PollOptionObject: optionTitle, UserID: userID})
}

func rawString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

// mustMarshal panics on failure, which cannot happen for the fixed,
// fully-typed shapes above; it keeps every Encode* function a one-liner.
func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
