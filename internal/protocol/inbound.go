// Package protocol classifies inbound JSON frames into typed commands
// and encodes the coordinator's outbound messages back to wire JSON.
// Neither direction ever touches room or session state directly.
package protocol

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Kind identifies which of the nine inbound commands a frame carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindRaise
	KindLower
	KindInstant
	KindPoll
	KindPollOption
	KindVote
	KindPollClose
	KindElevate
	KindRecede
)

// Inbound is the parsed, typed form of one inbound JSON frame. Only the
// fields relevant to Kind are populated.
type Inbound struct {
	Kind          Kind
	RaiseObject   string
	LowerObject   string
	InstantObject json.RawMessage
	PollTitle     string
	OptionTitle   string
	TargetUserID  uint64
}

// ErrUnrecognized covers both malformed JSON and a recognized-but-
// incomplete frame (missing required field, non-numeric elevate/recede
// target). Callers drop the frame silently.
var ErrUnrecognized = errors.New("protocol: unrecognized inbound frame")

// wireFrame decodes required string fields as pointers so a present-but-
// empty value ("") can be told apart from a field that was never sent —
// only the latter is a missing-field rejection.
type wireFrame struct {
	Type             string          `json:"type"`
	RaiseObject      *string         `json:"raiseobject"`
	LowerObject      *string         `json:"lowerobject"`
	InstantObject    json.RawMessage `json:"instantobject"`
	PollObject       *string         `json:"pollobject"`
	PollOptionObject *string         `json:"polloptionobject"`
	Object           *string         `json:"object"`
}

// Parse classifies a raw inbound frame. Unknown types and malformed
// JSON are reported via ErrUnrecognized (wrapping the json error where
// applicable) and must never be echoed back to the client.
func Parse(raw []byte) (Inbound, error) {
	var w wireFrame
	if err := json.Unmarshal(raw, &w); err != nil {
		return Inbound{}, err
	}

	switch w.Type {
	case "raise":
		if w.RaiseObject == nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindRaise, RaiseObject: *w.RaiseObject}, nil
	case "lower":
		if w.LowerObject == nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindLower, LowerObject: *w.LowerObject}, nil
	case "instant":
		if len(w.InstantObject) == 0 {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindInstant, InstantObject: w.InstantObject}, nil
	case "poll":
		if w.PollObject == nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindPoll, PollTitle: *w.PollObject}, nil
	case "polloption":
		if w.PollObject == nil || w.PollOptionObject == nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindPollOption, PollTitle: *w.PollObject, OptionTitle: *w.PollOptionObject}, nil
	case "vote":
		if w.PollObject == nil || w.PollOptionObject == nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindVote, PollTitle: *w.PollObject, OptionTitle: *w.PollOptionObject}, nil
	case "closepoll":
		if w.PollObject == nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindPollClose, PollTitle: *w.PollObject}, nil
	case "elevate":
		if w.Object == nil {
			return Inbound{}, ErrUnrecognized
		}
		uid, err := strconv.ParseUint(*w.Object, 10, 64)
		if err != nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindElevate, TargetUserID: uid}, nil
	case "recede":
		if w.Object == nil {
			return Inbound{}, ErrUnrecognized
		}
		uid, err := strconv.ParseUint(*w.Object, 10, 64)
		if err != nil {
			return Inbound{}, ErrUnrecognized
		}
		return Inbound{Kind: KindRecede, TargetUserID: uid}, nil
	default:
		return Inbound{}, ErrUnrecognized
	}
}
