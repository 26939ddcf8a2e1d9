package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a message identifier. The harness writes ids as JSON numbers, but the
// wire format permits strings as well; both decode to the same canonical
// string form so they can key the correlation table interchangeably.
type ID string

// IsZero reports whether the id is absent.
func (id ID) IsZero() bool { return id == "" }

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return fmt.Errorf("empty message id")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("message id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	// Ids minted by this process are integers; keep them numeric on the wire.
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Body is the common header of every message body. Type-specific fields live
// in the raw body and are decoded by handlers via Envelope.ReadBody.
type Body struct {
	Type      string   `json:"type"`
	MsgID     ID       `json:"msg_id,omitempty"`
	InReplyTo ID       `json:"in_reply_to,omitempty"`
	NodeID    string   `json:"node_id,omitempty"`
	NodeIDs   []string `json:"node_ids,omitempty"`
	Code      int      `json:"code,omitempty"`
	Text      string   `json:"text,omitempty"`
}

// Envelope is one routed message: who sent it, who it is for, and its body.
// Envelopes are immutable once constructed.
type Envelope struct {
	Src  string          `json:"src"`
	Dest string          `json:"dest"`
	Body json.RawMessage `json:"body"`

	// Head is the decoded common header of Body. Populated by Decode and
	// NewEnvelope; not part of the wire format.
	Head Body `json:"-"`
}

// Type returns the body's type discriminant.
func (e Envelope) Type() string { return e.Head.Type }

// IsReply reports whether the envelope answers an earlier request.
func (e Envelope) IsReply() bool { return !e.Head.InReplyTo.IsZero() }

// ReadBody decodes the raw body into v, giving handlers access to
// type-specific fields.
func (e Envelope) ReadBody(v any) error {
	if err := json.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("read %s body: %w", e.Head.Type, err)
	}
	return nil
}
