package protocol

import (
	"encoding/json"
	"fmt"
)

// Decode parses one line of input into a validated Envelope.
//
// Structural failures (the line is not JSON) come back as *ParseError;
// contract violations (missing src, missing msg_id on a non-reply, an init
// without its roster) come back as *SchemaError. Both are recoverable: the
// caller logs, drops the line, and keeps reading.
func Decode(line []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Envelope{}, &ParseError{Err: err}
	}
	if len(env.Body) == 0 {
		return Envelope{}, &SchemaError{Reason: "missing body"}
	}
	if err := json.Unmarshal(env.Body, &env.Head); err != nil {
		return Envelope{}, &SchemaError{Reason: fmt.Sprintf("body is not a message object: %v", err)}
	}
	if err := validate(env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func validate(env Envelope) error {
	switch {
	case env.Src == "":
		return &SchemaError{Reason: "missing src"}
	case env.Dest == "":
		return &SchemaError{Reason: "missing dest"}
	case env.Head.Type == "":
		return &SchemaError{Reason: "missing body type"}
	}
	// Replies carry in_reply_to instead of a msg_id; everything else must
	// identify itself so it can be answered.
	if env.Head.InReplyTo.IsZero() && env.Head.MsgID.IsZero() {
		return &SchemaError{Reason: fmt.Sprintf("%s message without msg_id", env.Head.Type)}
	}
	if env.Head.Type == "init" {
		if env.Head.NodeID == "" {
			return &SchemaError{Reason: "init without node_id"}
		}
		if len(env.Head.NodeIDs) == 0 {
			return &SchemaError{Reason: "init without node_ids"}
		}
	}
	return nil
}

// NewEnvelope constructs an outbound envelope, stamping src, dest and the
// given correlation ids into the caller-supplied body. The body may be any
// value that marshals to a JSON object (a Body, a struct, or a map); all
// fields beyond the stamped ones are the caller's responsibility.
func NewEnvelope(src, dest string, body any, msgID, inReplyTo ID) (Envelope, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal body: %w", err)
	}
	if !msgID.IsZero() || !inReplyTo.IsZero() {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return Envelope{}, fmt.Errorf("body must be a JSON object: %w", err)
		}
		if !msgID.IsZero() {
			fields["msg_id"], _ = msgID.MarshalJSON()
		}
		if !inReplyTo.IsZero() {
			fields["in_reply_to"], _ = inReplyTo.MarshalJSON()
		}
		if raw, err = json.Marshal(fields); err != nil {
			return Envelope{}, fmt.Errorf("marshal stamped body: %w", err)
		}
	}
	env := Envelope{Src: src, Dest: dest, Body: raw}
	if err := json.Unmarshal(raw, &env.Head); err != nil {
		return Envelope{}, fmt.Errorf("body must be a JSON object: %w", err)
	}
	return env, nil
}

// Encode serializes an envelope to its wire form, without the trailing
// newline. Framing belongs to the transport.
func Encode(env Envelope) ([]byte, error) {
	return json.Marshal(env)
}
