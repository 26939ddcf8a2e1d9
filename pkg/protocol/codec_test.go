package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeValidEnvelope(t *testing.T) {
	line := `{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":2,"echo":"hi"}}`

	env, err := Decode([]byte(line))
	require.NoError(t, err)
	require.Equal(t, "c1", env.Src)
	require.Equal(t, "n1", env.Dest)
	require.Equal(t, "echo", env.Type())
	require.Equal(t, ID("2"), env.Head.MsgID)
	require.False(t, env.IsReply())

	var body struct {
		Echo string `json:"echo"`
	}
	require.NoError(t, env.ReadBody(&body))
	require.Equal(t, "hi", body.Echo)
}

func TestDecodeStringMessageID(t *testing.T) {
	line := `{"src":"c1","dest":"n1","body":{"type":"echo","msg_id":"m-17"}}`

	env, err := Decode([]byte(line))
	require.NoError(t, err)
	require.Equal(t, ID("m-17"), env.Head.MsgID)
}

func TestDecodeParseError(t *testing.T) {
	_, err := Decode([]byte(`{"src":"c1",`))
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "want *ParseError, got %v", err)
}

func TestDecodeSchemaErrors(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"missing src", `{"dest":"n1","body":{"type":"echo","msg_id":1}}`},
		{"missing dest", `{"src":"c1","body":{"type":"echo","msg_id":1}}`},
		{"missing body", `{"src":"c1","dest":"n1"}`},
		{"body not object", `{"src":"c1","dest":"n1","body":42}`},
		{"missing type", `{"src":"c1","dest":"n1","body":{"msg_id":1}}`},
		{"missing msg_id", `{"src":"c1","dest":"n1","body":{"type":"echo"}}`},
		{"init without node_id", `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_ids":["n1"]}}`},
		{"init without node_ids", `{"src":"c1","dest":"n1","body":{"type":"init","msg_id":1,"node_id":"n1"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.line))
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "want *SchemaError, got %v", err)
		})
	}
}

func TestDecodeReplyWithoutMsgID(t *testing.T) {
	// Replies identify themselves through in_reply_to alone.
	line := `{"src":"n2","dest":"n1","body":{"type":"echo_ok","in_reply_to":3}}`

	env, err := Decode([]byte(line))
	require.NoError(t, err)
	require.True(t, env.IsReply())
	require.Equal(t, ID("3"), env.Head.InReplyTo)
}

func TestNewEnvelopeStampsIDs(t *testing.T) {
	env, err := NewEnvelope("n1", "c1", map[string]any{"type": "echo_ok", "echo": "hi"}, "", "2")
	require.NoError(t, err)
	require.Equal(t, "n1", env.Src)
	require.Equal(t, "c1", env.Dest)
	require.Equal(t, ID("2"), env.Head.InReplyTo)
	require.True(t, env.Head.MsgID.IsZero())

	var body struct {
		Type      string `json:"type"`
		Echo      string `json:"echo"`
		InReplyTo int    `json:"in_reply_to"`
	}
	require.NoError(t, env.ReadBody(&body))
	require.Equal(t, "echo_ok", body.Type)
	require.Equal(t, "hi", body.Echo)
	require.Equal(t, 2, body.InReplyTo)
}

func TestNewEnvelopePreservesCallerFields(t *testing.T) {
	env, err := NewEnvelope("n1", "n2", map[string]any{"type": "broadcast", "message": 7}, "12", "")
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Body, &fields))
	require.Equal(t, "12", string(fields["msg_id"]))
	require.Equal(t, "7", string(fields["message"]))
	require.NotContains(t, fields, "in_reply_to")
}

func TestNewEnvelopeRejectsNonObjectBody(t *testing.T) {
	_, err := NewEnvelope("n1", "n2", 42, "1", "")
	require.Error(t, err)
}

func TestIDWireForm(t *testing.T) {
	numeric, err := json.Marshal(ID("42"))
	require.NoError(t, err)
	require.Equal(t, "42", string(numeric))

	tagged, err := json.Marshal(ID("m-42"))
	require.NoError(t, err)
	require.Equal(t, `"m-42"`, string(tagged))
}

func TestErrorBody(t *testing.T) {
	b := ErrorBody(PreconditionFailed, "current value does not match")
	require.Equal(t, "error", b.Type)
	require.Equal(t, PreconditionFailed, b.Code)
	require.Equal(t, "current value does not match", b.Text)
}
