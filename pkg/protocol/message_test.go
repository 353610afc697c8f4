package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"steer","payload":{"angle":-15}}`))
	require.NoError(t, err)
	assert.Equal(t, "steer", cmd.Action)

	var p struct {
		Angle float64 `json:"angle"`
	}
	require.NoError(t, json.Unmarshal(cmd.Payload, &p))
	assert.Equal(t, -15.0, p.Angle)
}

func TestParseCommand_NoPayload(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"forward"}`))
	require.NoError(t, err)
	assert.Equal(t, "forward", cmd.Action)
	assert.Empty(t, cmd.Payload)
}

func TestParseCommand_Malformed(t *testing.T) {
	_, err := ParseCommand([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseCommand([]byte(`{"payload":{}}`))
	assert.Error(t, err, "missing action must be rejected")
}

func TestMessage_RoundTrip(t *testing.T) {
	msg, err := NewMessage(TypeDistance, DistanceReply{Distance: 87.5})
	require.NoError(t, err)
	assert.NotZero(t, msg.Timestamp)

	data, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, TypeDistance, parsed.Type)

	var reply DistanceReply
	require.NoError(t, parsed.ParseData(&reply))
	assert.Equal(t, 87.5, reply.Distance)
}

func TestErrorReply(t *testing.T) {
	msg, err := NewMessage(TypeError, ErrorReply{Action: "warp", Error: "unknown action"})
	require.NoError(t, err)

	data, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, TypeError, parsed.Type)

	var reply ErrorReply
	require.NoError(t, parsed.ParseData(&reply))
	assert.Equal(t, "warp", reply.Action)
	assert.Equal(t, "unknown action", reply.Error)
}
