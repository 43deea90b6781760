package gateway

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"gotest.tools/v3/assert"
)

func TestPing(t *testing.T) {
	inputs := []struct {
		data  json.RawMessage
		token string
	}{
		{nil, ""},
		{json.RawMessage(`{"anything":[1,2]}`), "some-token"},
		{json.RawMessage(`"x"`), "other"},
	}
	for _, in := range inputs {
		c := &recordingConn{}
		assert.NilError(t, Ping(context.Background(), c, in.data, in.token))
		assert.DeepEqual(t, c.sent, []Envelope{{Operation: OpPong}})
		assert.Equal(t, c.closed, 0)
	}
}

func TestBuiltinsShareHandler(t *testing.T) {
	reg := RegisterBuiltins(NewRegistryBuilder()).Build()
	for _, op := range []Operation{OpHeartbeat, OpPing} {
		h, ok := reg.Lookup(op)
		assert.Assert(t, ok, op.String())
		c := &recordingConn{}
		assert.NilError(t, h(context.Background(), c, nil, ""))
		assert.DeepEqual(t, c.sent, []Envelope{{Operation: OpPong}})
	}
}
