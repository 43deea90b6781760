package gateway

import (
	"context"

	json "github.com/goccy/go-json"
)

// Ping answers any heartbeat or ping with a pong. It needs no session.
func Ping(_ context.Context, c Conn, _ json.RawMessage, _ string) error {
	return c.Send(Envelope{Operation: OpPong})
}

func RegisterBuiltins(b *RegistryBuilder) *RegistryBuilder {
	return b.
		Register(OpHeartbeat, Ping).
		Register(OpPing, Ping)
}
