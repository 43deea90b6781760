package gateway

import "strconv"

// Operation identifies the meaning of an envelope on the wire.
type Operation int

const (
	OpInvalidPayload Operation = 1 // server -> client, always followed by close
	OpHeartbeat      Operation = 2
	OpPing           Operation = 3
	OpPong           Operation = 4

	// OpUser is the first code left for application handlers.
	OpUser Operation = 100
)

var operationNames = map[Operation]string{
	OpInvalidPayload: "invalid_payload",
	OpHeartbeat:      "heartbeat",
	OpPing:           "ping",
	OpPong:           "pong",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "operation(" + strconv.Itoa(int(o)) + ")"
}

// ParseOperation resolves a reserved operation by name.
func ParseOperation(name string) (Operation, bool) {
	for op, n := range operationNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}
