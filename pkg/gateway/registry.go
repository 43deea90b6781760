package gateway

import (
	"context"
	"sort"

	json "github.com/goccy/go-json"
)

// Handler processes one envelope. A returned error terminates the connection.
type Handler func(ctx context.Context, c Conn, data json.RawMessage, token string) error

// RegistryBuilder collects handlers during startup, see Build.
type RegistryBuilder struct {
	handlers map[Operation]Handler
}

func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{
		handlers: map[Operation]Handler{},
	}
}

// Register binds h to op, replacing any handler registered for op before.
func (b *RegistryBuilder) Register(op Operation, h Handler) *RegistryBuilder {
	if h == nil {
		panic("gateway: nil handler for " + op.String())
	}
	b.handlers[op] = h
	return b
}

// Build returns a snapshot of the registered handlers. Later Register calls don't affect it.
func (b *RegistryBuilder) Build() *Registry {
	handlers := make(map[Operation]Handler, len(b.handlers))
	for op, h := range b.handlers {
		handlers[op] = h
	}
	return &Registry{handlers: handlers}
}

// Registry is read-only and safe for concurrent use.
type Registry struct {
	handlers map[Operation]Handler
}

func (r *Registry) Lookup(op Operation) (Handler, bool) {
	h, ok := r.handlers[op]
	return h, ok
}

func (r *Registry) Operations() []Operation {
	ops := make([]Operation, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
