package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Envelope is the unit exchanged over a connection. Data is kept raw, only handlers interpret it.
type Envelope struct {
	Operation Operation
	Data      json.RawMessage
	Token     string
}

// wire form, field names are part of the protocol
type wireEnvelope struct {
	OperationCode json.RawMessage `json:"operation_code"`
	Data          json.RawMessage `json:"data"`
	Token         string          `json:"token"`
}

type outboundEnvelope struct {
	OperationCode Operation       `json:"operation_code"`
	Data          json.RawMessage `json:"data"`
	Token         string          `json:"token"`
}

var (
	errMissingOperationCode = errors.New("operation_code is required")
	errBinaryFrame          = errors.New("binary frames are not supported")
)

// DecodeError reports an inbound frame that is not a valid envelope.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid payload: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NewEnvelope marshals v as the envelope data; nil v leaves data empty.
func NewEnvelope(op Operation, v interface{}) (Envelope, error) {
	env := Envelope{Operation: op}
	if v == nil {
		return env, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %v data: %w", op, err)
	}
	env.Data = data
	return env, nil
}

func Decode(raw []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, &DecodeError{Err: err}
	}
	if isNull(w.OperationCode) {
		return Envelope{}, &DecodeError{Err: errMissingOperationCode}
	}
	code, err := strconv.ParseInt(string(bytes.TrimSpace(w.OperationCode)), 10, 0)
	if err != nil {
		return Envelope{}, &DecodeError{Err: fmt.Errorf("operation_code must be an integer, got %s", w.OperationCode)}
	}

	env := Envelope{
		Operation: Operation(code),
		Token:     w.Token,
	}
	if !isNull(w.Data) {
		env.Data = w.Data
	}
	return env, nil
}

func Encode(env Envelope) ([]byte, error) {
	data := env.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	raw, err := json.Marshal(outboundEnvelope{
		OperationCode: env.Operation,
		Data:          data,
		Token:         env.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %v envelope: %w", env.Operation, err)
	}
	return raw, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
