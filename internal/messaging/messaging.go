// Package messaging decodes the inbound FILL_FORM message that triggers a fill.
package messaging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/form-filler/internal/schemas"
	"github.com/jonathan/form-filler/internal/types"
	schemafiles "github.com/jonathan/form-filler/schemas"
)

// TypeFillForm is the only message type the filler accepts.
const TypeFillForm = "FILL_FORM"

// Message is a decoded fill request.
type Message struct {
	Type    string          `json:"type" validate:"required,oneof=FILL_FORM"`
	Payload json.RawMessage `json:"payload" validate:"required"`

	// Candidates holds the payload in order. A single-object payload yields one entry.
	Candidates []types.Candidate `json:"-" validate:"min=1"`
}

// Candidate returns the record to fill: the first one when the payload is a list.
func (m *Message) Candidate() types.Candidate {
	return m.Candidates[0]
}

// NewFillMessage wraps candidates in a FILL_FORM envelope.
func NewFillMessage(candidates ...types.Candidate) (*Message, error) {
	if len(candidates) == 0 {
		return nil, &DecodeError{Message: "at least one candidate is required"}
	}
	var payload []byte
	var err error
	if len(candidates) == 1 {
		payload, err = json.Marshal(candidates[0])
	} else {
		payload, err = json.Marshal(candidates)
	}
	if err != nil {
		return nil, &DecodeError{Message: "failed to encode payload", Cause: err}
	}
	return &Message{Type: TypeFillForm, Payload: payload, Candidates: candidates}, nil
}

var (
	validate = validator.New()

	compiled = sync.OnceValues(func() (map[string]*schemas.Schema, error) {
		out := make(map[string]*schemas.Schema, 2)
		for _, name := range []string{schemafiles.FillMessage, schemafiles.Candidate} {
			content, err := schemafiles.Read(name)
			if err != nil {
				return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
			}
			s, err := schemas.Compile(name, content)
			if err != nil {
				return nil, err
			}
			out[name] = s
		}
		return out, nil
	})
)

func schemaFor(name string) (*schemas.Schema, error) {
	all, err := compiled()
	if err != nil {
		return nil, &DecodeError{Message: "schemas unavailable", Cause: err}
	}
	return all[name], nil
}

// Decode parses and validates a FILL_FORM envelope.
func Decode(data []byte) (*Message, error) {
	envelopeSchema, err := schemaFor(schemafiles.FillMessage)
	if err != nil {
		return nil, err
	}
	if err := envelopeSchema.Validate(data); err != nil {
		return nil, &DecodeError{Message: "message does not match schema", Cause: err}
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &DecodeError{Message: "malformed message", Cause: err}
	}
	if msg.Type != TypeFillForm {
		return nil, &DecodeError{Message: fmt.Sprintf("unsupported message type %q", msg.Type)}
	}

	msg.Candidates, err = decodePayload(msg.Payload)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(&msg); err != nil {
		return nil, &DecodeError{Message: "invalid message", Cause: err}
	}
	return &msg, nil
}

func decodePayload(payload json.RawMessage) ([]types.Candidate, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []types.Candidate
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, &DecodeError{Message: "malformed candidate list", Cause: err}
		}
		return list, nil
	}

	var c types.Candidate
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, &DecodeError{Message: "malformed candidate", Cause: err}
	}
	return []types.Candidate{c}, nil
}

// DecodeCandidate parses a bare candidate record and checks it against the
// candidate schema.
func DecodeCandidate(data []byte) (types.Candidate, error) {
	candidateSchema, err := schemaFor(schemafiles.Candidate)
	if err != nil {
		return types.Candidate{}, err
	}
	if err := candidateSchema.Validate(data); err != nil {
		return types.Candidate{}, &DecodeError{Message: "candidate does not match schema", Cause: err}
	}

	var c types.Candidate
	if err := json.Unmarshal(data, &c); err != nil {
		return types.Candidate{}, &DecodeError{Message: "malformed candidate", Cause: err}
	}
	return c, nil
}

// Parse accepts either a FILL_FORM envelope or a bare candidate record and
// returns it as a message.
func Parse(data []byte) (*Message, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &DecodeError{Message: "input must be a JSON object", Cause: err}
	}
	if _, ok := probe["payload"]; ok {
		return Decode(data)
	}

	c, err := DecodeCandidate(data)
	if err != nil {
		return nil, err
	}
	return NewFillMessage(c)
}
