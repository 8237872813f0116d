package hypermedia

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Parse converts a decoded payload into an Entity.
//
// payload may be an *Entity or Entity (returned as is when every action
// already carries a method and type, otherwise copied), raw JSON as []byte,
// json.RawMessage or string, or a generic value such as the map produced by
// decoding JSON into any. Action defaults are applied on the way in.
func Parse(payload any) (*Entity, error) {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return nil, ErrEmptyPayload
	case *Entity:
		if p == nil {
			return nil, ErrEmptyPayload
		}
		if !p.missingDefaults() {
			return p, nil
		}
		// Fill defaults on a copy; the caller may share p.
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		raw = b
	case Entity:
		if !p.missingDefaults() {
			return &p, nil
		}
		b, err := json.Marshal(&p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		raw = b
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		raw = b
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ErrEmptyPayload
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidDocument)
	}

	var e Entity
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	e.normalize()
	return &e, nil
}

func (e *Entity) normalize() {
	for _, a := range e.Actions {
		if a == nil {
			continue
		}
		if a.Method == "" {
			a.Method = DefaultActionMethod
		}
		if a.Type == "" {
			a.Type = DefaultActionType
		}
	}
	for _, sub := range e.Entities {
		if sub != nil {
			sub.normalize()
		}
	}
}

func (e *Entity) missingDefaults() bool {
	for _, a := range e.Actions {
		if a != nil && (a.Method == "" || a.Type == "") {
			return true
		}
	}
	for _, sub := range e.Entities {
		if sub != nil && sub.missingDefaults() {
			return true
		}
	}
	return false
}

