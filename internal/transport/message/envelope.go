// Package message is the typed request/response protocol between the page
// context and the background context. A message is a flat JSON object
// with an "action" tag, an optional "sender" and the action's fields.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Action tags a message kind.
type Action string

// Actions handled by the background context.
const (
	ActionGetDefinition   Action = "getDefinition"
	ActionSaveData        Action = "saveData"
	ActionRemoveData      Action = "removeData"
	ActionGetStorageStats Action = "getStorageStats"
	ActionCleanupOldData  Action = "cleanupOldData"
	ActionGetPageData     Action = "getPageData"
	ActionGetSettings     Action = "getSettings"
	ActionSaveSettings    Action = "saveSettings"
	ActionClearAllData    Action = "clearAllData"
)

// Actions handled by a page session. getDefinition and clearAllData are
// shared with the background table; the payload tells them apart.
const (
	ActionToggleHighlighting   Action = "toggleHighlighting"
	ActionToggleDefinitions    Action = "toggleDefinitions"
	ActionToggleNotes          Action = "toggleNotes"
	ActionChangeHighlightColor Action = "changeHighlightColor"
	ActionHighlightText        Action = "highlightText"
	ActionAddNote              Action = "addNote"
)

// Sender identifies the page a message originates from.
type Sender struct {
	URL string `json:"url,omitempty"`
}

// Domain returns the lower-cased hostname of the sender page, or "".
func (s Sender) Domain() string {
	if s.URL == "" {
		return ""
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Envelope is one decoded message. Body keeps the full JSON object so
// that handlers decode only the fields they need.
type Envelope struct {
	Action Action
	Sender Sender
	Body   json.RawMessage
}

type header struct {
	Action Action  `json:"action"`
	Sender *Sender `json:"sender,omitempty"`
}

// New builds an envelope. payload must encode to a JSON object or be nil.
func New(action Action, sender Sender, payload any) (Envelope, error) {
	fields := map[string]json.RawMessage{}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("encode %s payload: %w", action, err)
		}
		if err := json.Unmarshal(b, &fields); err != nil {
			return Envelope{}, fmt.Errorf("encode %s payload: not an object: %w", action, err)
		}
	}

	a, _ := json.Marshal(action)
	fields["action"] = a
	if sender.URL != "" {
		s, _ := json.Marshal(sender)
		fields["sender"] = s
	} else {
		delete(fields, "sender")
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s: %w", action, err)
	}
	return Envelope{Action: action, Sender: sender, Body: body}, nil
}

// Decode parses a message. Bodies that are not JSON objects, or carry no
// action, are rejected with domain.ErrUnsupported.
func Decode(data []byte) (Envelope, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return Envelope{}, fmt.Errorf("decode envelope: %w: not a JSON object", domain.ErrUnsupported)
	}

	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w: %w", domain.ErrUnsupported, err)
	}
	if h.Action == "" {
		return Envelope{}, fmt.Errorf("decode envelope: %w: missing action", domain.ErrUnsupported)
	}

	env := Envelope{Action: h.Action, Body: bytes.Clone(data)}
	if h.Sender != nil {
		env.Sender = *h.Sender
	}
	return env, nil
}

// MarshalJSON returns the message body.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if len(e.Body) > 0 {
		return e.Body, nil
	}
	built, err := New(e.Action, e.Sender, nil)
	if err != nil {
		return nil, err
	}
	return built.Body, nil
}

// Payload decodes the message fields into v. Malformed fields are
// reported as domain.ErrUnsupported.
func (e Envelope) Payload(v any) error {
	if len(e.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Body, v); err != nil {
		return fmt.Errorf("decode %s payload: %w: %w", e.Action, domain.ErrUnsupported, err)
	}
	return nil
}
