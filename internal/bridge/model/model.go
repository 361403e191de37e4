// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines shared data structures for bridge communication.
// It provides the action enumeration, invocation requests and outcomes that
// are exchanged between the presentation layer, the command gateway and the
// process runner, independently of the transport that carries them.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Action names one worker operation.
type Action string

const (
	// ActionGetSchools lists the schools known to the engine. Takes no payload.
	ActionGetSchools Action = "get_schools"
	// ActionVerify runs a verification with the caller's form payload.
	ActionVerify Action = "verify"
	// ActionGenerateDocs renders documents with the caller's form payload.
	ActionGenerateDocs Action = "generate_docs"
)

// Actions lists every known action in a stable order.
var Actions = []Action{ActionGetSchools, ActionVerify, ActionGenerateDocs}

// ParseAction validates a raw action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// RequiresPayload reports whether the worker expects --data for this action.
func (a Action) RequiresPayload() bool {
	return a == ActionVerify || a == ActionGenerateDocs
}

// Request is one invocation of the worker. It is not mutated after creation.
type Request struct {
	ID      string
	Action  Action
	Payload map[string]any
}

// NewRequest builds a request with a fresh correlation ID.
// A nil payload is kept nil so that no --data argument is passed.
func NewRequest(action Action, payload map[string]any) Request {
	return Request{ID: uuid.NewString(), Action: action, Payload: payload}
}

// Validate checks the action/payload pairing.
func (r Request) Validate() error {
	if _, err := ParseAction(string(r.Action)); err != nil {
		return err
	}
	if r.Action.RequiresPayload() && r.Payload == nil {
		return fmt.Errorf("action %s requires a payload", r.Action)
	}
	return nil
}

// Outcome is the structured value recovered from a successful invocation.
// Result holds object results; Raw always holds the decoded value, which for
// get_schools is a JSON array.
type Outcome struct {
	Result map[string]any `json:"result,omitempty"`
	Raw    any            `json:"-"`
}

// NewOutcome wraps a decoded worker value.
func NewOutcome(v any) *Outcome {
	o := &Outcome{Raw: v}
	if m, ok := v.(map[string]any); ok {
		o.Result = m
	}
	return o
}

// Success reports the worker's own success flag. Non-object results count as
// successful because the worker only prints them on the happy path.
func (o *Outcome) Success() bool {
	if o == nil {
		return false
	}
	if o.Result == nil {
		return o.Raw != nil
	}
	ok, _ := o.Result["success"].(bool)
	return ok
}

// Message returns the worker's message field, if any.
func (o *Outcome) Message() string {
	if o == nil || o.Result == nil {
		return ""
	}
	s, _ := o.Result["message"].(string)
	return s
}

// Files returns the generated file paths reported by generate_docs.
func (o *Outcome) Files() []string {
	if o == nil || o.Result == nil {
		return nil
	}
	arr, ok := o.Result["files"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// School is one entry of the get_schools listing.
type School struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// Stream identifies which child pipe a line came from.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Line is one non-empty raw output line, tagged with its stream.
type Line struct {
	RequestID string
	Stream    Stream
	Text      string
}
