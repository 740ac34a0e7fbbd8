package entities

import "time"

// ActionType represents the kind of input the executor dispatches
type ActionType string

const (
	ActionFill     ActionType = "fill"
	ActionClick    ActionType = "click"
	ActionCheck    ActionType = "check"
	ActionReadText ActionType = "read_text"
)

// InputEvent is what the executor asks the rendering engine to dispatch on a node
type InputEvent struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value,omitempty"`
	// Timeout bounds the dispatch itself; actionability was already established
	Timeout time.Duration `json:"timeout,omitempty"`
}

// ActionResult is the typed outcome of a single action
type ActionResult struct {
	Action  ActionType    `json:"action"`
	Locator string        `json:"locator"`
	Value   string        `json:"value,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}
