package interfaces

import (
	"context"

	"e2e_harness/domain/entities"
)

// Node is an engine-specific handle to one concrete DOM node. It is only valid
// for the poll tick that produced it.
type Node interface {
	// Describe returns a short human-readable form, e.g. `a#ca-history`
	Describe() string
}

// Browser hands out isolated browser contexts
type Browser interface {
	// NewContext opens a fresh context seeded with seed (nil for an anonymous one)
	NewContext(ctx context.Context, seed *entities.SessionState) (Page, error)

	// Close releases the engine
	Close() error
}

// Page is the rendering engine boundary. One Page belongs to one scenario and
// is driven by a single goroutine.
type Page interface {
	// Navigate loads url; relative urls resolve against the configured base url
	Navigate(ctx context.Context, url string) error

	// URL returns the current document url
	URL() string

	// QueryAll returns the nodes matching q in document order. A nil scope
	// means the whole document; otherwise only descendants of scope match.
	QueryAll(ctx context.Context, q entities.Query, scope Node) ([]Node, error)

	// State reports visibility, enabled-ness and layout of a node
	State(ctx context.Context, node Node) (entities.NodeState, error)

	// Dispatch performs an input event on a node
	Dispatch(ctx context.Context, node Node, ev entities.InputEvent) error

	// ReadText returns the text content of a node
	ReadText(ctx context.Context, node Node) (string, error)

	// StorageState captures cookies and per-origin storage of the context
	StorageState(ctx context.Context) (*entities.SessionState, error)

	// Close closes the page and its context
	Close() error
}
