package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"
)

// fakeNode is one element of a scripted document
type fakeNode struct {
	id       string
	parent   *fakeNode
	css      string
	role     string
	name     string
	label    string
	text     string
	visible  bool
	enabled  bool
	box      entities.Box
	appearAt time.Duration
	// enableAt flips enabled to true once the page is this old
	enableAt time.Duration
	// textAt switches the text to laterText once the page is this old
	textAt    time.Duration
	laterText string
	// wobble moves the box on this many State calls before it settles
	wobble int
}

func (n *fakeNode) Describe() string { return n.id }

func (n *fakeNode) within(scope *fakeNode) bool {
	for p := n.parent; p != nil; p = p.parent {
		if p == scope {
			return true
		}
	}
	return false
}

// fakePage is a scripted rendering engine; nodes appear and change as the
// page ages.
type fakePage struct {
	mu          sync.Mutex
	born        time.Time
	nodes       []*fakeNode
	queries     int
	dispatched  []entities.InputEvent
	dispatchErr error
	queryErr    error
	// stallAt makes QueryAll block until its context ends once the page is this old
	stallAt time.Duration
}

func newFakePage(nodes ...*fakeNode) *fakePage {
	return &fakePage{born: time.Now(), nodes: nodes}
}

func (p *fakePage) age() time.Duration { return time.Since(p.born) }

func (p *fakePage) Navigate(ctx context.Context, url string) error { return nil }

func (p *fakePage) URL() string { return "about:blank" }

func (p *fakePage) QueryAll(ctx context.Context, q entities.Query, scope interfaces.Node) ([]interfaces.Node, error) {
	if p.stallAt > 0 && p.age() >= p.stallAt {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries++
	if p.queryErr != nil {
		return nil, p.queryErr
	}

	var parent *fakeNode
	if scope != nil {
		parent = scope.(*fakeNode)
	}
	var out []interfaces.Node
	for _, n := range p.nodes {
		if p.age() < n.appearAt {
			continue
		}
		if parent != nil && !n.within(parent) {
			continue
		}
		if matches(q, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func matches(q entities.Query, n *fakeNode) bool {
	switch q.Strategy {
	case entities.StrategyCSS:
		for _, c := range strings.Fields(n.css) {
			if c == q.Selector {
				return true
			}
		}
		return false
	case entities.StrategyRole:
		return n.role == q.Role && (q.Name == "" || q.MatchText(q.Name, n.name))
	case entities.StrategyLabel:
		return n.label != "" && q.MatchText(q.Text, n.label)
	case entities.StrategyText:
		return n.text != "" && q.MatchText(q.Text, n.text)
	}
	return false
}

func (p *fakePage) State(ctx context.Context, node interfaces.Node) (entities.NodeState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := node.(*fakeNode)
	box := n.box
	if n.wobble > 0 {
		n.wobble--
		n.box.Y += 10
		box = n.box
	}
	enabled := n.enabled || (n.enableAt > 0 && p.age() >= n.enableAt)
	return entities.NodeState{Visible: n.visible, Enabled: enabled, Box: &box}, nil
}

func (p *fakePage) Dispatch(ctx context.Context, node interfaces.Node, ev entities.InputEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dispatched = append(p.dispatched, ev)
	if p.dispatchErr != nil {
		return p.dispatchErr
	}
	n := node.(*fakeNode)
	if ev.Type == entities.ActionFill {
		n.text = ev.Value
	}
	return nil
}

func (p *fakePage) ReadText(ctx context.Context, node interfaces.Node) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := node.(*fakeNode)
	if n.textAt > 0 && p.age() >= n.textAt {
		return n.laterText, nil
	}
	return n.text, nil
}

func (p *fakePage) StorageState(ctx context.Context) (*entities.SessionState, error) {
	return nil, errors.New("not supported")
}

func (p *fakePage) Close() error { return nil }

func (p *fakePage) queryCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries
}

// plainSecurity masks everything typed into a "Password" label
type plainSecurity struct{}

func (plainSecurity) IsSensitive(target entities.Locator) bool {
	return strings.Contains(strings.ToLower(target.String()), "password")
}

func (s plainSecurity) Redact(target entities.Locator, value string) string {
	if s.IsSensitive(target) {
		return "********"
	}
	return value
}
