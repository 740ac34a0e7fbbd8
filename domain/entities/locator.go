package entities

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Strategy is the matching rule a locator uses to find elements
type Strategy string

const (
	StrategyRole  Strategy = "role"
	StrategyLabel Strategy = "label"
	StrategyText  Strategy = "text"
	StrategyCSS   Strategy = "css"
	// StrategyRelative is reported by Kind for locators resolved inside a scope
	StrategyRelative Strategy = "relative"
)

// Param keys
const (
	ParamRole     = "role"
	ParamName     = "name"
	ParamText     = "text"
	ParamSelector = "selector"
	ParamExact    = "exact"
)

// Locator is an immutable description of how to find an element.
// Every combinator returns a new value; the receiver is never modified.
type Locator struct {
	strategy Strategy
	params   map[string]string
	scope    *Locator
	index    *int
}

// ByRole finds elements by ARIA role and accessible name
func ByRole(role, name string) Locator {
	params := map[string]string{ParamRole: role}
	if name != "" {
		params[ParamName] = name
	}
	return Locator{strategy: StrategyRole, params: params}
}

// ByLabel finds form controls by their label text
func ByLabel(text string) Locator {
	return Locator{strategy: StrategyLabel, params: map[string]string{ParamText: text}}
}

// ByText finds elements by their text content
func ByText(text string) Locator {
	return Locator{strategy: StrategyText, params: map[string]string{ParamText: text}}
}

// ByCSS finds elements by CSS selector
func ByCSS(selector string) Locator {
	return Locator{strategy: StrategyCSS, params: map[string]string{ParamSelector: selector}}
}

// Within returns a copy of l that resolves inside the subtree of parent.
// If l is already scoped, parent becomes the outermost scope of the chain.
func (l Locator) Within(parent Locator) Locator {
	c := l.clone()
	if c.scope != nil {
		s := c.scope.Within(parent)
		c.scope = &s
		return c
	}
	p := parent.clone()
	c.scope = &p
	return c
}

// Locate returns child resolved inside l
func (l Locator) Locate(child Locator) Locator {
	return child.Within(l)
}

// Nth returns a copy of l selecting the index-th match (0-based)
func (l Locator) Nth(index int) Locator {
	c := l.clone()
	c.index = &index
	return c
}

// First is Nth(0)
func (l Locator) First() Locator {
	return l.Nth(0)
}

// Exact returns a copy of l that matches names and text exactly instead of by
// case-insensitive substring
func (l Locator) Exact() Locator {
	c := l.clone()
	c.params[ParamExact] = "true"
	return c
}

func (l Locator) clone() Locator {
	params := make(map[string]string, len(l.params)+1)
	for k, v := range l.params {
		params[k] = v
	}
	c := Locator{strategy: l.strategy, params: params, scope: l.scope}
	if l.index != nil {
		i := *l.index
		c.index = &i
	}
	return c
}

// Strategy returns the leaf matching rule
func (l Locator) Strategy() Strategy { return l.strategy }

// Kind returns StrategyRelative for scoped locators and the leaf strategy otherwise
func (l Locator) Kind() Strategy {
	if l.scope != nil {
		return StrategyRelative
	}
	return l.strategy
}

// IsRelative reports whether l resolves inside another locator
func (l Locator) IsRelative() bool { return l.scope != nil }

// Param returns a single parameter
func (l Locator) Param(key string) string { return l.params[key] }

// Params returns a copy of all parameters
func (l Locator) Params() map[string]string {
	out := make(map[string]string, len(l.params))
	for k, v := range l.params {
		out[k] = v
	}
	return out
}

// Scope returns the parent locator, if any
func (l Locator) Scope() (Locator, bool) {
	if l.scope == nil {
		return Locator{}, false
	}
	return *l.scope, true
}

// Index returns the explicit nth index, if any
func (l Locator) Index() (int, bool) {
	if l.index == nil {
		return 0, false
	}
	return *l.index, true
}

// Depth is the number of scopes above l
func (l Locator) Depth() int {
	d := 0
	for s := l.scope; s != nil; s = s.scope {
		d++
	}
	return d
}

// Query is the leaf matching rule handed to the rendering engine
func (l Locator) Query() Query {
	return Query{
		Strategy: l.strategy,
		Role:     l.params[ParamRole],
		Name:     l.params[ParamName],
		Text:     l.params[ParamText],
		Selector: l.params[ParamSelector],
		Exact:    l.params[ParamExact] == "true",
	}
}

// String renders l as a selector chain, e.g. css=#pagehistory >> role=link[name="x"] >> nth=0
func (l Locator) String() string {
	var b strings.Builder
	if l.scope != nil {
		b.WriteString(l.scope.String())
		b.WriteString(" >> ")
	}
	b.WriteString(l.Query().String())
	if l.index != nil {
		b.WriteString(" >> nth=")
		b.WriteString(strconv.Itoa(*l.index))
	}
	return b.String()
}

type locatorJSON struct {
	Strategy Strategy          `json:"strategy"`
	Params   map[string]string `json:"params"`
	Scope    *Locator          `json:"scope,omitempty"`
	Index    *int              `json:"index,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (l Locator) MarshalJSON() ([]byte, error) {
	return json.Marshal(locatorJSON{
		Strategy: l.strategy,
		Params:   l.params,
		Scope:    l.scope,
		Index:    l.index,
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Locator) UnmarshalJSON(data []byte) error {
	var raw locatorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Strategy {
	case StrategyRole, StrategyLabel, StrategyText, StrategyCSS:
	default:
		return fmt.Errorf("unknown locator strategy %q", raw.Strategy)
	}
	if raw.Params == nil {
		raw.Params = map[string]string{}
	}
	*l = Locator{strategy: raw.Strategy, params: raw.Params, scope: raw.Scope, index: raw.Index}
	return nil
}

// Query is a single, unscoped matching rule
type Query struct {
	Strategy Strategy
	Role     string
	Name     string
	Text     string
	Selector string
	Exact    bool
}

func (q Query) String() string {
	suffix := "i"
	if q.Exact {
		suffix = "s"
	}
	switch q.Strategy {
	case StrategyRole:
		if q.Name == "" {
			return "role=" + q.Role
		}
		return fmt.Sprintf("role=%s[name=%s%s]", q.Role, strconv.Quote(q.Name), suffix)
	case StrategyLabel:
		return "label=" + strconv.Quote(q.Text) + suffix
	case StrategyText:
		return "text=" + strconv.Quote(q.Text) + suffix
	case StrategyCSS:
		return "css=" + q.Selector
	}
	return string(q.Strategy)
}

// NormalizeText collapses runs of whitespace and trims the result
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MatchText applies the query's matching rule to candidate text
func (q Query) MatchText(want, candidate string) bool {
	w := NormalizeText(want)
	c := NormalizeText(candidate)
	if q.Exact {
		return w == c
	}
	return strings.Contains(strings.ToLower(c), strings.ToLower(w))
}
