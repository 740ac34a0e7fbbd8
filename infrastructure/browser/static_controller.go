package browser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// StaticOptions configures the static HTML engine
type StaticOptions struct {
	BaseURL string
	// Timeout bounds a single HTTP exchange
	Timeout   time.Duration
	UserAgent string
	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// staticController renders pages by fetching HTML and parsing it with
// goquery. It runs no scripts and has no layout: links, forms, radios and
// checkboxes work, bounding boxes are absent.
type staticController struct {
	opts   StaticOptions
	base   *url.URL
	logger *logrus.Logger
}

// NewStaticController - creates the browser-free engine
func NewStaticController(opts StaticOptions, logger *logrus.Logger) (interfaces.Browser, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = entities.DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "e2e_harness/1.0"
	}
	var base *url.URL
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", opts.BaseURL, err)
		}
		base = u
	}
	return &staticController{opts: opts, base: base, logger: logger}, nil
}

// NewContext - opens an isolated context with its own cookie jar and storage
func (b *staticController) NewContext(ctx context.Context, seed *entities.SessionState) (interfaces.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cookies []entities.Cookie
	var origins []entities.OriginStorage
	if seed != nil {
		cookies = seed.Cookies
		for _, o := range seed.Origins {
			copied := entities.OriginStorage{Origin: o.Origin}
			copied.LocalStorage = append(copied.LocalStorage, o.LocalStorage...)
			origins = append(origins, copied)
		}
	}

	jar, err := newCookieJar(cookies)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &staticPage{
		client: &http.Client{
			Jar:       jar,
			Timeout:   b.opts.Timeout,
			Transport: b.opts.Transport,
		},
		jar:     jar,
		base:    b.base,
		agent:   b.opts.UserAgent,
		origins: origins,
		logger:  b.logger,
	}, nil
}

func (b *staticController) Close() error { return nil }

// staticNode is bound to the document generation that produced it
type staticNode struct {
	node       *html.Node
	generation int
}

func (n *staticNode) Describe() string {
	if n.node == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(n.node.Data)
	for _, a := range n.node.Attr {
		switch a.Key {
		case "id":
			b.WriteString("#" + a.Val)
		case "class":
			for _, c := range strings.Fields(a.Val) {
				b.WriteString("." + c)
			}
		}
	}
	return b.String()
}

type staticPage struct {
	client *http.Client
	jar    *cookieJar
	base   *url.URL
	agent  string
	logger *logrus.Logger

	mu         sync.Mutex
	doc        *goquery.Document
	url        *url.URL
	generation int
	origins    []entities.OriginStorage
}

// Navigate - fetches url and replaces the current document
func (p *staticPage) Navigate(ctx context.Context, rawURL string) error {
	target, err := p.resolve(rawURL)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	return p.load(req)
}

func (p *staticPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.url == nil {
		return "about:blank"
	}
	return p.url.String()
}

// QueryAll - matches q against the current document in document order
func (p *staticPage) QueryAll(ctx context.Context, q entities.Query, scope interfaces.Node) ([]interfaces.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc == nil {
		return nil, nil
	}

	root := p.doc.Selection
	if scope != nil {
		n, err := p.nodeLocked(scope)
		if err != nil {
			return nil, err
		}
		root = p.doc.FindNodes(n.node)
	}

	matched, err := p.match(root, q)
	if err != nil {
		return nil, err
	}

	nodes := make([]interfaces.Node, 0, matched.Length())
	for _, n := range matched.Nodes {
		nodes = append(nodes, &staticNode{node: n, generation: p.generation})
	}
	return nodes, nil
}

// match finds the descendants of root matching q
func (p *staticPage) match(root *goquery.Selection, q entities.Query) (*goquery.Selection, error) {
	switch q.Strategy {
	case entities.StrategyCSS:
		sel, err := cascadia.Compile(q.Selector)
		if err != nil {
			return nil, fmt.Errorf("invalid css selector %q: %w", q.Selector, err)
		}
		return root.FindMatcher(sel), nil

	case entities.StrategyRole:
		return root.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			if roleOf(s) != q.Role {
				return false
			}
			return q.Name == "" || q.MatchText(q.Name, accessibleName(p.doc, s))
		}), nil

	case entities.StrategyLabel:
		return root.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			for _, label := range labelsOf(p.doc, s) {
				if q.MatchText(q.Text, label) {
					return true
				}
			}
			return false
		}), nil

	case entities.StrategyText:
		candidates := root.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return !nonRendered[goquery.NodeName(s)] && q.MatchText(q.Text, renderedText(s))
		})
		// Keep the innermost elements so a match is not reported for every ancestor
		return candidates.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Find("*").FilterSelection(candidates).Length() == 0
		}), nil
	}
	return nil, fmt.Errorf("unsupported locator strategy %q", q.Strategy)
}

// State - reports visibility and enabled-ness derived from markup
func (p *staticPage) State(ctx context.Context, node interfaces.Node) (entities.NodeState, error) {
	if err := ctx.Err(); err != nil {
		return entities.NodeState{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.nodeLocked(node)
	if err != nil {
		return entities.NodeState{}, err
	}
	s := p.doc.FindNodes(n.node)
	visible := isVisible(s)
	return entities.NodeState{
		Visible: visible,
		Enabled: isEnabled(s),
	}, nil
}

// Dispatch - applies fill, click or check to the document. DOM updates are
// synchronous here, so ev.Timeout only matters to the real browser; a click
// that navigates is bounded by the HTTP client timeout.
func (p *staticPage) Dispatch(ctx context.Context, node interfaces.Node, ev entities.InputEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	n, err := p.nodeLocked(node)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	s := p.doc.FindNodes(n.node)

	var follow *http.Request
	switch ev.Type {
	case entities.ActionFill:
		err = fill(s, ev.Value)
	case entities.ActionCheck:
		err = check(s)
	case entities.ActionClick:
		follow, err = p.click(ctx, s)
	default:
		err = fmt.Errorf("unsupported input event %q", ev.Type)
	}
	p.mu.Unlock()

	if err != nil || follow == nil {
		return err
	}
	return p.load(follow)
}

// ReadText - returns the rendered text of a node
func (p *staticPage) ReadText(ctx context.Context, node interfaces.Node) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, err := p.nodeLocked(node)
	if err != nil {
		return "", err
	}
	return renderedText(p.doc.FindNodes(n.node)), nil
}

// StorageState - exports cookies in setting order and the seeded storage
func (p *staticPage) StorageState(ctx context.Context) (*entities.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	state := &entities.SessionState{
		Cookies: p.jar.Records(),
		Origins: make([]entities.OriginStorage, 0, len(p.origins)),
	}
	for _, o := range p.origins {
		copied := entities.OriginStorage{Origin: o.Origin, LocalStorage: []entities.NameValue{}}
		copied.LocalStorage = append(copied.LocalStorage, o.LocalStorage...)
		state.Origins = append(state.Origins, copied)
	}
	return state, nil
}

func (p *staticPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = nil
	p.generation++
	p.client.CloseIdleConnections()
	return nil
}

func (p *staticPage) nodeLocked(node interfaces.Node) (*staticNode, error) {
	n, ok := node.(*staticNode)
	if !ok {
		return nil, fmt.Errorf("node %s does not belong to this engine", node.Describe())
	}
	if p.doc == nil || n.generation != p.generation {
		return nil, fmt.Errorf("%s: %w", n.Describe(), entities.ErrStaleNode)
	}
	return n, nil
}

func (p *staticPage) resolve(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.IsAbs() {
		return u, nil
	}
	p.mu.Lock()
	current := p.url
	p.mu.Unlock()
	switch {
	case p.base != nil && strings.HasPrefix(rawURL, "/"):
		return p.base.ResolveReference(u), nil
	case current != nil:
		return current.ResolveReference(u), nil
	case p.base != nil:
		return p.base.ResolveReference(u), nil
	}
	return nil, fmt.Errorf("relative url %q without a base url", rawURL)
}

// load performs req and swaps in the resulting document
func (p *staticPage) load(req *http.Request) error {
	req.Header.Set("User-Agent", p.agent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", req.URL, err)
	}
	doc.Url = resp.Request.URL

	p.mu.Lock()
	p.doc = doc
	p.url = resp.Request.URL
	p.generation++
	p.mu.Unlock()

	entry := p.logger.WithFields(logrus.Fields{
		"url":    resp.Request.URL.String(),
		"status": resp.StatusCode,
		"method": req.Method,
	})
	if resp.StatusCode >= http.StatusBadRequest {
		entry.Warn("Loaded error page")
	} else {
		entry.Debug("Loaded page")
	}
	return nil
}

func fill(s *goquery.Selection, value string) error {
	switch goquery.NodeName(s) {
	case "input":
		switch inputType(s) {
		case "checkbox", "radio", "submit", "button", "reset", "image", "file", "hidden":
			return fmt.Errorf("input of type %q cannot be filled", inputType(s))
		}
		s.SetAttr("value", value)
		return nil
	case "textarea":
		s.SetText(value)
		return nil
	}
	if v, ok := s.Attr("contenteditable"); ok && v != "false" {
		s.SetText(value)
		return nil
	}
	return fmt.Errorf("element is not an <input>, <textarea> or [contenteditable] element")
}

func check(s *goquery.Selection) error {
	if goquery.NodeName(s) != "input" {
		if role := roleOf(s); role == "radio" || role == "checkbox" {
			s.SetAttr("aria-checked", "true")
			return nil
		}
		return fmt.Errorf("not a checkbox or radio button")
	}
	switch inputType(s) {
	case "radio":
		if name := s.AttrOr("name", ""); name != "" {
			group := s.Closest("form")
			if group.Length() == 0 {
				group = s.Closest("html")
			}
			group.Find("input").Each(func(_ int, other *goquery.Selection) {
				if inputType(other) == "radio" && other.AttrOr("name", "") == name {
					other.RemoveAttr("checked")
				}
			})
		}
		s.SetAttr("checked", "checked")
	case "checkbox":
		s.SetAttr("checked", "checked")
	default:
		return fmt.Errorf("not a checkbox or radio button")
	}
	return nil
}

// click returns the request to follow, if the click navigates
func (p *staticPage) click(ctx context.Context, s *goquery.Selection) (*http.Request, error) {
	if link := s.Closest("a[href], area[href]"); link.Length() > 0 {
		href := link.AttrOr("href", "")
		if strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return nil, nil
		}
		target, err := p.url.Parse(href)
		if err != nil {
			return nil, fmt.Errorf("invalid href %q: %w", href, err)
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}

	tag := goquery.NodeName(s)
	if tag == "label" {
		if id := s.AttrOr("for", ""); id != "" {
			if control := findByID(p.doc, id); control.Length() > 0 && isLabelable(control) {
				return nil, check(control)
			}
		}
		return nil, nil
	}
	if tag == "input" && (inputType(s) == "radio" || inputType(s) == "checkbox") {
		return nil, check(s)
	}

	submitter := tag == "button" && strings.ToLower(s.AttrOr("type", "submit")) == "submit"
	submitter = submitter || (tag == "input" && (inputType(s) == "submit" || inputType(s) == "image"))
	if !submitter {
		return nil, nil
	}
	form := s.Closest("form")
	if form.Length() == 0 {
		return nil, nil
	}
	return p.submit(ctx, form, s)
}

// submit builds the request a browser would send for form
func (p *staticPage) submit(ctx context.Context, form, submitter *goquery.Selection) (*http.Request, error) {
	values := url.Values{}
	form.Find("input, textarea, select").Each(func(_ int, c *goquery.Selection) {
		name := c.AttrOr("name", "")
		if name == "" || !isEnabled(c) {
			return
		}
		switch goquery.NodeName(c) {
		case "textarea":
			values.Add(name, c.Text())
		case "select":
			opt := c.Find("option[selected]").First()
			if opt.Length() == 0 {
				opt = c.Find("option").First()
			}
			if opt.Length() > 0 {
				values.Add(name, opt.AttrOr("value", entities.NormalizeText(opt.Text())))
			}
		default:
			switch inputType(c) {
			case "checkbox", "radio":
				if _, ok := c.Attr("checked"); ok {
					values.Add(name, c.AttrOr("value", "on"))
				}
			case "submit", "button", "reset", "image", "file":
			default:
				values.Add(name, c.AttrOr("value", ""))
			}
		}
	})
	if name := submitter.AttrOr("name", ""); name != "" {
		values.Add(name, submitter.AttrOr("value", ""))
	}

	action, err := p.url.Parse(form.AttrOr("action", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid form action: %w", err)
	}
	if override, ok := submitter.Attr("formaction"); ok {
		if action, err = p.url.Parse(override); err != nil {
			return nil, fmt.Errorf("invalid formaction: %w", err)
		}
	}

	method := strings.ToUpper(form.AttrOr("method", http.MethodGet))
	if method != http.MethodPost {
		target := *action
		target.RawQuery = values.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}
