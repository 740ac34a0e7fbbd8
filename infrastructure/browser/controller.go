package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// PlaywrightOptions configures the real browser engine
type PlaywrightOptions struct {
	BaseURL           string
	Headless          bool
	SlowMo            time.Duration
	NavigationTimeout time.Duration
}

type browserController struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    PlaywrightOptions
	logger  *logrus.Logger
}

// NewBrowserController - starts playwright and launches chromium
func NewBrowserController(opts PlaywrightOptions, logger *logrus.Logger) (interfaces.Browser, error) {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = entities.DefaultTimeout
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}
	if opts.SlowMo > 0 {
		launch.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}

	browser, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"headless": opts.Headless,
		"base_url": opts.BaseURL,
	}).Info("Browser launched")

	return &browserController{
		pw:      pw,
		browser: browser,
		opts:    opts,
		logger:  logger,
	}, nil
}

// NewContext - opens an isolated browser context, seeded with a session when given
func (b *browserController) NewContext(ctx context.Context, seed *entities.SessionState) (interfaces.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 720,
		},
		JavaScriptEnabled: playwright.Bool(true),
	}
	if b.opts.BaseURL != "" {
		contextOptions.BaseURL = playwright.String(b.opts.BaseURL)
	}
	if !seed.IsEmpty() {
		contextOptions.StorageState = toPlaywrightState(seed).ToOptionalStorageState()
	}

	bctx, err := b.browser.NewContext(contextOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.OnDialog(func(dialog playwright.Dialog) {
		_ = dialog.Dismiss()
	})

	return &playwrightPage{
		context: bctx,
		page:    page,
		opts:    b.opts,
		logger:  b.logger,
	}, nil
}

// Close - closes the browser and stops the driver
func (b *browserController) Close() error {
	var closeErr error

	if b.browser != nil {
		if err := b.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		b.browser = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		b.pw = nil
	}

	return closeErr
}

// playwrightNode wraps an element handle produced by one query
type playwrightNode struct {
	handle playwright.ElementHandle
	desc   string
}

func (n *playwrightNode) Describe() string { return n.desc }

type playwrightPage struct {
	context playwright.BrowserContext
	page    playwright.Page
	opts    PlaywrightOptions
	logger  *logrus.Logger

	mu sync.Mutex
	// handles from the current poll tick, released when the next one starts
	handles []playwright.ElementHandle
}

// Navigate - navigates to url; relative urls resolve against the base url
func (p *playwrightPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.release()

	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(p.opts.NavigationTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	p.logger.WithField("url", p.page.URL()).Debug("Navigated")
	return nil
}

func (p *playwrightPage) URL() string { return p.page.URL() }

// QueryAll - runs q through playwright's selector engines in document order
func (p *playwrightPage) QueryAll(ctx context.Context, q entities.Query, scope interfaces.Node) ([]interfaces.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selector, err := selectorFor(q)
	if err != nil {
		return nil, err
	}

	var handles []playwright.ElementHandle
	if scope == nil {
		// A root query starts a new poll tick
		p.release()
		handles, err = p.page.QuerySelectorAll(selector)
	} else {
		parent, ok := scope.(*playwrightNode)
		if !ok {
			return nil, fmt.Errorf("scope %s does not belong to this engine", scope.Describe())
		}
		handles, err = parent.handle.QuerySelectorAll(selector)
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.handles = append(p.handles, handles...)
	p.mu.Unlock()

	nodes := make([]interfaces.Node, len(handles))
	for i, h := range handles {
		nodes[i] = &playwrightNode{handle: h, desc: selector + " #" + strconv.Itoa(i)}
	}
	return nodes, nil
}

// State - reports visibility, enabled-ness and bounding box of a node
func (p *playwrightPage) State(ctx context.Context, node interfaces.Node) (entities.NodeState, error) {
	var state entities.NodeState
	n, err := p.node(ctx, node)
	if err != nil {
		return state, err
	}

	if state.Visible, err = n.handle.IsVisible(); err != nil {
		return state, staleOr(err)
	}
	if state.Enabled, err = n.handle.IsEnabled(); err != nil {
		return state, staleOr(err)
	}
	if state.Visible {
		rect, err := n.handle.BoundingBox()
		if err != nil {
			return state, staleOr(err)
		}
		if rect != nil {
			state.Box = &entities.Box{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}
		}
	}
	return state, nil
}

// Dispatch - performs one input event on a node, bounded by ev.Timeout
func (p *playwrightPage) Dispatch(ctx context.Context, node interfaces.Node, ev entities.InputEvent) error {
	n, err := p.node(ctx, node)
	if err != nil {
		return err
	}
	timeout := playwright.Float(float64(ev.Timeout.Milliseconds()))

	switch ev.Type {
	case entities.ActionFill:
		err = n.handle.Fill(ev.Value, playwright.ElementHandleFillOptions{Timeout: timeout})
	case entities.ActionClick:
		err = n.handle.Click(playwright.ElementHandleClickOptions{Timeout: timeout})
	case entities.ActionCheck:
		err = n.handle.Check(playwright.ElementHandleCheckOptions{Timeout: timeout})
	default:
		return fmt.Errorf("unsupported input event %q", ev.Type)
	}
	if err != nil {
		return staleOr(err)
	}
	return nil
}

// ReadText - returns the text content of a node
func (p *playwrightPage) ReadText(ctx context.Context, node interfaces.Node) (string, error) {
	n, err := p.node(ctx, node)
	if err != nil {
		return "", err
	}
	text, err := n.handle.TextContent()
	if err != nil {
		return "", staleOr(err)
	}
	return text, nil
}

// StorageState - captures cookies and local storage of the context
func (p *playwrightPage) StorageState(ctx context.Context) (*entities.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	state, err := p.context.StorageState()
	if err != nil {
		return nil, fmt.Errorf("failed to read storage state: %w", err)
	}
	return fromPlaywrightState(state), nil
}

// Close - closes the page and its context
func (p *playwrightPage) Close() error {
	p.release()
	if err := p.context.Close(); err != nil && !isClosedErr(err) {
		return fmt.Errorf("failed to close context: %w", err)
	}
	return nil
}

func (p *playwrightPage) node(ctx context.Context, node interfaces.Node) (*playwrightNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, ok := node.(*playwrightNode)
	if !ok {
		return nil, fmt.Errorf("node %s does not belong to this engine", node.Describe())
	}
	return n, nil
}

// release disposes the element handles of the previous poll tick
func (p *playwrightPage) release() {
	p.mu.Lock()
	handles := p.handles
	p.handles = nil
	p.mu.Unlock()

	for _, h := range handles {
		if err := h.Dispose(); err != nil && !isClosedErr(err) {
			p.logger.Debugf("Failed to dispose element handle: %v", err)
		}
	}
}

// selectorFor maps a query onto playwright's built-in selector engines
func selectorFor(q entities.Query) (string, error) {
	suffix := "i"
	if q.Exact {
		suffix = "s"
	}
	switch q.Strategy {
	case entities.StrategyRole:
		if q.Name == "" {
			return "internal:role=" + q.Role, nil
		}
		return fmt.Sprintf("internal:role=%s[name=%s%s]", q.Role, strconv.Quote(q.Name), suffix), nil
	case entities.StrategyLabel:
		return "internal:label=" + strconv.Quote(q.Text) + suffix, nil
	case entities.StrategyText:
		return "internal:text=" + strconv.Quote(q.Text) + suffix, nil
	case entities.StrategyCSS:
		return "css=" + q.Selector, nil
	}
	return "", fmt.Errorf("unsupported locator strategy %q", q.Strategy)
}

func isClosedErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}

// staleOr maps playwright's detached-element errors onto ErrStaleNode
func staleOr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "not attached") || strings.Contains(msg, "detached") || strings.Contains(msg, "disposed") {
		return fmt.Errorf("%w: %v", entities.ErrStaleNode, err)
	}
	return err
}

func toPlaywrightState(s *entities.SessionState) *playwright.StorageState {
	out := &playwright.StorageState{
		Cookies: make([]playwright.Cookie, 0, len(s.Cookies)),
		Origins: make([]playwright.Origin, 0, len(s.Origins)),
	}
	for _, c := range s.Cookies {
		cookie := playwright.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			sameSite := playwright.SameSiteAttribute(c.SameSite)
			cookie.SameSite = &sameSite
		}
		out.Cookies = append(out.Cookies, cookie)
	}
	for _, o := range s.Origins {
		origin := playwright.Origin{
			Origin:       o.Origin,
			LocalStorage: make([]playwright.NameValue, 0, len(o.LocalStorage)),
		}
		for _, kv := range o.LocalStorage {
			origin.LocalStorage = append(origin.LocalStorage, playwright.NameValue{Name: kv.Name, Value: kv.Value})
		}
		out.Origins = append(out.Origins, origin)
	}
	return out
}

func fromPlaywrightState(s *playwright.StorageState) *entities.SessionState {
	out := &entities.SessionState{
		Cookies: make([]entities.Cookie, 0, len(s.Cookies)),
		Origins: make([]entities.OriginStorage, 0, len(s.Origins)),
	}
	for _, c := range s.Cookies {
		cookie := entities.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		out.Cookies = append(out.Cookies, cookie)
	}
	for _, o := range s.Origins {
		origin := entities.OriginStorage{
			Origin:       o.Origin,
			LocalStorage: make([]entities.NameValue, 0, len(o.LocalStorage)),
		}
		for _, kv := range o.LocalStorage {
			origin.LocalStorage = append(origin.LocalStorage, entities.NameValue{Name: kv.Name, Value: kv.Value})
		}
		out.Origins = append(out.Origins, origin)
	}
	return out
}
