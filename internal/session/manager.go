// Package session drives the platform login through a scriptable browser
// and maintains the authenticated context that API calls run inside.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/yoshiori/zen-downloader/internal/browser"
)

const (
	DefaultHomeURL  = "https://www.nnn.ed.nico/"
	DefaultLoginURL = "https://www.nnn.ed.nico/login"
	DefaultAPIBase  = "https://api.nnn.ed.nico"

	defaultElementTimeout = 10 * time.Second
	defaultPollInterval   = 200 * time.Millisecond
	defaultSettleTimeout  = 5 * time.Second

	// The mail/password sign-in entry on the login page.
	loginOptionSelector = "#login-mail"
	// Where the platform renders a rejected login's message.
	errorRegionSelector = ".error-message"
)

// The platform has served both markup variants for its credential inputs;
// each is tried in order on every poll tick.
var (
	identifierSelectors = []string{`input[name="mail"]`, `input[type="email"]`}
	credentialSelectors = []string{`input[name="password"]`, `input[type="password"]`}
)

// Options configures a Manager. Username, Password, SessionDir and
// NewBrowser are required; everything else has platform defaults.
type Options struct {
	Username   string
	Password   string
	SessionDir string
	NewBrowser browser.Factory

	// Overridable endpoints, mainly for tests.
	HomeURL  string
	LoginURL string
	APIBase  string

	// Overridable wait tuning, mainly for tests.
	ElementTimeout time.Duration
	PollInterval   time.Duration
	SettleTimeout  time.Duration
}

// Manager owns the browser-backed login session. The browser is created
// lazily on the first operation that needs the network, and cookies are
// persisted to a fixed file in the session directory on Close.
//
// A Manager is not safe for concurrent use; drive it from one goroutine.
type Manager struct {
	username   string
	password   string
	sessionDir string
	newBrowser browser.Factory

	homeURL     string
	loginURL    string
	userInfoURL string

	elementTimeout time.Duration
	pollInterval   time.Duration
	settleTimeout  time.Duration

	br            browser.Browser
	authenticated bool
}

// UserInfo identifies the logged-in platform user.
type UserInfo struct {
	ID       string
	Nickname string
}

func New(opts Options) (*Manager, error) {
	if opts.SessionDir == "" {
		return nil, fmt.Errorf("session: session directory is required")
	}
	if opts.NewBrowser == nil {
		return nil, fmt.Errorf("session: browser factory is required")
	}
	m := &Manager{
		username:       opts.Username,
		password:       opts.Password,
		sessionDir:     opts.SessionDir,
		newBrowser:     opts.NewBrowser,
		homeURL:        opts.HomeURL,
		loginURL:       opts.LoginURL,
		elementTimeout: opts.ElementTimeout,
		pollInterval:   opts.PollInterval,
		settleTimeout:  opts.SettleTimeout,
	}
	if m.homeURL == "" {
		m.homeURL = DefaultHomeURL
	}
	if m.loginURL == "" {
		m.loginURL = DefaultLoginURL
	}
	apiBase := opts.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	m.userInfoURL = strings.TrimSuffix(apiBase, "/") + "/v1/users/me"
	if m.elementTimeout <= 0 {
		m.elementTimeout = defaultElementTimeout
	}
	if m.pollInterval <= 0 {
		m.pollInterval = defaultPollInterval
	}
	if m.settleTimeout <= 0 {
		m.settleTimeout = defaultSettleTimeout
	}
	return m, nil
}

// CookieFile returns the path of the persisted cookie file.
func (m *Manager) CookieFile() string {
	return filepath.Join(m.sessionDir, CookieFileName)
}

// Authenticated reports whether a login has succeeded or a persisted
// session has been probed valid during this run.
func (m *Manager) Authenticated() bool {
	return m.authenticated
}

// ensureBrowser starts the browser on first use and restores any persisted
// cookies into it.
func (m *Manager) ensureBrowser(ctx context.Context) (browser.Browser, error) {
	if m.br != nil {
		return m.br, nil
	}
	br, err := m.newBrowser(ctx)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	cookies, err := LoadCookies(m.CookieFile())
	if err != nil {
		log.Printf("could not read cookie file %s: %v", m.CookieFile(), err)
	}
	if len(cookies) > 0 {
		if err := br.SetCookies(ctx, cookies); err != nil {
			log.Printf("could not restore cookies into the browser: %v", err)
		} else {
			log.Printf("restored %d cookies from %s", len(cookies), m.CookieFile())
		}
	}
	m.br = br
	return br, nil
}

// Login walks the platform's interactive login: open the login page, choose
// the mail sign-in, submit the identifier, submit the credential, then check
// the page for the platform's error region. It returns ElementNotFoundError
// when an expected element never appears and AuthenticationError when the
// platform rejects the credentials.
func (m *Manager) Login(ctx context.Context) error {
	br, err := m.ensureBrowser(ctx)
	if err != nil {
		return err
	}
	m.authenticated = false

	if err := br.Navigate(ctx, m.loginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	m.settle(ctx, br, "login page")

	ok, err := br.Exists(ctx, loginOptionSelector)
	if err != nil {
		return fmt.Errorf("inspect login page: %w", err)
	}
	if !ok {
		return &ElementNotFoundError{Selector: loginOptionSelector}
	}
	if err := br.Click(ctx, loginOptionSelector); err != nil {
		return fmt.Errorf("choose mail login: %w", err)
	}

	if err := m.fillAndSubmit(ctx, br, identifierSelectors, m.username); err != nil {
		return err
	}
	if err := m.fillAndSubmit(ctx, br, credentialSelectors, m.password); err != nil {
		return err
	}
	m.settle(ctx, br, "post-login page")

	if msg, found := m.loginErrorMessage(ctx, br); found {
		return &AuthenticationError{Message: msg}
	}

	m.authenticated = true
	log.Printf("logged in as %s", m.username)
	return nil
}

// fillAndSubmit waits for the first selector alternative to appear, types
// the value into it and submits its form.
func (m *Manager) fillAndSubmit(ctx context.Context, br browser.Browser, selectors []string, value string) error {
	sel, err := m.waitForAny(ctx, br, selectors)
	if err != nil {
		return err
	}
	if err := br.Type(ctx, sel, value); err != nil {
		return fmt.Errorf("fill %s: %w", sel, err)
	}
	if err := br.Submit(ctx, sel); err != nil {
		return fmt.Errorf("submit %s: %w", sel, err)
	}
	return nil
}

// waitForAny polls for the selector alternatives until one matches or the
// element timeout elapses.
func (m *Manager) waitForAny(ctx context.Context, br browser.Browser, selectors []string) (string, error) {
	deadline := time.Now().Add(m.elementTimeout)
	for {
		for _, sel := range selectors {
			ok, err := br.Exists(ctx, sel)
			if err != nil {
				return "", err
			}
			if ok {
				return sel, nil
			}
		}
		if time.Now().After(deadline) {
			return "", &ElementNotFoundError{Selector: strings.Join(selectors, ", ")}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}
}

// settle gives the page a bounded chance to finish loading. Timeouts are
// logged and swallowed; the caller proceeds with best-effort DOM state.
func (m *Manager) settle(ctx context.Context, br browser.Browser, what string) {
	if err := br.WaitReady(ctx, m.settleTimeout); err != nil {
		log.Printf("%s still loading after %s, continuing anyway: %v", what, m.settleTimeout, err)
	}
}

// loginErrorMessage snapshots the DOM and extracts the platform's login
// error text, if any is rendered.
func (m *Manager) loginErrorMessage(ctx context.Context, br browser.Browser) (string, bool) {
	html, err := br.Content(ctx)
	if err != nil {
		log.Printf("could not snapshot the page after login: %v", err)
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	msg := strings.TrimSpace(doc.Find(errorRegionSelector).First().Text())
	return msg, msg != ""
}

// Valid probes whether the current session (typically restored from the
// cookie file) is still accepted by the platform. It never returns an
// error; any failure just means "not valid".
func (m *Manager) Valid(ctx context.Context) bool {
	br, err := m.ensureBrowser(ctx)
	if err != nil {
		log.Printf("session probe: %v", err)
		return false
	}
	if err := br.Navigate(ctx, m.homeURL); err != nil {
		return false
	}
	m.settle(ctx, br, "home page")
	user, err := m.CurrentUser(ctx)
	return err == nil && user.ID != ""
}

// EnsureAuthenticated makes the session usable for API calls: a cheap probe
// first, a full login only when the probe fails.
func (m *Manager) EnsureAuthenticated(ctx context.Context) error {
	if m.authenticated {
		return nil
	}
	if m.Valid(ctx) {
		log.Println("existing session is still valid, skipping login")
		m.authenticated = true
		return nil
	}
	return m.Login(ctx)
}

// CurrentUser fetches the platform's current-user endpoint inside the
// authenticated page context.
func (m *Manager) CurrentUser(ctx context.Context) (*UserInfo, error) {
	var resp struct {
		ID       json.Number     `json:"id"`
		Nickname string          `json:"nickname"`
		Error    json.RawMessage `json:"error"`
	}
	if err := m.FetchJSON(ctx, m.userInfoURL, &resp); err != nil {
		return nil, err
	}
	if hasErrorField(resp.Error) {
		return nil, fmt.Errorf("current-user request rejected: %s", string(resp.Error))
	}
	if resp.ID.String() == "" {
		return nil, fmt.Errorf("current-user response carries no user id")
	}
	return &UserInfo{ID: resp.ID.String(), Nickname: resp.Nickname}, nil
}

// FetchJSON performs a GET inside the browser's page via fetch, so the
// session cookies apply automatically, and decodes the JSON body into out.
func (m *Manager) FetchJSON(ctx context.Context, url string, out interface{}) error {
	br, err := m.ensureBrowser(ctx)
	if err != nil {
		return err
	}
	expr := fmt.Sprintf(
		`fetch(%q, {credentials: "include", headers: {"Accept": "application/json"}}).then(r => r.text())`,
		url)
	var body string
	if err := br.Evaluate(ctx, expr, &body); err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// PageHTML navigates to a URL within the session and returns the rendered
// document, for the raw page fetch command.
func (m *Manager) PageHTML(ctx context.Context, url string) (string, error) {
	br, err := m.ensureBrowser(ctx)
	if err != nil {
		return "", err
	}
	if err := br.Navigate(ctx, url); err != nil {
		return "", err
	}
	m.settle(ctx, br, url)
	return br.Content(ctx)
}

// Close persists the browser's cookies to the cookie file and shuts the
// browser down. A Manager that never started a browser closes trivially.
func (m *Manager) Close(ctx context.Context) error {
	if m.br == nil {
		return nil
	}
	cookies, err := m.br.Cookies(ctx)
	if err != nil {
		log.Printf("could not read cookies before close: %v", err)
	} else if err := SaveCookies(m.CookieFile(), cookies); err != nil {
		log.Printf("could not persist cookies to %s: %v", m.CookieFile(), err)
	}
	err = m.br.Close()
	m.br = nil
	m.authenticated = false
	return err
}

// hasErrorField reports whether a raw `error` member is present and not
// JSON null.
func hasErrorField(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
