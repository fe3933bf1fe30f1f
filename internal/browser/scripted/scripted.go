// Package scripted is an in-memory browser for development and testing. It
// plays back canned pages and fetch results without a real browser process,
// and records every interaction for assertions.
package scripted

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yoshiori/zen-downloader/internal/models"
)

// Page describes one canned page. Selectors lists the elements present on
// it; RevealAfter delays an element until Exists has been asked n times,
// which simulates late-rendering forms. ClickTo and SubmitTo map an
// interaction with an element to the page it leads to.
type Page struct {
	URL         string
	HTML        string
	Selectors   []string
	RevealAfter map[string]int
	ClickTo     map[string]string
	SubmitTo    map[string]string
}

type pageState struct {
	page  Page
	has   map[string]bool
	polls map[string]int
}

// Browser implements browser.Browser against canned data.
type Browser struct {
	mu      sync.Mutex
	pages   map[string]*pageState
	current *pageState
	cookies []models.Cookie
	results map[string]string
	errs    map[string]error

	Navigations []string
	Clicks      []string
	Submits     []string
	Typed       map[string]string
	Closed      bool
}

func New() *Browser {
	return &Browser{
		pages:   make(map[string]*pageState),
		results: make(map[string]string),
		errs:    make(map[string]error),
		Typed:   make(map[string]string),
	}
}

// AddPage registers a canned page under its URL.
func (b *Browser) AddPage(p Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[p.URL] = newPageState(p)
}

// StubResult cans the result of any Evaluate whose expression contains
// substr. The value is JSON-encoded the way a real page would return it.
func (b *Browser) StubResult(substr string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[substr] = string(data)
}

// StubError makes any Evaluate whose expression contains substr fail.
func (b *Browser) StubError(substr string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[substr] = err
}

func newPageState(p Page) *pageState {
	st := &pageState{page: p, has: make(map[string]bool), polls: make(map[string]int)}
	for _, sel := range p.Selectors {
		st.has[sel] = true
	}
	return st
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Navigations = append(b.Navigations, url)
	b.gotoURL(url)
	return nil
}

// gotoURL must be called with the lock held. Unknown URLs become blank
// pages; navigation itself never fails, matching a real browser.
func (b *Browser) gotoURL(url string) {
	st, ok := b.pages[url]
	if !ok {
		st = newPageState(Page{URL: url})
		b.pages[url] = st
	}
	b.current = st
}

func (b *Browser) WaitReady(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (b *Browser) Exists(ctx context.Context, selector string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return false, nil
	}
	if after, ok := b.current.page.RevealAfter[selector]; ok {
		b.current.polls[selector]++
		return b.current.polls[selector] > after, nil
	}
	return b.current.has[selector], nil
}

func (b *Browser) Click(ctx context.Context, selector string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireElement(selector); err != nil {
		return err
	}
	b.Clicks = append(b.Clicks, selector)
	if next, ok := b.current.page.ClickTo[selector]; ok {
		b.gotoURL(next)
	}
	return nil
}

func (b *Browser) Type(ctx context.Context, selector, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireElement(selector); err != nil {
		return err
	}
	b.Typed[selector] = text
	return nil
}

func (b *Browser) Submit(ctx context.Context, selector string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.requireElement(selector); err != nil {
		return err
	}
	b.Submits = append(b.Submits, selector)
	if next, ok := b.current.page.SubmitTo[selector]; ok {
		b.gotoURL(next)
	}
	return nil
}

func (b *Browser) requireElement(selector string) error {
	if b.current == nil {
		return fmt.Errorf("no page loaded")
	}
	if b.current.has[selector] {
		return nil
	}
	if after, ok := b.current.page.RevealAfter[selector]; ok && b.current.polls[selector] > after {
		return nil
	}
	return fmt.Errorf("no element matches %q on %s", selector, b.current.page.URL)
}

func (b *Browser) Evaluate(ctx context.Context, expr string, out interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for substr, err := range b.errs {
		if strings.Contains(expr, substr) {
			return err
		}
	}
	for substr, result := range b.results {
		if strings.Contains(expr, substr) {
			return json.Unmarshal([]byte(result), out)
		}
	}
	return fmt.Errorf("no scripted result for expression %q", expr)
}

func (b *Browser) Content(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return "", nil
	}
	return b.current.page.HTML, nil
}

func (b *Browser) Cookies(ctx context.Context) ([]models.Cookie, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Cookie, len(b.cookies))
	copy(out, b.cookies)
	return out, nil
}

func (b *Browser) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cookies = append([]models.Cookie(nil), cookies...)
	return nil
}

// SeedCookies pre-loads the jar, as if a previous session left them behind.
func (b *Browser) SeedCookies(cookies []models.Cookie) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cookies = append([]models.Cookie(nil), cookies...)
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

// CurrentURL returns the URL of the page the browser is on, for assertions.
func (b *Browser) CurrentURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return ""
	}
	return b.current.page.URL
}
