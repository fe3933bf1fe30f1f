package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yoshiori/zen-downloader/internal/browser"
	"github.com/yoshiori/zen-downloader/internal/browser/scripted"
	"github.com/yoshiori/zen-downloader/internal/models"
	"github.com/yoshiori/zen-downloader/internal/session"
)

const (
	testHomeURL  = "https://platform.test/"
	testLoginURL = "https://platform.test/login"
	testMailURL  = "https://platform.test/login/mail"
	testPassURL  = "https://platform.test/login/password"
	testAPIBase  = "https://api.platform.test"
)

func factoryFor(br *scripted.Browser) browser.Factory {
	return func(ctx context.Context) (browser.Browser, error) {
		return br, nil
	}
}

func newTestManager(t *testing.T, br *scripted.Browser) *session.Manager {
	t.Helper()
	m, err := session.New(session.Options{
		Username:       "someone@example.com",
		Password:       "hunter2",
		SessionDir:     t.TempDir(),
		NewBrowser:     factoryFor(br),
		HomeURL:        testHomeURL,
		LoginURL:       testLoginURL,
		APIBase:        testAPIBase,
		ElementTimeout: 200 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	return m
}

// addLoginFlow wires the canned three-step login: choose mail sign-in,
// submit the address, submit the password, land on finalURL.
func addLoginFlow(br *scripted.Browser, finalURL string) {
	br.AddPage(scripted.Page{
		URL:       testLoginURL,
		Selectors: []string{"#login-mail"},
		ClickTo:   map[string]string{"#login-mail": testMailURL},
	})
	br.AddPage(scripted.Page{
		URL:       testMailURL,
		Selectors: []string{`input[name="mail"]`},
		SubmitTo:  map[string]string{`input[name="mail"]`: testPassURL},
	})
	br.AddPage(scripted.Page{
		URL: testPassURL,
		// The password form renders late; it must be polled for.
		RevealAfter: map[string]int{`input[name="password"]`: 2},
		SubmitTo:    map[string]string{`input[name="password"]`: finalURL},
	})
}

func TestLoginSuccess(t *testing.T) {
	br := scripted.New()
	addLoginFlow(br, testHomeURL)
	br.AddPage(scripted.Page{
		URL:  testHomeURL,
		HTML: `<html><body><p>ホーム</p></body></html>`,
	})

	m := newTestManager(t, br)
	if err := m.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !m.Authenticated() {
		t.Error("Manager should report authenticated after a successful login")
	}
	if got := br.Typed[`input[name="mail"]`]; got != "someone@example.com" {
		t.Errorf("Expected username typed into the mail field, got %q", got)
	}
	if got := br.Typed[`input[name="password"]`]; got != "hunter2" {
		t.Errorf("Expected password typed into the password field, got %q", got)
	}
	if len(br.Clicks) != 1 || br.Clicks[0] != "#login-mail" {
		t.Errorf("Expected exactly one click on the login option, got %v", br.Clicks)
	}
	if br.CurrentURL() != testHomeURL {
		t.Errorf("Expected to land on the home page, got %s", br.CurrentURL())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	const platformMessage = "メールアドレスまたはパスワードが正しくありません。"

	br := scripted.New()
	failURL := "https://platform.test/login/password?error"
	addLoginFlow(br, failURL)
	br.AddPage(scripted.Page{
		URL:  failURL,
		HTML: `<html><body><div class="error-message">` + platformMessage + `</div></body></html>`,
	})

	m := newTestManager(t, br)
	err := m.Login(context.Background())
	if err == nil {
		t.Fatal("Login should fail when the platform renders an error")
	}

	var authErr *session.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected *AuthenticationError, got %T: %v", err, err)
	}
	if authErr.Message != platformMessage {
		t.Errorf("Expected the platform message verbatim, got %q", authErr.Message)
	}
	if m.Authenticated() {
		t.Error("Manager must not report authenticated after a rejected login")
	}
}

func TestLoginIdentifierFieldNeverAppears(t *testing.T) {
	br := scripted.New()
	br.AddPage(scripted.Page{
		URL:       testLoginURL,
		Selectors: []string{"#login-mail"},
		ClickTo:   map[string]string{"#login-mail": testMailURL},
	})
	// The mail page renders without any input field, ever.
	br.AddPage(scripted.Page{URL: testMailURL})

	m := newTestManager(t, br)
	err := m.Login(context.Background())

	var notFound *session.ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected *ElementNotFoundError, got %T: %v", err, err)
	}
	if m.Authenticated() {
		t.Error("Manager must not report authenticated")
	}
	if len(br.Navigations) != 1 {
		t.Errorf("No further navigation should happen after the missing field, got %v", br.Navigations)
	}
	if _, typed := br.Typed[`input[name="password"]`]; typed {
		t.Error("Password must never be typed when the identifier field is missing")
	}
}

func TestLoginOptionMissing(t *testing.T) {
	br := scripted.New()
	br.AddPage(scripted.Page{URL: testLoginURL, HTML: "<html><body>maintenance</body></html>"})

	m := newTestManager(t, br)
	err := m.Login(context.Background())

	var notFound *session.ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected *ElementNotFoundError, got %T: %v", err, err)
	}
}

func TestValid(t *testing.T) {
	t.Run("valid session", func(t *testing.T) {
		br := scripted.New()
		br.StubResult("/v1/users/me", `{"id": 1200042, "nickname": "yoshiori"}`)
		m := newTestManager(t, br)

		if !m.Valid(context.Background()) {
			t.Error("Expected the session to probe valid")
		}
	})

	t.Run("error field means invalid", func(t *testing.T) {
		br := scripted.New()
		br.StubResult("/v1/users/me", `{"error": {"code": "unauthorized", "message": "login required"}}`)
		m := newTestManager(t, br)

		if m.Valid(context.Background()) {
			t.Error("Expected the session to probe invalid")
		}
	})

	t.Run("missing user id means invalid", func(t *testing.T) {
		br := scripted.New()
		br.StubResult("/v1/users/me", `{}`)
		m := newTestManager(t, br)

		if m.Valid(context.Background()) {
			t.Error("Expected the session to probe invalid")
		}
	})

	t.Run("fetch failure means invalid, not an error", func(t *testing.T) {
		br := scripted.New()
		br.StubError("/v1/users/me", errors.New("net::ERR_NAME_NOT_RESOLVED"))
		m := newTestManager(t, br)

		if m.Valid(context.Background()) {
			t.Error("Expected the session to probe invalid")
		}
	})
}

func TestCurrentUser(t *testing.T) {
	br := scripted.New()
	br.StubResult("/v1/users/me", `{"id": 1200042, "nickname": "yoshiori"}`)
	m := newTestManager(t, br)

	user, err := m.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.ID != "1200042" {
		t.Errorf("Expected user id '1200042', got %q", user.ID)
	}
	if user.Nickname != "yoshiori" {
		t.Errorf("Expected nickname 'yoshiori', got %q", user.Nickname)
	}
}

func TestEnsureAuthenticatedSkipsLoginWhenProbeSucceeds(t *testing.T) {
	br := scripted.New()
	br.StubResult("/v1/users/me", `{"id": 7}`)
	m := newTestManager(t, br)

	if err := m.EnsureAuthenticated(context.Background()); err != nil {
		t.Fatalf("EnsureAuthenticated failed: %v", err)
	}
	for _, url := range br.Navigations {
		if url == testLoginURL {
			t.Fatal("EnsureAuthenticated must not visit the login page when the probe succeeds")
		}
	}
	if !m.Authenticated() {
		t.Error("Manager should report authenticated after a successful probe")
	}

	// The second call short-circuits without touching the browser again.
	before := len(br.Navigations)
	if err := m.EnsureAuthenticated(context.Background()); err != nil {
		t.Fatalf("Second EnsureAuthenticated failed: %v", err)
	}
	if len(br.Navigations) != before {
		t.Error("Repeated EnsureAuthenticated should not navigate again")
	}
}

func TestEnsureAuthenticatedFallsBackToLogin(t *testing.T) {
	br := scripted.New()
	br.StubResult("/v1/users/me", `{"error": {"message": "login required"}}`)
	addLoginFlow(br, testHomeURL)
	br.AddPage(scripted.Page{URL: testHomeURL, HTML: "<html><body>home</body></html>"})

	m := newTestManager(t, br)
	if err := m.EnsureAuthenticated(context.Background()); err != nil {
		t.Fatalf("EnsureAuthenticated failed: %v", err)
	}

	visitedLogin := false
	for _, url := range br.Navigations {
		if url == testLoginURL {
			visitedLogin = true
		}
	}
	if !visitedLogin {
		t.Error("Expected a full login after the probe failed")
	}
}

func TestClosePersistsCookies(t *testing.T) {
	br := scripted.New()
	br.SeedCookies([]models.Cookie{
		{Name: "zen_session", Value: "abc", Domain: ".platform.test", Path: "/", Secure: true, HTTPOnly: true},
	})
	m := newTestManager(t, br)

	// Force the lazy browser into existence, then close.
	if _, err := m.PageHTML(context.Background(), testHomeURL); err != nil {
		t.Fatalf("PageHTML failed: %v", err)
	}
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !br.Closed {
		t.Error("Close must shut the browser down")
	}
	saved, err := session.LoadCookies(m.CookieFile())
	if err != nil {
		t.Fatalf("LoadCookies failed: %v", err)
	}
	if len(saved) != 1 || saved[0].Name != "zen_session" {
		t.Errorf("Expected the browser cookies persisted, got %+v", saved)
	}
}

func TestBrowserStartRestoresPersistedCookies(t *testing.T) {
	br := scripted.New()
	br.StubResult("/v1/users/me", `{"id": 7}`)
	m := newTestManager(t, br)

	persisted := []models.Cookie{{Name: "zen_session", Value: "restored", Domain: ".platform.test", Path: "/"}}
	if err := session.SaveCookies(m.CookieFile(), persisted); err != nil {
		t.Fatalf("SaveCookies failed: %v", err)
	}

	// First network operation starts the browser and loads the jar.
	m.Valid(context.Background())

	got, err := br.Cookies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != "restored" {
		t.Errorf("Expected persisted cookies restored into the browser, got %+v", got)
	}
}

func TestCloseWithoutBrowserIsNoop(t *testing.T) {
	m := newTestManager(t, scripted.New())
	if err := m.Close(context.Background()); err != nil {
		t.Fatalf("Close without a started browser should be a no-op, got %v", err)
	}
}
