// A fake of the learning platform: the login pages plus the slice of the
// material API the downloader reads. Close enough to drive a real
// browser through the whole login flow.

package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

const sessionCookieName = "zen_session"

type Platform struct {
	Server   *httptest.Server
	Username string
	Password string

	mu     sync.Mutex
	stubs  map[string]string
	logins int
}

func SetupPlatform(t *testing.T, username, password string) *Platform {
	t.Helper()
	p := &Platform{
		Username: username,
		Password: password,
		stubs:    make(map[string]string),
	}

	r := chi.NewRouter()
	r.Get("/", p.handleHome)
	r.Get("/login", p.handleLogin)
	r.Get("/login/mail", p.handleMailForm)
	r.Post("/login/mail", p.handlePasswordForm)
	r.Post("/login/password", p.handlePasswordSubmit)
	r.Get("/v1/users/me", p.handleCurrentUser)
	r.Get("/v2/material/*", p.handleMaterial)

	p.Server = httptest.NewServer(r)
	t.Cleanup(p.Server.Close)
	return p
}

func (p *Platform) URL() string { return p.Server.URL }

// Logins reports how many times the password form was accepted.
func (p *Platform) Logins() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.logins
}

// StubAPI registers a canned JSON body for a material API path.
func (p *Platform) StubAPI(path, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stubs[path] = body
}

func (p *Platform) loggedIn(r *http.Request) bool {
	c, err := r.Cookie(sessionCookieName)
	return err == nil && c.Value == "ok"
}

func (p *Platform) handleHome(w http.ResponseWriter, r *http.Request) {
	state := "ログインしていません"
	if p.loggedIn(r) {
		state = "ログイン中"
	}
	fmt.Fprintf(w, `<html><body><h1>Home</h1><p>%s</p></body></html>`, state)
}

func (p *Platform) handleLogin(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `<html><body>
<a id="login-mail" href="/login/mail">メールアドレスでログイン</a>
</body></html>`)
}

func (p *Platform) handleMailForm(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `<html><body>
<form method="post" action="/login/mail">
<input type="email" name="mail" />
<button type="submit">次へ</button>
</form>
</body></html>`)
}

func (p *Platform) handlePasswordForm(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `<html><body>
<form method="post" action="/login/password">
<input type="hidden" name="mail" value="%s" />
<input type="password" name="password" />
<button type="submit">ログイン</button>
</form>
</body></html>`, r.FormValue("mail"))
}

func (p *Platform) handlePasswordSubmit(w http.ResponseWriter, r *http.Request) {
	mail := r.FormValue("mail")
	password := r.FormValue("password")
	if mail != p.Username || password != p.Password {
		fmt.Fprint(w, `<html><body>
<div class="error-message">メールアドレスまたはパスワードが正しくありません。</div>
<form method="post" action="/login/password">
<input type="hidden" name="mail" value="" />
<input type="password" name="password" />
</form>
</body></html>`)
		return
	}

	p.mu.Lock()
	p.logins++
	p.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "ok",
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (p *Platform) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !p.loggedIn(r) {
		fmt.Fprint(w, `{"error": {"code": "unauthorized", "message": "login required"}}`)
		return
	}
	fmt.Fprint(w, `{"id": 1200042, "nickname": "tester"}`)
}

func (p *Platform) handleMaterial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !p.loggedIn(r) {
		fmt.Fprint(w, `{"error": {"code": "unauthorized", "message": "login required"}}`)
		return
	}
	p.mu.Lock()
	body, ok := p.stubs[r.URL.Path]
	p.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error": {"code": "not_found", "message": "no such material"}}`)
		return
	}
	fmt.Fprint(w, body)
}
