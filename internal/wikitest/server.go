// Package wikitest serves a small fake of the wiki pages the scenarios drive,
// for tests running the static engine.
package wikitest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const sessionCookie = "enwikiSession"

// Options shapes the fake wiki
type Options struct {
	Username string
	Password string
	// ArticleCount is the text of the main page article count, "6,908,432" by default
	ArticleCount string
	// LatestEditor signs the newest revision, "ElegantEgotist" by default
	LatestEditor string
	// DisabledSizes lists text size options rendered disabled
	DisabledSizes []string
}

// Server is a running fake wiki
type Server struct {
	*httptest.Server
	opts Options

	mu       sync.Mutex
	attempts int
}

// NewServer starts the fake wiki, closing it when t ends
func NewServer(t testing.TB, opts Options) *Server {
	t.Helper()
	if opts.ArticleCount == "" {
		opts.ArticleCount = "6,908,432"
	}
	if opts.LatestEditor == "" {
		opts.LatestEditor = "ElegantEgotist"
	}

	s := &Server{opts: opts}
	mux := http.NewServeMux()
	mux.HandleFunc("/portal", s.portal)
	mux.HandleFunc("/wiki/Main_Page", s.mainPage)
	mux.HandleFunc("/wiki/Special:Statistics", s.statistics)
	mux.HandleFunc("/wiki/Artificial_intelligence", s.article)
	mux.HandleFunc("/w/index.php", s.index)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// PortalURL is the fake multilingual portal
func (s *Server) PortalURL() string {
	return s.URL + "/portal"
}

// LoginAttempts counts submitted login forms
func (s *Server) LoginAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Server) signedIn(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && s.opts.Username != "" && c.Value == token(s.opts.Username)
}

func token(user string) string {
	return "session-" + strings.ToLower(user)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, title, body string) {
	user := `<li id="pt-login"><a href="/w/index.php?title=Special:UserLogin">Log in</a></li>`
	if s.signedIn(r) {
		name := html.EscapeString(s.opts.Username)
		user = fmt.Sprintf(`<li id="pt-userpage"><a href="/wiki/User:%s">%s</a></li>`, name, name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en"><head><title>%s - Wikipedia</title>
<style>.mw-hidden{display:none}</style><script>document.documentElement.className="client-js";</script></head>
<body>
<nav id="p-personal"><ul>%s</ul></nav>
<main id="content">
<h1 id="firstHeading">%s</h1>
%s
</main>
</body></html>`, html.EscapeString(title), user, html.EscapeString(title), body)
}

func (s *Server) portal(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Wikipedia</title></head>
<body>
<form id="search-form" action="/w/index.php" method="get">
  <input id="searchInput" type="search" name="search" aria-label="Search Wikipedia" autocomplete="off">
  <button type="submit">Search</button>
</form>
<div class="suggestions-dropdown" role="listbox">
  <a class="suggestion-link" href="/wiki/Artificial_intelligence">Artificial intelligence</a>
  <a class="suggestion-link" href="/wiki/Artificial_intelligence">Artificial intelligence art</a>
  <a class="suggestion-link" href="/wiki/Artificial_intelligence">Artificial general intelligence</a>
</div>
</body></html>`)
}

func (s *Server) mainPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "Main Page", fmt.Sprintf(`
<div id="p-navigation"><ul>
  <li><a href="/wiki/Special:Statistics">Statistics</a></li>
</ul></div>
<div id="mp-welcome"><h1>Welcome to <a href="/wiki/Wikipedia">Wikipedia</a></h1>
  <div id="articlecount"><ul>
    <li><a href="/wiki/Special:Statistics" title="Special:Statistics">%s</a> articles in <a href="/wiki/English_language">English</a></li>
  </ul></div>
</div>`, html.EscapeString(s.opts.ArticleCount)))
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString(`<div id="vector-appearance"><form class="text-size">`)
	for _, size := range []string{"Small", "Standard", "Large"} {
		id := "skin-client-pref-text-" + strings.ToLower(size)
		disabled := ""
		for _, d := range s.opts.DisabledSizes {
			if strings.EqualFold(d, size) {
				disabled = " disabled"
			}
		}
		checked := ""
		if size == "Standard" {
			checked = " checked"
		}
		fmt.Fprintf(&b, `<div class="cdx-radio"><input type="radio" id="%s" name="text-size" value="%s"%s%s><label for="%s">%s</label></div>`,
			id, strings.ToLower(size), checked, disabled, id, size)
	}
	b.WriteString(`</form></div><table class="mw-statistics-table"><tr><td>Content pages</td><td>` +
		html.EscapeString(s.opts.ArticleCount) + `</td></tr></table>`)
	s.render(w, r, "Statistics", b.String())
}

func (s *Server) article(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "Artificial intelligence", `
<div id="p-views"><ul>
  <li id="ca-view"><a href="/wiki/Artificial_intelligence">Read</a></li>
  <li id="ca-history"><a href="/w/index.php?title=Artificial_intelligence&amp;action=history">View history</a></li>
</ul></div>
<p><b>Artificial intelligence</b> (AI) is the capability of computational systems to perform tasks.</p>`)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Query().Get("title") == "Special:UserLogin":
		s.login(w, r)
	case r.URL.Query().Get("action") == "history":
		s.history(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	editor := html.EscapeString(s.opts.LatestEditor)
	s.render(w, r, "Artificial intelligence: Revision history", fmt.Sprintf(`
<section id="pagehistory">
<h4 class="mw-index-pager-list-header-first">18 October 2026</h4>
<ul class="mw-contributions-list">
  <li data-mw-revid="2"><span class="history-user"><a href="/w/index.php?title=User:%[1]s&amp;action=edit&amp;redlink=1" class="new mw-userlink" title="User:%[1]s"><bdi>%[1]s</bdi></a></span> <span class="comment">copyedit</span></li>
  <li data-mw-revid="1"><span class="history-user"><a href="/wiki/User:Earlier" class="mw-userlink"><bdi>Earlier</bdi></a></span></li>
  <li data-mw-revid="0"><span class="history-user"><a href="/w/index.php?title=User:Oldest&amp;redlink=1" class="new mw-userlink"><bdi>Oldest</bdi></a></span></li>
</ul>
</section>`, editor))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	message := ""
	if r.Method == http.MethodPost {
		s.mu.Lock()
		s.attempts++
		s.mu.Unlock()

		if s.opts.Username != "" &&
			r.PostFormValue("wpName") == s.opts.Username &&
			r.PostFormValue("wpPassword") == s.opts.Password &&
			r.PostFormValue("wpLoginToken") == "+\\" {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    token(s.opts.Username),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			http.Redirect(w, r, "/wiki/Main_Page", http.StatusFound)
			return
		}
		message = `<div class="cdx-message cdx-message--error"><div class="cdx-message__content">Incorrect username or password.</div></div>`
	}

	s.render(w, r, "Log in", message+`
<form name="userlogin" class="mw-htmlform" method="post" action="/w/index.php?title=Special:UserLogin&amp;returnto=Main+Page">
  <div class="cdx-field"><label for="wpName1">Username</label>
    <input id="wpName1" name="wpName" type="text" placeholder="Enter your username"></div>
  <div class="cdx-field"><label for="wpPassword1">Password</label>
    <input id="wpPassword1" name="wpPassword" type="password" placeholder="Enter your password"></div>
  <input type="hidden" name="wpLoginToken" value="+\">
  <button id="wpLoginAttempt" type="submit" name="wploginattempt" value="Log in">Log in</button>
</form>`)
}
