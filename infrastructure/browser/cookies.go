package browser

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"e2e_harness/domain/entities"

	"golang.org/x/net/publicsuffix"
)

// cookieJar sends cookies through a standard jar and keeps an ordered record
// of what was set so a context can export its session in setting order.
type cookieJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	records []entities.Cookie
}

func newCookieJar(seed []entities.Cookie) (*cookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	j := &cookieJar{jar: jar}
	for _, c := range seed {
		u, hc := toHTTPCookie(c)
		j.jar.SetCookies(u, []*http.Cookie{hc})
		j.records = append(j.records, c)
	}
	return j, nil
}

// SetCookies implements http.CookieJar
func (j *cookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	for _, c := range cookies {
		rec := recordFor(u, c)
		idx := j.indexOf(rec)
		expired := c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now))
		switch {
		case expired && idx >= 0:
			j.records = append(j.records[:idx], j.records[idx+1:]...)
		case expired:
		case idx >= 0:
			j.records[idx] = rec
		default:
			j.records = append(j.records, rec)
		}
	}
}

// Cookies implements http.CookieJar
func (j *cookieJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Records returns the live cookies in the order they were first set
func (j *cookieJar) Records() []entities.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := float64(time.Now().Unix())
	out := make([]entities.Cookie, 0, len(j.records))
	for _, c := range j.records {
		if c.Expires > 0 && c.Expires < now {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (j *cookieJar) indexOf(c entities.Cookie) int {
	for i, r := range j.records {
		if r.Name == c.Name && r.Domain == c.Domain && r.Path == c.Path {
			return i
		}
	}
	return -1
}

// recordFor mirrors browser storage-state conventions: host-only cookies
// carry the bare host, domain cookies a leading dot, session cookies expire -1.
func recordFor(u *url.URL, c *http.Cookie) entities.Cookie {
	rec := entities.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   u.Hostname(),
		Path:     c.Path,
		Expires:  -1,
		HTTPOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: sameSiteName(c.SameSite),
	}
	if c.Domain != "" {
		rec.Domain = "." + strings.TrimPrefix(c.Domain, ".")
	}
	if rec.Path == "" || !strings.HasPrefix(rec.Path, "/") {
		rec.Path = defaultPath(u.Path)
	}
	switch {
	case c.MaxAge > 0:
		rec.Expires = float64(time.Now().Add(time.Duration(c.MaxAge) * time.Second).Unix())
	case !c.Expires.IsZero():
		rec.Expires = float64(c.Expires.Unix())
	}
	return rec
}

func toHTTPCookie(c entities.Cookie) (*url.URL, *http.Cookie) {
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	host := strings.TrimPrefix(c.Domain, ".")
	path := c.Path
	if path == "" {
		path = "/"
	}
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     path,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: sameSiteMode(c.SameSite),
	}
	if strings.HasPrefix(c.Domain, ".") {
		hc.Domain = host
	}
	if c.Expires > 0 {
		hc.Expires = time.Unix(int64(c.Expires), 0)
	}
	return &url.URL{Scheme: scheme, Host: host, Path: path}, hc
}

// defaultPath is the RFC 6265 default-path of a request path
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func sameSiteName(m http.SameSite) string {
	switch m {
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteNoneMode:
		return "None"
	}
	return ""
}

func sameSiteMode(name string) http.SameSite {
	switch strings.ToLower(name) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	}
	return http.SameSiteDefaultMode
}
