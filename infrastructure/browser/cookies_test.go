package browser

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"e2e_harness/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieJarRecordsInSettingOrder(t *testing.T) {
	jar, err := newCookieJar(nil)
	require.NoError(t, err)
	u, _ := url.Parse("https://en.wikipedia.org/w/index.php")

	jar.SetCookies(u, []*http.Cookie{
		{Name: "b", Value: "1", Path: "/"},
		{Name: "a", Value: "1", Domain: "wikipedia.org", Path: "/", MaxAge: 3600},
	})
	jar.SetCookies(u, []*http.Cookie{{Name: "b", Value: "2", Path: "/"}})

	got := jar.Records()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, "2", got[0].Value)
	assert.Equal(t, "en.wikipedia.org", got[0].Domain)
	assert.Equal(t, float64(-1), got[0].Expires)
	assert.Equal(t, ".wikipedia.org", got[1].Domain)
	assert.Greater(t, got[1].Expires, float64(time.Now().Unix()))

	// both are sent to a sibling host only when domain-scoped
	sibling, _ := url.Parse("https://www.wikipedia.org/")
	sent := jar.Cookies(sibling)
	require.Len(t, sent, 1)
	assert.Equal(t, "a", sent[0].Name)

	// deletion removes the record
	jar.SetCookies(u, []*http.Cookie{{Name: "b", Path: "/", MaxAge: -1}})
	got = jar.Records()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
}

func TestCookieJarSeed(t *testing.T) {
	seed := []entities.Cookie{
		{Name: "enwikiSession", Value: "s1", Domain: "en.wikipedia.org", Path: "/", Expires: -1, Secure: true, HTTPOnly: true},
		{Name: "centralauth_Token", Value: "t", Domain: ".wikipedia.org", Path: "/", Expires: float64(time.Now().Add(time.Hour).Unix())},
	}
	jar, err := newCookieJar(seed)
	require.NoError(t, err)
	assert.Equal(t, seed, jar.Records())

	u, _ := url.Parse("https://en.wikipedia.org/wiki/Main_Page")
	names := map[string]bool{}
	for _, c := range jar.Cookies(u) {
		names[c.Name] = true
	}
	assert.True(t, names["enwikiSession"])
	assert.True(t, names["centralauth_Token"])

	plain, _ := url.Parse("http://en.wikipedia.org/")
	for _, c := range jar.Cookies(plain) {
		assert.NotEqual(t, "enwikiSession", c.Name, "secure cookie sent over http")
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "/", defaultPath(""))
	assert.Equal(t, "/", defaultPath("/login"))
	assert.Equal(t, "/w", defaultPath("/w/index.php"))
}
