package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorCombinatorsDoNotMutate(t *testing.T) {
	base := ByRole("link", "Artificial intelligence")
	scoped := base.Within(ByCSS("#content"))
	nth := base.Nth(2)
	exact := base.Exact()

	_, hasScope := base.Scope()
	_, hasIndex := base.Index()
	assert.False(t, hasScope)
	assert.False(t, hasIndex)
	assert.Empty(t, base.Param(ParamExact))

	assert.True(t, scoped.IsRelative())
	assert.Equal(t, StrategyRelative, scoped.Kind())
	assert.Equal(t, StrategyRole, scoped.Strategy())

	idx, ok := nth.Index()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, "true", exact.Param(ParamExact))

	params := base.Params()
	params[ParamName] = "changed"
	assert.Equal(t, "Artificial intelligence", base.Param(ParamName))
}

func TestLocatorChainScopesAreIndependent(t *testing.T) {
	list := ByCSS("#pagehistory ul.mw-contributions-list")
	item := list.Locate(ByCSS("li"))
	user := item.Locate(ByCSS("span.history-user")).First()

	assert.Equal(t, 2, user.Depth())
	assert.Equal(t, 1, item.Depth())
	assert.Equal(t, 0, list.Depth())

	parent, ok := user.Scope()
	require.True(t, ok)
	assert.Equal(t, item.String(), parent.String())
}

func TestLocatorComposesOntoScopedLocator(t *testing.T) {
	inner := ByCSS("bdi").Within(ByCSS("span.history-user"))
	outer := inner.Within(ByCSS("#pagehistory"))

	assert.Equal(t, 2, outer.Depth())
	assert.Equal(t, "css=#pagehistory >> css=span.history-user >> css=bdi", outer.String())
	assert.Equal(t, 1, inner.Depth(), "receiver chain unchanged")
	assert.Equal(t, "css=span.history-user >> css=bdi", inner.String())

	located := ByCSS("#pagehistory").Locate(ByCSS("li").Locate(ByCSS("span")))
	assert.Equal(t, 2, located.Depth())
	assert.Equal(t, "css=#pagehistory >> css=li >> css=span", located.String())

	// the parent's own index stays with the parent
	nth := ByCSS("bdi").Within(ByCSS("li").Nth(1)).Within(ByCSS("ul").First())
	assert.Equal(t, "css=ul >> nth=0 >> css=li >> nth=1 >> css=bdi", nth.String())
}

func TestLocatorString(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
	}{
		{"role with name", ByRole("button", "Log in"), `role=button[name="Log in"i]`},
		{"role without name", ByRole("heading", ""), `role=heading`},
		{"exact label", ByLabel("Password").Exact(), `label="Password"s`},
		{"text", ByText("Incorrect username or password."), `text="Incorrect username or password."i`},
		{"scoped nth", ByCSS("li").Within(ByCSS("#pagehistory")).Nth(0), `css=#pagehistory >> css=li >> nth=0`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.String())
		})
	}
}

func TestLocatorJSON(t *testing.T) {
	loc := ByCSS("bdi").Within(ByCSS("a.new.mw-userlink").Within(ByCSS("#pagehistory"))).First()

	data, err := json.Marshal(loc)
	require.NoError(t, err)

	var back Locator
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, loc.String(), back.String())
	assert.Equal(t, loc.Depth(), back.Depth())

	err = json.Unmarshal([]byte(`{"strategy":"xpath","params":{}}`), &back)
	assert.Error(t, err)
}

func TestQueryMatchText(t *testing.T) {
	loose := ByText("artificial").Query()
	assert.True(t, loose.MatchText("artificial", "Artificial  intelligence"))
	assert.False(t, loose.MatchText("machine", "Artificial intelligence"))

	exact := ByText("x").Exact().Query()
	assert.True(t, exact.MatchText("Log in", " Log\tin "))
	assert.False(t, exact.MatchText("Log in", "log in"))
	assert.False(t, exact.MatchText("Log", "Log in"))
}

func TestWaitPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultWaitPolicy().Validate())
	assert.Error(t, DefaultWaitPolicy().WithTimeout(0).Validate())
	assert.Error(t, WaitPolicy{Timeout: 1, PollInterval: 1, Condition: "hovered"}.Validate())
}

func TestSessionStateStorage(t *testing.T) {
	s := &SessionState{
		Origins: []OriginStorage{{
			Origin:       "https://en.wikipedia.org",
			LocalStorage: []NameValue{{Name: "theme", Value: "dark"}},
		}},
	}
	assert.False(t, s.IsEmpty())
	entries := s.Storage("https://en.wikipedia.org")
	require.Len(t, entries, 1)
	assert.Equal(t, "dark", entries[0].Value)

	assert.Empty(t, s.Storage("https://www.wikipedia.org"))
	assert.True(t, (&SessionState{}).IsEmpty())
	var none *SessionState
	assert.True(t, none.IsEmpty())
}
