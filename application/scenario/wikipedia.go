package scenario

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"e2e_harness/application/pages"
)

// Parameters understood by the built-in scenarios
const (
	ParamPortalURL    = "portal_url"
	ParamSearchTerm   = "search_term"
	ParamArticle      = "article_title"
	ParamExpectedUser = "expected_user"
	ParamArticleLimit = "article_limit"
)

// Defaults for the built-in scenarios
var DefaultParams = Params{
	ParamPortalURL:    pages.PortalURL,
	ParamSearchTerm:   "artificial",
	ParamArticle:      "Artificial intelligence",
	ParamExpectedUser: "ElegantEgotist",
	ParamArticleLimit: "7000000",
}

// Login checks the sign-in form with creds
func Login(creds pages.Credentials) Scenario {
	return Scenario{
		Name:        "login",
		Description: "Sign in through the login form",
		Anonymous:   true,
		Steps: []Step{{
			Name: "sign in",
			Run: func(ctx context.Context, env *Env) error {
				return pages.Login(ctx, env.Engine, env.Page, creds)
			},
		}},
	}
}

// SearchWikipedia searches from the portal and checks the latest editor of
// the article found. Every step needs the page its predecessor opened.
func SearchWikipedia() Scenario {
	return Scenario{
		Name:        "search-wikipedia",
		Tag:         "@id=67ddea97348cfb2bed994986",
		Description: "Search an article and check who edited it last",
		Steps: []Step{
			{
				Name: "open portal",
				Run: func(ctx context.Context, env *Env) error {
					return pages.OpenPortal(ctx, env.Page, env.Params.Get(ParamPortalURL, pages.PortalURL))
				},
			},
			{
				Name:      "search",
				DependsOn: []string{"open portal"},
				Run: func(ctx context.Context, env *Env) error {
					return pages.Search(ctx, env.Engine, env.Page, env.Params.Get(ParamSearchTerm, DefaultParams[ParamSearchTerm]))
				},
			},
			{
				Name:      "open article",
				DependsOn: []string{"search"},
				Run: func(ctx context.Context, env *Env) error {
					return pages.OpenArticle(ctx, env.Engine, env.Page, env.Params.Get(ParamArticle, DefaultParams[ParamArticle]))
				},
			},
			{
				Name:      "view history",
				DependsOn: []string{"open article"},
				Run: func(ctx context.Context, env *Env) error {
					return pages.OpenHistory(ctx, env.Engine, env.Page)
				},
			},
			{
				Name:      "verify latest editor",
				DependsOn: []string{"view history"},
				Run: func(ctx context.Context, env *Env) error {
					return pages.ExpectLatestEditor(ctx, env.Engine, env.Page, env.Params.Get(ParamExpectedUser, DefaultParams[ParamExpectedUser]))
				},
			},
		},
	}
}

// HomepageActions checks the article count advertised on the main page
func HomepageActions() Scenario {
	return Scenario{
		Name:        "homepage-actions",
		Tag:         "@id=67ddf04f348cfb2bed994999",
		Description: "Check the main page article count",
		Steps: []Step{
			{
				Name: "open main page",
				Run: func(ctx context.Context, env *Env) error {
					return pages.OpenMainPage(ctx, env.Page)
				},
			},
			{
				Name:      "article count below limit",
				DependsOn: []string{"open main page"},
				Run: func(ctx context.Context, env *Env) error {
					limit, err := env.Params.Int(ParamArticleLimit, pages.ArticleLimit)
					if err != nil {
						return err
					}
					return pages.ExpectArticleCountBelow(ctx, env.Engine, env.Page, limit)
				},
			},
		},
	}
}

// TextSize checks the text size options on the statistics page. The three
// options are checked independently so each one reports on its own.
func TextSize() Scenario {
	steps := []Step{
		{
			Name: "open main page",
			Run: func(ctx context.Context, env *Env) error {
				return pages.OpenMainPage(ctx, env.Page)
			},
		},
		{
			Name:      "open statistics",
			DependsOn: []string{"open main page"},
			Run: func(ctx context.Context, env *Env) error {
				return pages.OpenStatistics(ctx, env.Engine, env.Page)
			},
		},
	}
	for _, name := range []string{"Small", "Large"} {
		target := pages.TextSizeOption(name)
		steps = append(steps, Step{
			Name:      strings.ToLower(name) + " option usable",
			DependsOn: []string{"open statistics"},
			Run: func(ctx context.Context, env *Env) error {
				return pages.ExpectUsable(ctx, env.Engine, env.Page, target)
			},
		})
	}
	steps = append(steps, Step{
		Name:      "standard option usable",
		DependsOn: []string{"open statistics"},
		Run: func(ctx context.Context, env *Env) error {
			return pages.ExpectUsable(ctx, env.Engine, env.Page, pages.StandardTextSize())
		},
	})

	return Scenario{
		Name:        "text-size",
		Description: "Check the text size options are usable",
		Steps:       steps,
	}
}

// Catalog returns every built-in scenario in a stable order
func Catalog(creds pages.Credentials) []Scenario {
	return []Scenario{
		Login(creds),
		SearchWikipedia(),
		HomepageActions(),
		TextSize(),
	}
}

// Select picks scenarios by name or tag, keeping catalog order. No names
// selects everything.
func Select(catalog []Scenario, names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return catalog, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []Scenario
	for _, sc := range catalog {
		if wanted[sc.Name] || (sc.Tag != "" && wanted[sc.Tag]) {
			out = append(out, sc)
			delete(wanted, sc.Name)
			delete(wanted, sc.Tag)
		}
	}
	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for n := range wanted {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown scenario(s): %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
