package pages

import (
	"context"
	"fmt"

	"e2e_harness/application/engine"
	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"
)

// PortalURL is the multilingual entry page
const PortalURL = "https://www.wikipedia.org/"

func SearchBox() entities.Locator { return entities.ByRole("searchbox", "Search Wikipedia") }

// ArticleLink is the first link whose accessible name contains title
func ArticleLink(title string) entities.Locator {
	return entities.ByRole("link", title).First()
}

func ViewHistoryLink() entities.Locator { return entities.ByRole("link", "View history") }

// HistoryList is the revision list of a history page
func HistoryList() entities.Locator {
	return entities.ByCSS("#pagehistory ul.mw-contributions-list")
}

// LatestEditor is the user name on the newest revision of a history page
func LatestEditor() entities.Locator {
	return HistoryList().
		Locate(entities.ByCSS("li")).
		Locate(entities.ByCSS("span.history-user")).
		Locate(entities.ByCSS("a.new.mw-userlink")).
		Locate(entities.ByCSS("bdi")).
		First()
}

// OpenPortal loads the portal page
func OpenPortal(ctx context.Context, page interfaces.Page, url string) error {
	if url == "" {
		url = PortalURL
	}
	if err := page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}
	return nil
}

// Search types term into the portal search box
func Search(ctx context.Context, e *engine.Engine, page interfaces.Page, term string) error {
	_, err := e.Fill(ctx, page, SearchBox(), term)
	return err
}

// OpenArticle follows the first link matching title
func OpenArticle(ctx context.Context, e *engine.Engine, page interfaces.Page, title string) error {
	_, err := e.Click(ctx, page, ArticleLink(title))
	return err
}

// OpenHistory follows the article's "View history" tab
func OpenHistory(ctx context.Context, e *engine.Engine, page interfaces.Page) error {
	_, err := e.Click(ctx, page, ViewHistoryLink())
	return err
}

// ExpectLatestEditor asserts the newest revision was made by user
func ExpectLatestEditor(ctx context.Context, e *engine.Engine, page interfaces.Page, user string) error {
	return e.Expect(ctx, page, LatestEditor(), engine.TextEquals(user))
}
