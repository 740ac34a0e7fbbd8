package pages

import (
	"context"
	"fmt"

	"e2e_harness/application/engine"
	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"
)

const (
	MainPagePath = "/wiki/Main_Page"
	// ArticleLimit is the upper bound the article count is checked against
	ArticleLimit int64 = 7000000
)

// StatisticsLinks matches every link to the statistics page; the main page
// carries two, the second one holds the article count.
func StatisticsLinks() entities.Locator {
	return entities.ByCSS(`a[href="/wiki/Special:Statistics"]`)
}

func ArticleCount() entities.Locator { return StatisticsLinks().Nth(1) }

// TextSizeOption is one radio of the appearance menu
func TextSizeOption(name string) entities.Locator { return entities.ByRole("radio", name) }

func StandardTextSize() entities.Locator { return entities.ByLabel("Standard").First() }

// OpenMainPage loads the main page
func OpenMainPage(ctx context.Context, page interfaces.Page) error {
	if err := page.Navigate(ctx, MainPagePath); err != nil {
		return fmt.Errorf("failed to open main page: %w", err)
	}
	return nil
}

// ExpectArticleCountBelow asserts the advertised article count is under limit
func ExpectArticleCountBelow(ctx context.Context, e *engine.Engine, page interfaces.Page, limit int64) error {
	return e.Expect(ctx, page, ArticleCount(), engine.CountLessThan(limit))
}

// ReadArticleCount returns the advertised article count
func ReadArticleCount(ctx context.Context, e *engine.Engine, page interfaces.Page) (int64, error) {
	text, err := e.ReadText(ctx, page, ArticleCount())
	if err != nil {
		return 0, err
	}
	n, err := engine.ParseCount(text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ArticleCount(), err)
	}
	return n, nil
}

// OpenStatistics follows the first statistics link
func OpenStatistics(ctx context.Context, e *engine.Engine, page interfaces.Page) error {
	_, err := e.Click(ctx, page, StatisticsLinks().First())
	return err
}

// ExpectUsable asserts target is visible and enabled. A visible but disabled
// control fails with entities.ErrVisibleButDisabled.
func ExpectUsable(ctx context.Context, e *engine.Engine, page interfaces.Page, target entities.Locator) error {
	return e.Expect(ctx, page, target, engine.IsEnabled())
}
