package collect

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/apply-assistant/internal/db"
)

// MaxPostingsPerBoard caps how many detail pages one board fetch will follow.
const MaxPostingsPerBoard = 25

// Collector fetches and parses postings from configured job boards.
type Collector struct {
	opts    *FetchOptions
	logger  *zap.Logger
	browser bool
}

// NewCollector creates a Collector. When browser is true, listing pages that
// come back nearly empty are retried through headless Chrome.
func NewCollector(logger *zap.Logger, browser bool) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		opts:    DefaultFetchOptions(),
		logger:  logger,
		browser: browser,
	}
}

// CollectedPosting pairs an extracted posting with its listing metadata.
type CollectedPosting struct {
	Posting   db.JobPosting
	Questions []string
}

// Collect gathers postings from each board URL. Boards that fail are logged
// and skipped so one broken board does not sink the whole run.
func (c *Collector) Collect(ctx context.Context, boardURLs []string) []CollectedPosting {
	var collected []CollectedPosting
	for _, boardURL := range boardURLs {
		postings, err := c.collectBoard(ctx, boardURL)
		if err != nil {
			c.logger.Warn("board collection failed",
				zap.String("board", boardURL),
				zap.Error(err))
			continue
		}
		c.logger.Info("board collected",
			zap.String("board", boardURL),
			zap.Int("postings", len(postings)))
		collected = append(collected, postings...)
	}
	return collected
}

func (c *Collector) collectBoard(ctx context.Context, boardURL string) ([]CollectedPosting, error) {
	platform := DetectPlatform(boardURL)
	sel := PlatformSelectors(platform)

	html, err := c.fetchPage(ctx, boardURL)
	if err != nil {
		return nil, err
	}

	listings, err := ParseListings(html, boardURL, sel)
	if err != nil {
		return nil, err
	}
	if len(listings) > MaxPostingsPerBoard {
		listings = listings[:MaxPostingsPerBoard]
	}

	var collected []CollectedPosting
	for _, listing := range listings {
		detail, err := c.fetchPage(ctx, listing.URL)
		if err != nil {
			c.logger.Warn("posting fetch failed",
				zap.String("url", listing.URL),
				zap.Error(err))
			continue
		}
		posting, err := ParsePosting(detail, sel)
		if err != nil || posting.Description == "" {
			c.logger.Warn("posting parse failed or empty",
				zap.String("url", listing.URL),
				zap.Error(err))
			continue
		}

		collected = append(collected, CollectedPosting{
			Posting: db.JobPosting{
				URL:         listing.URL,
				Title:       listing.Title,
				Company:     listing.Company,
				Location:    listing.Location,
				Description: posting.Description,
				Source:      string(platform),
			},
			Questions: posting.Questions,
		})
	}

	return collected, nil
}

// fetchPage retrieves a page over HTTP and falls back to browser rendering
// when the response looks like an unrendered SPA shell.
func (c *Collector) fetchPage(ctx context.Context, url string) (string, error) {
	result, err := Fetch(ctx, url, c.opts)
	if err != nil {
		return "", err
	}

	if c.browser && ShouldUseBrowser(result.HTML) {
		c.logger.Debug("falling back to browser rendering", zap.String("url", url))
		return RenderWithBrowser(ctx, url, 60*time.Second)
	}

	return result.HTML, nil
}
