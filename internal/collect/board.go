// Package collect - board.go provides platform detection and selector-driven
// listing and posting extraction.
package collect

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformGeneric is an unrecognized board handled with generic selectors
	PlatformGeneric Platform = "generic"
)

// Selectors describe how to locate listings and fields on a board page.
type Selectors struct {
	// Listing matches one job entry on a listing page.
	Listing string
	// Link, Title, Company, Location are resolved relative to a listing entry.
	Link     string
	Title    string
	Company  string
	Location string
	// Description matches the posting body on a detail page.
	Description []string
	// Questions matches application question labels on a detail page.
	Questions string
}

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformGeneric
	}

	host := strings.ToLower(parsed.Host)

	if strings.Contains(host, "greenhouse.io") {
		return PlatformGreenhouse
	}
	if strings.Contains(host, "lever.co") {
		return PlatformLever
	}

	return PlatformGeneric
}

// PlatformSelectors returns extraction selectors for a specific platform.
func PlatformSelectors(platform Platform) Selectors {
	switch platform {
	case PlatformGreenhouse:
		return Selectors{
			Listing:  ".opening",
			Link:     "a",
			Title:    "a",
			Company:  "",
			Location: ".location",
			Description: []string{
				".job__description.body",
				".job__description",
				"#content",
			},
			Questions: ".application--form label, #application-form label",
		}
	case PlatformLever:
		return Selectors{
			Listing:  ".posting",
			Link:     "a.posting-title",
			Title:    "h5",
			Company:  "",
			Location: ".posting-categories .sort-by-location",
			Description: []string{
				".posting-description",
				".section-wrapper.page-full-width",
				".content",
			},
			Questions: ".application-question label, .lever-application-form label",
		}
	default:
		return Selectors{
			Listing:  ".job-listing, .job-card, li.job, article.job",
			Link:     "a",
			Title:    "h2, h3, .job-title, .title",
			Company:  ".company, .company-name",
			Location: ".location, .job-location",
			Description: []string{
				".job-description",
				"#job-description",
				".posting-content",
				"main",
				"article",
				".content",
			},
			Questions: "form label, .application-question",
		}
	}
}

// Listing is one job entry extracted from a board listing page.
type Listing struct {
	URL      string
	Title    string
	Company  string
	Location string
}

// ParseListings extracts job entries from a listing page using the platform's
// selectors. Relative links are resolved against baseURL. Entries without a
// link or title are skipped.
func ParseListings(html, baseURL string, sel Selectors) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	var listings []Listing
	doc.Find(sel.Listing).Each(func(_ int, entry *goquery.Selection) {
		href, ok := entry.Find(sel.Link).First().Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		title := strings.TrimSpace(entry.Find(sel.Title).First().Text())
		if title == "" {
			return
		}

		listing := Listing{
			URL:      base.ResolveReference(ref).String(),
			Title:    title,
			Location: strings.TrimSpace(entry.Find(sel.Location).First().Text()),
		}
		if sel.Company != "" {
			listing.Company = strings.TrimSpace(entry.Find(sel.Company).First().Text())
		}
		listings = append(listings, listing)
	})

	return listings, nil
}

// Posting is the detail-page content for one job.
type Posting struct {
	Description string
	Questions   []string
}

// ParsePosting extracts the posting body and any application questions from a
// detail page. Noise elements are stripped before text extraction; the first
// matching description selector wins, falling back to body.
func ParsePosting(html string, sel Selectors) (*Posting, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse posting HTML: %w", err)
	}

	var questions []string
	if sel.Questions != "" {
		doc.Find(sel.Questions).Each(func(_ int, q *goquery.Selection) {
			text := strings.TrimSpace(q.Text())
			if text != "" {
				questions = append(questions, text)
			}
		})
	}

	doc.Find("nav, footer, header, script, style, noscript, form, .cookie-banner, .social-share, .eeo-statement").Remove()

	var content *goquery.Selection
	for _, selector := range sel.Description {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}
	if content == nil {
		content = doc.Find("body")
	}

	return &Posting{
		Description: cleanWhitespace(content.Text()),
		Questions:   questions,
	}, nil
}
