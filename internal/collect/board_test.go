package collect

import (
	"strings"
	"testing"
)

const greenhouseListingHTML = `
<html><body>
<section class="level-0">
  <div class="opening">
    <a href="/acme/jobs/101">Backend Engineer</a>
    <span class="location">Remote</span>
  </div>
  <div class="opening">
    <a href="/acme/jobs/102">Platform Engineer</a>
    <span class="location">New York</span>
  </div>
  <div class="opening">
    <span class="location">No link here</span>
  </div>
</section>
</body></html>`

const leverPostingHTML = `
<html><body>
<nav>Site navigation</nav>
<div class="posting-description">
  <p>We build tools for builders.</p>

  <p>You will own services end to end.</p>
</div>
<div class="lever-application-form">
  <label>Why do you want to work here?</label>
  <label>What is your notice period?</label>
</div>
<footer>Legal footer</footer>
</body></html>`

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://boards.greenhouse.io/acme", PlatformGreenhouse},
		{"https://jobs.lever.co/acme", PlatformLever},
		{"https://careers.example.com/jobs", PlatformGeneric},
		{"://bad", PlatformGeneric},
	}

	for _, tt := range tests {
		if got := DetectPlatform(tt.url); got != tt.expected {
			t.Errorf("DetectPlatform(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

func TestParseListings(t *testing.T) {
	sel := PlatformSelectors(PlatformGreenhouse)
	listings, err := ParseListings(greenhouseListingHTML, "https://boards.greenhouse.io/acme", sel)
	if err != nil {
		t.Fatalf("ParseListings() error = %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2 (entry without link skipped)", len(listings))
	}

	first := listings[0]
	if first.URL != "https://boards.greenhouse.io/acme/jobs/101" {
		t.Errorf("URL = %q, relative link not resolved", first.URL)
	}
	if first.Title != "Backend Engineer" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Location != "Remote" {
		t.Errorf("Location = %q", first.Location)
	}
	if listings[1].Title != "Platform Engineer" {
		t.Errorf("second Title = %q", listings[1].Title)
	}
}

func TestParseListingsEmptyPage(t *testing.T) {
	sel := PlatformSelectors(PlatformGreenhouse)
	listings, err := ParseListings("<html><body></body></html>", "https://boards.greenhouse.io/acme", sel)
	if err != nil {
		t.Fatalf("ParseListings() error = %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("got %d listings from empty page", len(listings))
	}
}

func TestParsePosting(t *testing.T) {
	sel := PlatformSelectors(PlatformLever)
	posting, err := ParsePosting(leverPostingHTML, sel)
	if err != nil {
		t.Fatalf("ParsePosting() error = %v", err)
	}

	for _, want := range []string{"We build tools for builders.", "You will own services end to end."} {
		if !strings.Contains(posting.Description, want) {
			t.Errorf("description missing %q:\n%s", want, posting.Description)
		}
	}
	for _, noise := range []string{"Site navigation", "Legal footer"} {
		if strings.Contains(posting.Description, noise) {
			t.Errorf("description contains noise %q", noise)
		}
	}

	if len(posting.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(posting.Questions))
	}
	if posting.Questions[0] != "Why do you want to work here?" {
		t.Errorf("first question = %q, order not preserved", posting.Questions[0])
	}
}

func TestParsePostingFallsBackToBody(t *testing.T) {
	sel := PlatformSelectors(PlatformGeneric)
	posting, err := ParsePosting("<html><body><p>Just a paragraph.</p></body></html>", sel)
	if err != nil {
		t.Fatalf("ParsePosting() error = %v", err)
	}
	if !strings.Contains(posting.Description, "Just a paragraph.") {
		t.Errorf("body fallback missing content: %q", posting.Description)
	}
}

