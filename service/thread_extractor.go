package service

import (
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"reddit-listener/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const (
	redditBase       = "https://www.reddit.com"
	maxSnippetLength = 500
)

// ThreadExtractor parses listing markup into candidate threads. Field
// extraction is tolerant: every field except the permalink defaults to
// empty on failure, and a malformed entry is skipped without aborting the
// page. Output order matches the listing order.
type ThreadExtractor struct {
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

func NewThreadExtractor(logger *slog.Logger) *ThreadExtractor {
	return &ThreadExtractor{
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// Extract returns the candidate threads found on the page, in listing
// order. A non-empty page yielding zero candidates is logged loudly: it
// usually means the upstream markup changed shape.
func (e *ThreadExtractor) Extract(page *domain.ListingPage) []domain.CandidateThread {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		e.logger.Error("failed to parse listing markup", "subreddit", page.Subreddit, "error", err)
		return nil
	}

	var candidates []domain.CandidateThread

	skipped := 0

	doc.Find("shreddit-post").Each(func(_ int, s *goquery.Selection) {
		candidate, err := e.extractEntry(s, page.Subreddit)
		if err != nil {
			skipped++
			e.logger.Warn("skipping malformed listing entry",
				"subreddit", page.Subreddit,
				"error", err)

			return
		}

		candidates = append(candidates, candidate)
	})

	if len(candidates) == 0 && strings.TrimSpace(page.HTML) != "" {
		e.logger.Warn("no candidates extracted from non-empty page; upstream markup may have changed",
			"subreddit", page.Subreddit,
			"page_bytes", len(page.HTML),
			"skipped", skipped)
	} else if skipped > 0 {
		e.logger.Info("extracted candidates with malformed entries skipped",
			"subreddit", page.Subreddit,
			"extracted", len(candidates),
			"skipped", skipped)
	}

	return candidates
}

func (e *ThreadExtractor) extractEntry(s *goquery.Selection, subreddit string) (domain.CandidateThread, error) {
	permalink, err := e.extractPermalink(s, subreddit)
	if err != nil {
		return domain.CandidateThread{}, err
	}

	return domain.CandidateThread{
		Permalink:    permalink,
		Title:        e.extractTitle(s),
		Author:       e.extractAuthor(s),
		Flair:        e.extractFlair(s),
		RawTimestamp: e.extractTimestamp(s),
		Snippet:      e.extractSnippet(s),
	}, nil
}

// extractPermalink is the one mandatory field. It tries the permalink
// attribute, the title anchor, and finally reconstruction from the post
// id, then canonicalizes to an absolute URL.
func (e *ThreadExtractor) extractPermalink(s *goquery.Selection, subreddit string) (string, error) {
	if href, ok := s.Attr("permalink"); ok && strings.TrimSpace(href) != "" {
		return canonicalPermalink(href)
	}

	if href, ok := s.Find("a[slot='full-post-link'], a[slot='title']").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		return canonicalPermalink(href)
	}

	if id, ok := s.Attr("id"); ok {
		id = strings.TrimPrefix(strings.TrimSpace(id), "t3_")
		if id != "" {
			return redditBase + "/r/" + subreddit + "/comments/" + id + "/", nil
		}
	}

	return "", domain.ErrMissingPermalink
}

func canonicalPermalink(href string) (string, error) {
	href = strings.TrimSpace(href)

	u, err := url.Parse(href)
	if err != nil {
		return "", domain.ErrMissingPermalink
	}

	base, _ := url.Parse(redditBase)
	resolved := base.ResolveReference(u)

	// Listing markup sometimes carries protocol-relative links.
	if resolved.Scheme == "" {
		resolved.Scheme = "https"
	}

	if resolved.Host == "" {
		return "", domain.ErrMissingPermalink
	}

	resolved.Fragment = ""
	resolved.RawQuery = ""

	return resolved.String(), nil
}

func (e *ThreadExtractor) extractTitle(s *goquery.Selection) string {
	if title, ok := s.Attr("post-title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}

	if title := strings.TrimSpace(s.Find("a[slot='title'], [slot='title']").First().Text()); title != "" {
		return title
	}

	return ""
}

func (e *ThreadExtractor) extractAuthor(s *goquery.Selection) string {
	if author, ok := s.Attr("author"); ok && strings.TrimSpace(author) != "" {
		return strings.TrimSpace(author)
	}

	var author string

	s.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.TrimSpace(a.Text())
		if strings.HasPrefix(text, "u/") {
			author = strings.TrimPrefix(text, "u/")
			return false
		}

		return true
	})

	return author
}

func (e *ThreadExtractor) extractFlair(s *goquery.Selection) string {
	return strings.TrimSpace(s.Find("[slot='post-flair'], .flair").First().Text())
}

// extractTimestamp returns raw timestamp text; resolving it is the
// caller's job so extraction and time parsing stay decoupled.
func (e *ThreadExtractor) extractTimestamp(s *goquery.Selection) string {
	if ts, ok := s.Attr("created-timestamp"); ok && strings.TrimSpace(ts) != "" {
		return strings.TrimSpace(ts)
	}

	if ts, ok := s.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(ts) != "" {
		return strings.TrimSpace(ts)
	}

	var relative string

	s.Find("faceplate-timeago, time").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		text := strings.TrimSpace(el.Text())
		if strings.Contains(text, "ago") {
			relative = text
			return false
		}

		return true
	})

	return relative
}

func (e *ThreadExtractor) extractSnippet(s *goquery.Selection) string {
	body := s.Find("[slot='text-body']").First()
	if body.Length() == 0 {
		return ""
	}

	html, err := body.Html()
	if err != nil {
		return ""
	}

	text := strings.Join(strings.Fields(e.sanitizer.Sanitize(html)), " ")

	return truncateSnippet(text)
}

// truncateSnippet cuts on a rune boundary so the stored snippet is always
// valid UTF-8.
func truncateSnippet(text string) string {
	if len(text) <= maxSnippetLength {
		return text
	}

	cut := maxSnippetLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	return text[:cut]
}
