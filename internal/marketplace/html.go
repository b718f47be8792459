package marketplace

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/resilience"
)

const defaultSearchPage = "https://www.ebay.com/sch/i.html"

// HTMLSearcher scrapes a public search-results page. It needs no API
// credentials and serves as a fallback for the Browse API.
type HTMLSearcher struct {
	client    *http.Client
	pageURL   string
	userAgent string
}

// NewHTMLSearcher creates a scraper. An empty pageURL uses the eBay search page.
func NewHTMLSearcher(client *http.Client, pageURL string) *HTMLSearcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if pageURL == "" {
		pageURL = defaultSearchPage
	}
	return &HTMLSearcher{
		client:    client,
		pageURL:   pageURL,
		userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

// Search implements Searcher.
func (s *HTMLSearcher) Search(ctx context.Context, q string, limit int) (model.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	u, err := url.Parse(s.pageURL)
	if err != nil {
		return model.SearchResult{}, eris.Wrap(err, "marketplace: parse search page url")
	}
	v := u.Query()
	v.Set("_nkw", q)
	v.Set("_ipg", strconv.Itoa(limit))
	u.RawQuery = v.Encode()

	doc, err := s.fetch(ctx, u.String())
	if err != nil {
		return model.SearchResult{}, err
	}
	return parseResults(doc, limit), nil
}

func (s *HTMLSearcher) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "marketplace: create page request")
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "marketplace: fetch search page"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("marketplace: search page status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "marketplace: parse search page")
	}
	return doc, nil
}

var (
	priceRe   = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
	resultsRe = regexp.MustCompile(`[0-9][0-9,]*`)
	itemIDRe  = regexp.MustCompile(`/itm/(?:[^/]+/)?([0-9]+)`)
)

func parseResults(doc *goquery.Document, limit int) model.SearchResult {
	out := model.SearchResult{Listings: []model.ListingSample{}}

	doc.Find("li.s-item").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Find(".s-item__title").First().Text())
		// eBay pads results with a "Shop on eBay" placeholder card.
		if title == "" || strings.EqualFold(title, "Shop on eBay") {
			return true
		}
		l := model.ListingSample{
			Title:     title,
			Price:     parsePrice(sel.Find(".s-item__price").First().Text()),
			Condition: strings.TrimSpace(sel.Find(".SECONDARY_INFO").First().Text()),
			Kind:      model.ListingActive,
		}
		if href, ok := sel.Find("a.s-item__link").First().Attr("href"); ok {
			if m := itemIDRe.FindStringSubmatch(href); m != nil {
				l.ID = m[1]
			}
		}
		if l.ID == "" {
			l.ID = "html-" + strconv.Itoa(i)
		}
		if src, ok := sel.Find(".s-item__image img").First().Attr("src"); ok {
			l.ImageURL = src
		}
		if l.Valid() {
			out.Listings = append(out.Listings, l)
		}
		return len(out.Listings) < limit
	})

	out.TotalCount = len(out.Listings)
	if m := resultsRe.FindString(doc.Find(".srp-controls__count-heading").First().Text()); m != "" {
		if n, err := strconv.Atoi(strings.ReplaceAll(m, ",", "")); err == nil && n > out.TotalCount {
			out.TotalCount = n
		}
	}
	return out
}

// parsePrice reads the first amount in s. A range such as "$10.00 to
// $15.00" yields its lower bound.
func parsePrice(s string) float64 {
	m := priceRe.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
