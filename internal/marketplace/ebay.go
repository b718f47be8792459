package marketplace

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/pkg/ebay"
)

// EbaySearcher searches active listings through the Browse API.
type EbaySearcher struct {
	client ebay.Client
	filter string
}

// NewEbaySearcher wraps a Browse API client. filter is passed to every
// search, e.g. "buyingOptions:{FIXED_PRICE}".
func NewEbaySearcher(client ebay.Client, filter string) *EbaySearcher {
	return &EbaySearcher{client: client, filter: filter}
}

// Search implements Searcher.
func (s *EbaySearcher) Search(ctx context.Context, q string, limit int) (model.SearchResult, error) {
	resp, err := s.client.Search(ctx, ebay.SearchRequest{Query: q, Limit: limit, Filter: s.filter})
	if err != nil {
		return model.SearchResult{}, eris.Wrap(err, "marketplace: ebay search")
	}

	out := model.SearchResult{
		Listings:   make([]model.ListingSample, 0, len(resp.ItemSummaries)),
		TotalCount: resp.Total,
	}
	for _, it := range resp.ItemSummaries {
		l := model.ListingSample{
			ID:        it.ItemID,
			Title:     it.Title,
			Price:     it.Price.Float(),
			Condition: it.Condition,
			ImageURL:  it.Image.ImageURL,
			Kind:      model.ListingActive,
		}
		if !l.Valid() {
			continue
		}
		out.Listings = append(out.Listings, l)
	}
	if out.TotalCount < len(out.Listings) {
		out.TotalCount = len(out.Listings)
	}
	return out, nil
}
