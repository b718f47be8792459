// Package scan runs the full pricing pipeline for one identified item:
// tiered marketplace search, price triangulation, sell-through estimation,
// synthetic sold history, market summary and V.E.S.T. scoring.
package scan

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vest-cli/internal/identify"
	"github.com/sells-group/vest-cli/internal/market"
	"github.com/sells-group/vest-cli/internal/marketplace"
	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/profit"
	"github.com/sells-group/vest-cli/internal/query"
	"github.com/sells-group/vest-cli/internal/scorer"
	"github.com/sells-group/vest-cli/internal/store"
	"github.com/sells-group/vest-cli/internal/triangulate"
	"github.com/sells-group/vest-cli/internal/velocity"
)

// DefaultLadder is the set of grades a scan suggests buy prices for.
var DefaultLadder = []model.Grade{model.GradeA, model.GradeBPlus, model.GradeB, model.GradeC}

// Config tunes a Session.
type Config struct {
	// MinResults is the listing count a search tier must reach. Default: 3.
	MinResults int
	// SearchLimit is the listings requested per tier. Default: 50.
	SearchLimit int
	// SearchTimeout bounds each search call. Zero means no extra bound.
	SearchTimeout time.Duration
	// Seed perturbs synthetic sold-history generation.
	Seed uint64
	// Ladder lists the grades to suggest buy prices for.
	Ladder []model.Grade
}

// Result is one scored scan.
type Result struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Item     model.Identification `json:"item"`
	BuyPrice float64              `json:"buy_price"`
	Options  scorer.Options       `json:"options"`

	Search      query.FallbackResult    `json:"search"`
	Excluded    []string                `json:"excluded,omitempty"`
	Asking      model.AskingStats       `json:"asking"`
	Price       model.TriangulatedPrice `json:"price"`
	SellThrough velocity.Result         `json:"sell_through"`
	ListPrice   float64                 `json:"list_price"`
	Market      model.MarketSummary     `json:"market"`
	Score       model.VestScore         `json:"score"`
	Deal        profit.Evaluation       `json:"deal"`
	Suggestions []scorer.Suggestion     `json:"suggestions"`
}

// Record flattens the result for scan history.
func (r *Result) Record() (store.ScanRecord, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return store.ScanRecord{}, eris.Wrap(err, "scan: marshal result")
	}
	return store.ScanRecord{
		ID:             r.ID,
		ParentID:       r.ParentID,
		CreatedAt:      r.CreatedAt,
		ItemName:       r.Item.Name,
		Category:       r.Options.Category,
		Query:          r.Search.Query,
		Tier:           r.Search.Tier,
		BuyPrice:       r.BuyPrice,
		ListPrice:      r.ListPrice,
		Score:          r.Score.Total,
		Grade:          r.Score.Grade,
		Recommendation: r.Score.Recommendation,
		NetProfit:      r.Score.EstimatedProfit,
		ROI:            r.Score.ROI,
		Payload:        payload,
	}, nil
}

// FromRecord restores a result saved by Record.
func FromRecord(rec *store.ScanRecord) (*Result, error) {
	if rec == nil || len(rec.Payload) == 0 {
		return nil, eris.New("scan: record has no payload")
	}
	var r Result
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return nil, eris.Wrapf(err, "scan: unmarshal record %s", rec.ID)
	}
	return &r, nil
}

// Session runs scans against one marketplace and scoring engine.
type Session struct {
	searcher marketplace.Searcher
	engine   *scorer.Engine
	history  store.Store
	cfg      Config
	now      func() time.Time
	newID    func() string
}

// Option configures a Session.
type Option func(*Session)

// WithHistory saves every scan to st.
func WithHistory(st store.Store) Option {
	return func(s *Session) { s.history = st }
}

// WithClock overrides the session clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates a Session. A nil engine uses scorer.Default.
func NewSession(searcher marketplace.Searcher, engine *scorer.Engine, cfg Config, opts ...Option) *Session {
	if engine == nil {
		engine = scorer.Default()
	}
	if cfg.MinResults <= 0 {
		cfg.MinResults = query.DefaultMinResults
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = marketplace.DefaultLimit
	}
	if len(cfg.Ladder) == 0 {
		cfg.Ladder = DefaultLadder
	}
	s := &Session{
		searcher: searcher,
		engine:   engine,
		cfg:      cfg,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run searches the marketplace for item and scores it at buyPrice. An
// empty opts.Category falls back to the item's category.
func (s *Session) Run(ctx context.Context, item model.Identification, buyPrice float64, opts scorer.Options) (*Result, error) {
	item = identify.Normalize(item)
	if err := identify.Validate(item); err != nil {
		return nil, err
	}
	if opts.Category == "" {
		opts.Category = item.Category
	}

	log := zap.L().With(zap.String("item", item.Name), zap.String("query", item.Query()))
	start := s.now()

	search := marketplace.SearchFunc(s.searcher, s.cfg.SearchLimit, s.cfg.SearchTimeout)
	fb := query.SearchWithFallback(ctx, item.Query(), search, s.cfg.MinResults)
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scan: search")
	}

	r := &Result{
		ID:        s.newID(),
		CreatedAt: start.UTC(),
		Item:      item,
		Options:   opts,
		Search:    fb,
	}
	if err := s.evaluate(ctx, r, buyPrice, nil); err != nil {
		return nil, err
	}

	log.Info("scan complete",
		zap.String("scan_id", r.ID),
		zap.Int("tier", fb.Tier),
		zap.Int("listings", len(fb.Listings)),
		zap.Float64("score", r.Score.Total),
		zap.String("grade", string(r.Score.Grade)),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	s.save(ctx, r)
	return r, nil
}

// RunImage identifies the photo with id and then runs a scan.
func (s *Session) RunImage(ctx context.Context, id identify.Identifier, image []byte, mimeType string, buyPrice float64, opts scorer.Options) (*Result, error) {
	item, err := id.Identify(ctx, image, mimeType)
	if err != nil {
		return nil, eris.Wrap(err, "scan: identify")
	}
	return s.Run(ctx, *item, buyPrice, opts)
}

// Rescore recomputes prev at a new buy price with the given listings
// excluded. No marketplace call is made. The new result gets its own id
// and points back at prev.
func (s *Session) Rescore(ctx context.Context, prev *Result, buyPrice float64, excludedIDs []string) (*Result, error) {
	if prev == nil {
		return nil, eris.New("scan: rescore needs a previous result")
	}
	r := &Result{
		ID:        s.newID(),
		ParentID:  prev.ID,
		CreatedAt: s.now().UTC(),
		Item:      prev.Item,
		Options:   prev.Options,
		Search:    prev.Search,
	}
	if err := s.evaluate(ctx, r, buyPrice, excludedIDs); err != nil {
		return nil, err
	}
	zap.L().Info("scan rescored",
		zap.String("scan_id", r.ID),
		zap.String("parent_id", prev.ID),
		zap.Int("excluded", len(r.Excluded)),
		zap.Float64("score", r.Score.Total),
	)
	s.save(ctx, r)
	return r, nil
}

// evaluate fills everything downstream of the search.
func (s *Session) evaluate(ctx context.Context, r *Result, buyPrice float64, excluded []string) error {
	r.BuyPrice = model.RoundCents(model.Sanitize(buyPrice))
	r.Excluded = excluded

	active := market.Exclude(r.Search.Listings, excluded)
	supply := max(r.Search.TotalCount-(len(r.Search.Listings)-len(active)), len(active))

	r.Asking = market.AskingStatsOf(active)
	var stats *model.AskingStats
	if r.Asking.Count > 0 {
		stats = &r.Asking
	}
	r.Price = triangulate.Triangulate(r.Item.PriceEstimate, stats)

	var aiMid float64
	if r.Item.PriceEstimate.Usable() {
		aiMid = r.Item.PriceEstimate.Mid
	}
	r.SellThrough = velocity.EstimateSellThrough(velocity.Input{
		DemandLevel:        r.Item.Demand(),
		ActiveListingCount: supply,
		AIMid:              aiMid,
		MarketMedian:       r.Asking.Median,
	})

	rng := market.NewRand(r.Search.Query, s.cfg.Seed)
	sold := market.SynthesizeSold(r.Price, market.SoldParams{
		Rate:        r.SellThrough.Rate,
		DaysToSell:  r.SellThrough.DaysToSell,
		ActiveCount: supply,
	}, rng)

	// Sold volume is capped, so the summary carries the supply modeled
	// alongside it and the estimator's own rate.
	r.Market = market.Summarize(active, sold)
	r.Market.ActiveListingCount = market.ModeledSupply(r.SellThrough.Rate, supply)
	r.Market.SellThroughRate = r.SellThrough.Rate

	r.ListPrice = velocity.SelectPrice(r.SellThrough.MarketType, r.Price, market.ActiveMedian(active))
	r.Score = s.engine.ScoreItem(r.Market, r.BuyPrice, r.Options)
	r.Deal = profit.Evaluate(r.Score.ProfitBreakdown)

	suggestions, err := s.engine.SuggestLadder(ctx, r.Market, s.cfg.Ladder, r.Options)
	if err != nil {
		return eris.Wrap(err, "scan: suggest buy prices")
	}
	r.Suggestions = suggestions
	return nil
}

func (s *Session) save(ctx context.Context, r *Result) {
	if s.history == nil {
		return
	}
	rec, err := r.Record()
	if err == nil {
		err = s.history.SaveScan(ctx, rec)
	}
	if err != nil {
		zap.L().Warn("scan: failed to save history", zap.String("scan_id", r.ID), zap.Error(err))
	}
}
