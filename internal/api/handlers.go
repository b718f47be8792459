package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/vest-cli/internal/identify"
	"github.com/sells-group/vest-cli/internal/market"
	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/profit"
	"github.com/sells-group/vest-cli/internal/query"
	"github.com/sells-group/vest-cli/internal/scan"
	"github.com/sells-group/vest-cli/internal/scorer"
	"github.com/sells-group/vest-cli/internal/store"
	"github.com/sells-group/vest-cli/internal/triangulate"
	"github.com/sells-group/vest-cli/internal/velocity"
)

// optionsRequest is the profit-assumption block shared by several endpoints.
type optionsRequest struct {
	ShippingCost *float64 `json:"shipping_cost"`
	Category     string   `json:"category"`
	PromotedRate float64  `json:"promoted_rate"`
}

func (o optionsRequest) parse() (scorer.Options, error) {
	return scorer.ParseOptions(o.ShippingCost, o.Category, o.PromotedRate)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"scans":   s.session != nil,
		"history": s.history != nil,
	})
}

type scoreRequest struct {
	Summary  model.MarketSummary `json:"summary"`
	BuyPrice float64             `json:"buy_price"`
	optionsRequest
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if !decode(w, r, &req) {
		return
	}
	if req.BuyPrice < 0 {
		writeError(w, http.StatusBadRequest, "buy_price must be >= 0")
		return
	}
	opts, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	score := s.engine.ScoreItem(req.Summary, req.BuyPrice, opts)
	s.metrics.ObserveScore(string(score.Grade), score.GradeOverride != nil && score.GradeOverride.OverrideApplied)
	writeJSON(w, http.StatusOK, score)
}

type triangulateRequest struct {
	Estimate *model.ItemPriceEstimate `json:"ai_estimate"`
	Asking   *model.AskingStats       `json:"asking"`
	// Listings, when given, replace Asking with statistics computed here.
	Listings []model.ListingSample `json:"listings"`
}

func (s *Server) handleTriangulate(w http.ResponseWriter, r *http.Request) {
	var req triangulateRequest
	if !decode(w, r, &req) {
		return
	}
	stats := req.Asking
	if len(req.Listings) > 0 {
		st := market.AskingStatsOf(req.Listings)
		stats = &st
	}
	writeJSON(w, http.StatusOK, triangulate.Triangulate(req.Estimate, stats))
}

type profitRequest struct {
	SalePrice float64 `json:"sale_price"`
	BuyPrice  float64 `json:"buy_price"`
	optionsRequest
}

type profitResponse struct {
	Breakdown  model.ProfitBreakdown `json:"breakdown"`
	Evaluation profit.Evaluation     `json:"evaluation"`
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	var req profitRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SalePrice < 0 || req.BuyPrice < 0 {
		writeError(w, http.StatusBadRequest, "prices must be >= 0")
		return
	}
	opts, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b := s.engine.Calculator().Compute(profit.Input{
		SalePrice:    req.SalePrice,
		BuyPrice:     req.BuyPrice,
		ShippingCost: opts.ShippingCost,
		Category:     opts.Category,
		PromotedRate: opts.PromotedRate,
	})
	writeJSON(w, http.StatusOK, profitResponse{Breakdown: b, Evaluation: profit.Evaluate(b)})
}

type sellThroughRequest struct {
	DemandLevel        string  `json:"demand_level"`
	ActiveListingCount int     `json:"active_listing_count"`
	AIMid              float64 `json:"ai_mid"`
	MarketMedian       float64 `json:"market_median"`
}

func (s *Server) handleSellThrough(w http.ResponseWriter, r *http.Request) {
	var req sellThroughRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, velocity.EstimateSellThrough(velocity.Input{
		DemandLevel:        model.ParseDemandLevel(req.DemandLevel),
		ActiveListingCount: req.ActiveListingCount,
		AIMid:              req.AIMid,
		MarketMedian:       req.MarketMedian,
	}))
}

func (s *Server) handleBroaden(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]query.Variant{"variants": query.Broaden(req.Query)})
}

type suggestRequest struct {
	Summary model.MarketSummary `json:"summary"`
	// Grades to solve for; defaults to the scan ladder.
	Grades []string `json:"grades"`
	optionsRequest
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if !decode(w, r, &req) {
		return
	}
	opts, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	targets := scan.DefaultLadder
	if len(req.Grades) > 0 {
		targets = make([]model.Grade, 0, len(req.Grades))
		for _, g := range req.Grades {
			grade, ok := scorer.ParseGrade(strings.TrimSpace(g))
			if !ok {
				writeError(w, http.StatusBadRequest, "unknown grade "+g)
				return
			}
			targets = append(targets, grade)
		}
	}

	suggestions, err := s.engine.SuggestLadder(r.Context(), req.Summary, targets, opts)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "request canceled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

type scanRequest struct {
	Item     model.Identification `json:"item"`
	BuyPrice float64              `json:"buy_price"`
	optionsRequest
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		writeError(w, http.StatusNotImplemented, "scanning is not configured")
		return
	}
	var req scanRequest
	if !decode(w, r, &req) {
		return
	}
	if req.BuyPrice < 0 {
		writeError(w, http.StatusBadRequest, "buy_price must be >= 0")
		return
	}
	opts, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.session.Run(r.Context(), req.Item, req.BuyPrice, opts)
	if errors.Is(err, identify.ErrNoItem) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		zap.L().Error("api: scan failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "scan failed")
		return
	}
	s.observe(res)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleRescore(w http.ResponseWriter, r *http.Request) {
	if s.session == nil || s.history == nil {
		writeError(w, http.StatusNotImplemented, "rescoring needs scans and history")
		return
	}
	var req struct {
		BuyPrice    float64  `json:"buy_price"`
		ExcludedIDs []string `json:"excluded_ids"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.BuyPrice < 0 {
		writeError(w, http.StatusBadRequest, "buy_price must be >= 0")
		return
	}

	prev, ok := s.loadScan(w, r)
	if !ok {
		return
	}
	res, err := s.session.Rescore(r.Context(), prev, req.BuyPrice, req.ExcludedIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rescore failed")
		return
	}
	s.observe(res)
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history is not configured")
		return
	}
	res, ok := s.loadScan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history is not configured")
		return
	}
	q := r.URL.Query()
	filter := store.ScanFilter{
		Grade: model.Grade(q.Get("grade")),
		Query: q.Get("q"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			*dst = n
		}
	}
	if v := q.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_score")
			return
		}
		filter.MinScore = f
	}

	recs, err := s.history.ListScans(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list scans", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list scans failed")
		return
	}
	for i := range recs {
		recs[i].Payload = nil
	}
	if recs == nil {
		recs = []store.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"scans": recs})
}

func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotImplemented, "history is not configured")
		return
	}
	err := s.history.DeleteScan(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) loadScan(w http.ResponseWriter, r *http.Request) (*scan.Result, bool) {
	rec, err := s.history.GetScan(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "scan not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("api: get scan", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load scan failed")
		return nil, false
	}
	res, err := scan.FromRecord(rec)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "scan has no stored result")
		return nil, false
	}
	return res, true
}

func (s *Server) observe(res *scan.Result) {
	o := res.Score.GradeOverride
	s.metrics.ObserveScore(string(res.Score.Grade), o != nil && o.OverrideApplied)
}
