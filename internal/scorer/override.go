package scorer

import (
	"fmt"

	"github.com/sells-group/vest-cli/internal/model"
)

// OverrideInput carries the cash-flow signals the override rules test.
type OverrideInput struct {
	DaysToSell      float64
	NetProfit       float64
	GrossMargin     float64
	SellThroughRate float64
}

// OverrideRule raises a grade to MinimumGrade when Predicate holds.
type OverrideRule struct {
	Name         string
	Category     model.OverrideType
	MinimumGrade model.Grade
	Reason       string
	Predicate    func(OverrideInput) bool
}

// fastSale reports a known sale time of at most days.
func fastSale(in OverrideInput, days float64) bool {
	return in.DaysToSell > 0 && in.DaysToSell <= days
}

// DefaultRules is the override table. Declaration order breaks ties.
var DefaultRules = []OverrideRule{
	{
		Name: "LIGHTNING_FLIP", Category: model.OverrideVelocity, MinimumGrade: model.GradeBPlus,
		Reason: "Sells within 3 days with at least $8 profit at 20%+ margin",
		Predicate: func(in OverrideInput) bool {
			return fastSale(in, 3) && in.NetProfit >= 8 && in.GrossMargin >= 0.20
		},
	},
	{
		Name: "QUICK_FLIP", Category: model.OverrideVelocity, MinimumGrade: model.GradeB,
		Reason: "Sells within 5 days with at least $5 profit",
		Predicate: func(in OverrideInput) bool {
			return fastSale(in, 5) && in.NetProfit >= 5
		},
	},
	{
		Name: "VELOCITY_CHAMPION", Category: model.OverrideVelocity, MinimumGrade: model.GradeBPlus,
		Reason: "Sells within a week with at least $10 profit",
		Predicate: func(in OverrideInput) bool {
			return fastSale(in, 7) && in.NetProfit >= 10
		},
	},
	{
		Name: "FAST_MOVER", Category: model.OverrideVelocity, MinimumGrade: model.GradeBMinus,
		Reason: "Sells within 10 days with at least $10 profit",
		Predicate: func(in OverrideInput) bool {
			return fastSale(in, 10) && in.NetProfit >= 10
		},
	},
	{
		Name: "WEEKLY_MARGIN", Category: model.OverrideVelocity, MinimumGrade: model.GradeBMinus,
		Reason: "Sells within a week with at least $5 profit at 25%+ margin",
		Predicate: func(in OverrideInput) bool {
			return fastSale(in, 7) && in.NetProfit >= 5 && in.GrossMargin >= 0.25
		},
	},
	{
		Name: "MARGIN_KING", Category: model.OverrideMargin, MinimumGrade: model.GradeBPlus,
		Reason: "60%+ margin with at least $30 profit",
		Predicate: func(in OverrideInput) bool {
			return in.GrossMargin >= 0.60 && in.NetProfit >= 30
		},
	},
	{
		Name: "HIGH_MARGIN", Category: model.OverrideMargin, MinimumGrade: model.GradeB,
		Reason: "50%+ margin with at least $25 profit",
		Predicate: func(in OverrideInput) bool {
			return in.GrossMargin >= 0.50 && in.NetProfit >= 25
		},
	},
	{
		Name: "SOLID_MARGIN", Category: model.OverrideMargin, MinimumGrade: model.GradeBMinus,
		Reason: "40%+ margin with at least $20 profit",
		Predicate: func(in OverrideInput) bool {
			return in.GrossMargin >= 0.40 && in.NetProfit >= 20
		},
	},
	{
		Name: "HOT_MARKET", Category: model.OverrideMarket, MinimumGrade: model.GradeB,
		Reason: "65%+ sell-through with at least $8 profit",
		Predicate: func(in OverrideInput) bool {
			return in.SellThroughRate >= 0.65 && in.NetProfit >= 8
		},
	},
	{
		Name: "ACTIVE_MARKET", Category: model.OverrideMarket, MinimumGrade: model.GradeBMinus,
		Reason: "50%+ sell-through with at least $10 profit",
		Predicate: func(in OverrideInput) bool {
			return in.SellThroughRate >= 0.50 && in.NetProfit >= 10
		},
	},
}

// ApplyOverrides evaluates every rule and lifts the raw grade to the
// highest qualifying minimum grade. The result is always populated.
func ApplyOverrides(rules []OverrideRule, rawScore float64, in OverrideInput) model.OverrideResult {
	rawScore = clampScore(rawScore)
	rawGrade := ScoreToGrade(rawScore)
	res := model.OverrideResult{
		OriginalGrade: rawGrade,
		OriginalScore: rawScore,
		FinalGrade:    rawGrade,
		FinalScore:    rawScore,
	}

	var best *OverrideRule
	for i := range rules {
		r := &rules[i]
		if GradeValue(r.MinimumGrade) <= GradeValue(rawGrade) || !r.Predicate(in) {
			continue
		}
		if best == nil || GradeValue(r.MinimumGrade) > GradeValue(best.MinimumGrade) {
			best = r
		}
	}
	if best == nil {
		return res
	}

	res.OverrideApplied = true
	res.OverrideRule = best.Name
	res.OverrideType = best.Category
	res.OverrideReason = fmt.Sprintf("%s: %s (raised from %s to %s)",
		best.Name, best.Reason, rawGrade, best.MinimumGrade)
	res.FinalGrade = best.MinimumGrade
	res.FinalScore = clampScore(max(rawScore, MinScoreForGrade(best.MinimumGrade)))
	return res
}
