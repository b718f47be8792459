package model

// Grade is a letter grade from A+ (best) to F- (worst).
type Grade string

// Grades, best first.
const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeDPlus  Grade = "D+"
	GradeD      Grade = "D"
	GradeDMinus Grade = "D-"
	GradeFPlus  Grade = "F+"
	GradeF      Grade = "F"
	GradeFMinus Grade = "F-"
)

// Recommendation is the overall buy verdict for a scored item.
type Recommendation string

// Recommendations.
const (
	RecommendStrongBuy  Recommendation = "strong-buy"
	RecommendBuy        Recommendation = "buy"
	RecommendHold       Recommendation = "hold"
	RecommendPass       Recommendation = "pass"
	RecommendStrongPass Recommendation = "strong-pass"
)

// OverrideType names the family of rule that raised a grade.
type OverrideType string

// Override types.
const (
	OverrideVelocity OverrideType = "velocity"
	OverrideMargin   OverrideType = "margin"
	OverrideMarket   OverrideType = "market"
)

// ComponentScore is one V.E.S.T. axis.
type ComponentScore struct {
	Raw         float64 `json:"raw"`
	Normalized  float64 `json:"normalized"`
	Weighted    float64 `json:"weighted"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// Components holds the four V.E.S.T. axes.
type Components struct {
	Velocity  ComponentScore `json:"velocity"`
	Equity    ComponentScore `json:"equity"`
	Stability ComponentScore `json:"stability"`
	Trend     ComponentScore `json:"trend"`
}

// OverrideResult records whether a rule lifted the raw grade.
type OverrideResult struct {
	OriginalGrade   Grade        `json:"original_grade"`
	OriginalScore   float64      `json:"original_score"`
	FinalGrade      Grade        `json:"final_grade"`
	FinalScore      float64      `json:"final_score"`
	OverrideApplied bool         `json:"override_applied"`
	OverrideRule    string       `json:"override_rule,omitempty"`
	OverrideReason  string       `json:"override_reason,omitempty"`
	OverrideType    OverrideType `json:"override_type,omitempty"`
}

// VestScore is the full scoring verdict for one buy price.
type VestScore struct {
	Total           float64         `json:"total"`
	Grade           Grade           `json:"grade"`
	Components      Components      `json:"components"`
	Recommendation  Recommendation  `json:"recommendation"`
	EstimatedProfit float64         `json:"estimated_profit"`
	ROI             Ratio           `json:"roi"`
	ProfitBreakdown ProfitBreakdown `json:"profit_breakdown"`
	GradeOverride   *OverrideResult `json:"grade_override,omitempty"`
}
