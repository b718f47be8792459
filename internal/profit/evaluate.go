package profit

import "github.com/sells-group/vest-cli/internal/model"

// Level is the severity of a deal evaluation.
type Level string

// Evaluation levels.
const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelSuccess Level = "success"
)

// Evaluation is advisory feedback on a breakdown. It never affects grading.
type Evaluation struct {
	Level     Level    `json:"level"`
	Label     string   `json:"label"`
	Messages  []string `json:"messages,omitempty"`
	Excellent bool     `json:"excellent,omitempty"`
}

// Deal thresholds.
const (
	minWorthwhileProfit = 5.0
	minROI              = 0.20
	minMargin           = 0.15
	excellentROI        = 1.0
	excellentProfit     = 20.0
)

// Evaluate classifies a breakdown as a losing, marginal or good deal.
func Evaluate(b model.ProfitBreakdown) Evaluation {
	if b.NetProfit < 0 {
		return Evaluation{
			Level:    LevelError,
			Label:    "Loss",
			Messages: []string{"This deal would lose money"},
		}
	}

	var warnings []string
	if b.NetProfit < minWorthwhileProfit {
		warnings = append(warnings, "Profit is too low to be worth the effort")
	}
	if b.ROI.Float() < minROI {
		warnings = append(warnings, "Return on investment is below 20%")
	}
	if b.EffectiveMargin.Float() < minMargin {
		warnings = append(warnings, "Margin is below 15% of the sale price")
	}
	if len(warnings) > 0 {
		return Evaluation{Level: LevelWarning, Label: "Marginal", Messages: warnings}
	}

	if b.ROI.Float() >= excellentROI && b.NetProfit >= excellentProfit {
		return Evaluation{
			Level:     LevelSuccess,
			Label:     "Excellent deal",
			Messages:  []string{"Doubles your money with solid dollar profit"},
			Excellent: true,
		}
	}
	return Evaluation{Level: LevelSuccess, Label: "Good deal"}
}
