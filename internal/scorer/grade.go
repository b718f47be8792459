package scorer

import "github.com/sells-group/vest-cli/internal/model"

type gradeBand struct {
	grade model.Grade
	min   float64
}

// gradeBands maps minimum total scores to grades, best first.
var gradeBands = []gradeBand{
	{model.GradeAPlus, 95},
	{model.GradeA, 91},
	{model.GradeAMinus, 87},
	{model.GradeBPlus, 83},
	{model.GradeB, 80},
	{model.GradeBMinus, 77},
	{model.GradeCPlus, 74},
	{model.GradeC, 70},
	{model.GradeCMinus, 67},
	{model.GradeDPlus, 64},
	{model.GradeD, 60},
	{model.GradeDMinus, 57},
	{model.GradeFPlus, 54},
	{model.GradeF, 50},
	{model.GradeFMinus, 0},
}

// Grades returns every grade, best first.
func Grades() []model.Grade {
	out := make([]model.Grade, len(gradeBands))
	for i, b := range gradeBands {
		out[i] = b.grade
	}
	return out
}

// ScoreToGrade maps a 0-100 total to its letter grade.
func ScoreToGrade(score float64) model.Grade {
	for _, b := range gradeBands {
		if score >= b.min {
			return b.grade
		}
	}
	return model.GradeFMinus
}

// MinScoreForGrade returns the lowest total that earns g, or 0 for an unknown grade.
func MinScoreForGrade(g model.Grade) float64 {
	for _, b := range gradeBands {
		if b.grade == g {
			return b.min
		}
	}
	return 0
}

// GradeValue orders grades numerically: F- is 0, A+ is 14, unknown is -1.
func GradeValue(g model.Grade) int {
	for i, b := range gradeBands {
		if b.grade == g {
			return len(gradeBands) - 1 - i
		}
	}
	return -1
}

// ParseGrade validates a grade string.
func ParseGrade(s string) (model.Grade, bool) {
	g := model.Grade(s)
	return g, GradeValue(g) >= 0
}

// ScoreToRecommendation maps a final total to a buy verdict.
func ScoreToRecommendation(score float64) model.Recommendation {
	switch {
	case score >= 85:
		return model.RecommendStrongBuy
	case score >= 70:
		return model.RecommendBuy
	case score >= 55:
		return model.RecommendHold
	case score >= 40:
		return model.RecommendPass
	default:
		return model.RecommendStrongPass
	}
}
