package grading

import (
	"fmt"
	"math"
	"strings"
)

// Question is the minimal view of a question needed for grading.
type Question struct {
	ID             string
	Type           string
	Text           string
	ExpectedAnswer string
	Points         float64
}

// Supported question types.
const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
	TypeEssay          = "essay"
)

// Result is the outcome of grading a single answer.
type Result struct {
	PointsEarned float64 `json:"points_earned"`
	IsCorrect    bool    `json:"is_correct"`
	Feedback     string  `json:"feedback"`
}

// Short-answer tiers: similarity cutoff and the fraction of points awarded.
const (
	shortAnswerFullCutoff    = 0.90
	shortAnswerPartialCutoff = 0.70
	shortAnswerHalfCutoff    = 0.50
)

// essayCorrectThreshold is the combined keyword-coverage * length factor at
// which an essay counts as correct. Tunable; 0.7 keeps it aligned with the
// short-answer partial-credit band.
const essayCorrectThreshold = 0.7

// essayMinWords is the word count below which the length factor ramps down
// linearly to zero.
const essayMinWords = 30

// scoreExactMatch grades multiple-choice and true/false answers. Full credit
// for a normalized match against the expected option key, zero otherwise.
func scoreExactMatch(q Question, answer string) Result {
	if normalize(answer) == normalize(q.ExpectedAnswer) {
		return Result{PointsEarned: q.Points, IsCorrect: true, Feedback: "Correct!"}
	}
	return Result{Feedback: fmt.Sprintf("Expected: %s", q.ExpectedAnswer)}
}

// scoreShortAnswer awards tiered partial credit from the similarity ratio
// between student and expected answer. Only the full-credit tier counts as
// correct.
func scoreShortAnswer(q Question, answer string) Result {
	ratio := Similarity(answer, q.ExpectedAnswer)
	switch {
	case ratio >= shortAnswerFullCutoff:
		return Result{PointsEarned: q.Points, IsCorrect: true, Feedback: "Excellent answer!"}
	case ratio >= shortAnswerPartialCutoff:
		return Result{
			PointsEarned: round2(q.Points * 0.8),
			Feedback:     "Good answer with minor issues. Partial credit awarded.",
		}
	case ratio >= shortAnswerHalfCutoff:
		return Result{
			PointsEarned: round2(q.Points * 0.5),
			Feedback:     "Partially correct. Key concepts present but incomplete.",
		}
	default:
		return Result{Feedback: "Answer does not match expected response."}
	}
}

// scoreEssay scores keyword coverage of the expected answer scaled by a
// length factor that ramps linearly up to essayMinWords.
func scoreEssay(q Question, answer string) Result {
	expected := ExtractKeywords(q.ExpectedAnswer)
	if len(expected) == 0 {
		return Result{Feedback: "No key concepts defined for this question."}
	}
	student := ExtractKeywords(answer)

	matched := 0
	for kw := range expected {
		if _, ok := student[kw]; ok {
			matched++
		}
	}
	keywordRatio := float64(matched) / float64(len(expected))

	wordCount := len(strings.Fields(answer))
	lengthFactor := 1.0
	if wordCount < essayMinWords {
		lengthFactor = float64(wordCount) / float64(essayMinWords)
	}

	combined := keywordRatio * lengthFactor
	fb := fmt.Sprintf("Keyword coverage: %d/%d. ", matched, len(expected))
	switch {
	case combined >= 0.8:
		fb += "Strong answer with good coverage of key concepts."
	case combined >= essayCorrectThreshold:
		fb += "Adequate answer but missing some key points."
	default:
		fb += "Answer lacks sufficient depth and key concepts."
	}

	return Result{
		PointsEarned: round2(q.Points * combined),
		IsCorrect:    combined >= essayCorrectThreshold,
		Feedback:     fb,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
