package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

func Test_Evaluate_WhenAnswerEmpty_ShouldScoreZero(t *testing.T) {

	evaluator := NewAnswerEvaluator()

	for _, answer := range []string{"", "   ", "\t\n"} {
		result := evaluator.Evaluate("Tell me about yourself.", answer, entities.CategoryIntroduction)

		assert.Equal(t, 0.0, result.AnswerScore)
		assert.Equal(t, 0.0, result.RelevanceScore)
		assert.Equal(t, 0.0, result.CompletenessScore)
		assert.Equal(t, 0.0, result.ConfidenceScore)
		assert.NotEmpty(t, result.Annotations.Error)
	}
}

func Test_Evaluate_LongDetailedAnswer_ShouldScoreHighCompletenessAndConfidence(t *testing.T) {

	evaluator := NewAnswerEvaluator()

	// 40 words, digits, punctuation and a listed technical term against the
	// skills category minimum of 10 words
	answer := "I am proficient in Go and have expert knowledge of distributed systems. " +
		"Over the last 7 years I led a large project, covering design, implementation and " +
		"testing, and I stay familiar with every new technology that we adopt in production."
	assert.GreaterOrEqual(t, len(strings.Fields(answer)), 40)

	result := evaluator.Evaluate("What are your skills?", answer, entities.CategorySkills)

	assert.Equal(t, 100.0, result.CompletenessScore)
	assert.GreaterOrEqual(t, result.ConfidenceScore, 80.0)
	assert.True(t, result.Annotations.HasNumbers)
	assert.True(t, result.Annotations.HasTechnicalTerm)
}

func Test_Evaluate_UnknownCategory_ShouldUseDefaults(t *testing.T) {

	evaluator := NewAnswerEvaluator()

	result := evaluator.Evaluate("Anything else?", "A short answer with six words.", "closing")

	// no keyword set for the category: fixed relevance, keyword score 50
	assert.Equal(t, 70.0, result.RelevanceScore)
	assert.Equal(t, 50.0, result.KeywordMatches.Score)
	// six words against the default minimum of ten
	assert.Equal(t, 60.0, result.CompletenessScore)
}

func Test_Evaluate_CompletenessSteps(t *testing.T) {

	evaluator := NewAnswerEvaluator()

	// availability min is 5 words
	cases := []struct {
		words    int
		expected float64
	}{
		{10, 100}, {5, 80}, {3, 60}, {1, 40},
	}
	for _, c := range cases {
		answer := strings.TrimSpace(strings.Repeat("available ", c.words))
		result := evaluator.Evaluate("When can you start?", answer, entities.CategoryAvailability)
		assert.Equal(t, c.expected, result.CompletenessScore, "words=%d", c.words)
	}
}

func Test_Evaluate_ShouldReportKeywordMatches(t *testing.T) {

	evaluator := NewAnswerEvaluator()

	result := evaluator.Evaluate("When can you start?",
		"I can start immediately, I am available right away.", entities.CategoryAvailability)

	assert.Contains(t, result.KeywordMatches.Matched, "start")
	assert.Contains(t, result.KeywordMatches.Matched, "available")
	assert.Contains(t, result.KeywordMatches.Matched, "immediately")
	assert.Equal(t, categoryKeywords[entities.CategoryAvailability], result.KeywordMatches.Expected)
	assert.Equal(t, 60.0, result.KeywordMatches.Score)
	assert.Equal(t, 0.6, result.KeywordMatches.MatchRate)
}

func Test_Evaluate_AnswerScore_ShouldWeightComponents(t *testing.T) {

	evaluator := NewAnswerEvaluator()

	result := evaluator.Evaluate("What are your salary expectations?",
		"My expectation is a range around market rate, the whole package is negotiable.",
		entities.CategorySalary)

	expected := round2(result.RelevanceScore*0.4 + result.CompletenessScore*0.3 + result.KeywordMatches.Score*0.3)
	assert.Equal(t, expected, result.AnswerScore)
	assert.LessOrEqual(t, result.AnswerScore, 100.0)
}

func Test_Evaluate_Sentiment(t *testing.T) {

	evaluator := NewAnswerEvaluator()

	positive := evaluator.Evaluate("Are you interested?", "Yes, I am excited about this role.",
		entities.CategoryAvailability)
	assert.Equal(t, "positive", positive.Annotations.Sentiment)

	neutral := evaluator.Evaluate("Are you still looking?", "I would consider the right offer.",
		entities.CategoryAvailability)
	assert.Equal(t, "neutral", neutral.Annotations.Sentiment)
}
