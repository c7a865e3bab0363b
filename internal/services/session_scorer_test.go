package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

func floatPtr(v float64) *float64 {
	return &v
}

func scoredTurn(category string, score float64) entities.ConversationTurn {
	return entities.ConversationTurn{Category: category, AnswerScore: floatPtr(score)}
}

// Two categories only: the overall score is the literal weighted sum, the
// missing categories' weight is simply absent, no renormalization.
func Test_SessionScorer_ShouldUseLiteralWeightedSum(t *testing.T) {

	scorer := NewSessionScorer()

	result := scorer.Score([]entities.ConversationTurn{
		scoredTurn(entities.CategorySkills, 90),
		scoredTurn(entities.CategoryExperience, 70),
	})

	assert.Equal(t, round2(90*0.35+70*0.30), result.Overall)
	assert.Equal(t, 90.0, result.CategoryScores[entities.CategorySkills].AverageScore)
	assert.Equal(t, 70.0, result.CategoryScores[entities.CategoryExperience].AverageScore)
}

func Test_SessionScorer_ShouldAveragePerCategory(t *testing.T) {

	scorer := NewSessionScorer()

	result := scorer.Score([]entities.ConversationTurn{
		scoredTurn(entities.CategorySkills, 80),
		scoredTurn(entities.CategorySkills, 60),
	})

	skills := result.CategoryScores[entities.CategorySkills]
	assert.Equal(t, 70.0, skills.AverageScore)
	assert.Equal(t, 2, skills.QuestionCount)
	assert.Equal(t, 2, skills.AnsweredCount)
}

func Test_SessionScorer_UnscoredTurns_ShouldCountTowardTotalsOnly(t *testing.T) {

	scorer := NewSessionScorer()

	result := scorer.Score([]entities.ConversationTurn{
		scoredTurn(entities.CategorySalary, 50),
		{Category: entities.CategorySalary},
	})

	salary := result.CategoryScores[entities.CategorySalary]
	assert.Equal(t, 50.0, salary.AverageScore)
	assert.Equal(t, 2, salary.QuestionCount)
	assert.Equal(t, 1, salary.AnsweredCount)
}

func Test_SessionScorer_UnknownCategory_ShouldGetDefaultWeight(t *testing.T) {

	scorer := NewSessionScorer()

	result := scorer.Score([]entities.ConversationTurn{scoredTurn("closing", 100)})

	assert.Equal(t, round2(100*defaultCategoryWeight), result.Overall)
}

func Test_SessionScorer_EmptySession_ShouldScoreZero(t *testing.T) {

	result := NewSessionScorer().Score(nil)

	assert.Equal(t, 0.0, result.Overall)
	assert.Empty(t, result.CategoryScores)
}

func Test_SessionScorer_CategoryScoresRoundTrip(t *testing.T) {

	result := NewSessionScorer().Score([]entities.ConversationTurn{
		scoredTurn(entities.CategorySkills, 90),
		scoredTurn(entities.CategoryExperience, 70),
	})

	session := &entities.InterviewSession{}
	assert.NoError(t, session.SetCategoryScores(result.CategoryScores))

	restored, err := session.CategoryScoresAsMap()
	assert.NoError(t, err)
	assert.Equal(t, result.CategoryScores, restored)
}

func Test_NormalizeScore(t *testing.T) {

	assert.Equal(t, 50.0, NormalizeScore(5, 0, 10))
	assert.Equal(t, 0.0, NormalizeScore(-3, 0, 10))
	assert.Equal(t, 100.0, NormalizeScore(42, 0, 10))
	assert.Equal(t, 0.0, NormalizeScore(1, 5, 5))
}

func Test_SessionScorer_Breakdown_ShouldMirrorTurnComponents(t *testing.T) {

	turn := scoredTurn(entities.CategorySkills, 90)
	turn.TurnNumber = 3
	turn.QuestionText = "What are your key technical skills?"
	turn.RelevanceScore = floatPtr(80)

	breakdown := NewSessionScorer().Breakdown([]entities.ConversationTurn{turn})

	require.Len(t, breakdown, 1)
	assert.Equal(t, 3, breakdown[0].TurnNumber)
	assert.Equal(t, entities.CategorySkills, breakdown[0].Category)
	assert.Equal(t, 90.0, *breakdown[0].AnswerScore)
	assert.Equal(t, 80.0, *breakdown[0].Relevance)
	assert.Nil(t, breakdown[0].Confidence)
}
