package services

import (
	"github.com/zecpath/evaluation-engine/internal/entities"
)

// Weight of each question category in the overall interview score. The
// overall score is the literal weighted sum of per-category averages; when
// a category was never asked its term is simply absent.
var categoryWeights = map[string]float64{
	entities.CategoryIntroduction: 0.10,
	entities.CategoryExperience:   0.30,
	entities.CategorySkills:       0.35,
	entities.CategoryAvailability: 0.15,
	entities.CategorySalary:       0.10,
}

const defaultCategoryWeight = 0.10

// SessionScorer aggregates per-turn answer scores into category averages
// and an overall interview score.
type SessionScorer struct{}

func NewSessionScorer() *SessionScorer {
	return &SessionScorer{}
}

type SessionScore struct {
	Overall        float64
	CategoryScores map[string]entities.CategoryScore
}

func (s *SessionScorer) Score(turns []entities.ConversationTurn) SessionScore {

	type bucket struct {
		sum      float64
		total    int
		answered int
	}

	buckets := make(map[string]*bucket)
	for _, turn := range turns {
		b, ok := buckets[turn.Category]
		if !ok {
			b = &bucket{}
			buckets[turn.Category] = b
		}
		b.total++
		if turn.AnswerScore != nil {
			b.sum += *turn.AnswerScore
			b.answered++
		}
	}

	categories := make(map[string]entities.CategoryScore, len(buckets))
	overall := 0.0
	for category, b := range buckets {
		average := 0.0
		if b.answered > 0 {
			average = round2(b.sum / float64(b.answered))
		}
		categories[category] = entities.CategoryScore{
			AverageScore:  average,
			QuestionCount: b.total,
			AnsweredCount: b.answered,
		}

		weight, ok := categoryWeights[category]
		if !ok {
			weight = defaultCategoryWeight
		}
		overall += average * weight
	}

	return SessionScore{
		Overall:        round2(overall),
		CategoryScores: categories,
	}
}

// TurnBreakdown is one scored exchange in a session's detail view.
type TurnBreakdown struct {
	TurnNumber   int      `json:"turn_number"`
	Category     string   `json:"category"`
	Question     string   `json:"question"`
	AnswerScore  *float64 `json:"answer_score"`
	Relevance    *float64 `json:"relevance"`
	Completeness *float64 `json:"completeness"`
	Confidence   *float64 `json:"confidence"`
}

// Breakdown exposes the per-turn component scores behind a session's
// aggregate, in turn order.
func (s *SessionScorer) Breakdown(turns []entities.ConversationTurn) []TurnBreakdown {

	breakdown := make([]TurnBreakdown, 0, len(turns))
	for _, turn := range turns {
		breakdown = append(breakdown, TurnBreakdown{
			TurnNumber:   turn.TurnNumber,
			Category:     turn.Category,
			Question:     turn.QuestionText,
			AnswerScore:  turn.AnswerScore,
			Relevance:    turn.RelevanceScore,
			Completeness: turn.CompletenessScore,
			Confidence:   turn.ConfidenceScore,
		})
	}
	return breakdown
}

// NormalizeScore maps a raw value from [min, max] linearly onto [0, 100],
// clamping values outside the range.
func NormalizeScore(score, min, max float64) float64 {
	if max <= min {
		return 0
	}
	normalized := (score - min) / (max - min) * 100
	if normalized < 0 {
		return 0
	}
	if normalized > 100 {
		return 100
	}
	return round2(normalized)
}
