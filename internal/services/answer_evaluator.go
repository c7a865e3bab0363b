package services

import (
	"math"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

// Per-category keyword sets and completeness minimums. Unknown categories
// fall back to an empty keyword set and a 10-word minimum.
var categoryKeywords = map[string][]string{
	entities.CategoryIntroduction: {"experience", "background", "education", "skills", "career"},
	entities.CategoryExperience:   {"years", "worked", "project", "team", "role", "responsibility"},
	entities.CategorySkills:       {"proficient", "expert", "knowledge", "familiar", "technology"},
	entities.CategoryAvailability: {"start", "notice", "available", "join", "immediately"},
	entities.CategorySalary:       {"expectation", "range", "compensation", "package", "negotiable"},
}

var categoryMinWords = map[string]int{
	entities.CategoryIntroduction: 20,
	entities.CategoryExperience:   15,
	entities.CategorySkills:       10,
	entities.CategoryAvailability: 5,
	entities.CategorySalary:       5,
}

var technicalTerms = []string{
	"project", "team", "development", "management", "analysis",
	"implementation", "design", "testing", "deployment",
}

var positiveWords = []string{"yes", "excited", "interested"}

var (
	wordPattern  = regexp.MustCompile(`\b\w+\b`)
	digitPattern = regexp.MustCompile(`\d+`)
)

// AnswerAnnotations are the quality indicators stored alongside each turn.
type AnswerAnnotations struct {
	WordCount        int    `json:"word_count"`
	HasNumbers       bool   `json:"has_numbers"`
	HasTechnicalTerm bool   `json:"has_technical_terms"`
	Sentiment        string `json:"sentiment"`
	Error            string `json:"error,omitempty"`
}

type AnswerEvaluation struct {
	AnswerScore       float64
	RelevanceScore    float64
	CompletenessScore float64
	ConfidenceScore   float64
	KeywordMatches    entities.KeywordMatches
	Annotations       AnswerAnnotations
}

// AnswerEvaluator scores one free-text answer with category-specific
// heuristics. Pure: no storage, never fails; bad input degrades to zeros.
type AnswerEvaluator struct{}

func NewAnswerEvaluator() *AnswerEvaluator {
	return &AnswerEvaluator{}
}

func (e *AnswerEvaluator) Evaluate(question, answer, category string) AnswerEvaluation {

	if strings.TrimSpace(answer) == "" {
		return AnswerEvaluation{
			KeywordMatches: entities.KeywordMatches{
				Matched:  []string{},
				Expected: categoryKeywords[category],
			},
			Annotations: AnswerAnnotations{Error: "empty answer"},
		}
	}

	relevance := e.relevance(question, answer, category)
	completeness := e.completeness(answer, category)
	keywords := e.keywordMatches(answer, category)
	confidence := e.confidence(answer)

	score := relevance*0.4 + completeness*0.3 + keywords.Score*0.3

	return AnswerEvaluation{
		AnswerScore:       round2(score),
		RelevanceScore:    round2(relevance),
		CompletenessScore: round2(completeness),
		ConfidenceScore:   round2(confidence),
		KeywordMatches:    keywords,
		Annotations:       e.annotate(answer),
	}
}

func (e *AnswerEvaluator) relevance(question, answer, category string) float64 {

	expected, known := categoryKeywords[category]
	if !known || len(expected) == 0 {
		return 70
	}

	answerLower := strings.ToLower(answer)
	matches := lo.CountBy(expected, func(keyword string) bool {
		return strings.Contains(answerLower, keyword)
	})
	keywordScore := float64(matches) / float64(len(expected)) * 100

	questionWords := lo.Filter(lo.Uniq(wordPattern.FindAllString(strings.ToLower(question), -1)),
		func(word string, _ int) bool { return len(word) > 3 })
	answerWords := lo.Uniq(wordPattern.FindAllString(answerLower, -1))

	overlap := len(lo.Intersect(questionWords, answerWords))
	overlapScore := math.Min(100, float64(overlap)/math.Max(float64(len(questionWords)), 1)*100)

	return keywordScore*0.6 + overlapScore*0.4
}

func (e *AnswerEvaluator) completeness(answer, category string) float64 {

	minWords, known := categoryMinWords[category]
	if !known {
		minWords = 10
	}

	wordCount := len(strings.Fields(answer))

	switch {
	case wordCount >= minWords*2:
		return 100
	case wordCount >= minWords:
		return 80
	case float64(wordCount) >= float64(minWords)*0.5:
		return 60
	default:
		return 40
	}
}

func (e *AnswerEvaluator) keywordMatches(answer, category string) entities.KeywordMatches {

	expected := categoryKeywords[category]
	answerLower := strings.ToLower(answer)

	matched := lo.Filter(expected, func(keyword string, _ int) bool {
		return strings.Contains(answerLower, keyword)
	})

	if len(expected) == 0 {
		return entities.KeywordMatches{Matched: []string{}, Expected: []string{}, Score: 50}
	}

	rate := float64(len(matched)) / float64(len(expected))
	return entities.KeywordMatches{
		Matched:   matched,
		Expected:  expected,
		Score:     rate * 100,
		MatchRate: round2(rate),
	}
}

func (e *AnswerEvaluator) confidence(answer string) float64 {

	score := 50.0

	wordCount := len(strings.Fields(answer))
	if wordCount > 30 {
		score += 20
	} else if wordCount > 15 {
		score += 10
	}

	if strings.ContainsAny(answer, ".,") {
		score += 10
	}

	if digitPattern.MatchString(answer) {
		score += 10
	}

	if hasTechnicalTerm(answer) {
		score += 10
	}

	return math.Min(100, score)
}

func (e *AnswerEvaluator) annotate(answer string) AnswerAnnotations {

	answerLower := strings.ToLower(answer)
	sentiment := "neutral"
	if lo.SomeBy(positiveWords, func(word string) bool { return strings.Contains(answerLower, word) }) {
		sentiment = "positive"
	}

	return AnswerAnnotations{
		WordCount:        len(strings.Fields(answer)),
		HasNumbers:       digitPattern.MatchString(answer),
		HasTechnicalTerm: hasTechnicalTerm(answer),
		Sentiment:        sentiment,
	}
}

func hasTechnicalTerm(answer string) bool {
	answerLower := strings.ToLower(answer)
	return lo.SomeBy(technicalTerms, func(term string) bool {
		return strings.Contains(answerLower, term)
	})
}
