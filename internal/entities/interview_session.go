package entities

import (
	"encoding/json"
	"time"
)

// CategoryScore is one category's aggregate over a session's turns.
type CategoryScore struct {
	AverageScore  float64 `json:"average_score"`
	QuestionCount int     `json:"question_count"`
	AnsweredCount int     `json:"answered_count"`
}

type InterviewSession struct {
	ID             int64
	CallQueueID    int64  `gorm:"uniqueIndex"`
	SessionID      string `gorm:"uniqueIndex"`
	TranscriptText string
	TranscriptJSON string
	TotalQuestions int `gorm:"default:0"`
	TotalAnswers   int `gorm:"default:0"`
	OverallScore   *float64
	CategoryScores string
	CreatedAt      time.Time
}

func (s *InterviewSession) CategoryScoresAsMap() (map[string]CategoryScore, error) {
	scores := map[string]CategoryScore{}
	if s.CategoryScores == "" {
		return scores, nil
	}
	err := json.Unmarshal([]byte(s.CategoryScores), &scores)
	return scores, err
}

func (s *InterviewSession) SetCategoryScores(scores map[string]CategoryScore) error {
	bytes, err := json.Marshal(scores)
	if err != nil {
		return err
	}
	s.CategoryScores = string(bytes)
	return nil
}

// KeywordMatches is the keyword detail attached to a scored answer.
type KeywordMatches struct {
	Matched   []string `json:"matched"`
	Expected  []string `json:"expected"`
	Score     float64  `json:"score"`
	MatchRate float64  `json:"match_rate"`
}

type ConversationTurn struct {
	ID                int64
	SessionID         int64 `gorm:"uniqueIndex:idx_turns_session_number,priority:1"`
	TurnNumber        int   `gorm:"uniqueIndex:idx_turns_session_number,priority:2"`
	QuestionText      string
	AnswerText        string
	Category          string
	FollowUpTriggered bool `gorm:"default:false"`
	DurationSeconds   *int

	AnswerScore       *float64
	RelevanceScore    *float64
	CompletenessScore *float64
	ConfidenceScore   *float64
	KeywordMatches    string
	Annotations       string

	CreatedAt time.Time
}

func (t *ConversationTurn) KeywordMatchesDetail() (KeywordMatches, error) {
	var detail KeywordMatches
	if t.KeywordMatches == "" {
		return detail, nil
	}
	err := json.Unmarshal([]byte(t.KeywordMatches), &detail)
	return detail, err
}

type InterviewState struct {
	ID                   int64
	SessionID            int64 `gorm:"uniqueIndex"`
	CurrentQuestionIndex int   `gorm:"default:0"`
	Answers              string
	CompletedCategories  string
	FollowUpsServed      string
}

func (s *InterviewState) FollowUpsServedAsArray() []int {
	var indexes []int
	if s.FollowUpsServed == "" {
		return indexes
	}
	_ = json.Unmarshal([]byte(s.FollowUpsServed), &indexes)
	return indexes
}

func (s *InterviewState) SetFollowUpsServed(indexes []int) error {
	bytes, err := json.Marshal(indexes)
	if err != nil {
		return err
	}
	s.FollowUpsServed = string(bytes)
	return nil
}

func (s *InterviewState) AnswersAsMap() (map[int]string, error) {
	answers := map[int]string{}
	if s.Answers == "" {
		return answers, nil
	}
	err := json.Unmarshal([]byte(s.Answers), &answers)
	return answers, err
}

func (s *InterviewState) SetAnswers(answers map[int]string) error {
	bytes, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	s.Answers = string(bytes)
	return nil
}

func (s *InterviewState) CompletedCategoriesAsArray() []string {
	var categories []string
	if s.CompletedCategories == "" {
		return categories
	}
	_ = json.Unmarshal([]byte(s.CompletedCategories), &categories)
	return categories
}

func (s *InterviewState) SetCompletedCategories(categories []string) error {
	bytes, err := json.Marshal(categories)
	if err != nil {
		return err
	}
	s.CompletedCategories = string(bytes)
	return nil
}
