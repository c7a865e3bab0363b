package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/zecpath/evaluation-engine/internal/entities"
)

type sessionStore interface {
	Create(ctx context.Context, session *entities.InterviewSession) error
	Update(ctx context.Context, session *entities.InterviewSession) error
	AddTurn(ctx context.Context, turn *entities.ConversationTurn) error
	GetTurns(ctx context.Context, sessionID int64) ([]entities.ConversationTurn, error)
}

// ConversationService owns interview sessions, their turn log and the
// transcript. Turn numbers are assigned here, strictly increasing per
// session, never taken from the caller.
type ConversationService struct {
	sessions sessionStore
}

func NewConversationService(sessions sessionStore) *ConversationService {
	return &ConversationService{sessions: sessions}
}

func (s *ConversationService) CreateSession(ctx context.Context, callQueueID int64) (*entities.InterviewSession, error) {

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return nil, err
	}

	session := &entities.InterviewSession{
		CallQueueID: callQueueID,
		SessionID:   fmt.Sprintf("AI-%d-%s", callQueueID, hex.EncodeToString(suffix)),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RecordTurn appends one question/answer exchange with its evaluation and
// bumps the session counters. An unanswered question still counts toward
// total_questions.
func (s *ConversationService) RecordTurn(ctx context.Context, session *entities.InterviewSession,
	question NextQuestion, answer string, evaluation *AnswerEvaluation) (*entities.ConversationTurn, error) {

	turn := &entities.ConversationTurn{
		SessionID:         session.ID,
		TurnNumber:        session.TotalQuestions + 1,
		QuestionText:      question.Text,
		AnswerText:        answer,
		Category:          question.Category,
		FollowUpTriggered: question.FollowUp,
	}

	if evaluation != nil {
		turn.AnswerScore = &evaluation.AnswerScore
		turn.RelevanceScore = &evaluation.RelevanceScore
		turn.CompletenessScore = &evaluation.CompletenessScore
		turn.ConfidenceScore = &evaluation.ConfidenceScore

		keywords, err := json.Marshal(evaluation.KeywordMatches)
		if err != nil {
			return nil, err
		}
		annotations, err := json.Marshal(evaluation.Annotations)
		if err != nil {
			return nil, err
		}
		turn.KeywordMatches = string(keywords)
		turn.Annotations = string(annotations)
	}

	if err := s.sessions.AddTurn(ctx, turn); err != nil {
		return nil, err
	}

	session.TotalQuestions++
	if strings.TrimSpace(answer) != "" {
		session.TotalAnswers++
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return turn, nil
}

type transcriptEntry struct {
	Turn     int      `json:"turn"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
	Score    *float64 `json:"score,omitempty"`
}

// SaveTranscript renders the turn log into both a readable text transcript
// and a structured one, and persists them on the session.
func (s *ConversationService) SaveTranscript(ctx context.Context,
	session *entities.InterviewSession) ([]entities.ConversationTurn, error) {

	turns, err := s.sessions.GetTurns(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&text, "Q%d [%s]: %s\n", turn.TurnNumber, turn.Category, turn.QuestionText)
		fmt.Fprintf(&text, "A%d: %s\n\n", turn.TurnNumber, turn.AnswerText)
	}

	entries := lo.Map(turns, func(turn entities.ConversationTurn, _ int) transcriptEntry {
		return transcriptEntry{
			Turn:     turn.TurnNumber,
			Question: turn.QuestionText,
			Answer:   turn.AnswerText,
			Category: turn.Category,
			Score:    turn.AnswerScore,
		}
	})
	structured, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}

	session.TranscriptText = text.String()
	session.TranscriptJSON = string(structured)
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return turns, nil
}
