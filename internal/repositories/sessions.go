package repositories

import (
	"context"
	"errors"

	"github.com/zecpath/evaluation-engine/internal/apperrors"
	"github.com/zecpath/evaluation-engine/internal/entities"
	"gorm.io/gorm"
)

type Sessions struct {
	db *gorm.DB
}

func NewSessionsRepository(db *gorm.DB) *Sessions {
	return &Sessions{db: db}
}

func (repo *Sessions) Create(ctx context.Context, session *entities.InterviewSession) error {
	return repo.db.WithContext(ctx).Create(session).Error
}

func (repo *Sessions) GetBySessionID(ctx context.Context, sessionID string) (*entities.InterviewSession, error) {
	var session entities.InterviewSession
	err := repo.db.WithContext(ctx).First(&session, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("interview session", sessionID)
		}
		return nil, err
	}
	return &session, nil
}

func (repo *Sessions) GetByCallQueueID(ctx context.Context, callQueueID int64) (*entities.InterviewSession, error) {
	var session entities.InterviewSession
	err := repo.db.WithContext(ctx).First(&session, "call_queue_id = ?", callQueueID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("interview session for call", callQueueID)
		}
		return nil, err
	}
	return &session, nil
}

func (repo *Sessions) Update(ctx context.Context, session *entities.InterviewSession) error {
	return repo.db.WithContext(ctx).Save(session).Error
}

func (repo *Sessions) AddTurn(ctx context.Context, turn *entities.ConversationTurn) error {
	return repo.db.WithContext(ctx).Create(turn).Error
}

func (repo *Sessions) GetTurns(ctx context.Context, sessionID int64) ([]entities.ConversationTurn, error) {
	var turns []entities.ConversationTurn
	err := repo.db.WithContext(ctx).
		Order("turn_number asc").
		Find(&turns, "session_id = ?", sessionID).Error
	if err != nil {
		return nil, err
	}
	return turns, nil
}

func (repo *Sessions) CreateState(ctx context.Context, state *entities.InterviewState) error {
	return repo.db.WithContext(ctx).Create(state).Error
}

func (repo *Sessions) GetState(ctx context.Context, sessionID int64) (*entities.InterviewState, error) {
	var state entities.InterviewState
	err := repo.db.WithContext(ctx).First(&state, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("interview state for session", sessionID)
		}
		return nil, err
	}
	return &state, nil
}

func (repo *Sessions) UpdateState(ctx context.Context, state *entities.InterviewState) error {
	return repo.db.WithContext(ctx).Save(state).Error
}
