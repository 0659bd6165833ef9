package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vathakkar/ai-voice-concierge/internal/domain"
	"gorm.io/gorm"
)

// GormCallLogRepository implements CallLogRepository on Postgres.
type GormCallLogRepository struct {
	db *gorm.DB
}

// NewGormCallLogRepository creates a new call log repository.
func NewGormCallLogRepository(db *gorm.DB) *GormCallLogRepository {
	return &GormCallLogRepository{db: db}
}

// StartCall inserts a new call record and returns its generated id.
func (r *GormCallLogRepository) StartCall(ctx context.Context, callerID string) (string, error) {
	now := time.Now().UTC()
	call := &domain.Call{
		ID:        uuid.New().String(),
		CallerID:  callerID,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		return "", fmt.Errorf("failed to create call record: %w", err)
	}
	return call.ID, nil
}

// AppendTurn inserts one conversation turn row.
func (r *GormCallLogRepository) AppendTurn(ctx context.Context, callID string, turnIndex int, speaker domain.Speaker, text string) error {
	turn := &domain.ConversationTurn{
		ID:        uuid.New().String(),
		CallID:    callID,
		TurnIndex: turnIndex,
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(turn).Error; err != nil {
		return fmt.Errorf("failed to append conversation turn: %w", err)
	}
	return nil
}

// FinalizeCall writes the terminal outcome. It deliberately overwrites any
// earlier finalize: the transfer-failure callback races with the terminal
// write of the transfer itself and the last status must win.
func (r *GormCallLogRepository) FinalizeCall(ctx context.Context, callID string, outcome domain.CallOutcome, summary string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"ended_at":      now,
		"final_outcome": outcome,
		"updated_at":    now,
	}
	if summary != "" {
		updates["summary"] = summary
	}
	result := r.db.WithContext(ctx).Model(&domain.Call{}).Where("id = ?", callID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to finalize call: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to finalize call: no call with id %s", callID)
	}
	return nil
}

// RecentCalls returns the most recent calls with their full transcripts.
func (r *GormCallLogRepository) RecentCalls(ctx context.Context, limit int) ([]*domain.CallWithTurns, error) {
	if limit <= 0 {
		limit = 10
	}

	var calls []domain.Call
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to list recent calls: %w", err)
	}
	if len(calls) == 0 {
		return []*domain.CallWithTurns{}, nil
	}

	callIDs := make([]string, 0, len(calls))
	for _, c := range calls {
		callIDs = append(callIDs, c.ID)
	}

	var turns []domain.ConversationTurn
	if err := r.db.WithContext(ctx).
		Where("call_id IN ?", callIDs).
		Order("turn_index ASC, timestamp ASC").
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("failed to load conversation turns: %w", err)
	}

	byCall := make(map[string][]domain.ConversationTurn, len(calls))
	for _, t := range turns {
		byCall[t.CallID] = append(byCall[t.CallID], t)
	}

	result := make([]*domain.CallWithTurns, 0, len(calls))
	for _, c := range calls {
		result = append(result, &domain.CallWithTurns{
			Call:  c,
			Turns: byCall[c.ID],
		})
	}
	return result, nil
}
