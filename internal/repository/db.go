package repository

import (
	"context"
	"fmt"

	"github.com/vathakkar/ai-voice-concierge/internal/domain"
	"gorm.io/gorm"
)

// CallLogRepository is the append-only record of calls and their transcripts.
type CallLogRepository interface {
	// StartCall inserts a new call with StartedAt set to now and returns its id.
	// Safe to call concurrently for distinct callers.
	StartCall(ctx context.Context, callerID string) (string, error)

	// AppendTurn inserts one conversation turn. Duplicate turnIndex/speaker
	// pairs are tolerated; carrier retries can legitimately repeat a turn.
	AppendTurn(ctx context.Context, callID string, turnIndex int, speaker domain.Speaker, text string) error

	// FinalizeCall sets EndedAt, FinalOutcome and optionally Summary. A second
	// call overwrites the first (last write wins); the transfer-failure
	// callback relies on that.
	FinalizeCall(ctx context.Context, callID string, outcome domain.CallOutcome, summary string) error

	// RecentCalls returns the most recent calls with their ordered transcripts,
	// calls by StartedAt descending, turns by TurnIndex ascending.
	RecentCalls(ctx context.Context, limit int) ([]*domain.CallWithTurns, error)
}

// AllowlistRepository manages phone numbers that bypass screening.
type AllowlistRepository interface {
	// Lookup normalizes the number and returns the active entry, or nil when
	// the number is not allow-listed.
	Lookup(ctx context.Context, rawNumber string) (*domain.AllowlistEntry, error)

	// Add inserts a new entry. Returns false when an entry with the same
	// canonical number already exists, regardless of active state; use
	// Restore for those.
	Add(ctx context.Context, rawNumber, contactName, category string) (bool, error)

	// Remove soft-deletes the matching active entry. False when no active match.
	Remove(ctx context.Context, rawNumber string) (bool, error)

	// Restore reactivates the matching inactive entry. False when no inactive match.
	Restore(ctx context.Context, rawNumber string) (bool, error)

	// List returns all active entries ordered by contact name.
	List(ctx context.Context) ([]*domain.AllowlistEntry, error)
}

// Manager aggregates the repositories behind one database handle.
type Manager struct {
	db            *gorm.DB
	callLogRepo   *GormCallLogRepository
	allowlistRepo *GormAllowlistRepository
}

// NewManager creates the repository manager from env config, pings the
// database and runs migrations.
func NewManager() (*Manager, error) {
	config := LoadDatabaseConfigFromEnv()
	db, err := NewDatabaseConnection(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run auto migration: %w", err)
	}

	return NewManagerWithDB(db), nil
}

// NewManagerWithDB wraps an existing gorm handle without migrating.
func NewManagerWithDB(db *gorm.DB) *Manager {
	return &Manager{
		db:            db,
		callLogRepo:   NewGormCallLogRepository(db),
		allowlistRepo: NewGormAllowlistRepository(db),
	}
}

// CallLog returns the call log repository.
func (m *Manager) CallLog() CallLogRepository {
	return m.callLogRepo
}

// Allowlist returns the allow-list repository.
func (m *Manager) Allowlist() AllowlistRepository {
	return m.allowlistRepo
}

// Ping checks the database connection.
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
