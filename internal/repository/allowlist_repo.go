package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vathakkar/ai-voice-concierge/internal/domain"
	"gorm.io/gorm"
)

// GormAllowlistRepository implements AllowlistRepository on Postgres. All
// numbers are stored in canonical form so the unique index on phone_number
// holds across formatting variants.
type GormAllowlistRepository struct {
	db *gorm.DB
}

// NewGormAllowlistRepository creates a new allow-list repository.
func NewGormAllowlistRepository(db *gorm.DB) *GormAllowlistRepository {
	return &GormAllowlistRepository{db: db}
}

// Lookup returns the active entry for the number, or nil when absent.
func (r *GormAllowlistRepository) Lookup(ctx context.Context, rawNumber string) (*domain.AllowlistEntry, error) {
	normalized := NormalizePhoneNumber(rawNumber)

	var entry domain.AllowlistEntry
	err := r.db.WithContext(ctx).
		Where("phone_number = ? AND is_active = ?", normalized, true).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up allow-list entry: %w", err)
	}
	return &entry, nil
}

// Add inserts a new entry. Returns false when the canonical number already
// exists in any state; re-adding a soft-deleted number must go through
// Restore so the original contact metadata is kept.
func (r *GormAllowlistRepository) Add(ctx context.Context, rawNumber, contactName, category string) (bool, error) {
	normalized := NormalizePhoneNumber(rawNumber)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.AllowlistEntry{}).
		Where("phone_number = ?", normalized).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check existing allow-list entry: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	entry := &domain.AllowlistEntry{
		ID:          uuid.New().String(),
		PhoneNumber: normalized,
		ContactName: contactName,
		Category:    category,
		AddedDate:   time.Now().UTC(),
		IsActive:    true,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return false, fmt.Errorf("failed to add allow-list entry: %w", err)
	}
	return true, nil
}

// Remove soft-deletes the matching active entry.
func (r *GormAllowlistRepository) Remove(ctx context.Context, rawNumber string) (bool, error) {
	normalized := NormalizePhoneNumber(rawNumber)

	result := r.db.WithContext(ctx).
		Model(&domain.AllowlistEntry{}).
		Where("phone_number = ? AND is_active = ?", normalized, true).
		Update("is_active", false)
	if result.Error != nil {
		return false, fmt.Errorf("failed to remove allow-list entry: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Restore reactivates the matching inactive entry.
func (r *GormAllowlistRepository) Restore(ctx context.Context, rawNumber string) (bool, error) {
	normalized := NormalizePhoneNumber(rawNumber)

	result := r.db.WithContext(ctx).
		Model(&domain.AllowlistEntry{}).
		Where("phone_number = ? AND is_active = ?", normalized, false).
		Update("is_active", true)
	if result.Error != nil {
		return false, fmt.Errorf("failed to restore allow-list entry: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// List returns all active entries ordered by contact name.
func (r *GormAllowlistRepository) List(ctx context.Context) ([]*domain.AllowlistEntry, error) {
	var entries []*domain.AllowlistEntry
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("contact_name ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list allow-list entries: %w", err)
	}
	return entries, nil
}
