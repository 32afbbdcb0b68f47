package repository

import (
	"context"
	"fmt"
	"time"

	entitlementdomain "github.com/stylefold/wardrobe/internal/entitlement/domain"
	"github.com/stylefold/wardrobe/internal/userrecord/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID string) (*domain.UserRecord, error) {
	var record domain.UserRecord
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, tier, remaining_try_ons, remaining_suggestions, remaining_cloth_analysis, created_at, last_synced_at
		 FROM user_records WHERE user_id = ?`,
		userID,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.UserID == "" {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.UserRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_records (user_id, tier, remaining_try_ons, remaining_suggestions, remaining_cloth_analysis, created_at, last_synced_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UserID,
		record.Tier,
		record.RemainingTryOns,
		record.RemainingSuggestions,
		record.RemainingClothAnalysis,
		record.CreatedAt,
		record.LastSyncedAt,
	).Error
}

// Decrement relies on the database's atomic UPDATE; concurrent decrements for
// the same user cannot lose updates. RETURNING is supported by both dialects
// in use (postgres, sqlite >= 3.35).
func (r *repo) Decrement(ctx context.Context, db *gorm.DB, userID string, field domain.QuotaField, amount int) (int, error) {
	column, ok := field.Column()
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownField, field)
	}

	var newValue int
	query := fmt.Sprintf(
		`UPDATE user_records SET %s = %s - ? WHERE user_id = ? RETURNING %s`,
		column, column, column,
	)
	result := db.WithContext(ctx).Raw(query, amount, userID).Scan(&newValue)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	return newValue, nil
}

func (r *repo) MergeAllotment(ctx context.Context, db *gorm.DB, userID string, allotment entitlementdomain.Allotment, syncedAt time.Time) (*domain.UserRecord, error) {
	existing, err := r.Find(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		record := &domain.UserRecord{
			UserID:                 userID,
			Tier:                   allotment.Tier,
			RemainingTryOns:        allotment.TryOns,
			RemainingSuggestions:   allotment.Suggestions,
			RemainingClothAnalysis: allotment.ClothAnalysis,
			CreatedAt:              syncedAt,
			LastSyncedAt:           syncedAt,
		}
		if err := r.Insert(ctx, db, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	err = db.WithContext(ctx).Exec(
		`UPDATE user_records
		 SET tier = ?, remaining_try_ons = ?, remaining_suggestions = ?, remaining_cloth_analysis = ?, last_synced_at = ?
		 WHERE user_id = ?`,
		allotment.Tier,
		allotment.TryOns,
		allotment.Suggestions,
		allotment.ClothAnalysis,
		syncedAt,
		userID,
	).Error
	if err != nil {
		return nil, err
	}

	existing.Tier = allotment.Tier
	existing.RemainingTryOns = allotment.TryOns
	existing.RemainingSuggestions = allotment.Suggestions
	existing.RemainingClothAnalysis = allotment.ClothAnalysis
	existing.LastSyncedAt = syncedAt
	return existing, nil
}
