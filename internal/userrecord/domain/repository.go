package domain

import (
	"context"
	"time"

	entitlementdomain "github.com/stylefold/wardrobe/internal/entitlement/domain"
	"gorm.io/gorm"
)

// Repository is the storage layer over per-user quota records.
type Repository interface {
	Find(ctx context.Context, db *gorm.DB, userID string) (*UserRecord, error)
	Insert(ctx context.Context, db *gorm.DB, record *UserRecord) error
	// Decrement subtracts amount from a quota field with the store's native
	// atomic increment and returns the new value. It must not be implemented
	// as read-modify-write.
	Decrement(ctx context.Context, db *gorm.DB, userID string, field QuotaField, amount int) (int, error)
	// MergeAllotment overwrites tier, all three quota fields and the sync
	// timestamp, preserving created_at when the record already exists.
	MergeAllotment(ctx context.Context, db *gorm.DB, userID string, allotment entitlementdomain.Allotment, syncedAt time.Time) (*UserRecord, error)
}

// Service exposes user record operations to the quota guard and handlers.
type Service interface {
	Get(ctx context.Context, userID string) (*UserRecord, error)
	// EnsureRecord returns the stored record, lazily creating it from a live
	// entitlement fetch. Creation is refused with ErrPermissionDenied when the
	// platform has no profile for the user.
	EnsureRecord(ctx context.Context, userID string) (*UserRecord, error)
	ApplyAllotment(ctx context.Context, userID string, allotment entitlementdomain.Allotment) (*UserRecord, error)
	Decrement(ctx context.Context, userID string, field QuotaField, amount int) (int, error)
}
