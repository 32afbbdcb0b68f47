package domain

import (
	"errors"
	"time"

	entitlementdomain "github.com/stylefold/wardrobe/internal/entitlement/domain"
)

// QuotaField names one of the three independent per-user quota counters.
type QuotaField string

const (
	FieldTryOns        QuotaField = "remainingTryOns"
	FieldSuggestions   QuotaField = "remainingSuggestions"
	FieldClothAnalysis QuotaField = "remainingClothAnalysis"
)

// Column maps a quota field to its storage column.
func (f QuotaField) Column() (string, bool) {
	switch f {
	case FieldTryOns:
		return "remaining_try_ons", true
	case FieldSuggestions:
		return "remaining_suggestions", true
	case FieldClothAnalysis:
		return "remaining_cloth_analysis", true
	default:
		return "", false
	}
}

// UserRecord is the per-user quota document. Tier and the counters are
// derived from the entitlement platform, never client-supplied.
type UserRecord struct {
	UserID                 string                  `gorm:"primaryKey;column:user_id" json:"uuid"`
	Tier                   entitlementdomain.Tier  `gorm:"not null" json:"tier"`
	RemainingTryOns        int                     `gorm:"not null;column:remaining_try_ons" json:"remainingTryOns"`
	RemainingSuggestions   int                     `gorm:"not null;column:remaining_suggestions" json:"remainingSuggestions"`
	RemainingClothAnalysis int                     `gorm:"not null;column:remaining_cloth_analysis" json:"remainingClothAnalysis"`
	CreatedAt              time.Time               `gorm:"not null" json:"createdAt"`
	LastSyncedAt           time.Time               `gorm:"not null;column:last_synced_at" json:"lastSyncedWithAdapty"`
}

func (UserRecord) TableName() string { return "user_records" }

// Value returns the current value of a quota field.
func (r *UserRecord) Value(field QuotaField) int {
	switch field {
	case FieldTryOns:
		return r.RemainingTryOns
	case FieldSuggestions:
		return r.RemainingSuggestions
	case FieldClothAnalysis:
		return r.RemainingClothAnalysis
	default:
		return 0
	}
}

var (
	ErrNotFound         = errors.New("user record not found")
	ErrPermissionDenied = errors.New("user identity not verifiable")
	ErrUnknownField     = errors.New("unknown quota field")
)
