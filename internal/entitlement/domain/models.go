package domain

import (
	"context"
	"errors"
	"time"
)

// Tier is the coarse subscription classification controlling quota size.
type Tier string

const (
	TierFreemium     Tier = "freemium"
	TierPremium      Tier = "premium"
	TierUltraPremium Tier = "ultra_premium"
)

// AccessLevel is a platform access-level entry, read-only to this system.
type AccessLevel struct {
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Subscription is a platform subscription entry keyed by store identifier.
type Subscription struct {
	// IsActive is a tri-state on the wire: absent counts as active.
	IsActive        *bool      `json:"is_active"`
	IsInGracePeriod bool       `json:"is_in_grace_period"`
	IsRefund        bool       `json:"is_refund"`
	ExpiresAt       *time.Time `json:"expires_at"`
	StoreProductID  string     `json:"store_product_id"`
}

// Profile is the subscription platform's view of a user.
type Profile struct {
	ProfileID      string                  `json:"profile_id"`
	CustomerUserID string                  `json:"customer_user_id"`
	AccessLevels   map[string]AccessLevel  `json:"access_levels"`
	Subscriptions  map[string]Subscription `json:"subscriptions"`
}

// Allotment is the set of quota values assigned at a given tier.
type Allotment struct {
	Tier          Tier
	TryOns        int
	Suggestions   int
	ClothAnalysis int
}

var (
	ErrProfileNotFound = errors.New("entitlement profile not found")
	ErrUpstreamAuth    = errors.New("entitlement upstream authorization failed")
)

// Resolver fetches a user's profile from the subscription platform.
type Resolver interface {
	FetchProfile(ctx context.Context, userID string) (*Profile, error)
}
