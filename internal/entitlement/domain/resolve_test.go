package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func activeSub(productID string) Subscription {
	return Subscription{
		StoreProductID: productID,
		ExpiresAt:      timePtr(testNow.Add(30 * 24 * time.Hour)),
	}
}

func TestResolveAllotment_NilProfileIsFreemium(t *testing.T) {
	got := ResolveAllotment(nil, testNow)
	assert.Equal(t, TierFreemium, got.Tier)
	assert.Equal(t, 20, got.TryOns)
	assert.Equal(t, 20, got.Suggestions)
	assert.Equal(t, 20, got.ClothAnalysis)
}

func TestResolveAllotment_EmptyProfileIsFreemium(t *testing.T) {
	got := ResolveAllotment(&Profile{ProfileID: "p1"}, testNow)
	assert.Equal(t, TierFreemium, got.Tier)
}

func TestResolveAllotment_ActiveSubscriptionIsPremium(t *testing.T) {
	p := &Profile{
		ProfileID: "p1",
		Subscriptions: map[string]Subscription{
			"monthly": activeSub("com.stylefold.monthly"),
		},
	}
	got := ResolveAllotment(p, testNow)
	assert.Equal(t, TierPremium, got.Tier)
	assert.Equal(t, 100, got.TryOns)
}

func TestResolveAllotment_TopTierMarkersPromote(t *testing.T) {
	for _, productID := range []string{
		"com.stylefold.ultra.monthly",
		"com.stylefold.UNLIMITED",
		"com.stylefold.pro_yearly",
	} {
		p := &Profile{
			ProfileID: "p1",
			Subscriptions: map[string]Subscription{
				"sub": activeSub(productID),
			},
		}
		got := ResolveAllotment(p, testNow)
		assert.Equal(t, TierUltraPremium, got.Tier, "product %s", productID)
		assert.Equal(t, 500, got.TryOns, "product %s", productID)
	}
}

func TestResolveAllotment_DisqualifiedSubscriptionsIgnored(t *testing.T) {
	cases := map[string]Subscription{
		"explicitly inactive": {
			IsActive:       boolPtr(false),
			StoreProductID: "com.stylefold.ultra",
			ExpiresAt:      timePtr(testNow.Add(time.Hour)),
		},
		"in grace period": {
			IsInGracePeriod: true,
			StoreProductID:  "com.stylefold.ultra",
			ExpiresAt:       timePtr(testNow.Add(time.Hour)),
		},
		"refunded": {
			IsRefund:       true,
			StoreProductID: "com.stylefold.ultra",
			ExpiresAt:      timePtr(testNow.Add(time.Hour)),
		},
		"expired": {
			StoreProductID: "com.stylefold.ultra",
			ExpiresAt:      timePtr(testNow.Add(-time.Hour)),
		},
	}
	for name, sub := range cases {
		p := &Profile{
			ProfileID:     "p1",
			Subscriptions: map[string]Subscription{"sub": sub},
		}
		got := ResolveAllotment(p, testNow)
		assert.Equal(t, TierFreemium, got.Tier, name)
	}
}

func TestResolveAllotment_AbsentIsActiveCountsAsActive(t *testing.T) {
	p := &Profile{
		ProfileID: "p1",
		Subscriptions: map[string]Subscription{
			"sub": {
				StoreProductID: "com.stylefold.monthly",
				// no is_active, no expiry
			},
		},
	}
	got := ResolveAllotment(p, testNow)
	assert.Equal(t, TierPremium, got.Tier)
}

func TestResolveAllotment_AccessLevelAloneIsPremium(t *testing.T) {
	p := &Profile{
		ProfileID: "p1",
		AccessLevels: map[string]AccessLevel{
			"premium": {IsActive: true},
		},
	}
	got := ResolveAllotment(p, testNow)
	assert.Equal(t, TierPremium, got.Tier)
}

func TestResolveAllotment_DeterministicAcrossMapOrder(t *testing.T) {
	// Two qualifying subscriptions, only one carrying a top-tier marker. The
	// scan order is the sorted store key order, so the result never depends on
	// map iteration.
	p := &Profile{
		ProfileID: "p1",
		Subscriptions: map[string]Subscription{
			"b_basic": activeSub("com.stylefold.monthly"),
			"a_ultra": activeSub("com.stylefold.ultra"),
		},
	}
	want := ResolveAllotment(p, testNow)
	for i := 0; i < 50; i++ {
		assert.Equal(t, want, ResolveAllotment(p, testNow))
	}
	assert.Equal(t, TierUltraPremium, want.Tier)
}

func TestAllotmentForTier_UnknownFallsBackToFreemium(t *testing.T) {
	got := AllotmentForTier(Tier("gold"))
	assert.Equal(t, TierFreemium, got.Tier)
}
