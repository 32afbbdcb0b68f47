package domain

import (
	"sort"
	"strings"
	"time"
)

var allotments = map[Tier]Allotment{
	TierFreemium:     {Tier: TierFreemium, TryOns: 20, Suggestions: 20, ClothAnalysis: 20},
	TierPremium:      {Tier: TierPremium, TryOns: 100, Suggestions: 100, ClothAnalysis: 100},
	TierUltraPremium: {Tier: TierUltraPremium, TryOns: 500, Suggestions: 500, ClothAnalysis: 500},
}

// topTierMarkers promote a subscription to the top tier when its store product
// identifier contains one of them, case-insensitive.
var topTierMarkers = []string{"ultra", "unlimited", "pro"}

// AllotmentForTier returns the fixed allotment assigned to a tier.
func AllotmentForTier(tier Tier) Allotment {
	if a, ok := allotments[tier]; ok {
		return a
	}
	return allotments[TierFreemium]
}

// ResolveAllotment classifies a profile snapshot into a tier and its quota
// allotment. Pure: identical input and clock always yield identical output.
//
// Freemium applies only when the profile has no active access level and no
// qualifying active subscription. Otherwise the tier defaults to premium and
// the qualifying subscriptions are scanned, in ascending store-key order, for
// a top-tier product marker; the first match wins.
func ResolveAllotment(p *Profile, now time.Time) Allotment {
	if p == nil {
		return AllotmentForTier(TierFreemium)
	}

	hasActiveAccess := false
	for _, access := range p.AccessLevels {
		if access.IsActive || access.ExpiresAt == nil || access.ExpiresAt.After(now) {
			hasActiveAccess = true
			break
		}
	}

	keys := make([]string, 0, len(p.Subscriptions))
	for key := range p.Subscriptions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	active := make([]Subscription, 0, len(keys))
	for _, key := range keys {
		sub := p.Subscriptions[key]
		if sub.QualifyingActive(now) {
			active = append(active, sub)
		}
	}

	if !hasActiveAccess && len(active) == 0 {
		return AllotmentForTier(TierFreemium)
	}

	for _, sub := range active {
		productID := strings.ToLower(sub.StoreProductID)
		for _, marker := range topTierMarkers {
			if strings.Contains(productID, marker) {
				return AllotmentForTier(TierUltraPremium)
			}
		}
	}

	return AllotmentForTier(TierPremium)
}

// QualifyingActive reports whether the subscription counts toward tier
// classification: not explicitly inactive, not in grace period, not refunded,
// and not expired.
func (s Subscription) QualifyingActive(now time.Time) bool {
	if s.IsActive != nil && !*s.IsActive {
		return false
	}
	if s.IsInGracePeriod || s.IsRefund {
		return false
	}
	if s.ExpiresAt != nil && !s.ExpiresAt.After(now) {
		return false
	}
	return true
}
