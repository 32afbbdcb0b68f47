package reconcile

import (
	"context"
	"errors"
	"time"

	entitlementdomain "github.com/stylefold/wardrobe/internal/entitlement/domain"
	"github.com/stylefold/wardrobe/internal/observability/logger"
	userrecorddomain "github.com/stylefold/wardrobe/internal/userrecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Outcome classifies what a webhook event did.
type Outcome string

const (
	OutcomeSynced          Outcome = "success"
	OutcomeIgnored         Outcome = "ignored"
	OutcomeProfileNotFound Outcome = "profile_not_found"
)

// Subscription lifecycle events that trigger reconciliation; everything else
// is acknowledged and ignored.
var relevantEvents = map[string]bool{
	"subscription_started": true,
	"subscription_renewed": true,
	"subscription_expired": true,
}

const lockTTL = 30 * time.Second

type Params struct {
	fx.In

	Log      *zap.Logger
	Resolver entitlementdomain.Resolver
	Users    userrecorddomain.Service
	Locker   *Locker `optional:"true"`
}

// Service refreshes local user records from the entitlement platform, either
// on demand or driven by webhook events.
type Service struct {
	log      *zap.Logger
	resolver entitlementdomain.Resolver
	users    userrecorddomain.Service
	locker   *Locker
	now      func() time.Time
}

func New(p Params) *Service {
	return &Service{
		log:      p.Log.Named("reconcile.service"),
		resolver: p.Resolver,
		users:    p.Users,
		locker:   p.Locker,
		now:      time.Now,
	}
}

// Sync refreshes a user's tier and quota fields from a live profile fetch.
// The quota fields are fully overwritten, not incremented; created_at is
// preserved when the record already exists.
func (s *Service) Sync(ctx context.Context, userID string) (*userrecorddomain.UserRecord, error) {
	profile, err := s.resolver.FetchProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	allotment := entitlementdomain.ResolveAllotment(profile, s.now().UTC())
	record, err := s.users.ApplyAllotment(ctx, userID, allotment)
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx, s.log).Info("user synced with entitlement platform",
		zap.String("user_id", userID),
		zap.String("tier", string(allotment.Tier)),
	)
	return record, nil
}

// Initialize writes a record for a freshly onboarded user, assuming the
// freemium allotment when the platform does not know the profile yet.
func (s *Service) Initialize(ctx context.Context, userID string) (*userrecorddomain.UserRecord, error) {
	allotment := entitlementdomain.AllotmentForTier(entitlementdomain.TierFreemium)

	profile, err := s.resolver.FetchProfile(ctx, userID)
	switch {
	case err == nil:
		allotment = entitlementdomain.ResolveAllotment(profile, s.now().UTC())
	case errors.Is(err, entitlementdomain.ErrProfileNotFound):
		logger.WithContext(ctx, s.log).Info("no entitlement profile yet, assuming freemium",
			zap.String("user_id", userID),
		)
	default:
		return nil, err
	}

	return s.users.ApplyAllotment(ctx, userID, allotment)
}

// HandleEvent reconciles a webhook event. Unrecognized event types are
// acknowledged without touching stored state. Errors never propagate back to
// the platform's delivery pipeline; callers report the outcome and log the
// rest.
func (s *Service) HandleEvent(ctx context.Context, eventType, profileID string) (Outcome, *userrecorddomain.UserRecord, error) {
	if !relevantEvents[eventType] {
		return OutcomeIgnored, nil, nil
	}

	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(ctx, "reconcile:"+profileID, lockTTL)
		if err != nil {
			logger.WithContext(ctx, s.log).Warn("reconcile lock unavailable, proceeding unlocked",
				zap.String("profile_id", profileID),
				zap.Error(err),
			)
		} else if !acquired {
			// Another instance is already syncing this profile; its overwrite
			// carries the same platform state.
			return OutcomeSynced, nil, nil
		} else {
			defer func() {
				_ = s.locker.Release(ctx, "reconcile:"+profileID, token)
			}()
		}
	}

	record, err := s.Sync(ctx, profileID)
	if errors.Is(err, entitlementdomain.ErrProfileNotFound) {
		return OutcomeProfileNotFound, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return OutcomeSynced, record, nil
}
