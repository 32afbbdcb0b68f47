package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	entitlementdomain "github.com/stylefold/wardrobe/internal/entitlement/domain"
	"github.com/stylefold/wardrobe/internal/observability/logger"
	"github.com/stylefold/wardrobe/internal/userrecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	Resolver entitlementdomain.Resolver
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	resolver entitlementdomain.Resolver
	now      func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("userrecord.service"),
		repo:     p.Repo,
		resolver: p.Resolver,
		now:      time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.UserRecord, error) {
	record, err := s.repo.Find(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

// EnsureRecord returns the stored record, creating it from a live entitlement
// fetch when absent. The platform is the source of truth for identity: when it
// has no profile, no local record is written and ErrPermissionDenied surfaces.
func (s *Service) EnsureRecord(ctx context.Context, userID string) (*domain.UserRecord, error) {
	record, err := s.repo.Find(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	log := logger.WithContext(ctx, s.log)
	log.Info("user record absent, creating from entitlement", zap.String("user_id", userID))

	profile, err := s.resolver.FetchProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, entitlementdomain.ErrProfileNotFound) {
			log.Warn("blocking record creation, no entitlement profile", zap.String("user_id", userID))
			return nil, fmt.Errorf("%w: %s", domain.ErrPermissionDenied, userID)
		}
		return nil, err
	}

	now := s.now().UTC()
	allotment := entitlementdomain.ResolveAllotment(profile, now)
	record = &domain.UserRecord{
		UserID:                 userID,
		Tier:                   allotment.Tier,
		RemainingTryOns:        allotment.TryOns,
		RemainingSuggestions:   allotment.Suggestions,
		RemainingClothAnalysis: allotment.ClothAnalysis,
		CreatedAt:              now,
		LastSyncedAt:           now,
	}
	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		return nil, err
	}

	log.Info("user record created",
		zap.String("user_id", userID),
		zap.String("tier", string(allotment.Tier)),
	)
	return record, nil
}

func (s *Service) ApplyAllotment(ctx context.Context, userID string, allotment entitlementdomain.Allotment) (*domain.UserRecord, error) {
	return s.repo.MergeAllotment(ctx, s.db, userID, allotment, s.now().UTC())
}

func (s *Service) Decrement(ctx context.Context, userID string, field domain.QuotaField, amount int) (int, error) {
	return s.repo.Decrement(ctx, s.db, userID, field, amount)
}
