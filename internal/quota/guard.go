package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/stylefold/wardrobe/internal/observability/logger"
	userrecorddomain "github.com/stylefold/wardrobe/internal/userrecord/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrExhausted is the errors.Is target for insufficient quota.
var ErrExhausted = errors.New("quota exhausted")

// ExhaustedError carries the required and available amounts so clients can
// render an upsell instead of a generic failure.
type ExhaustedError struct {
	Field     userrecorddomain.QuotaField
	Required  int
	Available int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("quota exhausted for %s: required %d, available %d", e.Field, e.Required, e.Available)
}

func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

type Params struct {
	fx.In

	Log   *zap.Logger
	Users userrecorddomain.Service
}

// Guard is the check-and-decrement gate every credit-consuming operation
// passes through.
type Guard struct {
	log   *zap.Logger
	users userrecorddomain.Service
}

func New(p Params) *Guard {
	return &Guard{
		log:   p.Log.Named("quota.guard"),
		users: p.Users,
	}
}

// Consume checks that the user's quota field holds at least amount and
// debits it, returning the new remaining value. The record is created lazily
// from the entitlement platform on first use, so first-use latency includes a
// platform round trip.
//
// The check-read and the decrement are not one transaction: the decrement
// itself is an atomic increment and cannot lose updates, but two concurrent
// requests can both pass the check before either debits. See DESIGN.md.
//
// ErrPermissionDenied and ErrExhausted propagate unchanged to the caller.
func (g *Guard) Consume(ctx context.Context, userID string, field userrecorddomain.QuotaField, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("consume amount must be positive, got %d", amount)
	}
	if _, ok := field.Column(); !ok {
		return 0, fmt.Errorf("%w: %s", userrecorddomain.ErrUnknownField, field)
	}

	log := logger.WithContext(ctx, g.log)

	record, err := g.users.Get(ctx, userID)
	if errors.Is(err, userrecorddomain.ErrNotFound) {
		record, err = g.users.EnsureRecord(ctx, userID)
	}
	if err != nil {
		return 0, err
	}

	available := record.Value(field)
	if available < amount {
		log.Info("quota exhausted",
			zap.String("user_id", userID),
			zap.String("field", string(field)),
			zap.Int("required", amount),
			zap.Int("available", available),
		)
		return 0, &ExhaustedError{Field: field, Required: amount, Available: available}
	}

	remaining, err := g.users.Decrement(ctx, userID, field, amount)
	if err != nil {
		return 0, err
	}

	log.Info("quota debited",
		zap.String("user_id", userID),
		zap.String("field", string(field)),
		zap.Int("amount", amount),
		zap.Int("remaining", remaining),
	)
	return remaining, nil
}
