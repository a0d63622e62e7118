package coupon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// resolver implements Resolver on top of a Finder.
type resolver struct {
	finder Finder
	logger zerolog.Logger
}

// NewResolver creates a resolver reading coupons from finder.
func NewResolver(finder Finder, logger zerolog.Logger) Resolver {
	return &resolver{
		finder: finder,
		logger: logger.With().Str("component", "coupon-resolver").Logger(),
	}
}

// Resolve looks up code and reports whether it can be applied.
func (r *resolver) Resolve(ctx context.Context, code string) (Result, error) {
	normalized := Normalize(code)
	if normalized == "" {
		return Result{Outcome: OutcomeNone}, nil
	}

	c, err := r.finder.GetByCode(ctx, normalized)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_code", normalized).Msg("failed to look up coupon")
		return Result{}, fmt.Errorf("failed to look up coupon %s: %w", normalized, err)
	}

	if c == nil {
		r.logger.Debug().Str("coupon_code", normalized).Msg("coupon not found")
		return Result{Outcome: OutcomeNotFound, Code: normalized}, nil
	}
	if !c.Enabled {
		r.logger.Debug().Str("coupon_code", normalized).Msg("coupon disabled")
		return Result{Outcome: OutcomeDisabled, Code: normalized}, nil
	}

	return Result{Outcome: OutcomeApplied, Code: normalized, Coupon: c}, nil
}
