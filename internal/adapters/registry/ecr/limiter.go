package ecr

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/olusolaa/redis-k8s-charm/internal/core/ports"
)

const (
	defaultRateLimitRPS = 5
	minRateLimitRPS     = 1
	maxRateLimitRPS     = 50
)

// Limiter throttles registry API calls with a token bucket.
type Limiter struct {
	limiter *rate.Limiter
	logger  ports.Logger
}

func NewLimiter(ctx context.Context, rps int, logger ports.Logger) *Limiter {
	limitValue := defaultRateLimitRPS
	if rps >= minRateLimitRPS && rps <= maxRateLimitRPS {
		limitValue = rps
	} else if rps != 0 {
		logger.Warnf(ctx, "Invalid ECR API RPS configured (%d), using default %d RPS. Valid range: %d-%d.", rps, defaultRateLimitRPS, minRateLimitRPS, maxRateLimitRPS)
	}
	logger.Debugf(ctx, "Initialized ECR API rate limiter: %d RPS", limitValue)
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(limitValue), limitValue), logger: logger}
}

func (l *Limiter) Wait(ctx context.Context) error {
	err := l.limiter.Wait(ctx)
	if err != nil && ctx.Err() == nil {
		l.logger.Warnf(ctx, "Error waiting for ECR API rate limiter: %v", err)
	}
	return err
}
