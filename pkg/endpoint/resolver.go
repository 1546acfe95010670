// Package endpoint picks the first reachable API base URL out of an ordered
// candidate list.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/oopsinfosolutions/feed-sub001/config"
)

// ErrNoHealthyEndpoint every candidate failed in every round
var ErrNoHealthyEndpoint = errors.New("no healthy endpoint")

// Resolver health-checks candidates in order. One round tries each candidate
// once; rounds repeat until one answers 2xx or MaxAttempts rounds have run.
type Resolver struct {
	Endpoints   []string
	HealthPath  string
	MaxAttempts int
	Delay       time.Duration
	Backoff     bool // exponential from Delay instead of a fixed Delay
	Client      *http.Client
	Logger      *zap.Logger
}

// NewResolver builds a Resolver from the client config section
func NewResolver(cfg *config.ClientConfig, logger *zap.Logger) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		Endpoints:   cfg.Endpoints,
		HealthPath:  cfg.HealthPath,
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     cfg.Backoff,
		Client:      &http.Client{Timeout: timeout},
		Logger:      logger,
	}
}

// Resolve returns the base URL of the first healthy candidate
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if len(r.Endpoints) == 0 {
		return "", fmt.Errorf("%w: no candidates configured", ErrNoHealthyEndpoint)
	}

	var healthy string
	round := 0
	op := func() error {
		round++
		for _, base := range r.Endpoints {
			if err := ctx.Err(); err != nil {
				return backoff.Permanent(err)
			}
			if err := r.check(ctx, base); err != nil {
				r.logger().Debug("endpoint unhealthy",
					zap.String("endpoint", base),
					zap.Int("round", round),
					zap.Error(err),
				)
				continue
			}
			healthy = strings.TrimRight(base, "/")
			return nil
		}
		return ErrNoHealthyEndpoint
	}

	if err := backoff.Retry(op, r.policy(ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w after %d rounds", ErrNoHealthyEndpoint, round)
	}

	r.logger().Info("endpoint resolved", zap.String("endpoint", healthy), zap.Int("round", round))
	return healthy, nil
}

// policy rounds after the first are retries, so MaxAttempts-1 of them
func (r *Resolver) policy(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff
	if r.Backoff {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = r.Delay
		exp.MaxElapsedTime = 0
		b = exp
	} else {
		b = backoff.NewConstantBackOff(r.Delay)
	}

	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

func (r *Resolver) check(ctx context.Context, base string) error {
	url := strings.TrimRight(base, "/") + r.HealthPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
