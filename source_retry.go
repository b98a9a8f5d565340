package depot

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// RetryPolicy configures the retries of a resilient price source.
type RetryPolicy struct {
	Attempts        int           // total number of attempts, at least 1
	Timeout         time.Duration // per attempt, 0 for none
	InitialInterval time.Duration // first wait between attempts
	MaxInterval     time.Duration // longest wait between attempts
}

// DefaultRetryPolicy makes 3 attempts of at most 10s each.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:        3,
	Timeout:         10 * time.Second,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
}

// Resilient wraps src so that every call is bounded by the policy timeout and
// retried with an exponential backoff.
//
// Errors wrapping ErrDataUnavailable are returned immediately: the source
// answered, it just has no data. The context cancels pending retries.
func Resilient(src PriceSource, policy RetryPolicy) PriceSource {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	r := &resilient{src: src, policy: policy}
	if h, ok := src.(HistoricalRates); ok {
		return &resilientHistory{resilient: r, hist: h}
	}
	return r
}

type resilient struct {
	src    PriceSource
	policy RetryPolicy
}

// retry calls op until it succeeds or the policy is exhausted.
func retry[T any](ctx context.Context, policy RetryPolicy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		b.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	b.MaxElapsedTime = 0 // attempts are bounded by the count

	attempt := func() (T, error) {
		actx := ctx
		if policy.Timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, policy.Timeout)
			defer cancel()
		}
		v, err := op(actx)
		if err != nil && (errors.Is(err, ErrDataUnavailable) || ctx.Err() != nil) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("call", name).Dur("wait", wait).Msg("price source failed, retrying")
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(b, uint64(policy.Attempts-1)), ctx)
	return backoff.RetryNotifyWithData(attempt, bo, notify)
}

func (r *resilient) LatestPrice(ctx context.Context, symbol string) (Quote, error) {
	return retry(ctx, r.policy, "price "+symbol, func(ctx context.Context) (Quote, error) {
		return r.src.LatestPrice(ctx, symbol)
	})
}

func (r *resilient) Metadata(ctx context.Context, symbol string) (Metadata, error) {
	return retry(ctx, r.policy, "metadata "+symbol, func(ctx context.Context) (Metadata, error) {
		return r.src.Metadata(ctx, symbol)
	})
}

func (r *resilient) ExchangeRate(ctx context.Context, from, to string) (float64, error) {
	return retry(ctx, r.policy, "rate "+from+to, func(ctx context.Context) (float64, error) {
		return r.src.ExchangeRate(ctx, from, to)
	})
}

// resilientHistory keeps the HistoricalRates capability of the wrapped source.
type resilientHistory struct {
	*resilient
	hist HistoricalRates
}

func (r *resilientHistory) ExchangeRateOn(ctx context.Context, from, to string, on Date) (float64, error) {
	return retry(ctx, r.policy, "rate "+from+to+" on "+on.String(), func(ctx context.Context) (float64, error) {
		return r.hist.ExchangeRateOn(ctx, from, to, on)
	})
}
