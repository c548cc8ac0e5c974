package email

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"launchkit/internal/apperr"
)

// RetryPolicy bounds SendWithRetry. The delay doubles after every failed attempt.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
}

var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, InitialInterval: 500 * time.Millisecond}

// SendWithRetry sends msg, retrying transient failures. Rate limit errors are returned immediately.
func SendWithRetry(ctx context.Context, s Sender, msg Message, policy RetryPolicy) (string, error) {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.InitialInterval
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = policy.InitialInterval << uint(policy.MaxAttempts)
	exp.MaxElapsedTime = 0
	exp.Reset()

	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(policy.MaxAttempts-1)), ctx)

	var id string
	err := backoff.Retry(func() error {
		var err error
		id, err = s.Send(ctx, msg)
		if apperr.IsKind(err, apperr.KindRateLimited) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if err != nil {
		return "", err
	}
	return id, nil
}
