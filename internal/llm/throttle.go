package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled wraps a ModelCaller with a token-bucket limiter so a chatty
// session cannot exceed the provider's request quota. Waiting respects the
// caller's context deadline.
type Throttled struct {
	inner   ModelCaller
	limiter *rate.Limiter
}

// NewThrottled wraps caller with a limit of requestsPerMinute. A zero or
// negative limit returns the caller unwrapped.
func NewThrottled(caller ModelCaller, requestsPerMinute int) ModelCaller {
	if requestsPerMinute <= 0 {
		return caller
	}
	return &Throttled{
		inner:   caller,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
	}
}

func (t *Throttled) Extract(ctx context.Context, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.inner.Extract(ctx, prompt)
}

func (t *Throttled) Respond(ctx context.Context, systemDirectives, userText string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.inner.Respond(ctx, systemDirectives, userText)
}

func (t *Throttled) Model() string {
	return t.inner.Model()
}

func (t *Throttled) BreakerState() string {
	return t.inner.BreakerState()
}
