package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"ashare/internal/provider/ratelimit"
	"ashare/internal/retry"
)

// JSONGetter issues a GET and returns the JSON body.
//
//go:generate mockgen -package=provider -destination=mock_json_getter_test.go -source=requester.go JSONGetter
type JSONGetter interface {
	GetJSON(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error)
}

// Requester guards every outbound call of a provider: each attempt waits
// for a limiter permit, and failed attempts are retried by the policy.
// Limiter and Retry may be nil.
type Requester struct {
	Client  JSONGetter
	Limiter *ratelimit.Limiter
	Retry   *retry.Policy
}

// GetJSON performs one guarded GET. A Requester is itself a JSONGetter.
func (r *Requester) GetJSON(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	if r.Client == nil {
		return nil, errors.New("provider: requester has no client")
	}
	attempt := func(ctx context.Context) (json.RawMessage, error) {
		if r.Limiter != nil {
			if err := r.Limiter.Acquire(ctx); err != nil {
				return nil, err
			}
		}
		return r.Client.GetJSON(ctx, endpoint, query)
	}
	if r.Retry == nil {
		return attempt(ctx)
	}
	return retry.Value(ctx, r.Retry, attempt)
}
