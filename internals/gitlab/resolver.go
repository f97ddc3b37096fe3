package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/jadenj13/notify-review/internals/review"
)

const DefaultBaseURL = "https://gitlab.com"

type Resolver struct {
	gl *gitlab.Client
}

func NewResolver(token, baseURL string, timeout time.Duration) (*Resolver, error) {
	opts := []gitlab.ClientOptionFunc{gitlab.WithBaseURL(strings.TrimRight(baseURL, "/") + "/api/v4")}
	if timeout > 0 {
		opts = append(opts, gitlab.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	gl, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("gitlab client: %w", err)
	}
	return &Resolver{gl: gl}, nil
}

// Resolve reads the reviewer's public_email. Users who keep it private
// resolve to an empty Email. Request errors are returned unwrapped.
func (r *Resolver) Resolve(ctx context.Context, reviewer review.Reviewer) (review.Profile, error) {
	if reviewer.ID == 0 {
		return review.Profile{}, errors.New("gitlab get user: reviewer has no id")
	}
	u, _, err := r.gl.Users.GetUser(int(reviewer.ID), gitlab.GetUsersOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return review.Profile{}, err
	}
	return review.Profile{
		Login: u.Username,
		Email: strings.TrimSpace(u.PublicEmail),
	}, nil
}

type Factory struct {
	token   string
	baseURL string
	timeout time.Duration
}

type FactoryOption func(*Factory)

func WithBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) { f.baseURL = baseURL }
}

func WithTimeout(d time.Duration) FactoryOption {
	return func(f *Factory) { f.timeout = d }
}

func NewFactory(token string, opts ...FactoryOption) *Factory {
	f := &Factory{token: token, baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(f)
	}
	return f
}

// ResolverFor returns a resolver for the instance hosting projectURL.
func (f *Factory) ResolverFor(projectURL string) (*Resolver, error) {
	if f.token == "" {
		return nil, errors.New("no GitLab token configured")
	}
	return NewResolver(f.token, f.instanceURL(projectURL), f.timeout)
}

// instanceURL prefers the configured base URL, falling back to the project's
// scheme+host for self-hosted instances.
func (f *Factory) instanceURL(projectURL string) string {
	p, err := url.Parse(projectURL)
	if err != nil || p.Host == "" {
		return f.baseURL
	}
	if b, err := url.Parse(f.baseURL); err == nil && strings.EqualFold(b.Host, p.Host) {
		return f.baseURL
	}
	return p.Scheme + "://" + p.Host
}
