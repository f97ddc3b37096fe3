package github

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"

	"github.com/jadenj13/notify-review/internals/review"
)

// Resolver reads reviewer profiles from the GitHub REST API.
type Resolver struct {
	gh *github.Client
}

type ResolverOption func(*http.Client)

// WithTimeout bounds each profile request. Zero keeps the transport defaults.
func WithTimeout(d time.Duration) ResolverOption {
	return func(c *http.Client) { c.Timeout = d }
}

func NewResolver(ctx context.Context, token string, opts ...ResolverOption) *Resolver {
	// Token type "token" makes the transport send "Authorization: token <t>".
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "token"})
	hc := oauth2.NewClient(ctx, ts)
	for _, o := range opts {
		o(hc)
	}
	return &Resolver{gh: github.NewClient(hc)}
}

// Resolve fetches reviewer.ProfileURL. A user without a public email is not
// an error; Profile.Email is empty. Request errors are returned as go-github
// reports them so the run's failure message is the request error itself.
func (r *Resolver) Resolve(ctx context.Context, reviewer review.Reviewer) (review.Profile, error) {
	if reviewer.ProfileURL == "" {
		return review.Profile{}, errors.New("github get user: reviewer has no profile url")
	}

	req, err := r.gh.NewRequest(http.MethodGet, reviewer.ProfileURL, nil)
	if err != nil {
		return review.Profile{}, err
	}

	var user github.User
	if _, err := r.gh.Do(ctx, req, &user); err != nil {
		return review.Profile{}, err
	}

	login := user.GetLogin()
	if login == "" {
		login = reviewer.Login
	}
	return review.Profile{
		Login: login,
		Email: strings.TrimSpace(user.GetEmail()),
	}, nil
}
