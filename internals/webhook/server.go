package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/jadenj13/notify-review/internals/github"
	"github.com/jadenj13/notify-review/internals/gitlab"
	"github.com/jadenj13/notify-review/internals/review"
)

type Runner interface {
	Run(ctx context.Context, ev review.Event) (review.Outcome, error)
}

// RunnerFactory builds a runner for the GitLab instance hosting projectURL.
type RunnerFactory func(projectURL string) (Runner, error)

type Server struct {
	github       Runner
	gitlab       RunnerFactory
	githubSecret string
	gitlabSecret string
	log          *slog.Logger
	wg           sync.WaitGroup
}

type Option func(*Server)

// WithGitHub enables /webhook/github. An empty secret disables signature checks.
func WithGitHub(r Runner, secret string) Option {
	return func(s *Server) {
		s.github = r
		s.githubSecret = secret
	}
}

// WithGitLab enables /webhook/gitlab. An empty secret disables token checks.
func WithGitLab(f RunnerFactory, secret string) Option {
	return func(s *Server) {
		s.gitlab = f
		s.gitlabSecret = secret
	}
}

func NewServer(log *slog.Logger, opts ...Option) *Server {
	s := &Server{log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.github != nil {
		mux.HandleFunc("POST /webhook/github", s.handleGitHub)
	}
	if s.gitlab != nil {
		mux.HandleFunc("POST /webhook/gitlab", s.handleGitLab)
	}
	return mux
}

// Wait blocks until every accepted delivery has finished its run.
func (s *Server) Wait() { s.wg.Wait() }

func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	if !validSignature(s.githubSecret, r.Header.Get("x-hub-signature-256"), body) {
		s.log.Warn("github webhook rejected", "reason", "signature mismatch")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("x-github-event") != "pull_request" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var head struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if head.Action != "review_requested" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ev, err := github.ParseEvent(body)
	if err != nil {
		s.log.Warn("github payload rejected", "err", err)
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	s.dispatch(s.github, []review.Event{ev})
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGitLab(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}
	if !validToken(s.gitlabSecret, r.Header.Get("x-gitlab-token")) {
		s.log.Warn("gitlab webhook rejected", "reason", "token mismatch")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var head struct {
		ObjectKind string `json:"object_kind"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if head.ObjectKind != "merge_request" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	projectURL, events, err := gitlab.ParseMergeRequestHook(body)
	if err != nil {
		s.log.Warn("gitlab payload rejected", "err", err)
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if len(events) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	runner, err := s.gitlab(projectURL)
	if err != nil {
		s.log.Error("gitlab runner unavailable", "project", projectURL, "err", err)
		http.Error(w, "gitlab unavailable", http.StatusInternalServerError)
		return
	}

	s.dispatch(runner, events)
	w.WriteHeader(http.StatusAccepted)
}

// dispatch runs events one after another in the background. Failures are
// already reported by the runner.
func (s *Server) dispatch(runner Runner, events []review.Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := context.Background()
		for _, ev := range events {
			outcome, err := runner.Run(ctx, ev)
			if err != nil {
				continue
			}
			s.log.Info("review request handled", "repo", ev.RepoName, "pr", ev.URL, "outcome", outcome)
		}
	}()
}

// validSignature checks a GitHub "sha256=<hex>" HMAC of body. An empty
// secret accepts every delivery.
func validSignature(secret, header string, body []byte) bool {
	if secret == "" {
		return true
	}
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal([]byte(hex.EncodeToString(mac.Sum(nil))), []byte(sig))
}

// validToken checks GitLab's shared X-Gitlab-Token. An empty secret accepts
// every delivery.
func validToken(secret, header string) bool {
	if secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1
}
