package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jadenj13/notify-review/internals/config"
	"github.com/jadenj13/notify-review/internals/github"
	"github.com/jadenj13/notify-review/internals/gitlab"
	"github.com/jadenj13/notify-review/internals/report"
	"github.com/jadenj13/notify-review/internals/review"
	"github.com/jadenj13/notify-review/internals/webhook"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Receive GitHub and GitLab webhooks and notify requested reviewers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}

			level := cfg.SlogLevel()
			if root.verbose {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	rep := report.NewLog(log)
	notifier := newNotifier(cfg)

	var opts []webhook.Option
	if cfg.GitHub.Token != "" {
		resolver := github.NewResolver(ctx, cfg.GitHub.Token, github.WithTimeout(cfg.RequestTimeout))
		opts = append(opts, webhook.WithGitHub(review.NewPipeline(resolver, notifier, rep), cfg.Webhook.GitHubSecret))
	}
	if cfg.GitLab.Token != "" {
		factory := gitlab.NewFactory(cfg.GitLab.Token,
			gitlab.WithBaseURL(cfg.GitLab.BaseURL),
			gitlab.WithTimeout(cfg.RequestTimeout),
		)
		opts = append(opts, webhook.WithGitLab(func(projectURL string) (webhook.Runner, error) {
			resolver, err := factory.ResolverFor(projectURL)
			if err != nil {
				return nil, err
			}
			return review.NewPipeline(resolver, notifier, rep), nil
		}, cfg.Webhook.GitLabSecret))
	}

	hook := webhook.NewServer(log, opts...)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      hook.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("notify-review webhook listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn("shutdown", "err", err)
	}
	hook.Wait()
	return nil
}
