package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"

	"github.com/jadenj13/notify-review/internals/config"
	"github.com/jadenj13/notify-review/internals/github"
	"github.com/jadenj13/notify-review/internals/report"
	"github.com/jadenj13/notify-review/internals/review"
)

func newActionCmd(root *rootOptions) *cobra.Command {
	var eventPath string

	cmd := &cobra.Command{
		Use:   "action",
		Short: "Notify the reviewer requested by the current GitHub Actions event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gha := githubactions.New(githubactions.WithWriter(cmd.OutOrStdout()))
			rep := report.NewActions(gha)

			if err := runAction(cmd, root, gha, rep, eventPath); err != nil {
				if !rep.Failed() {
					rep.Fail(err.Error())
				}
				return reportedError{err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&eventPath, "event", "", "read the event payload from this file instead of GITHUB_EVENT_PATH")
	return cmd
}

func runAction(cmd *cobra.Command, root *rootOptions, gha *githubactions.Action, rep *report.Actions, eventPath string) error {
	cfg, err := config.Load(root.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAction(); err != nil {
		return err
	}

	payload, err := readEvent(gha, eventPath)
	if err != nil {
		return err
	}
	ev, err := github.ParseEvent(payload)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	resolver := github.NewResolver(ctx, cfg.GitHub.Token, github.WithTimeout(cfg.RequestTimeout))
	pipeline := review.NewPipeline(resolver, newNotifier(cfg), rep)

	outcome, err := pipeline.Run(ctx, ev)
	if root.verbose {
		gha.Debugf("outcome: %s", outcome)
	}
	return err
}

func readEvent(gha *githubactions.Action, path string) ([]byte, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read event: %w", err)
		}
		return b, nil
	}

	ghctx, err := gha.Context()
	if err != nil {
		return nil, fmt.Errorf("github context: %w", err)
	}
	if len(ghctx.Event) == 0 {
		return nil, errors.New("no event payload: set GITHUB_EVENT_PATH or pass --event")
	}
	b, err := json.Marshal(ghctx.Event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}
