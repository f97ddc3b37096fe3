package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jadenj13/notify-review/internals/config"
	"github.com/jadenj13/notify-review/internals/slack"
)

// Version is set at build time via -ldflags.
var Version = "dev"

type rootOptions struct {
	configPath string
	verbose    bool
}

// reportedError has already been surfaced to the user; main only sets the exit code.
type reportedError struct{ error }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	action := newActionCmd(opts)

	root := &cobra.Command{
		Use:   "notify-review",
		Short: "Send a Slack DM to the reviewer requested on a pull request",
		Long: `notify-review looks up the public email of a requested pull request reviewer
and sends them a Slack direct message addressed to the email's local part.

  notify-review action   Run once for the GitHub Actions event (default)
  notify-review serve    Receive GitHub and GitLab webhooks`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		RunE:          action.RunE,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (environment variables take precedence)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().AddFlagSet(action.Flags())

	root.AddCommand(action, newServeCmd(opts))
	return root
}

func newNotifier(cfg *config.Config) *slack.Notifier {
	var opts []slack.Option
	if cfg.Slack.APIURL != "" {
		opts = append(opts, slack.WithAPIURL(cfg.Slack.APIURL))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, slack.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
	}
	return slack.NewNotifier(cfg.Slack.BotToken, opts...)
}
