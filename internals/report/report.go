// Package report carries pipeline status to whatever invoked it: workflow
// commands on a GitHub Actions runner, or structured logs in serve mode.
package report

import (
	"fmt"
	"log/slog"

	"github.com/sethvargo/go-githubactions"

	"github.com/jadenj13/notify-review/internals/review"
)

var (
	_ review.Reporter = (*Actions)(nil)
	_ review.Reporter = (*Log)(nil)
)

// Actions writes ::notice::, ::warning:: and ::error:: workflow commands.
type Actions struct {
	action *githubactions.Action
	failed bool
}

func NewActions(action *githubactions.Action) *Actions {
	return &Actions{action: action}
}

func (r *Actions) Noticef(format string, args ...any)  { r.action.Noticef(format, args...) }
func (r *Actions) Infof(format string, args ...any)    { r.action.Infof(format, args...) }
func (r *Actions) Warningf(format string, args ...any) { r.action.Warningf(format, args...) }

// Fail emits an error annotation. The caller decides the exit code.
func (r *Actions) Fail(msg string) {
	r.action.Errorf("%s", msg)
	r.failed = true
}

func (r *Actions) Failed() bool { return r.failed }

// Log adapts a *slog.Logger.
type Log struct {
	log *slog.Logger
}

func NewLog(log *slog.Logger) *Log {
	return &Log{log: log}
}

func (r *Log) Noticef(format string, args ...any) {
	r.log.Info(fmt.Sprintf(format, args...), "kind", "notice")
}

func (r *Log) Infof(format string, args ...any) {
	r.log.Info(fmt.Sprintf(format, args...))
}

func (r *Log) Warningf(format string, args ...any) {
	r.log.Warn(fmt.Sprintf(format, args...))
}

func (r *Log) Fail(msg string) {
	r.log.Error("run failed", "err", msg)
}
