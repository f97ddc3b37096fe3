package review

import (
	"context"
	"fmt"
)

type Resolver interface {
	Resolve(ctx context.Context, reviewer Reviewer) (Profile, error)
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Reporter receives human-readable status for the invoking environment.
type Reporter interface {
	Noticef(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Fail(msg string)
}

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSent
	OutcomeTeamReviewSkipped
	OutcomeNoEmailSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeTeamReviewSkipped:
		return "team_review_skipped"
	case OutcomeNoEmailSkipped:
		return "no_email_skipped"
	default:
		return "failed"
	}
}

type Pipeline struct {
	resolver Resolver
	notifier Notifier
	report   Reporter
}

func NewPipeline(resolver Resolver, notifier Notifier, report Reporter) *Pipeline {
	return &Pipeline{resolver: resolver, notifier: notifier, report: report}
}

// Run handles one review request. Skips are not errors; any error is reported
// through Fail and returned unchanged.
func (p *Pipeline) Run(ctx context.Context, ev Event) (Outcome, error) {
	outcome, err := p.run(ctx, ev)
	if err != nil {
		p.report.Fail(err.Error())
		return OutcomeFailed, err
	}
	return outcome, nil
}

func (p *Pipeline) run(ctx context.Context, ev Event) (Outcome, error) {
	if ev.Reviewer == nil {
		p.report.Noticef("Failed: 'requested_reviewer' does not exist. Looks like you've requested a team review which is not yet supported. The team name is '%s'.", ev.TeamName)
		return OutcomeTeamReviewSkipped, nil
	}

	login := ev.Reviewer.Login

	p.report.Noticef("Sender: %s, Receiver: %s, PR: %s", ev.Sender, login, ev.URL)
	p.report.Infof("'%s' requests a pr review for %s(%s)", ev.Sender, ev.Title, ev.URL)
	p.report.Infof("Fetching information about '%s'...", login)

	profile, err := p.resolver.Resolve(ctx, *ev.Reviewer)
	if err != nil {
		return OutcomeFailed, err
	}

	p.report.Infof("Sending a slack msg to '%s'...", login)

	if profile.Email == "" {
		msg := fmt.Sprintf("Failed: '%s' has no public email.", login)
		p.report.Warningf("%s", msg)
		p.report.Noticef("%s", msg)
		return OutcomeNoEmailSkipped, nil
	}

	err = p.notifier.Notify(ctx, Notification{
		RepoName: ev.RepoName,
		Title:    ev.Title,
		URL:      ev.URL,
		Labels:   ev.Labels,
		Email:    profile.Email,
	})
	if err != nil {
		return OutcomeFailed, err
	}

	p.report.Infof("Successfully sent")
	p.report.Noticef("Successfully sent")
	return OutcomeSent, nil
}
