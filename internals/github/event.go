package github

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/go-github/v60/github"

	"github.com/jadenj13/notify-review/internals/review"
)

// ParseEvent decodes a pull_request webhook payload into a review.Event.
func ParseEvent(payload []byte) (review.Event, error) {
	var pe github.PullRequestEvent
	if err := json.Unmarshal(payload, &pe); err != nil {
		return review.Event{}, fmt.Errorf("decode pull_request event: %w", err)
	}

	pr := pe.GetPullRequest()
	if pr == nil {
		return review.Event{}, errors.New("event has no pull_request")
	}
	if pe.GetRepo() == nil {
		return review.Event{}, errors.New("event has no repository")
	}

	ev := review.Event{
		Title:    pr.GetTitle(),
		URL:      pr.GetHTMLURL(),
		Labels:   make([]review.Label, 0, len(pr.Labels)),
		Sender:   pe.GetSender().GetLogin(),
		RepoName: pe.GetRepo().GetFullName(),
	}
	for _, l := range pr.Labels {
		ev.Labels = append(ev.Labels, review.Label{Name: l.GetName()})
	}

	switch {
	case pe.RequestedReviewer != nil:
		u := pe.RequestedReviewer
		ev.Reviewer = &review.Reviewer{
			Login:      u.GetLogin(),
			ProfileURL: u.GetURL(),
			ID:         u.GetID(),
		}
	case pe.RequestedTeam != nil:
		ev.TeamName = pe.RequestedTeam.GetName()
	default:
		return review.Event{}, errors.New("event has neither requested_reviewer nor requested_team")
	}

	return ev, nil
}
