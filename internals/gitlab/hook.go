package gitlab

import (
	"encoding/json"
	"fmt"

	"github.com/jadenj13/notify-review/internals/review"
)

type hookUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type mergeRequestHook struct {
	ObjectKind string `json:"object_kind"`
	User       struct {
		Username string `json:"username"`
	} `json:"user"`
	Project struct {
		PathWithNamespace string `json:"path_with_namespace"`
		WebURL            string `json:"web_url"`
	} `json:"project"`
	ObjectAttributes struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"object_attributes"`
	Labels []struct {
		Title string `json:"title"`
	} `json:"labels"`
	Changes struct {
		Reviewers struct {
			Previous []hookUser `json:"previous"`
			Current  []hookUser `json:"current"`
		} `json:"reviewers"`
	} `json:"changes"`
}

// ParseMergeRequestHook returns one event per reviewer added by this hook,
// along with the project web URL. Hooks that add no reviewer yield no events.
func ParseMergeRequestHook(payload []byte) (string, []review.Event, error) {
	var hook mergeRequestHook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return "", nil, fmt.Errorf("decode merge_request hook: %w", err)
	}
	if hook.ObjectKind != "merge_request" {
		return "", nil, fmt.Errorf("unexpected object_kind %q", hook.ObjectKind)
	}

	labels := make([]review.Label, 0, len(hook.Labels))
	for _, l := range hook.Labels {
		labels = append(labels, review.Label{Name: l.Title})
	}

	var events []review.Event
	for _, u := range addedReviewers(hook.Changes.Reviewers.Current, hook.Changes.Reviewers.Previous) {
		events = append(events, review.Event{
			Title:    hook.ObjectAttributes.Title,
			URL:      hook.ObjectAttributes.URL,
			Labels:   labels,
			Sender:   hook.User.Username,
			Reviewer: &review.Reviewer{Login: u.Username, ID: u.ID},
			RepoName: hook.Project.PathWithNamespace,
		})
	}
	return hook.Project.WebURL, events, nil
}

func addedReviewers(current, previous []hookUser) []hookUser {
	seen := make(map[int64]bool, len(previous))
	for _, u := range previous {
		seen[u.ID] = true
	}
	var added []hookUser
	for _, u := range current {
		if !seen[u.ID] {
			added = append(added, u)
		}
	}
	return added
}
