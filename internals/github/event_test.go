package github

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadenj13/notify-review/internals/review"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func TestParseEventReviewer(t *testing.T) {
	ev, err := ParseEvent(readFixture(t, "review_requested.json"))
	require.NoError(t, err)

	assert.Equal(t, review.Event{
		Title:  "Add <retry> to uploader",
		URL:    "https://github.com/acme/api/pull/7",
		Labels: []review.Label{{Name: "D-0"}, {Name: "bug"}},
		Sender: "alice",
		Reviewer: &review.Reviewer{
			Login:      "jane",
			ProfileURL: "https://api.github.com/users/jane",
			ID:         4242,
		},
		RepoName: "acme/api",
	}, ev)
}

func TestParseEventTeam(t *testing.T) {
	ev, err := ParseEvent(readFixture(t, "team_review_requested.json"))
	require.NoError(t, err)

	assert.Nil(t, ev.Reviewer)
	assert.Equal(t, "platform", ev.TeamName)
	assert.Empty(t, ev.Labels)
}

func TestParseEventErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"pull_request":`,
		"no pr":         `{"repository":{"full_name":"acme/api"},"requested_reviewer":{"login":"jane"}}`,
		"no repository": `{"pull_request":{"title":"x"},"requested_reviewer":{"login":"jane"}}`,
		"no target":     `{"pull_request":{"title":"x"},"repository":{"full_name":"acme/api"}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEvent([]byte(payload))
			assert.Error(t, err)
		})
	}
}
