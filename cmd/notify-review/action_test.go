package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPIs struct {
	github      *httptest.Server
	slack       *httptest.Server
	githubCalls atomic.Int32
	slackCalls  atomic.Int32
	channel     atomic.Value
	slackAuth   atomic.Value
}

func newFakeAPIs(t *testing.T, userBody string, userStatus int) *fakeAPIs {
	t.Helper()
	f := &fakeAPIs{}
	f.github = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.githubCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userStatus)
		_, _ = w.Write([]byte(userBody))
	}))
	f.slack = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.slackCalls.Add(1)
		var msg struct {
			Channel string `json:"channel"`
		}
		_ = json.NewDecoder(r.Body).Decode(&msg)
		f.channel.Store(msg.Channel)
		f.slackAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"D1","ts":"1.1"}`))
	}))
	t.Cleanup(f.github.Close)
	t.Cleanup(f.slack.Close)

	t.Setenv("INPUT_TOKEN", "ghp_test")
	t.Setenv("INPUT_SLACKBOTTOKEN", "xoxb-test")
	t.Setenv("SLACK_API_URL", f.slack.URL+"/")
	return f
}

func writeEvent(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func reviewerEvent(profileURL string) string {
	return fmt.Sprintf(`{
  "action": "review_requested",
  "pull_request": {"title": "Add retry", "html_url": "https://github.com/acme/api/pull/7", "labels": [{"name": "bug"}]},
  "requested_reviewer": {"login": "jane", "url": %q},
  "repository": {"full_name": "acme/api"},
  "sender": {"login": "alice"}
}`, profileURL)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestActionSendsDirectMessage(t *testing.T) {
	apis := newFakeAPIs(t, `{"login":"jane","email":"jane.doe@example.com"}`, http.StatusOK)
	path := writeEvent(t, reviewerEvent(apis.github.URL+"/users/jane"))

	out, err := execute(t, "action", "--event", path)
	require.NoError(t, err, out)

	assert.EqualValues(t, 1, apis.githubCalls.Load())
	assert.EqualValues(t, 1, apis.slackCalls.Load())
	assert.Equal(t, "@jane.doe", apis.channel.Load())
	assert.Equal(t, "Bearer xoxb-test", apis.slackAuth.Load())
	assert.Contains(t, out, "::notice::Sender: alice, Receiver: jane, PR: https://github.com/acme/api/pull/7")
	assert.Contains(t, out, "::notice::Successfully sent")
}

func TestActionIsTheDefaultCommand(t *testing.T) {
	apis := newFakeAPIs(t, `{"login":"jane","email":"jane@example.com"}`, http.StatusOK)
	path := writeEvent(t, reviewerEvent(apis.github.URL+"/users/jane"))

	out, err := execute(t, "--event", path)
	require.NoError(t, err, out)
	assert.EqualValues(t, 1, apis.slackCalls.Load())
}

func TestActionTeamReviewSkips(t *testing.T) {
	apis := newFakeAPIs(t, `{}`, http.StatusOK)
	path := writeEvent(t, `{
  "pull_request": {"title": "Bump deps", "html_url": "https://github.com/acme/api/pull/8"},
  "requested_team": {"name": "platform"},
  "repository": {"full_name": "acme/api"},
  "sender": {"login": "alice"}
}`)

	out, err := execute(t, "action", "--event", path)
	require.NoError(t, err, out)

	assert.Zero(t, apis.githubCalls.Load())
	assert.Zero(t, apis.slackCalls.Load())
	assert.Contains(t, out, "The team name is 'platform'.")
}

func TestActionNoEmailSkips(t *testing.T) {
	apis := newFakeAPIs(t, `{"login":"jane","email":null}`, http.StatusOK)
	path := writeEvent(t, reviewerEvent(apis.github.URL+"/users/jane"))

	out, err := execute(t, "action", "--event", path)
	require.NoError(t, err, out)

	assert.EqualValues(t, 1, apis.githubCalls.Load())
	assert.Zero(t, apis.slackCalls.Load())
	assert.Contains(t, out, "::warning::Failed: 'jane' has no public email.")
}

func TestActionResolveFailureFailsRun(t *testing.T) {
	apis := newFakeAPIs(t, `{"message":"Bad credentials"}`, http.StatusUnauthorized)
	path := writeEvent(t, reviewerEvent(apis.github.URL+"/users/jane"))

	out, err := execute(t, "action", "--event", path)
	require.Error(t, err)

	assert.ErrorAs(t, err, new(reportedError))
	assert.Zero(t, apis.slackCalls.Load())
	assert.Contains(t, out, "::error::")
}

func TestActionTransportFailureReportsRequestError(t *testing.T) {
	apis := newFakeAPIs(t, `{}`, http.StatusOK)
	closed := httptest.NewServer(http.NotFoundHandler())
	profileURL := closed.URL + "/users/jane"
	closed.Close()

	_, direct := http.Get(profileURL)
	require.Error(t, direct)

	out, err := execute(t, "action", "--event", writeEvent(t, reviewerEvent(profileURL)))
	require.Error(t, err)

	assert.Zero(t, apis.slackCalls.Load())
	assert.Contains(t, out, "::error::"+direct.Error()+"\n")
}

func TestActionMalformedEventFailsRun(t *testing.T) {
	newFakeAPIs(t, `{}`, http.StatusOK)
	path := writeEvent(t, `{"repository":{"full_name":"acme/api"}}`)

	out, err := execute(t, "action", "--event", path)
	require.Error(t, err)
	assert.Contains(t, out, "::error::event has no pull_request")
}

func TestActionMissingCredentials(t *testing.T) {
	for _, k := range []string{"INPUT_TOKEN", "GITHUB_TOKEN", "INPUT_SLACKBOTTOKEN", "SLACK_BOT_TOKEN"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	out, err := execute(t, "action", "--event", writeEvent(t, `{}`))
	require.Error(t, err)
	assert.Contains(t, out, "::error::missing required config")
}
