package review

// UrgentLabel marks a PR whose review should not wait.
const UrgentLabel = "D-0"

type Label struct {
	Name string
}

type Reviewer struct {
	Login      string
	ProfileURL string // API URL of the user resource, e.g. https://api.github.com/users/octocat
	ID         int64
}

// Event is a single review request, decoded once at the process boundary.
// Exactly one of Reviewer and TeamName is set.
type Event struct {
	Title    string
	URL      string // PR html URL
	Labels   []Label
	Sender   string
	Reviewer *Reviewer
	TeamName string
	RepoName string // owner/repo
}

type Profile struct {
	Login string
	Email string // empty when the user has no public email
}

type Notification struct {
	RepoName string
	Title    string
	URL      string
	Labels   []Label
	Email    string
}

// HasUrgentLabel reports whether labels contains UrgentLabel.
func HasUrgentLabel(labels []Label) bool {
	for _, l := range labels {
		if l.Name == UrgentLabel {
			return true
		}
	}
	return false
}
