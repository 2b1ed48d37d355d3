// internal/github/client.go
package github

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"omnilertlab-service/internal/model"
)

const (
	descriptionPlaceholder = "No description provided."
	defaultBranchFallback  = "main"

	// Upstream ranks languages by byte volume; only the top few are shown.
	maxLanguages = 4
)

// Client is a wrapper around the go-github client.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. An empty token is
// valid: the endpoints this service reads are public, authentication only
// raises rate limits.
func NewClient(token string, logger *slog.Logger) *Client {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		hc = oauth2.NewClient(context.Background(), ts)
	}

	return &Client{
		gh:     github.NewClient(hc),
		logger: logger,
	}
}

// ListUserRepos fetches the user's most recently updated owned repositories
// and translates them to the internal model.
func (c *Client) ListUserRepos(ctx context.Context, username string, perPage int) ([]model.Project, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:      "owner",
		Sort:      "updated",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	c.logger.Debug("Fetching repository listing", "user", username, "per_page", perPage)
	repos, _, err := c.gh.Repositories.ListByUser(ctx, username, opts)
	if err != nil {
		return nil, err
	}

	projects := make([]model.Project, 0, len(repos))
	for _, r := range repos {
		projects = append(projects, toProject(r))
	}
	return projects, nil
}

// ListLanguages returns a repository's language names ordered by byte volume
// descending, capped at maxLanguages.
func (c *Client) ListLanguages(ctx context.Context, owner, repo string) ([]string, error) {
	byBytes, _, err := c.gh.Repositories.ListLanguages(ctx, owner, repo)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(byBytes))
	for name := range byBytes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if byBytes[names[i]] != byBytes[names[j]] {
			return byBytes[names[i]] > byBytes[names[j]]
		}
		return names[i] < names[j]
	})

	if len(names) > maxLanguages {
		names = names[:maxLanguages]
	}
	return names, nil
}

// GetUserStats fetches follower and public repository counts for the user.
func (c *Client) GetUserStats(ctx context.Context, username string) (model.ProfileStats, error) {
	user, _, err := c.gh.Users.Get(ctx, username)
	if err != nil {
		return model.ProfileStats{}, err
	}
	return model.ProfileStats{
		Followers:   user.GetFollowers(),
		PublicRepos: user.GetPublicRepos(),
	}, nil
}

// toProject translates a github.Repository object to a model.Project. Every
// default-substitution rule for absent upstream fields lives here.
func toProject(r *github.Repository) model.Project {
	p := model.Project{
		ID:            r.GetID(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		URL:           r.GetHTMLURL(),
		Homepage:      r.GetHomepage(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Watchers:      r.GetWatchersCount(),
		OpenIssues:    r.GetOpenIssuesCount(),
		Language:      r.Language,
		Topics:        r.Topics,
		CreatedAt:     formatTimestamp(r.CreatedAt),
		UpdatedAt:     formatTimestamp(r.UpdatedAt),
		PushedAt:      formatTimestamp(r.PushedAt),
		Size:          r.GetSize(),
		DefaultBranch: r.GetDefaultBranch(),
		IsPrivate:     r.GetPrivate(),
		IsFork:        r.GetFork(),
		IsArchived:    r.GetArchived(),
	}

	if p.Description == "" {
		p.Description = descriptionPlaceholder
	}
	if p.DefaultBranch == "" {
		p.DefaultBranch = defaultBranchFallback
	}
	if p.Topics == nil {
		p.Topics = []string{}
	}
	return p
}

func formatTimestamp(ts *github.Timestamp) string {
	if ts == nil || ts.Time.IsZero() {
		return ""
	}
	return ts.Time.UTC().Format(time.RFC3339)
}
