// internal/aggregator/aggregator.go
package aggregator

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"omnilertlab-service/internal/model"
)

const (
	// Number of per-repository language lookups to run in parallel
	concurrency = 5
)

// RepoSource is the subset of the GitHub client the aggregator consumes.
type RepoSource interface {
	ListUserRepos(ctx context.Context, username string, perPage int) ([]model.Project, error)
	ListLanguages(ctx context.Context, owner, repo string) ([]string, error)
	GetUserStats(ctx context.Context, username string) (model.ProfileStats, error)
}

// Overview bundles the filtered project listing with profile-level stats
// for the single payload the site renders.
type Overview struct {
	Projects []model.Project    `json:"projects"`
	Stats    model.ProfileStats `json:"stats"`
}

// Service fetches, filters and enriches the public repository listing. It is
// stateless; caching is the HTTP boundary's concern.
type Service struct {
	source   RepoSource
	logger   *slog.Logger
	username string
	perPage  int
}

// NewService creates a new aggregator Service.
func NewService(source RepoSource, logger *slog.Logger, username string, perPage int) *Service {
	return &Service{
		source:   source,
		logger:   logger,
		username: username,
		perPage:  perPage,
	}
}

// FetchProjects returns the filtered, language-enriched project listing in
// the upstream's most-recently-updated order. It never returns an error:
// any top-level upstream failure collapses to an empty slice, which the
// caller must treat as a valid "no data" state.
func (s *Service) FetchProjects(ctx context.Context) []model.Project {
	repos, err := s.source.ListUserRepos(ctx, s.username, s.perPage)
	if err != nil {
		s.logger.Warn("Repository listing failed, serving empty project list", "user", s.username, "error", err)
		return []model.Project{}
	}
	return s.enrich(ctx, s.filter(repos))
}

// FetchOverview returns the project listing plus profile stats. Stats are
// best effort: a failed user lookup zeroes them without affecting projects.
func (s *Service) FetchOverview(ctx context.Context) Overview {
	repos, err := s.source.ListUserRepos(ctx, s.username, s.perPage)
	if err != nil {
		s.logger.Warn("Repository listing failed, serving empty project list", "user", s.username, "error", err)
		return Overview{Projects: []model.Project{}}
	}

	stats, err := s.source.GetUserStats(ctx, s.username)
	if err != nil {
		s.logger.Warn("Profile stats lookup failed", "user", s.username, "error", err)
		stats = model.ProfileStats{}
	}
	// Total stars counts the whole listing, not just the filtered subset.
	for _, r := range repos {
		stats.TotalStars += r.Stars
	}

	return Overview{
		Projects: s.enrich(ctx, s.filter(repos)),
		Stats:    stats,
	}
}

// filter applies the exclusion invariant: forks, archived repositories and
// the profile README repo (named after the owner) never reach the listing.
func (s *Service) filter(repos []model.Project) []model.Project {
	kept := make([]model.Project, 0, len(repos))
	for _, r := range repos {
		if r.IsFork || r.IsArchived || r.Name == s.username {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// enrich resolves each project's ranked language list concurrently. A failed
// lookup degrades that single project to its primary language; it never
// aborts the batch or disturbs sibling entries. Listing order is preserved.
func (s *Service) enrich(ctx context.Context, projects []model.Project) []model.Project {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range projects {
		i := i
		g.Go(func() error {
			p := &projects[i]
			langs, err := s.source.ListLanguages(gctx, s.username, p.Name)
			if err != nil {
				s.logger.Debug("Language lookup failed, falling back to primary language", "repo", p.Name, "error", err)
				if p.Language != nil {
					p.Languages = []string{*p.Language}
				} else {
					p.Languages = []string{}
				}
				return nil
			}
			p.Languages = langs
			return nil
		})
	}

	// Workers only ever return nil; Wait is just the settle barrier.
	_ = g.Wait()
	return projects
}
