// Package memory implements the storage contract with process-local maps.
// It backs the service when no DATABASE_URL is configured and is the storage
// of choice in tests. All methods are safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/podtech-io/devops-pulse/internal/domain"
	"github.com/podtech-io/devops-pulse/internal/storage"
)

type Store struct {
	mu           sync.RWMutex
	repositories map[string]domain.Repository
	commits      map[string]domain.Commit
	workItems    map[int]domain.WorkItem
	pullRequests map[int]domain.PullRequest
	teamMembers  map[string]domain.TeamMember
	sprints      map[string]domain.Sprint
	now          func() time.Time
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		repositories: make(map[string]domain.Repository),
		commits:      make(map[string]domain.Commit),
		workItems:    make(map[int]domain.WorkItem),
		pullRequests: make(map[int]domain.PullRequest),
		teamMembers:  make(map[string]domain.TeamMember),
		sprints:      make(map[string]domain.Sprint),
		now:          time.Now,
	}
}

func (s *Store) Repositories(_ context.Context, organization, project string) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var repos []domain.Repository
	for _, repo := range s.repositories {
		if repo.Organization == organization && repo.ProjectName == project {
			repos = append(repos, repo)
		}
	}
	sort.Slice(repos, func(i, j int) bool {
		return repos[i].LastUpdated.After(repos[j].LastUpdated)
	})
	return repos, nil
}

func (s *Store) Repository(_ context.Context, id string) (domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	repo, ok := s.repositories[id]
	if !ok {
		return domain.Repository{}, storage.ErrNotFound
	}
	return repo, nil
}

func (s *Store) UpsertRepository(_ context.Context, repo domain.Repository) (domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo.LastUpdated = s.now()
	s.repositories[repo.ID] = repo
	return repo, nil
}

func (s *Store) Commits(_ context.Context, repositoryID string, limit int) ([]domain.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var commits []domain.Commit
	for _, c := range s.commits {
		if c.RepositoryID == repositoryID {
			commits = append(commits, c)
		}
	}
	sort.Slice(commits, func(i, j int) bool {
		return commits[i].AuthorDate.After(commits[j].AuthorDate)
	})
	if limit > 0 && len(commits) > limit {
		commits = commits[:limit]
	}
	return commits, nil
}

func (s *Store) CommitsByDateRange(_ context.Context, repositoryID string, start, end time.Time) ([]domain.Commit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var commits []domain.Commit
	for _, c := range s.commits {
		if c.RepositoryID != repositoryID {
			continue
		}
		if c.AuthorDate.Before(start) || c.AuthorDate.After(end) {
			continue
		}
		commits = append(commits, c)
	}
	sort.Slice(commits, func(i, j int) bool {
		return commits[i].AuthorDate.After(commits[j].AuthorDate)
	})
	return commits, nil
}

func (s *Store) UpsertCommits(_ context.Context, commits []domain.Commit) ([]domain.Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.Commit, 0, len(commits))
	for _, c := range commits {
		c.LastUpdated = s.now()
		s.commits[c.ID] = c
		results = append(results, c)
	}
	return results, nil
}

func (s *Store) CommitStats(_ context.Context, repositoryID string, days int) (domain.CommitStats, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type contributorKey struct{ name, email string }
	contributors := make(map[contributorKey]int)
	total := 0
	for _, c := range s.commits {
		if c.RepositoryID != repositoryID || c.AuthorDate.Before(since) {
			continue
		}
		total++
		contributors[contributorKey{c.AuthorName, c.AuthorEmail}]++
	}

	top := make([]domain.Contributor, 0, len(contributors))
	for k, n := range contributors {
		top = append(top, domain.Contributor{AuthorName: k.name, AuthorEmail: k.email, CommitCount: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].CommitCount != top[j].CommitCount {
			return top[i].CommitCount > top[j].CommitCount
		}
		return top[i].AuthorName < top[j].AuthorName
	})
	if len(top) > 10 {
		top = top[:10]
	}

	return domain.CommitStats{
		TotalCommits:       total,
		UniqueContributors: len(contributors),
		TopContributors:    top,
	}, nil
}

func (s *Store) WorkItems(_ context.Context, project, iterationPath string) ([]domain.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.filterWorkItems(project, iterationPath)
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedDate.After(items[j].CreatedDate)
	})
	return items, nil
}

func (s *Store) filterWorkItems(project, iterationPath string) []domain.WorkItem {
	var items []domain.WorkItem
	for _, wi := range s.workItems {
		if wi.ProjectName != project {
			continue
		}
		if iterationPath != "" && wi.IterationPath != iterationPath {
			continue
		}
		items = append(items, wi)
	}
	return items
}

func (s *Store) WorkItem(_ context.Context, id int) (domain.WorkItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wi, ok := s.workItems[id]
	if !ok {
		return domain.WorkItem{}, storage.ErrNotFound
	}
	return wi, nil
}

func (s *Store) UpsertWorkItems(_ context.Context, items []domain.WorkItem) ([]domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.WorkItem, 0, len(items))
	for _, wi := range items {
		wi.LastUpdated = s.now()
		s.workItems[wi.ID] = wi
		results = append(results, wi)
	}
	return results, nil
}

func (s *Store) WorkItemStats(_ context.Context, project, iterationPath string) (domain.WorkItemStats, error) {
	s.mu.RLock()
	items := s.filterWorkItems(project, iterationPath)
	s.mu.RUnlock()

	return domain.BuildWorkItemStats(items), nil
}

func (s *Store) PullRequests(_ context.Context, repositoryID, status string) ([]domain.PullRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prs []domain.PullRequest
	for _, pr := range s.pullRequests {
		if pr.RepositoryID != repositoryID {
			continue
		}
		if status != "" && status != "all" && pr.Status != status {
			continue
		}
		prs = append(prs, pr)
	}
	sort.Slice(prs, func(i, j int) bool {
		return prs[i].CreationDate.After(prs[j].CreationDate)
	})
	return prs, nil
}

func (s *Store) PullRequest(_ context.Context, id int) (domain.PullRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pr, ok := s.pullRequests[id]
	if !ok {
		return domain.PullRequest{}, storage.ErrNotFound
	}
	return pr, nil
}

func (s *Store) UpsertPullRequests(_ context.Context, prs []domain.PullRequest) ([]domain.PullRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		pr.LastUpdated = s.now()
		s.pullRequests[pr.ID] = pr
		results = append(results, pr)
	}
	return results, nil
}

func (s *Store) TeamMembers(_ context.Context, organization, project string) ([]domain.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []domain.TeamMember
	for _, m := range s.teamMembers {
		if m.Organization == organization && m.ProjectName == project {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].LastUpdated.After(members[j].LastUpdated)
	})
	return members, nil
}

func (s *Store) TeamMember(_ context.Context, id string) (domain.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.teamMembers[id]
	if !ok {
		return domain.TeamMember{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *Store) UpsertTeamMembers(_ context.Context, members []domain.TeamMember) ([]domain.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.TeamMember, 0, len(members))
	for _, m := range members {
		m.LastUpdated = s.now()
		s.teamMembers[m.ID] = m
		results = append(results, m)
	}
	return results, nil
}

func (s *Store) Sprints(_ context.Context, organization, project string) ([]domain.Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sprints []domain.Sprint
	for _, sp := range s.sprints {
		if sp.Organization == organization && sp.ProjectName == project {
			sprints = append(sprints, sp)
		}
	}
	sort.Slice(sprints, func(i, j int) bool {
		si, sj := sprints[i].StartDate, sprints[j].StartDate
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return si.After(*sj)
	})
	return sprints, nil
}

func (s *Store) Sprint(_ context.Context, id string) (domain.Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sp, ok := s.sprints[id]
	if !ok {
		return domain.Sprint{}, storage.ErrNotFound
	}
	return sp, nil
}

func (s *Store) UpsertSprints(_ context.Context, sprints []domain.Sprint) ([]domain.Sprint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]domain.Sprint, 0, len(sprints))
	for _, sp := range sprints {
		sp.LastUpdated = s.now()
		s.sprints[sp.ID] = sp
		results = append(results, sp)
	}
	return results, nil
}

func (s *Store) CurrentSprint(_ context.Context, organization, project string, now time.Time) (domain.Sprint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sp := range s.sprints {
		if sp.Organization != organization || sp.ProjectName != project {
			continue
		}
		if sp.StartDate == nil || sp.FinishDate == nil {
			continue
		}
		if !now.Before(*sp.StartDate) && !now.After(*sp.FinishDate) {
			return sp, nil
		}
	}
	return domain.Sprint{}, storage.ErrNotFound
}

func (s *Store) Clear(_ context.Context, organization, project string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ownedRepos := make(map[string]struct{})
	for id, repo := range s.repositories {
		if repo.Organization == organization && repo.ProjectName == project {
			ownedRepos[id] = struct{}{}
			delete(s.repositories, id)
		}
	}
	for id, c := range s.commits {
		if _, owned := ownedRepos[c.RepositoryID]; owned {
			delete(s.commits, id)
		}
	}
	for id, pr := range s.pullRequests {
		if _, owned := ownedRepos[pr.RepositoryID]; owned {
			delete(s.pullRequests, id)
		}
	}
	for id, wi := range s.workItems {
		if wi.ProjectName == project {
			delete(s.workItems, id)
		}
	}
	for id, m := range s.teamMembers {
		if m.Organization == organization && m.ProjectName == project {
			delete(s.teamMembers, id)
		}
	}
	for id, sp := range s.sprints {
		if sp.Organization == organization && sp.ProjectName == project {
			delete(s.sprints, id)
		}
	}
	return nil
}

func (s *Store) Close() {}
