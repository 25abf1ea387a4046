// Package postgres implements the storage contract on a pgx connection pool.
// Upserts use INSERT ... ON CONFLICT DO UPDATE keyed by each entity's natural
// id, so writing the same record twice leaves exactly one row.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/podtech-io/devops-pulse/internal/domain"
	"github.com/podtech-io/devops-pulse/internal/storage"
)

type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ storage.Storage = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

func (s *Store) Close() {
	s.pool.Close()
}

const repositoryColumns = `id, name, project_id, project_name, organization,
	default_branch, size, url, web_url, created_date, last_updated`

func (s *Store) Repositories(ctx context.Context, organization, project string) ([]domain.Repository, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+repositoryColumns+`
		FROM repositories
		WHERE organization = $1 AND project_name = $2
		ORDER BY last_updated DESC
	`, organization, project)
	if err != nil {
		return nil, fmt.Errorf("select repositories: %w", err)
	}
	defer rows.Close()

	var repos []domain.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return repos, nil
}

func (s *Store) Repository(ctx context.Context, id string) (domain.Repository, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+repositoryColumns+`
		FROM repositories
		WHERE id = $1
	`, id)

	repo, err := scanRepository(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Repository{}, storage.ErrNotFound
	}
	return repo, err
}

func scanRepository(row pgx.Row) (domain.Repository, error) {
	var repo domain.Repository
	if err := row.Scan(&repo.ID, &repo.Name, &repo.ProjectID, &repo.ProjectName,
		&repo.Organization, &repo.DefaultBranch, &repo.Size, &repo.URL,
		&repo.WebURL, &repo.CreatedDate, &repo.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Repository{}, err
		}
		return domain.Repository{}, fmt.Errorf("scan repository: %w", err)
	}
	return repo, nil
}

func (s *Store) UpsertRepository(ctx context.Context, repo domain.Repository) (domain.Repository, error) {
	repo.LastUpdated = s.now()
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO repositories (id, name, project_id, project_name, organization,
			default_branch, size, url, web_url, created_date, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name,
		              project_id = EXCLUDED.project_id,
		              project_name = EXCLUDED.project_name,
		              organization = EXCLUDED.organization,
		              default_branch = EXCLUDED.default_branch,
		              size = EXCLUDED.size,
		              url = EXCLUDED.url,
		              web_url = EXCLUDED.web_url,
		              created_date = EXCLUDED.created_date,
		              last_updated = EXCLUDED.last_updated
	`, repo.ID, repo.Name, repo.ProjectID, repo.ProjectName, repo.Organization,
		repo.DefaultBranch, repo.Size, repo.URL, repo.WebURL, repo.CreatedDate,
		repo.LastUpdated); err != nil {
		return domain.Repository{}, fmt.Errorf("upsert repository: %w", err)
	}
	return repo, nil
}

const commitColumns = `id, commit_id, repository_id, author_name, author_email,
	author_date, committer_name, committer_email, committer_date, comment,
	comment_truncated, change_counts, url, remote_url, last_updated`

func (s *Store) Commits(ctx context.Context, repositoryID string, limit int) ([]domain.Commit, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+commitColumns+`
		FROM commits
		WHERE repository_id = $1
		ORDER BY author_date DESC
		LIMIT $2
	`, repositoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("select commits: %w", err)
	}
	defer rows.Close()

	return collectCommits(rows)
}

func (s *Store) CommitsByDateRange(ctx context.Context, repositoryID string, start, end time.Time) ([]domain.Commit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+commitColumns+`
		FROM commits
		WHERE repository_id = $1 AND author_date >= $2 AND author_date <= $3
		ORDER BY author_date DESC
	`, repositoryID, start, end)
	if err != nil {
		return nil, fmt.Errorf("select commits by date range: %w", err)
	}
	defer rows.Close()

	return collectCommits(rows)
}

func collectCommits(rows pgx.Rows) ([]domain.Commit, error) {
	var commits []domain.Commit
	for rows.Next() {
		var (
			c            domain.Commit
			changeCounts []byte
		)
		if err := rows.Scan(&c.ID, &c.CommitID, &c.RepositoryID, &c.AuthorName,
			&c.AuthorEmail, &c.AuthorDate, &c.CommitterName, &c.CommitterEmail,
			&c.CommitterDate, &c.Comment, &c.CommentTruncated, &changeCounts,
			&c.URL, &c.RemoteURL, &c.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		if len(changeCounts) > 0 {
			if err := json.Unmarshal(changeCounts, &c.ChangeCounts); err != nil {
				return nil, fmt.Errorf("decode change counts: %w", err)
			}
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}
	return commits, nil
}

func (s *Store) UpsertCommits(ctx context.Context, commits []domain.Commit) ([]domain.Commit, error) {
	results := make([]domain.Commit, 0, len(commits))
	for _, c := range commits {
		c.LastUpdated = s.now()
		changeCounts, err := json.Marshal(c.ChangeCounts)
		if err != nil {
			return results, fmt.Errorf("encode change counts: %w", err)
		}
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO commits (id, commit_id, repository_id, author_name, author_email,
				author_date, committer_name, committer_email, committer_date, comment,
				comment_truncated, change_counts, url, remote_url, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id)
			DO UPDATE SET author_name = EXCLUDED.author_name,
			              author_email = EXCLUDED.author_email,
			              author_date = EXCLUDED.author_date,
			              committer_name = EXCLUDED.committer_name,
			              committer_email = EXCLUDED.committer_email,
			              committer_date = EXCLUDED.committer_date,
			              comment = EXCLUDED.comment,
			              comment_truncated = EXCLUDED.comment_truncated,
			              change_counts = EXCLUDED.change_counts,
			              url = EXCLUDED.url,
			              remote_url = EXCLUDED.remote_url,
			              last_updated = EXCLUDED.last_updated
		`, c.ID, c.CommitID, c.RepositoryID, c.AuthorName, c.AuthorEmail,
			c.AuthorDate, c.CommitterName, c.CommitterEmail, c.CommitterDate,
			c.Comment, c.CommentTruncated, changeCounts, c.URL, c.RemoteURL,
			c.LastUpdated); err != nil {
			// Best-effort batch: rows written so far stay written.
			return results, fmt.Errorf("upsert commit %s: %w", c.ID, err)
		}
		results = append(results, c)
	}
	return results, nil
}

func (s *Store) CommitStats(ctx context.Context, repositoryID string, days int) (domain.CommitStats, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)

	var stats domain.CommitStats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT (author_name, author_email))
		FROM commits
		WHERE repository_id = $1 AND author_date >= $2
	`, repositoryID, since).Scan(&stats.TotalCommits, &stats.UniqueContributors)
	if err != nil {
		return domain.CommitStats{}, fmt.Errorf("count commits: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT author_name, author_email, COUNT(*) AS commit_count
		FROM commits
		WHERE repository_id = $1 AND author_date >= $2
		GROUP BY author_name, author_email
		ORDER BY commit_count DESC
		LIMIT 10
	`, repositoryID, since)
	if err != nil {
		return domain.CommitStats{}, fmt.Errorf("select contributors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Contributor
		if err := rows.Scan(&c.AuthorName, &c.AuthorEmail, &c.CommitCount); err != nil {
			return domain.CommitStats{}, fmt.Errorf("scan contributor: %w", err)
		}
		stats.TopContributors = append(stats.TopContributors, c)
	}
	if err := rows.Err(); err != nil {
		return domain.CommitStats{}, fmt.Errorf("iterate contributors: %w", err)
	}
	return stats, nil
}

const workItemColumns = `id, rev, project_name, area_path, iteration_path,
	work_item_type, state, reason, title, assigned_to_name, assigned_to_email,
	assigned_to_image_url, created_date, created_by_name, created_by_email,
	changed_date, description, acceptance_criteria, story_points, priority,
	severity, tags, url, last_updated`

func (s *Store) WorkItems(ctx context.Context, project, iterationPath string) ([]domain.WorkItem, error) {
	query := `
		SELECT ` + workItemColumns + `
		FROM work_items
		WHERE project_name = $1`
	args := []any{project}
	if iterationPath != "" {
		query += ` AND iteration_path = $2`
		args = append(args, iterationPath)
	}
	query += ` ORDER BY created_date DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select work items: %w", err)
	}
	defer rows.Close()

	var items []domain.WorkItem
	for rows.Next() {
		wi, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, wi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work items: %w", err)
	}
	return items, nil
}

func (s *Store) WorkItem(ctx context.Context, id int) (domain.WorkItem, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+workItemColumns+`
		FROM work_items
		WHERE id = $1
	`, id)

	wi, err := scanWorkItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WorkItem{}, storage.ErrNotFound
	}
	return wi, err
}

func scanWorkItem(row pgx.Row) (domain.WorkItem, error) {
	var wi domain.WorkItem
	if err := row.Scan(&wi.ID, &wi.Rev, &wi.ProjectName, &wi.AreaPath,
		&wi.IterationPath, &wi.Type, &wi.State, &wi.Reason, &wi.Title,
		&wi.AssignedToName, &wi.AssignedToEmail, &wi.AssignedToImageURL,
		&wi.CreatedDate, &wi.CreatedByName, &wi.CreatedByEmail, &wi.ChangedDate,
		&wi.Description, &wi.AcceptanceCriteria, &wi.StoryPoints, &wi.Priority,
		&wi.Severity, &wi.Tags, &wi.URL, &wi.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WorkItem{}, err
		}
		return domain.WorkItem{}, fmt.Errorf("scan work item: %w", err)
	}
	return wi, nil
}

func (s *Store) UpsertWorkItems(ctx context.Context, items []domain.WorkItem) ([]domain.WorkItem, error) {
	results := make([]domain.WorkItem, 0, len(items))
	for _, wi := range items {
		wi.LastUpdated = s.now()
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO work_items (id, rev, project_name, area_path, iteration_path,
				work_item_type, state, reason, title, assigned_to_name, assigned_to_email,
				assigned_to_image_url, created_date, created_by_name, created_by_email,
				changed_date, description, acceptance_criteria, story_points, priority,
				severity, tags, url, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19, $20, $21, $22, $23, $24)
			ON CONFLICT (id)
			DO UPDATE SET rev = EXCLUDED.rev,
			              project_name = EXCLUDED.project_name,
			              area_path = EXCLUDED.area_path,
			              iteration_path = EXCLUDED.iteration_path,
			              work_item_type = EXCLUDED.work_item_type,
			              state = EXCLUDED.state,
			              reason = EXCLUDED.reason,
			              title = EXCLUDED.title,
			              assigned_to_name = EXCLUDED.assigned_to_name,
			              assigned_to_email = EXCLUDED.assigned_to_email,
			              assigned_to_image_url = EXCLUDED.assigned_to_image_url,
			              created_date = EXCLUDED.created_date,
			              created_by_name = EXCLUDED.created_by_name,
			              created_by_email = EXCLUDED.created_by_email,
			              changed_date = EXCLUDED.changed_date,
			              description = EXCLUDED.description,
			              acceptance_criteria = EXCLUDED.acceptance_criteria,
			              story_points = EXCLUDED.story_points,
			              priority = EXCLUDED.priority,
			              severity = EXCLUDED.severity,
			              tags = EXCLUDED.tags,
			              url = EXCLUDED.url,
			              last_updated = EXCLUDED.last_updated
		`, wi.ID, wi.Rev, wi.ProjectName, wi.AreaPath, wi.IterationPath,
			wi.Type, wi.State, wi.Reason, wi.Title, wi.AssignedToName,
			wi.AssignedToEmail, wi.AssignedToImageURL, wi.CreatedDate,
			wi.CreatedByName, wi.CreatedByEmail, wi.ChangedDate, wi.Description,
			wi.AcceptanceCriteria, wi.StoryPoints, wi.Priority, wi.Severity,
			wi.Tags, wi.URL, wi.LastUpdated); err != nil {
			return results, fmt.Errorf("upsert work item %d: %w", wi.ID, err)
		}
		results = append(results, wi)
	}
	return results, nil
}

func (s *Store) WorkItemStats(ctx context.Context, project, iterationPath string) (domain.WorkItemStats, error) {
	items, err := s.WorkItems(ctx, project, iterationPath)
	if err != nil {
		return domain.WorkItemStats{}, err
	}
	return domain.BuildWorkItemStats(items), nil
}

const pullRequestColumns = `id, repository_id, pull_request_id, code_review_id,
	status, title, description, source_ref_name, target_ref_name, merge_status,
	is_draft, created_by_name, created_by_email, created_by_image_url,
	creation_date, reviewers, work_item_ids, url, last_updated`

func (s *Store) PullRequests(ctx context.Context, repositoryID, status string) ([]domain.PullRequest, error) {
	query := `
		SELECT ` + pullRequestColumns + `
		FROM pull_requests
		WHERE repository_id = $1`
	args := []any{repositoryID}
	if status != "" && status != "all" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY creation_date DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select pull requests: %w", err)
	}
	defer rows.Close()

	var prs []domain.PullRequest
	for rows.Next() {
		pr, err := scanPullRequest(rows)
		if err != nil {
			return nil, err
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull requests: %w", err)
	}
	return prs, nil
}

func (s *Store) PullRequest(ctx context.Context, id int) (domain.PullRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+pullRequestColumns+`
		FROM pull_requests
		WHERE id = $1
	`, id)

	pr, err := scanPullRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PullRequest{}, storage.ErrNotFound
	}
	return pr, err
}

func scanPullRequest(row pgx.Row) (domain.PullRequest, error) {
	var (
		pr          domain.PullRequest
		reviewers   []byte
		workItemIDs []int32
	)
	if err := row.Scan(&pr.ID, &pr.RepositoryID, &pr.PullRequestID,
		&pr.CodeReviewID, &pr.Status, &pr.Title, &pr.Description,
		&pr.SourceRefName, &pr.TargetRefName, &pr.MergeStatus, &pr.IsDraft,
		&pr.CreatedByName, &pr.CreatedByEmail, &pr.CreatedByImageURL,
		&pr.CreationDate, &reviewers, &workItemIDs, &pr.URL,
		&pr.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PullRequest{}, err
		}
		return domain.PullRequest{}, fmt.Errorf("scan pull request: %w", err)
	}
	if len(reviewers) > 0 {
		if err := json.Unmarshal(reviewers, &pr.Reviewers); err != nil {
			return domain.PullRequest{}, fmt.Errorf("decode reviewers: %w", err)
		}
	}
	pr.WorkItemIDs = make([]int, 0, len(workItemIDs))
	for _, id := range workItemIDs {
		pr.WorkItemIDs = append(pr.WorkItemIDs, int(id))
	}
	return pr, nil
}

func (s *Store) UpsertPullRequests(ctx context.Context, prs []domain.PullRequest) ([]domain.PullRequest, error) {
	results := make([]domain.PullRequest, 0, len(prs))
	for _, pr := range prs {
		pr.LastUpdated = s.now()
		reviewers, err := json.Marshal(pr.Reviewers)
		if err != nil {
			return results, fmt.Errorf("encode reviewers: %w", err)
		}
		workItemIDs := make([]int32, 0, len(pr.WorkItemIDs))
		for _, id := range pr.WorkItemIDs {
			workItemIDs = append(workItemIDs, int32(id))
		}
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO pull_requests (id, repository_id, pull_request_id, code_review_id,
				status, title, description, source_ref_name, target_ref_name, merge_status,
				is_draft, created_by_name, created_by_email, created_by_image_url,
				creation_date, reviewers, work_item_ids, url, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19)
			ON CONFLICT (id)
			DO UPDATE SET status = EXCLUDED.status,
			              title = EXCLUDED.title,
			              description = EXCLUDED.description,
			              source_ref_name = EXCLUDED.source_ref_name,
			              target_ref_name = EXCLUDED.target_ref_name,
			              merge_status = EXCLUDED.merge_status,
			              is_draft = EXCLUDED.is_draft,
			              created_by_name = EXCLUDED.created_by_name,
			              created_by_email = EXCLUDED.created_by_email,
			              created_by_image_url = EXCLUDED.created_by_image_url,
			              creation_date = EXCLUDED.creation_date,
			              reviewers = EXCLUDED.reviewers,
			              work_item_ids = EXCLUDED.work_item_ids,
			              url = EXCLUDED.url,
			              last_updated = EXCLUDED.last_updated
		`, pr.ID, pr.RepositoryID, pr.PullRequestID, pr.CodeReviewID, pr.Status,
			pr.Title, pr.Description, pr.SourceRefName, pr.TargetRefName,
			pr.MergeStatus, pr.IsDraft, pr.CreatedByName, pr.CreatedByEmail,
			pr.CreatedByImageURL, pr.CreationDate, reviewers, workItemIDs,
			pr.URL, pr.LastUpdated); err != nil {
			return results, fmt.Errorf("upsert pull request %d: %w", pr.ID, err)
		}
		results = append(results, pr)
	}
	return results, nil
}

const teamMemberColumns = `id, display_name, email, unique_name, image_url,
	project_name, organization, last_updated`

func (s *Store) TeamMembers(ctx context.Context, organization, project string) ([]domain.TeamMember, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+teamMemberColumns+`
		FROM team_members
		WHERE organization = $1 AND project_name = $2
		ORDER BY last_updated DESC
	`, organization, project)
	if err != nil {
		return nil, fmt.Errorf("select team members: %w", err)
	}
	defer rows.Close()

	var members []domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.Email, &m.UniqueName,
			&m.ImageURL, &m.ProjectName, &m.Organization, &m.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return members, nil
}

func (s *Store) TeamMember(ctx context.Context, id string) (domain.TeamMember, error) {
	var m domain.TeamMember
	err := s.pool.QueryRow(ctx, `
		SELECT `+teamMemberColumns+`
		FROM team_members
		WHERE id = $1
	`, id).Scan(&m.ID, &m.DisplayName, &m.Email, &m.UniqueName, &m.ImageURL,
		&m.ProjectName, &m.Organization, &m.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.TeamMember{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.TeamMember{}, fmt.Errorf("scan team member: %w", err)
	}
	return m, nil
}

func (s *Store) UpsertTeamMembers(ctx context.Context, members []domain.TeamMember) ([]domain.TeamMember, error) {
	results := make([]domain.TeamMember, 0, len(members))
	for _, m := range members {
		m.LastUpdated = s.now()
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO team_members (id, display_name, email, unique_name, image_url,
				project_name, organization, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id)
			DO UPDATE SET display_name = EXCLUDED.display_name,
			              email = EXCLUDED.email,
			              unique_name = EXCLUDED.unique_name,
			              image_url = EXCLUDED.image_url,
			              project_name = EXCLUDED.project_name,
			              organization = EXCLUDED.organization,
			              last_updated = EXCLUDED.last_updated
		`, m.ID, m.DisplayName, m.Email, m.UniqueName, m.ImageURL,
			m.ProjectName, m.Organization, m.LastUpdated); err != nil {
			return results, fmt.Errorf("upsert team member %s: %w", m.ID, err)
		}
		results = append(results, m)
	}
	return results, nil
}

const sprintColumns = `id, name, path, project_name, organization, start_date,
	finish_date, state, last_updated`

func (s *Store) Sprints(ctx context.Context, organization, project string) ([]domain.Sprint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+sprintColumns+`
		FROM sprints
		WHERE organization = $1 AND project_name = $2
		ORDER BY start_date DESC NULLS LAST
	`, organization, project)
	if err != nil {
		return nil, fmt.Errorf("select sprints: %w", err)
	}
	defer rows.Close()

	var sprints []domain.Sprint
	for rows.Next() {
		sp, err := scanSprint(rows)
		if err != nil {
			return nil, err
		}
		sprints = append(sprints, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sprints: %w", err)
	}
	return sprints, nil
}

func scanSprint(row pgx.Row) (domain.Sprint, error) {
	var (
		sp    domain.Sprint
		state string
	)
	if err := row.Scan(&sp.ID, &sp.Name, &sp.Path, &sp.ProjectName,
		&sp.Organization, &sp.StartDate, &sp.FinishDate, &state,
		&sp.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Sprint{}, err
		}
		return domain.Sprint{}, fmt.Errorf("scan sprint: %w", err)
	}
	sp.State = domain.SprintState(state)
	return sp, nil
}

func (s *Store) Sprint(ctx context.Context, id string) (domain.Sprint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sprintColumns+`
		FROM sprints
		WHERE id = $1
	`, id)

	sp, err := scanSprint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sprint{}, storage.ErrNotFound
	}
	return sp, err
}

func (s *Store) UpsertSprints(ctx context.Context, sprints []domain.Sprint) ([]domain.Sprint, error) {
	results := make([]domain.Sprint, 0, len(sprints))
	for _, sp := range sprints {
		sp.LastUpdated = s.now()
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO sprints (id, name, path, project_name, organization,
				start_date, finish_date, state, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id)
			DO UPDATE SET name = EXCLUDED.name,
			              path = EXCLUDED.path,
			              project_name = EXCLUDED.project_name,
			              organization = EXCLUDED.organization,
			              start_date = EXCLUDED.start_date,
			              finish_date = EXCLUDED.finish_date,
			              state = EXCLUDED.state,
			              last_updated = EXCLUDED.last_updated
		`, sp.ID, sp.Name, sp.Path, sp.ProjectName, sp.Organization,
			sp.StartDate, sp.FinishDate, string(sp.State), sp.LastUpdated); err != nil {
			return results, fmt.Errorf("upsert sprint %s: %w", sp.ID, err)
		}
		results = append(results, sp)
	}
	return results, nil
}

func (s *Store) CurrentSprint(ctx context.Context, organization, project string, now time.Time) (domain.Sprint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sprintColumns+`
		FROM sprints
		WHERE organization = $1 AND project_name = $2
		  AND start_date <= $3 AND finish_date >= $3
		LIMIT 1
	`, organization, project, now)

	sp, err := scanSprint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Sprint{}, storage.ErrNotFound
	}
	return sp, err
}

// Clear deletes every row scoped to the organization/project. Commits and
// pull requests are keyed by repository, so owned repository ids are resolved
// in the same statement; rows of other scopes survive.
func (s *Store) Clear(ctx context.Context, organization, project string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ownedRepos := `SELECT id FROM repositories WHERE organization = $1 AND project_name = $2`

	if _, err := tx.Exec(ctx, `DELETE FROM commits WHERE repository_id IN (`+ownedRepos+`)`,
		organization, project); err != nil {
		return fmt.Errorf("clear commits: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM pull_requests WHERE repository_id IN (`+ownedRepos+`)`,
		organization, project); err != nil {
		return fmt.Errorf("clear pull requests: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM repositories WHERE organization = $1 AND project_name = $2`,
		organization, project); err != nil {
		return fmt.Errorf("clear repositories: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM work_items WHERE project_name = $1`, project); err != nil {
		return fmt.Errorf("clear work items: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE organization = $1 AND project_name = $2`,
		organization, project); err != nil {
		return fmt.Errorf("clear team members: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sprints WHERE organization = $1 AND project_name = $2`,
		organization, project); err != nil {
		return fmt.Errorf("clear sprints: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clear tx: %w", err)
	}
	return nil
}
