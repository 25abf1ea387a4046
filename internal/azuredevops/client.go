// Package azuredevops implements the REST client for the Azure DevOps
// services: git repositories, commits, pull requests, WIQL work item queries,
// iteration classification nodes and the vssps graph directory.
package azuredevops

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/podtech-io/devops-pulse/internal/domain"
)

const (
	apiVersion        = "7.1"
	sprintsAPIVersion = "7.0"
	graphAPIVersion   = "7.1-preview.1"

	// The detail endpoint rejects oversized id lists, so WIQL results are
	// capped before the second request.
	maxWorkItemIDs = 200

	requestTimeout = 30 * time.Second
	maxTries       = 4
)

type Client struct {
	httpClient   *http.Client
	organization string
	project      string
	authHeader   string
	logger       *zap.Logger
	now          func() time.Time

	// Overridable in tests; production values point at dev.azure.com and
	// vssps.dev.azure.com.
	baseURL  string
	graphURL string
}

func New(organization, project, pat string, logger *zap.Logger) *Client {
	token := base64.StdEncoding.EncodeToString([]byte(":" + pat))

	return &Client{
		httpClient:   &http.Client{Timeout: requestTimeout},
		organization: organization,
		project:      project,
		authHeader:   "Basic " + token,
		logger:       logger,
		now:          time.Now,
		baseURL:      "https://dev.azure.com",
		graphURL:     "https://vssps.dev.azure.com",
	}
}

type envelope[T any] struct {
	Count int `json:"count"`
	Value []T `json:"value"`
}

func (c *Client) apiURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if query.Get("api-version") == "" {
		query.Set("api-version", apiVersion)
	}
	return fmt.Sprintf("%s/%s/%s/_apis%s?%s", c.baseURL, c.organization, c.project, path, query.Encode())
}

func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(payload))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Authorization", c.authHeader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("remote api %s: %s", resp.Status, snippet(data))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			// Client errors do not heal on retry.
			return nil, backoff.Permanent(fmt.Errorf("remote api %s: %s", resp.Status, snippet(data)))
		}
		return data, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxTries))
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func snippet(data []byte) string {
	const max = 256
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max]
	}
	return s
}

type apiProjectRef struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	LastUpdateTime *time.Time `json:"lastUpdateTime"`
}

type apiRepository struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	DefaultBranch string        `json:"defaultBranch"`
	Size          int64         `json:"size"`
	URL           string        `json:"url"`
	WebURL        string        `json:"webUrl"`
	Project       apiProjectRef `json:"project"`
}

func (c *Client) Repositories(ctx context.Context) ([]domain.Repository, error) {
	var resp envelope[apiRepository]
	if err := c.do(ctx, http.MethodGet, c.apiURL("/git/repositories", nil), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch repositories: %w", err)
	}

	repos := make([]domain.Repository, 0, len(resp.Value))
	for _, r := range resp.Value {
		repos = append(repos, domain.Repository{
			ID:            r.ID,
			Name:          r.Name,
			ProjectID:     r.Project.ID,
			ProjectName:   r.Project.Name,
			Organization:  c.organization,
			DefaultBranch: r.DefaultBranch,
			Size:          r.Size,
			URL:           r.URL,
			WebURL:        r.WebURL,
			CreatedDate:   r.Project.LastUpdateTime,
		})
	}
	return repos, nil
}

type apiGitUser struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type apiCommit struct {
	CommitID         string     `json:"commitId"`
	Author           apiGitUser `json:"author"`
	Committer        apiGitUser `json:"committer"`
	Comment          string     `json:"comment"`
	CommentTruncated bool       `json:"commentTruncated"`
	ChangeCounts     *struct {
		Add    int `json:"Add"`
		Edit   int `json:"Edit"`
		Delete int `json:"Delete"`
	} `json:"changeCounts"`
	URL       string `json:"url"`
	RemoteURL string `json:"remoteUrl"`
}

func (c *Client) Commits(ctx context.Context, repositoryID string, top, skip int) ([]domain.Commit, error) {
	query := url.Values{}
	query.Set("$top", strconv.Itoa(top))
	query.Set("$skip", strconv.Itoa(skip))

	var resp envelope[apiCommit]
	path := "/git/repositories/" + repositoryID + "/commits"
	if err := c.do(ctx, http.MethodGet, c.apiURL(path, query), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch commits for %s: %w", repositoryID, err)
	}

	commits := make([]domain.Commit, 0, len(resp.Value))
	for _, cm := range resp.Value {
		commit := domain.Commit{
			ID:               repositoryID + "-" + cm.CommitID,
			CommitID:         cm.CommitID,
			RepositoryID:     repositoryID,
			AuthorName:       cm.Author.Name,
			AuthorEmail:      cm.Author.Email,
			AuthorDate:       cm.Author.Date,
			CommitterName:    cm.Committer.Name,
			CommitterEmail:   cm.Committer.Email,
			CommitterDate:    cm.Committer.Date,
			Comment:          cm.Comment,
			CommentTruncated: cm.CommentTruncated,
			URL:              cm.URL,
			RemoteURL:        cm.RemoteURL,
		}
		if cm.ChangeCounts != nil {
			commit.ChangeCounts = domain.ChangeCounts{
				Add:    cm.ChangeCounts.Add,
				Edit:   cm.ChangeCounts.Edit,
				Delete: cm.ChangeCounts.Delete,
			}
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

type apiIdentity struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
	Links       struct {
		Avatar struct {
			Href string `json:"href"`
		} `json:"avatar"`
	} `json:"_links"`
}

type wiqlResult struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type apiWorkItemFields struct {
	AreaPath           string       `json:"System.AreaPath"`
	IterationPath      string       `json:"System.IterationPath"`
	WorkItemType       string       `json:"System.WorkItemType"`
	State              string       `json:"System.State"`
	Reason             string       `json:"System.Reason"`
	Title              string       `json:"System.Title"`
	AssignedTo         *apiIdentity `json:"System.AssignedTo"`
	CreatedDate        time.Time    `json:"System.CreatedDate"`
	CreatedBy          *apiIdentity `json:"System.CreatedBy"`
	ChangedDate        *time.Time   `json:"System.ChangedDate"`
	Description        string       `json:"System.Description"`
	AcceptanceCriteria string       `json:"Microsoft.VSTS.Common.AcceptanceCriteria"`
	StoryPoints        float64      `json:"Microsoft.VSTS.Scheduling.StoryPoints"`
	Priority           int          `json:"System.Priority"`
	Severity           string       `json:"Microsoft.VSTS.Common.Severity"`
	Tags               string       `json:"System.Tags"`
}

type apiWorkItem struct {
	ID     int               `json:"id"`
	Rev    int               `json:"rev"`
	Fields apiWorkItemFields `json:"fields"`
	URL    string            `json:"url"`
}

// WorkItems runs a WIQL query scoped to the project, then resolves the
// matched ids through the detail endpoint. An empty iterationPath returns the
// whole project backlog.
func (c *Client) WorkItems(ctx context.Context, iterationPath string) ([]domain.WorkItem, error) {
	wiql := fmt.Sprintf("SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = '%s'", c.project)
	if iterationPath != "" {
		wiql += fmt.Sprintf(" AND [System.IterationPath] UNDER '%s'", iterationPath)
	}
	wiql += " ORDER BY [System.ChangedDate] DESC"

	c.logger.Debug("executing wiql query", zap.String("query", wiql))

	var result wiqlResult
	body := map[string]string{"query": wiql}
	if err := c.do(ctx, http.MethodPost, c.apiURL("/wit/wiql", nil), body, &result); err != nil {
		return nil, fmt.Errorf("wiql query: %w", err)
	}
	if len(result.WorkItems) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, maxWorkItemIDs)
	for i, wi := range result.WorkItems {
		if i == maxWorkItemIDs {
			break
		}
		ids = append(ids, strconv.Itoa(wi.ID))
	}

	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))
	query.Set("$expand", "Fields")

	var resp envelope[apiWorkItem]
	if err := c.do(ctx, http.MethodGet, c.apiURL("/wit/workitems", query), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch work item details: %w", err)
	}

	items := make([]domain.WorkItem, 0, len(resp.Value))
	for _, wi := range resp.Value {
		item := domain.WorkItem{
			ID:                 wi.ID,
			Rev:                wi.Rev,
			ProjectName:        c.project,
			AreaPath:           wi.Fields.AreaPath,
			IterationPath:      wi.Fields.IterationPath,
			Type:               wi.Fields.WorkItemType,
			State:              wi.Fields.State,
			Reason:             wi.Fields.Reason,
			Title:              wi.Fields.Title,
			CreatedDate:        wi.Fields.CreatedDate,
			ChangedDate:        wi.Fields.ChangedDate,
			Description:        wi.Fields.Description,
			AcceptanceCriteria: wi.Fields.AcceptanceCriteria,
			StoryPoints:        int(wi.Fields.StoryPoints),
			Priority:           wi.Fields.Priority,
			Severity:           wi.Fields.Severity,
			Tags:               splitTags(wi.Fields.Tags),
			URL:                wi.URL,
		}
		if wi.Fields.AssignedTo != nil {
			item.AssignedToName = wi.Fields.AssignedTo.DisplayName
			item.AssignedToEmail = wi.Fields.AssignedTo.UniqueName
			item.AssignedToImageURL = wi.Fields.AssignedTo.Links.Avatar.Href
		}
		if wi.Fields.CreatedBy != nil {
			item.CreatedByName = wi.Fields.CreatedBy.DisplayName
			item.CreatedByEmail = wi.Fields.CreatedBy.UniqueName
		}
		items = append(items, item)
	}
	return items, nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

type apiReviewer struct {
	apiIdentity
	Vote       int  `json:"vote"`
	IsRequired bool `json:"isRequired"`
}

type apiPullRequest struct {
	PullRequestID int           `json:"pullRequestId"`
	CodeReviewID  int           `json:"codeReviewId"`
	Status        string        `json:"status"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	SourceRefName string        `json:"sourceRefName"`
	TargetRefName string        `json:"targetRefName"`
	MergeStatus   string        `json:"mergeStatus"`
	IsDraft       bool          `json:"isDraft"`
	CreatedBy     apiIdentity   `json:"createdBy"`
	CreationDate  time.Time     `json:"creationDate"`
	Reviewers     []apiReviewer `json:"reviewers"`
	URL           string        `json:"url"`
}

func (c *Client) PullRequests(ctx context.Context, repositoryID, status string) ([]domain.PullRequest, error) {
	query := url.Values{}
	if status != "" && status != "all" {
		query.Set("searchCriteria.status", status)
	}

	var resp envelope[apiPullRequest]
	path := "/git/repositories/" + repositoryID + "/pullrequests"
	if err := c.do(ctx, http.MethodGet, c.apiURL(path, query), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch pull requests for %s: %w", repositoryID, err)
	}

	prs := make([]domain.PullRequest, 0, len(resp.Value))
	for _, pr := range resp.Value {
		reviewers := make([]domain.Reviewer, 0, len(pr.Reviewers))
		for _, r := range pr.Reviewers {
			reviewers = append(reviewers, domain.Reviewer{
				DisplayName: r.DisplayName,
				Email:       r.UniqueName,
				ImageURL:    r.Links.Avatar.Href,
				Vote:        mapReviewerVote(r.Vote),
				IsRequired:  r.IsRequired,
			})
		}
		prs = append(prs, domain.PullRequest{
			ID:                derivePullRequestID(repositoryID, pr.PullRequestID),
			RepositoryID:      repositoryID,
			PullRequestID:     pr.PullRequestID,
			CodeReviewID:      pr.CodeReviewID,
			Status:            pr.Status,
			Title:             pr.Title,
			Description:       pr.Description,
			SourceRefName:     pr.SourceRefName,
			TargetRefName:     pr.TargetRefName,
			MergeStatus:       pr.MergeStatus,
			IsDraft:           pr.IsDraft,
			CreatedByName:     pr.CreatedBy.DisplayName,
			CreatedByEmail:    pr.CreatedBy.UniqueName,
			CreatedByImageURL: pr.CreatedBy.Links.Avatar.Href,
			CreationDate:      pr.CreationDate,
			Reviewers:         reviewers,
			WorkItemIDs:       []int{},
			URL:               pr.URL,
		})
	}
	return prs, nil
}

// derivePullRequestID builds a storage id unique across repositories from the
// digits in the repository id's tail plus the pull request number. Pull
// request numbers alone collide between repositories of the same project.
func derivePullRequestID(repositoryID string, pullRequestID int) int {
	tail := repositoryID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	var digits strings.Builder
	for _, r := range tail {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	id, err := strconv.Atoi(digits.String() + strconv.Itoa(pullRequestID))
	if err != nil {
		return pullRequestID
	}
	return id
}

func mapReviewerVote(vote int) domain.ReviewerVote {
	switch vote {
	case 10:
		return domain.VoteApproved
	case 5:
		return domain.VoteApprovedWithSuggestions
	case -5:
		return domain.VoteWaiting
	case -10:
		return domain.VoteRejected
	default:
		return domain.VoteNoVote
	}
}

type apiGraphUser struct {
	Descriptor    string `json:"descriptor"`
	DisplayName   string `json:"displayName"`
	MailAddress   string `json:"mailAddress"`
	PrincipalName string `json:"principalName"`
	Links         struct {
		Avatar struct {
			Href string `json:"href"`
		} `json:"avatar"`
	} `json:"_links"`
}

// TeamMembers lists the organization's graph users. The graph API lives on a
// separate host and is organization-scoped, not project-scoped.
func (c *Client) TeamMembers(ctx context.Context) ([]domain.TeamMember, error) {
	rawURL := fmt.Sprintf("%s/%s/_apis/graph/users?api-version=%s", c.graphURL, c.organization, graphAPIVersion)

	var resp envelope[apiGraphUser]
	if err := c.do(ctx, http.MethodGet, rawURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch team members: %w", err)
	}

	members := make([]domain.TeamMember, 0, len(resp.Value))
	for _, m := range resp.Value {
		members = append(members, domain.TeamMember{
			ID:           m.Descriptor,
			DisplayName:  m.DisplayName,
			Email:        m.MailAddress,
			UniqueName:   m.PrincipalName,
			ImageURL:     m.Links.Avatar.Href,
			ProjectName:  c.project,
			Organization: c.organization,
		})
	}
	return members, nil
}

type classificationNode struct {
	ID         int    `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Path       string `json:"path"`
	Attributes struct {
		StartDate  *time.Time `json:"startDate"`
		FinishDate *time.Time `json:"finishDate"`
	} `json:"attributes"`
	Children []classificationNode `json:"children"`
}

// Sprints walks the iteration classification tree. Only leaf-or-branch nodes
// carrying both a start and a finish date are real sprints; container nodes
// without dates are skipped but their children still get visited.
func (c *Client) Sprints(ctx context.Context) ([]domain.Sprint, error) {
	query := url.Values{}
	query.Set("$depth", "5")
	query.Set("api-version", sprintsAPIVersion)

	var root classificationNode
	if err := c.do(ctx, http.MethodGet, c.apiURL("/wit/classificationnodes/iterations", query), nil, &root); err != nil {
		return nil, fmt.Errorf("fetch sprints: %w", err)
	}

	var sprints []domain.Sprint
	now := c.now()
	for _, child := range root.Children {
		c.collectSprints(child, now, &sprints)
	}
	return sprints, nil
}

func (c *Client) collectSprints(node classificationNode, now time.Time, out *[]domain.Sprint) {
	if node.Attributes.StartDate != nil && node.Attributes.FinishDate != nil {
		id := node.Identifier
		if id == "" {
			id = strconv.Itoa(node.ID)
		}
		*out = append(*out, domain.Sprint{
			ID:           id,
			Name:         node.Name,
			Path:         node.Path,
			ProjectName:  c.project,
			Organization: c.organization,
			StartDate:    node.Attributes.StartDate,
			FinishDate:   node.Attributes.FinishDate,
			State:        domain.DeriveSprintState(node.Attributes.StartDate, node.Attributes.FinishDate, now),
		})
	}
	for _, child := range node.Children {
		c.collectSprints(child, now, out)
	}
}
