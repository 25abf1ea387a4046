package domain

import "time"

// ChangeCounts mirrors the per-commit change summary reported by Azure DevOps.
type ChangeCounts struct {
	Add    int `json:"add"`
	Edit   int `json:"edit"`
	Delete int `json:"delete"`
}

type Repository struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ProjectID     string     `json:"projectId"`
	ProjectName   string     `json:"projectName"`
	Organization  string     `json:"organization"`
	DefaultBranch string     `json:"defaultBranch"`
	Size          int64      `json:"size"`
	URL           string     `json:"url"`
	WebURL        string     `json:"webUrl"`
	CreatedDate   *time.Time `json:"createdDate,omitempty"`
	LastUpdated   time.Time  `json:"lastUpdated"`
}

// Commit is keyed by "{repositoryID}-{commitID}" so the same commit id in two
// repositories never collides.
type Commit struct {
	ID               string       `json:"id"`
	CommitID         string       `json:"commitId"`
	RepositoryID     string       `json:"repositoryId"`
	AuthorName       string       `json:"authorName"`
	AuthorEmail      string       `json:"authorEmail"`
	AuthorDate       time.Time    `json:"authorDate"`
	CommitterName    string       `json:"committerName"`
	CommitterEmail   string       `json:"committerEmail"`
	CommitterDate    time.Time    `json:"committerDate"`
	Comment          string       `json:"comment"`
	CommentTruncated bool         `json:"commentTruncated"`
	ChangeCounts     ChangeCounts `json:"changeCounts"`
	URL              string       `json:"url"`
	RemoteURL        string       `json:"remoteUrl"`
	LastUpdated      time.Time    `json:"lastUpdated"`
}

// WorkItem ids are assigned by the remote platform and are unique per
// organization, not globally; work items carry only a project name.
type WorkItem struct {
	ID                 int        `json:"id"`
	Rev                int        `json:"rev"`
	ProjectName        string     `json:"projectName"`
	AreaPath           string     `json:"areaPath"`
	IterationPath      string     `json:"iterationPath"`
	Type               string     `json:"workItemType"`
	State              string     `json:"state"`
	Reason             string     `json:"reason"`
	Title              string     `json:"title"`
	AssignedToName     string     `json:"assignedToName"`
	AssignedToEmail    string     `json:"assignedToEmail"`
	AssignedToImageURL string     `json:"assignedToImageUrl"`
	CreatedDate        time.Time  `json:"createdDate"`
	CreatedByName      string     `json:"createdByName"`
	CreatedByEmail     string     `json:"createdByEmail"`
	ChangedDate        *time.Time `json:"changedDate,omitempty"`
	Description        string     `json:"description"`
	AcceptanceCriteria string     `json:"acceptanceCriteria"`
	StoryPoints        int        `json:"storyPoints"`
	Priority           int        `json:"priority"`
	Severity           string     `json:"severity"`
	Tags               []string   `json:"tags"`
	URL                string     `json:"url"`
	LastUpdated        time.Time  `json:"lastUpdated"`
}

type ReviewerVote string

const (
	VoteApproved                ReviewerVote = "approved"
	VoteApprovedWithSuggestions ReviewerVote = "approved_with_suggestions"
	VoteNoVote                  ReviewerVote = "no_vote"
	VoteWaiting                 ReviewerVote = "waiting"
	VoteRejected                ReviewerVote = "rejected"
)

type Reviewer struct {
	DisplayName string       `json:"displayName"`
	Email       string       `json:"email,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Vote        ReviewerVote `json:"vote"`
	IsRequired  bool         `json:"isRequired"`
}

type PullRequest struct {
	ID                 int        `json:"id"`
	RepositoryID       string     `json:"repositoryId"`
	PullRequestID      int        `json:"pullRequestId"`
	CodeReviewID       int        `json:"codeReviewId"`
	Status             string     `json:"status"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	SourceRefName      string     `json:"sourceRefName"`
	TargetRefName      string     `json:"targetRefName"`
	MergeStatus        string     `json:"mergeStatus"`
	IsDraft            bool       `json:"isDraft"`
	CreatedByName      string     `json:"createdByName"`
	CreatedByEmail     string     `json:"createdByEmail"`
	CreatedByImageURL  string     `json:"createdByImageUrl"`
	CreationDate       time.Time  `json:"creationDate"`
	Reviewers          []Reviewer `json:"reviewers"`
	WorkItemIDs        []int      `json:"workItemIds"`
	URL                string     `json:"url"`
	LastUpdated        time.Time  `json:"lastUpdated"`
}

type TeamMember struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	Email        string    `json:"email"`
	UniqueName   string    `json:"uniqueName"`
	ImageURL     string    `json:"imageUrl"`
	ProjectName  string    `json:"projectName"`
	Organization string    `json:"organization"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

type Sprint struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Path         string      `json:"path"`
	ProjectName  string      `json:"projectName"`
	Organization string      `json:"organization"`
	StartDate    *time.Time  `json:"startDate,omitempty"`
	FinishDate   *time.Time  `json:"finishDate,omitempty"`
	State        SprintState `json:"state"`
	LastUpdated  time.Time   `json:"lastUpdated"`
}
