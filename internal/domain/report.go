package domain

import "time"

// SyncCounts reports how many records each sub-sync upserted. A zero value for
// a kind means that sub-sync either returned nothing or failed; callers are
// expected to read the counts, not just Success.
type SyncCounts struct {
	Repositories int `json:"repositories"`
	Sprints      int `json:"sprints"`
	WorkItems    int `json:"workItems"`
	TeamMembers  int `json:"teamMembers"`
	PullRequests int `json:"pullRequests"`
	Commits      int `json:"commits"`
}

type SyncReport struct {
	RanSync      bool       `json:"ranSync"`
	Success      bool       `json:"success"`
	Message      string     `json:"message"`
	SyncedAt     *time.Time `json:"syncedAt,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	Counts       SyncCounts `json:"counts"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

type WorkItemStats struct {
	TotalWorkItems      int          `json:"totalWorkItems"`
	CompletedWorkItems  int          `json:"completedWorkItems"`
	InProgressWorkItems int          `json:"inProgressWorkItems"`
	BlockedWorkItems    int          `json:"blockedWorkItems"`
	WorkItemsByType     []TypeCount  `json:"workItemsByType"`
	WorkItemsByState    []StateCount `json:"workItemsByState"`
}

type Contributor struct {
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
	CommitCount int    `json:"commitCount"`
}

type CommitStats struct {
	TotalCommits       int           `json:"totalCommits"`
	UniqueContributors int           `json:"uniqueContributors"`
	TopContributors    []Contributor `json:"topContributors"`
}

type DashboardMetrics struct {
	TotalWorkItems      int `json:"totalWorkItems"`
	CompletedWorkItems  int `json:"completedWorkItems"`
	InProgressWorkItems int `json:"inProgressWorkItems"`
	BlockedWorkItems    int `json:"blockedWorkItems"`
	TotalRepositories   int `json:"totalRepositories"`
	TotalSprints        int `json:"totalSprints"`
}

type Dashboard struct {
	Organization     string           `json:"organization"`
	Project          string           `json:"project"`
	Metrics          DashboardMetrics `json:"metrics"`
	CurrentSprint    *Sprint          `json:"currentSprint,omitempty"`
	WorkItemsByType  []TypeCount      `json:"workItemsByType"`
	WorkItemsByState []StateCount     `json:"workItemsByState"`
	RecentWorkItems  []WorkItem       `json:"recentWorkItems"`
	Repositories     []Repository     `json:"repositories"`
}
