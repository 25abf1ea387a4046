package azuredevops

import (
	"time"

	"github.com/podtech-io/devops-pulse/internal/domain"
)

// Dataset bundles one fetch of every entity kind. The sync pipeline consumes
// it both for demo seeding and in tests.
type Dataset struct {
	Repositories []domain.Repository
	Commits      []domain.Commit
	WorkItems    []domain.WorkItem
	PullRequests []domain.PullRequest
	TeamMembers  []domain.TeamMember
	Sprints      []domain.Sprint
}

func date(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(value string) *time.Time {
	t := date(value)
	return &t
}

// DemoData returns a fixed sample dataset used when no access token is
// configured. The records are deterministic so repeated syncs upsert the same
// rows instead of growing the store.
func DemoData(organization, project string) Dataset {
	return Dataset{
		Repositories: []domain.Repository{
			{
				ID:            "demo-repo-1",
				Name:          project + "-Frontend",
				ProjectID:     "demo-project-1",
				ProjectName:   project,
				Organization:  organization,
				DefaultBranch: "refs/heads/main",
				Size:          15728640,
				URL:           "https://dev.azure.com/" + organization + "/" + project + "/_git/" + project + "-Frontend",
				WebURL:        "https://dev.azure.com/" + organization + "/" + project + "/_git/" + project + "-Frontend",
				CreatedDate:   datePtr("2024-01-15T10:00:00Z"),
			},
			{
				ID:            "demo-repo-2",
				Name:          project + "-Backend",
				ProjectID:     "demo-project-1",
				ProjectName:   project,
				Organization:  organization,
				DefaultBranch: "refs/heads/main",
				Size:          8945123,
				URL:           "https://dev.azure.com/" + organization + "/" + project + "/_git/" + project + "-Backend",
				WebURL:        "https://dev.azure.com/" + organization + "/" + project + "/_git/" + project + "-Backend",
				CreatedDate:   datePtr("2024-01-10T08:30:00Z"),
			},
		},
		Commits: []domain.Commit{
			{
				ID:             "demo-repo-1-abc123",
				CommitID:       "abc123def456",
				RepositoryID:   "demo-repo-1",
				AuthorName:     "Sarah Johnson",
				AuthorEmail:    "sarah.johnson@podtech.io",
				AuthorDate:     date("2024-10-09T15:30:00Z"),
				CommitterName:  "Sarah Johnson",
				CommitterEmail: "sarah.johnson@podtech.io",
				CommitterDate:  date("2024-10-09T15:30:00Z"),
				Comment:        "feat: implement hazard detection model training pipeline",
				ChangeCounts:   domain.ChangeCounts{Add: 15, Edit: 3, Delete: 1},
			},
			{
				ID:             "demo-repo-2-def789",
				CommitID:       "def789ghi012",
				RepositoryID:   "demo-repo-2",
				AuthorName:     "Alex Rodriguez",
				AuthorEmail:    "alex.rodriguez@podtech.io",
				AuthorDate:     date("2024-10-09T14:15:00Z"),
				CommitterName:  "Alex Rodriguez",
				CommitterEmail: "alex.rodriguez@podtech.io",
				CommitterDate:  date("2024-10-09T14:15:00Z"),
				Comment:        "fix: optimize database connection pooling",
				ChangeCounts:   domain.ChangeCounts{Add: 8, Edit: 12, Delete: 4},
			},
		},
		WorkItems: []domain.WorkItem{
			{
				ID:                 1001,
				Rev:                12,
				ProjectName:        project,
				AreaPath:           project + `\AI Models`,
				IterationPath:      project + `\Sprint 68`,
				Type:               "User Story",
				State:              "Active",
				Reason:             "Implementation started",
				Title:              "Implement real-time hazard detection using computer vision",
				AssignedToName:     "Sarah Johnson",
				AssignedToEmail:    "sarah.johnson@podtech.io",
				CreatedDate:        date("2024-09-30T09:15:00Z"),
				CreatedByName:      "Mike Chen",
				CreatedByEmail:     "mike.chen@podtech.io",
				ChangedDate:        datePtr("2024-10-08T14:30:00Z"),
				Description:        "Develop computer vision models to detect potential safety hazards in real-time from camera feeds",
				AcceptanceCriteria: "1. Model accuracy > 95%\n2. Real-time processing < 100ms\n3. Integration with alert system",
				StoryPoints:        13,
				Priority:           1,
				Severity:           "High",
				Tags:               []string{"AI", "Computer Vision", "Safety"},
			},
			{
				ID:                 1002,
				Rev:                8,
				ProjectName:        project,
				AreaPath:           project + `\Dashboard`,
				IterationPath:      project + `\Sprint 68`,
				Type:               "Task",
				State:              "Done",
				Reason:             "Completed",
				Title:              "Create project metrics dashboard",
				AssignedToName:     "Alex Rodriguez",
				AssignedToEmail:    "alex.rodriguez@podtech.io",
				CreatedDate:        date("2024-09-28T11:00:00Z"),
				CreatedByName:      "Emily Davis",
				CreatedByEmail:     "emily.davis@podtech.io",
				ChangedDate:        datePtr("2024-10-09T16:45:00Z"),
				Description:        "Build a comprehensive dashboard showing project metrics and team performance",
				AcceptanceCriteria: "1. Display work items, commits, PRs\n2. Real-time data sync\n3. Responsive design",
				StoryPoints:        8,
				Priority:           2,
				Severity:           "Medium",
				Tags:               []string{"Dashboard", "Analytics", "UI"},
			},
			{
				ID:                 1003,
				Rev:                5,
				ProjectName:        project,
				AreaPath:           project + `\Infrastructure`,
				IterationPath:      project + `\Sprint 68`,
				Type:               "Bug",
				State:              "New",
				Reason:             "Reported by QA",
				Title:              "Database connection timeouts in production",
				AssignedToName:     "David Kim",
				AssignedToEmail:    "david.kim@podtech.io",
				CreatedDate:        date("2024-10-07T13:20:00Z"),
				CreatedByName:      "QA Team",
				CreatedByEmail:     "qa@podtech.io",
				ChangedDate:        datePtr("2024-10-09T10:15:00Z"),
				Description:        "Users experiencing intermittent database connection timeouts during peak hours",
				AcceptanceCriteria: "1. Identify root cause\n2. Implement fix\n3. Load test to verify",
				StoryPoints:        5,
				Priority:           1,
				Severity:           "Critical",
				Tags:               []string{"Database", "Performance", "Production"},
			},
		},
		PullRequests: []domain.PullRequest{
			{
				ID:             2001,
				RepositoryID:   "demo-repo-1",
				PullRequestID:  42,
				CodeReviewID:   1542,
				Status:         "active",
				Title:          "Add computer vision hazard detection models",
				Description:    "This PR implements the core computer vision models for real-time hazard detection",
				SourceRefName:  "refs/heads/feature/hazard-detection",
				TargetRefName:  "refs/heads/main",
				MergeStatus:    "succeeded",
				CreatedByName:  "Sarah Johnson",
				CreatedByEmail: "sarah.johnson@podtech.io",
				CreationDate:   date("2024-10-08T10:30:00Z"),
				Reviewers: []domain.Reviewer{
					{DisplayName: "Mike Chen", Email: "mike.chen@podtech.io", Vote: domain.VoteApproved, IsRequired: true},
					{DisplayName: "Emily Davis", Email: "emily.davis@podtech.io", Vote: domain.VoteWaiting},
				},
				WorkItemIDs: []int{1001},
			},
		},
		TeamMembers: []domain.TeamMember{
			{
				ID:           "member-1",
				DisplayName:  "Sarah Johnson",
				Email:        "sarah.johnson@podtech.io",
				UniqueName:   "sarah.johnson@podtech.io",
				ProjectName:  project,
				Organization: organization,
			},
			{
				ID:           "member-2",
				DisplayName:  "Alex Rodriguez",
				Email:        "alex.rodriguez@podtech.io",
				UniqueName:   "alex.rodriguez@podtech.io",
				ProjectName:  project,
				Organization: organization,
			},
			{
				ID:           "member-3",
				DisplayName:  "Mike Chen",
				Email:        "mike.chen@podtech.io",
				UniqueName:   "mike.chen@podtech.io",
				ProjectName:  project,
				Organization: organization,
			},
		},
		Sprints: []domain.Sprint{
			{
				ID:           "sprint-68",
				Name:         "Sprint 68",
				Path:         project + `\Sprint 68`,
				ProjectName:  project,
				Organization: organization,
				StartDate:    datePtr("2024-09-30T00:00:00Z"),
				FinishDate:   datePtr("2024-10-13T23:59:59Z"),
				State:        domain.SprintCurrent,
			},
		},
	}
}
