package domain

import "sort"

// BuildWorkItemStats aggregates work items into completion buckets and
// by-type/by-state counts. Shared by every storage variant so the bucketing
// rules live in exactly one place.
func BuildWorkItemStats(items []WorkItem) WorkItemStats {
	stats := WorkItemStats{TotalWorkItems: len(items)}
	byType := make(map[string]int)
	byState := make(map[string]int)

	for _, wi := range items {
		byType[wi.Type]++
		byState[wi.State]++

		switch ClassifyWorkItemState(wi.State) {
		case StateCompleted:
			stats.CompletedWorkItems++
		case StateInProgress:
			stats.InProgressWorkItems++
		case StateBlocked:
			stats.BlockedWorkItems++
		}
	}

	for typ, n := range byType {
		stats.WorkItemsByType = append(stats.WorkItemsByType, TypeCount{Type: typ, Count: n})
	}
	sort.Slice(stats.WorkItemsByType, func(i, j int) bool {
		return stats.WorkItemsByType[i].Type < stats.WorkItemsByType[j].Type
	})

	for state, n := range byState {
		stats.WorkItemsByState = append(stats.WorkItemsByState, StateCount{State: state, Count: n})
	}
	sort.Slice(stats.WorkItemsByState, func(i, j int) bool {
		return stats.WorkItemsByState[i].State < stats.WorkItemsByState[j].State
	})

	return stats
}
