package services

import (
	"sort"
	"time"

	"mytown-issues/models"
)

type NameCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DepartmentLoad is the active/completed split for one department.
type DepartmentLoad struct {
	Name           string  `json:"name"`
	Active         int     `json:"active"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completionRate"`
}

// DashboardStats backs the administrator overview.
type DashboardStats struct {
	TotalIssues      int              `json:"totalIssues"`
	OpenIssues       int              `json:"openIssues"`
	ResolvedIssues   int              `json:"resolvedIssues"`
	UrgentIssues     int              `json:"urgentIssues"`
	IssuesByStatus   []NameCount      `json:"issuesByStatus"`
	IssuesByCategory []NameCount      `json:"issuesByCategory"`
	IssuesByPriority []NameCount      `json:"issuesByPriority"`
	Last7Days        []DayCount       `json:"last7Days"`
	Departments      []DepartmentLoad `json:"departments"`
}

// ComputeStats aggregates issues for the dashboard. now anchors the
// seven-day window, which ends with today.
func ComputeStats(issues []models.Issue, now time.Time) DashboardStats {
	stats := DashboardStats{TotalIssues: len(issues)}

	byStatus := make(map[models.IssueStatus]int)
	byCategory := make(map[string]int)
	byPriority := make(map[models.Priority]int)
	byDay := make(map[string]int)
	departments := make(map[string]*DepartmentLoad)
	for _, name := range models.Departments {
		departments[name] = &DepartmentLoad{Name: name}
	}

	for _, issue := range issues {
		status := issue.Status.Canonical()
		byStatus[status]++
		byCategory[string(issue.Category)]++
		byPriority[issue.Priority]++
		byDay[issue.CreatedAt.In(now.Location()).Format(time.DateOnly)]++

		if status.Open() {
			stats.OpenIssues++
		} else {
			stats.ResolvedIssues++
		}
		if status.Is(models.Urgent) {
			stats.UrgentIssues++
		}

		if issue.AssignedTo == nil || *issue.AssignedTo == "" {
			continue
		}
		dept, ok := departments[*issue.AssignedTo]
		if !ok {
			dept = &DepartmentLoad{Name: *issue.AssignedTo}
			departments[*issue.AssignedTo] = dept
		}
		if status.Open() {
			dept.Active++
		} else {
			dept.Completed++
		}
	}

	for _, s := range models.Statuses {
		stats.IssuesByStatus = append(stats.IssuesByStatus, NameCount{Name: string(s), Value: byStatus[s]})
	}
	for _, p := range models.Priorities {
		stats.IssuesByPriority = append(stats.IssuesByPriority, NameCount{Name: string(p), Value: byPriority[p]})
	}

	stats.IssuesByCategory = make([]NameCount, 0, len(byCategory))
	for name, n := range byCategory {
		stats.IssuesByCategory = append(stats.IssuesByCategory, NameCount{Name: name, Value: n})
	}
	sort.Slice(stats.IssuesByCategory, func(i, j int) bool {
		a, b := stats.IssuesByCategory[i], stats.IssuesByCategory[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.Name < b.Name
	})

	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format(time.DateOnly)
		stats.Last7Days = append(stats.Last7Days, DayCount{Date: day, Count: byDay[day]})
	}

	for _, name := range models.Departments {
		stats.Departments = append(stats.Departments, finishLoad(departments[name]))
		delete(departments, name)
	}
	extra := make([]string, 0, len(departments))
	for name := range departments {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		stats.Departments = append(stats.Departments, finishLoad(departments[name]))
	}

	return stats
}

func finishLoad(d *DepartmentLoad) DepartmentLoad {
	if total := d.Active + d.Completed; total > 0 {
		d.CompletionRate = float64(d.Completed) / float64(total)
	}
	return *d
}
