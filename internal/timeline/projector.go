package timeline

import (
	"github.com/PlanD600/pland-tui/internal/models"
)

// ScopeAll selects every non-archived project instead of a single one.
const ScopeAll = "all"

// Row is one project's slice of the timeline after role and scope
// filtering. SpanStart/SpanEnd aggregate the project's dated tasks; both
// are nil when the project has none.
type Row struct {
	Project   models.Project
	Tasks     []models.Task
	SpanStart *models.Date
	SpanEnd   *models.Date
}

// VisibleRows filters and groups the project list for the viewer.
//
// Employees only see projects containing tasks assigned to them, and within
// those projects only their own tasks. A selected project is shown
// regardless of its archived flag; the "all" scope hides archived projects.
// Task order is preserved from the upstream source.
func VisibleRows(projects []models.Project, viewer models.User, selectedProjectID string) []Row {
	var rows []Row
	for _, p := range projects {
		if selectedProjectID != ScopeAll {
			if p.ID != selectedProjectID {
				continue
			}
		} else if p.Archived {
			continue
		}

		tasks := p.Tasks
		if viewer.Role == models.RoleEmployee || viewer.Role == models.RoleGuest {
			tasks = assignedTasks(p.Tasks, viewer.ID)
			if len(tasks) == 0 {
				continue
			}
		}

		row := Row{Project: p, Tasks: tasks}
		row.SpanStart, row.SpanEnd = span(tasks)
		rows = append(rows, row)
	}
	return rows
}

func assignedTasks(tasks []models.Task, userID string) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if t.AssignedTo(userID) {
			out = append(out, t)
		}
	}
	return out
}

// span returns the min start and max end across the dated tasks.
func span(tasks []models.Task) (*models.Date, *models.Date) {
	var start, end *models.Date
	for i := range tasks {
		t := tasks[i]
		if !t.Dated() {
			continue
		}
		if start == nil || t.StartDate.Before(*start) {
			s := *t.StartDate
			start = &s
		}
		if end == nil || t.EndDate.After(*end) {
			e := *t.EndDate
			end = &e
		}
	}
	return start, end
}

// Bar is a task's rendered rectangle: its pixel offset from the window
// start and its pixel width.
type Bar struct {
	Task     models.Task
	OffsetPx float64
	WidthPx  float64
	Editable bool
}

// RenderRow is a Row with pixel-positioned bars, ready for the host shell
// to paint.
type RenderRow struct {
	Row
	SpanBar *Bar  // aggregate project bar, nil without a span
	Bars    []Bar // one per dated task, in task order
}

// Render positions every row's bars through the mapper and marks each bar
// editable per the viewer's permissions.
func Render(rows []Row, m Mapper, viewer models.User) []RenderRow {
	out := make([]RenderRow, 0, len(rows))
	for _, row := range rows {
		rr := RenderRow{Row: row}
		if row.SpanStart != nil && row.SpanEnd != nil {
			rr.SpanBar = &Bar{
				OffsetPx: m.Offset(*row.SpanStart),
				WidthPx:  m.Width(*row.SpanStart, *row.SpanEnd),
			}
		}
		for _, t := range row.Tasks {
			if !t.Dated() {
				continue
			}
			rr.Bars = append(rr.Bars, Bar{
				Task:     t,
				OffsetPx: m.Offset(*t.StartDate),
				WidthPx:  m.Width(*t.StartDate, *t.EndDate),
				Editable: CanEditTask(viewer, row.Project),
			})
		}
		out = append(out, rr)
	}
	return out
}
