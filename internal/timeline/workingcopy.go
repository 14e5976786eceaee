package timeline

import (
	"github.com/PlanD600/pland-tui/internal/models"
)

// WorkingCopy is the locally mutable mirror of the server-owned project
// tree. Drag previews and optimistic edits write here through ApplyPatch;
// Replace swaps in a fresh authoritative snapshot wholesale, discarding any
// preview state. Tasks are indexed by id so every mutation goes through one
// code path.
type WorkingCopy struct {
	projects []models.Project
	tasks    map[string]*models.Task
}

// NewWorkingCopy deep-clones the snapshot into a fresh working copy.
func NewWorkingCopy(snapshot []models.Project) *WorkingCopy {
	wc := &WorkingCopy{}
	wc.Replace(snapshot)
	return wc
}

// Replace discards the current state and clones the new snapshot.
func (wc *WorkingCopy) Replace(snapshot []models.Project) {
	wc.projects = cloneProjects(snapshot)
	wc.tasks = make(map[string]*models.Task)
	for pi := range wc.projects {
		for ti := range wc.projects[pi].Tasks {
			t := &wc.projects[pi].Tasks[ti]
			wc.tasks[t.ID] = t
		}
	}
}

// Projects returns the working view of the project tree. Callers must not
// retain the slice across a Replace.
func (wc *WorkingCopy) Projects() []models.Project {
	return wc.projects
}

// Project returns the working copy of a project by id.
func (wc *WorkingCopy) Project(id string) (models.Project, bool) {
	for i := range wc.projects {
		if wc.projects[i].ID == id {
			return wc.projects[i], true
		}
	}
	return models.Project{}, false
}

// Task returns the current working state of a task.
func (wc *WorkingCopy) Task(id string) (models.Task, bool) {
	t, ok := wc.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return *t, true
}

// ApplyPatch mutates a task in place. Used for both optimistic previews and
// authoritative merges, so there is exactly one mutation path.
func (wc *WorkingCopy) ApplyPatch(taskID string, patch models.TaskPatch) bool {
	t, ok := wc.tasks[taskID]
	if !ok {
		return false
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.StartDate != nil {
		d := *patch.StartDate
		t.StartDate = &d
	}
	if patch.EndDate != nil {
		d := *patch.EndDate
		t.EndDate = &d
	}
	return true
}

// MergeTask overwrites a task with the authoritative server record,
// keeping already-loaded comments when the response omits them.
func (wc *WorkingCopy) MergeTask(authoritative models.Task) bool {
	t, ok := wc.tasks[authoritative.ID]
	if !ok {
		return false
	}
	comments := t.Comments
	*t = cloneTask(authoritative)
	if len(t.Comments) == 0 {
		t.Comments = comments
	}
	return true
}

// AppendComment adds a comment to a task's loaded detail.
func (wc *WorkingCopy) AppendComment(taskID string, comment models.Comment) bool {
	t, ok := wc.tasks[taskID]
	if !ok {
		return false
	}
	t.Comments = append(t.Comments, comment)
	return true
}

// ReplaceComment swaps an optimistic placeholder comment for the stored
// record, appending when the placeholder is gone.
func (wc *WorkingCopy) ReplaceComment(taskID, tempID string, comment models.Comment) bool {
	t, ok := wc.tasks[taskID]
	if !ok {
		return false
	}
	for i := range t.Comments {
		if t.Comments[i].ID == tempID {
			t.Comments[i] = comment
			return true
		}
	}
	t.Comments = append(t.Comments, comment)
	return true
}

func cloneProjects(projects []models.Project) []models.Project {
	out := make([]models.Project, len(projects))
	for i, p := range projects {
		out[i] = p
		out[i].TeamLeaderIDs = append([]string(nil), p.TeamLeaderIDs...)
		out[i].StartDate = cloneDate(p.StartDate)
		out[i].EndDate = cloneDate(p.EndDate)
		out[i].Tasks = make([]models.Task, len(p.Tasks))
		for j, t := range p.Tasks {
			out[i].Tasks[j] = cloneTask(t)
		}
	}
	return out
}

func cloneTask(t models.Task) models.Task {
	c := t
	c.StartDate = cloneDate(t.StartDate)
	c.EndDate = cloneDate(t.EndDate)
	c.AssigneeIDs = append([]string(nil), t.AssigneeIDs...)
	c.Comments = append([]models.Comment(nil), t.Comments...)
	return c
}

func cloneDate(d *models.Date) *models.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
