package models

import "time"

// Role is an account's privilege tier within the organization.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleTeamLeader Role = "TEAM_LEADER"
	RoleEmployee   Role = "EMPLOYEE"
	RoleGuest      Role = "GUEST"
)

// Status is a task's workflow state.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in-progress"
	StatusStuck      Status = "stuck"
	StatusAtRisk     Status = "at-risk"
	StatusDone       Status = "done"
)

// Statuses lists all workflow states in display order.
var Statuses = []Status{StatusPlanned, StatusInProgress, StatusStuck, StatusAtRisk, StatusDone}

// Label returns the human-readable name of the status.
func (s Status) Label() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusInProgress:
		return "In Progress"
	case StatusStuck:
		return "Stuck"
	case StatusAtRisk:
		return "At Risk"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// User represents an account in the organization
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// Project represents a project with its team and tasks
type Project struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Archived      bool     `json:"archived"`
	StartDate     *Date    `json:"startDate,omitempty"`
	EndDate       *Date    `json:"endDate,omitempty"`
	TeamLeaderIDs []string `json:"teamLeaderIds"`
	Tasks         []Task   `json:"tasks"` // may be empty; a project with no tasks still renders
}

// Comment represents a comment on a task
type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	AuthorID  string    `json:"authorId"`
	Author    string    `json:"authorName,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Task represents a single task. A task missing either date is valid but
// cannot be plotted on the timeline.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	StartDate   *Date     `json:"startDate,omitempty"`
	EndDate     *Date     `json:"endDate,omitempty"`
	Color       string    `json:"color,omitempty"`
	AssigneeIDs []string  `json:"assigneeIds"`
	Comments    []Comment `json:"comments,omitempty"` // populated when loading task details
}

// Dated reports whether the task has both dates and can be plotted.
func (t Task) Dated() bool {
	return t.StartDate != nil && !t.StartDate.IsZero() && t.EndDate != nil && !t.EndDate.IsZero()
}

// AssignedTo reports whether userID is among the task's assignees.
func (t Task) AssignedTo(userID string) bool {
	for _, id := range t.AssigneeIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// TaskPatch is a partial task update sent to the backend. Nil fields are
// left untouched server-side.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Status    *Status `json:"status,omitempty"`
	StartDate *Date   `json:"startDate,omitempty"`
	EndDate   *Date   `json:"endDate,omitempty"`
}
