package timeline

import (
	"github.com/PlanD600/pland-tui/internal/models"
)

// IsManagerOf reports whether the viewer manages the project: admins of
// either tier everywhere, team leaders only on projects that list them.
func IsManagerOf(viewer models.User, project models.Project) bool {
	switch viewer.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true
	case models.RoleTeamLeader:
		for _, id := range project.TeamLeaderIDs {
			if id == viewer.ID {
				return true
			}
		}
	}
	return false
}

// CanEditTask reports whether the viewer may move, resize, retitle or
// reassign tasks in the project. Only managers may.
func CanEditTask(viewer models.User, project models.Project) bool {
	return IsManagerOf(viewer, project)
}

// CanChangeStatus reports whether the viewer may change a task's status:
// managers, or any of the task's assignees.
func CanChangeStatus(viewer models.User, project models.Project, task models.Task) bool {
	return IsManagerOf(viewer, project) || task.AssignedTo(viewer.ID)
}
