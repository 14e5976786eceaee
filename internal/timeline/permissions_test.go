package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PlanD600/pland-tui/internal/models"
)

func TestIsManagerOf(t *testing.T) {
	project := models.Project{ID: "p1", TeamLeaderIDs: []string{"u-lead"}}

	assert.True(t, IsManagerOf(models.User{ID: "x", Role: models.RoleSuperAdmin}, project))
	assert.True(t, IsManagerOf(models.User{ID: "x", Role: models.RoleAdmin}, project))
	assert.True(t, IsManagerOf(models.User{ID: "u-lead", Role: models.RoleTeamLeader}, project))
	assert.False(t, IsManagerOf(models.User{ID: "u-other", Role: models.RoleTeamLeader}, project))
	assert.False(t, IsManagerOf(models.User{ID: "u-lead", Role: models.RoleEmployee}, project))
}

func TestCanChangeStatus(t *testing.T) {
	project := models.Project{ID: "p1", TeamLeaderIDs: []string{"u-lead"}}
	task := models.Task{ID: "t1", AssigneeIDs: []string{"u-emp"}}

	assert.True(t, CanChangeStatus(models.User{ID: "u-lead", Role: models.RoleTeamLeader}, project, task))
	assert.True(t, CanChangeStatus(models.User{ID: "u-emp", Role: models.RoleEmployee}, project, task))
	assert.False(t, CanChangeStatus(models.User{ID: "u-bystander", Role: models.RoleEmployee}, project, task))
}

func TestCanEditTaskMatchesManagement(t *testing.T) {
	project := models.Project{ID: "p1", TeamLeaderIDs: []string{"u-lead"}}

	// Assignment alone never grants move/resize.
	assert.False(t, CanEditTask(models.User{ID: "u-emp", Role: models.RoleEmployee}, project))
	assert.True(t, CanEditTask(models.User{ID: "u-lead", Role: models.RoleTeamLeader}, project))
}
