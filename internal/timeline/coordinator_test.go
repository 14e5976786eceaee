package timeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PlanD600/pland-tui/internal/models"
)

type fakeCollaborator struct {
	updateCalls  int
	updateErr    error
	updateResult *models.Task

	commentErr    error
	commentResult *models.Comment

	snapshot      []models.Project
	snapshotCalls int
}

func (f *fakeCollaborator) UpdateTask(ctx context.Context, projectID, taskID string, patch models.TaskPatch) (*models.Task, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateResult, nil
}

func (f *fakeCollaborator) AddComment(ctx context.Context, projectID, taskID, text string) (*models.Comment, error) {
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return f.commentResult, nil
}

func (f *fakeCollaborator) FetchProjectsSnapshot(ctx context.Context) ([]models.Project, error) {
	f.snapshotCalls++
	return f.snapshot, nil
}

func alwaysVisible(string, string) bool { return true }

func coordinatorFixture() (*Coordinator, *WorkingCopy, *fakeCollaborator) {
	wc := NewWorkingCopy([]models.Project{{ID: "p1", Tasks: []models.Task{
		datedTask("t1", models.NewDate(2024, time.March, 10), models.NewDate(2024, time.March, 15)),
	}}})
	api := &fakeCollaborator{}
	return NewCoordinator(api, wc, zerolog.Nop()), wc, api
}

func TestCoordinatorSuccessMergesAuthoritativeTask(t *testing.T) {
	c, wc, api := coordinatorFixture()

	// The server nudged the end date during validation.
	serverStart := models.NewDate(2024, time.March, 13)
	serverEnd := models.NewDate(2024, time.March, 19)
	api.updateResult = &models.Task{ID: "t1", ProjectID: "p1", StartDate: &serverStart, EndDate: &serverEnd}

	out := c.PersistDates(context.Background(), "p1", "t1",
		models.NewDate(2024, time.March, 13), models.NewDate(2024, time.March, 18))
	require.NoError(t, out.Err)
	assert.Equal(t, 1, api.updateCalls)

	resync, userErr := c.Reconcile(out, alwaysVisible)
	assert.False(t, resync)
	assert.Empty(t, userErr)

	task, _ := wc.Task("t1")
	assert.Equal(t, "2024-03-19", task.EndDate.String(), "server truth wins")
}

func TestCoordinatorFailureOrdersResync(t *testing.T) {
	c, wc, api := coordinatorFixture()
	api.updateErr = errors.New("deadline overlaps a locked sprint")
	api.snapshot = []models.Project{{ID: "p1", Tasks: []models.Task{
		datedTask("t1", models.NewDate(2024, time.March, 10), models.NewDate(2024, time.March, 15)),
	}}}

	// Optimistic preview already applied by the gesture.
	start := models.NewDate(2024, time.March, 13)
	end := models.NewDate(2024, time.March, 18)
	wc.ApplyPatch("t1", models.TaskPatch{StartDate: &start, EndDate: &end})

	out := c.PersistDates(context.Background(), "p1", "t1", start, end)
	resync, userErr := c.Reconcile(out, alwaysVisible)
	assert.True(t, resync)
	assert.True(t, strings.Contains(userErr, "locked sprint"))

	snapshot, err := c.Resync(context.Background())
	require.NoError(t, err)
	c.AdoptSnapshot(snapshot)
	assert.Equal(t, 1, api.snapshotCalls)

	task, _ := wc.Task("t1")
	assert.Equal(t, "2024-03-10", task.StartDate.String(), "optimistic change discarded")
}

func TestCoordinatorDropsStaleReconciliation(t *testing.T) {
	c, wc, api := coordinatorFixture()
	serverStart := models.NewDate(2024, time.April, 1)
	serverEnd := models.NewDate(2024, time.April, 2)
	api.updateResult = &models.Task{ID: "t1", ProjectID: "p1", StartDate: &serverStart, EndDate: &serverEnd}

	out := c.PersistDates(context.Background(), "p1", "t1", serverStart, serverEnd)
	resync, userErr := c.Reconcile(out, func(projectID, taskID string) bool { return false })
	assert.False(t, resync)
	assert.Empty(t, userErr)

	task, _ := wc.Task("t1")
	assert.Equal(t, "2024-03-10", task.StartDate.String(), "stale response ignored")
}

func TestCoordinatorStatusFlow(t *testing.T) {
	c, wc, api := coordinatorFixture()

	c.ApplyStatusPreview("t1", models.StatusDone)
	task, _ := wc.Task("t1")
	assert.Equal(t, models.StatusDone, task.Status)

	api.updateResult = &models.Task{ID: "t1", ProjectID: "p1", Status: models.StatusDone}
	out := c.PersistStatus(context.Background(), "p1", "t1", models.StatusDone)
	resync, _ := c.Reconcile(out, alwaysVisible)
	assert.False(t, resync)
	task, _ = wc.Task("t1")
	assert.Equal(t, models.StatusDone, task.Status)
}

func TestCoordinatorCommentFlow(t *testing.T) {
	c, wc, api := coordinatorFixture()
	author := models.User{ID: "u1", Name: "Dana"}

	tempID := c.ApplyCommentPreview("t1", author, "shipping friday")
	task, _ := wc.Task("t1")
	require.Len(t, task.Comments, 1)
	assert.Equal(t, tempID, task.Comments[0].ID)

	api.commentResult = &models.Comment{ID: "c77", TaskID: "t1", Text: "shipping friday"}
	out := c.PersistComment(context.Background(), "p1", "t1", "shipping friday", tempID)
	resync, _ := c.Reconcile(out, alwaysVisible)
	assert.False(t, resync)

	task, _ = wc.Task("t1")
	require.Len(t, task.Comments, 1)
	assert.Equal(t, "c77", task.Comments[0].ID)
}

func TestCoordinatorCommentFailureOrdersResync(t *testing.T) {
	c, wc, api := coordinatorFixture()
	api.commentErr = errors.New("comments are closed")
	api.snapshot = []models.Project{{ID: "p1", Tasks: []models.Task{{ID: "t1"}}}}

	tempID := c.ApplyCommentPreview("t1", models.User{ID: "u1"}, "hello")
	out := c.PersistComment(context.Background(), "p1", "t1", "hello", tempID)
	resync, userErr := c.Reconcile(out, alwaysVisible)
	assert.True(t, resync)
	assert.Equal(t, "comments are closed", userErr)

	snapshot, err := c.Resync(context.Background())
	require.NoError(t, err)
	c.AdoptSnapshot(snapshot)
	task, _ := wc.Task("t1")
	assert.Empty(t, task.Comments, "optimistic comment discarded by resync")
}
