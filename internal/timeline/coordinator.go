package timeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/PlanD600/pland-tui/internal/models"
)

// Collaborator is the external surface the coordinator persists through.
// *api.Client satisfies it.
type Collaborator interface {
	UpdateTask(ctx context.Context, projectID, taskID string, patch models.TaskPatch) (*models.Task, error)
	AddComment(ctx context.Context, projectID, taskID, text string) (*models.Comment, error)
	FetchProjectsSnapshot(ctx context.Context) ([]models.Project, error)
}

// Outcome is the result of one persistence attempt, carried back to the
// event loop for reconciliation.
type Outcome struct {
	ProjectID string
	TaskID    string

	Task          *models.Task    // authoritative task on success
	Comment       *models.Comment // stored comment on comment success
	TempCommentID string          // optimistic comment the response replaces

	Err error
}

// Coordinator applies local changes immediately, persists them through the
// collaborator, and reconciles the working copy from the authoritative
// response, or orders a full resync on failure.
//
// The Persist methods only touch the network and may run on any goroutine;
// the preview, Reconcile and Adopt methods mutate the working copy and must
// run on the event loop.
type Coordinator struct {
	api    Collaborator
	copy   *WorkingCopy
	logger zerolog.Logger
}

// NewCoordinator wires a coordinator over the working copy.
func NewCoordinator(api Collaborator, copy *WorkingCopy, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		api:    api,
		copy:   copy,
		logger: logger.With().Str("component", "coordinator").Logger(),
	}
}

// PersistDates persists a completed gesture's final dates. The working copy
// already shows them (the gesture previewed in place).
func (c *Coordinator) PersistDates(ctx context.Context, projectID, taskID string, start, end models.Date) Outcome {
	task, err := c.api.UpdateTask(ctx, projectID, taskID, models.TaskPatch{
		StartDate: &start,
		EndDate:   &end,
	})
	return Outcome{ProjectID: projectID, TaskID: taskID, Task: task, Err: err}
}

// ApplyStatusPreview optimistically shows the new status.
func (c *Coordinator) ApplyStatusPreview(taskID string, status models.Status) {
	c.copy.ApplyPatch(taskID, models.TaskPatch{Status: &status})
}

// PersistStatus persists an inline status change.
func (c *Coordinator) PersistStatus(ctx context.Context, projectID, taskID string, status models.Status) Outcome {
	task, err := c.api.UpdateTask(ctx, projectID, taskID, models.TaskPatch{Status: &status})
	return Outcome{ProjectID: projectID, TaskID: taskID, Task: task, Err: err}
}

// ApplyCommentPreview optimistically appends the comment and returns the
// placeholder id the authoritative response will replace.
func (c *Coordinator) ApplyCommentPreview(taskID string, author models.User, text string) string {
	tempID := "pending-" + uuid.NewString()
	c.copy.AppendComment(taskID, models.Comment{
		ID:        tempID,
		TaskID:    taskID,
		AuthorID:  author.ID,
		Author:    author.Name,
		Text:      text,
		CreatedAt: time.Now(),
	})
	return tempID
}

// PersistComment persists an inline comment addition.
func (c *Coordinator) PersistComment(ctx context.Context, projectID, taskID, text, tempID string) Outcome {
	comment, err := c.api.AddComment(ctx, projectID, taskID, text)
	return Outcome{ProjectID: projectID, TaskID: taskID, Comment: comment, TempCommentID: tempID, Err: err}
}

// Reconcile folds an outcome into the working copy. visible reports whether
// the outcome's task is still displayed; stale responses are dropped
// silently. It returns whether a full resync is required and the
// user-facing error message, if any.
func (c *Coordinator) Reconcile(out Outcome, visible func(projectID, taskID string) bool) (resync bool, userErr string) {
	if out.Err != nil {
		// The optimistic state may have diverged in ways a partial patch
		// cannot undo; converge from the authoritative snapshot.
		c.logger.Warn().Err(out.Err).Str("task", out.TaskID).Msg("persist failed, resyncing")
		return true, out.Err.Error()
	}

	if visible != nil && !visible(out.ProjectID, out.TaskID) {
		c.logger.Debug().Str("task", out.TaskID).Msg("dropping stale reconciliation")
		return false, ""
	}

	switch {
	case out.Task != nil:
		c.copy.MergeTask(*out.Task)
	case out.Comment != nil:
		c.copy.ReplaceComment(out.TaskID, out.TempCommentID, *out.Comment)
	}
	return false, ""
}

// Resync fetches the full authoritative snapshot. Network only; adopt the
// result on the event loop.
func (c *Coordinator) Resync(ctx context.Context) ([]models.Project, error) {
	return c.api.FetchProjectsSnapshot(ctx)
}

// AdoptSnapshot replaces the working copy with an authoritative snapshot,
// discarding all optimistic state.
func (c *Coordinator) AdoptSnapshot(projects []models.Project) {
	c.copy.Replace(projects)
}
