package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/PlanD600/pland-tui/internal/models"
	"github.com/PlanD600/pland-tui/internal/timeline"
	"github.com/PlanD600/pland-tui/internal/ui/keys"
	"github.com/PlanD600/pland-tui/internal/ui/styles"
)

// CloseDetail asks the shell to return to the timeline.
type CloseDetail struct{}

type detailMode int

const (
	detailViewing detailMode = iota
	detailComposing
	detailPickingStatus
)

// TaskDetailView shows one task's fields and comments. Status changes and
// new comments apply locally first and reconcile against the server
// response.
type TaskDetailView struct {
	styles *styles.Styles
	keys   keys.KeyMap
	logger zerolog.Logger

	copy   *timeline.WorkingCopy
	coord  *timeline.Coordinator
	viewer models.User

	projectID string
	taskID    string

	mode      detailMode
	statusIdx int
	comment   textarea.Model

	width   int
	height  int
	errMsg  string
	syncing bool
}

// NewTaskDetailView opens the detail overlay for one task.
func NewTaskDetailView(copy *timeline.WorkingCopy, coord *timeline.Coordinator, viewer models.User, projectID, taskID string, logger zerolog.Logger) *TaskDetailView {
	ta := textarea.New()
	ta.Placeholder = "Write a comment..."
	ta.SetHeight(3)
	ta.CharLimit = 2000

	return &TaskDetailView{
		styles:    styles.NewStyles(),
		keys:      keys.DefaultKeyMap(),
		logger:    logger.With().Str("view", "detail").Str("task", taskID).Logger(),
		copy:      copy,
		coord:     coord,
		viewer:    viewer,
		projectID: projectID,
		taskID:    taskID,
		comment:   ta,
	}
}

func (v *TaskDetailView) Init() tea.Cmd {
	return nil
}

func (v *TaskDetailView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.comment.SetWidth(min(v.width-10, 70))
		return v, nil

	case persistDoneMsg:
		resync, userErr := v.coord.Reconcile(msg.out, v.taskVisible)
		if userErr != "" {
			v.errMsg = userErr
		}
		if resync {
			v.syncing = true
			return v, v.resyncCmd()
		}
		return v, nil

	case SnapshotLoaded:
		v.syncing = false
		if msg.Err != nil {
			v.errMsg = fmt.Sprintf("refresh failed: %v", msg.Err)
			return v, nil
		}
		if _, ok := v.copy.Task(v.taskID); !ok {
			// The task is gone from the authoritative snapshot.
			return v, func() tea.Msg { return CloseDetail{} }
		}
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case detailComposing:
			return v.updateComposing(msg)
		case detailPickingStatus:
			return v.updatePickingStatus(msg)
		default:
			return v.updateViewing(msg)
		}
	}

	return v, nil
}

func (v *TaskDetailView) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, project, ok := v.current()
	if !ok {
		return v, func() tea.Msg { return CloseDetail{} }
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return CloseDetail{} }

	case key.Matches(msg, v.keys.Status):
		if !timeline.CanChangeStatus(v.viewer, project, task) {
			v.errMsg = "you can't change this task's status"
			return v, nil
		}
		v.mode = detailPickingStatus
		v.statusIdx = 0
		for i, s := range models.Statuses {
			if s == task.Status {
				v.statusIdx = i
				break
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Comment):
		v.mode = detailComposing
		v.comment.Focus()
		return v, textarea.Blink
	}

	return v, nil
}

func (v *TaskDetailView) updatePickingStatus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = detailViewing

	case key.Matches(msg, v.keys.Up):
		v.statusIdx = clamp(v.statusIdx-1, 0, len(models.Statuses)-1)

	case key.Matches(msg, v.keys.Down):
		v.statusIdx = clamp(v.statusIdx+1, 0, len(models.Statuses)-1)

	case key.Matches(msg, v.keys.Enter):
		status := models.Statuses[v.statusIdx]
		v.mode = detailViewing
		v.errMsg = ""
		v.coord.ApplyStatusPreview(v.taskID, status)
		return v, v.persistStatusCmd(status)
	}
	return v, nil
}

func (v *TaskDetailView) updateComposing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.mode = detailViewing
		v.comment.Blur()
		return v, nil

	case msg.String() == "ctrl+s":
		text := strings.TrimSpace(v.comment.Value())
		if text == "" {
			return v, nil
		}
		v.mode = detailViewing
		v.errMsg = ""
		v.comment.Reset()
		v.comment.Blur()
		tempID := v.coord.ApplyCommentPreview(v.taskID, v.viewer, text)
		return v, v.persistCommentCmd(text, tempID)
	}

	var cmd tea.Cmd
	v.comment, cmd = v.comment.Update(msg)
	return v, cmd
}

func (v *TaskDetailView) persistStatusCmd(status models.Status) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		return persistDoneMsg{out: v.coord.PersistStatus(ctx, v.projectID, v.taskID, status)}
	}
}

func (v *TaskDetailView) persistCommentCmd(text, tempID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		return persistDoneMsg{out: v.coord.PersistComment(ctx, v.projectID, v.taskID, text, tempID)}
	}
}

func (v *TaskDetailView) resyncCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		projects, err := v.coord.Resync(ctx)
		return SnapshotLoaded{Projects: projects, Err: err}
	}
}

func (v *TaskDetailView) taskVisible(projectID, taskID string) bool {
	_, ok := v.copy.Task(taskID)
	return ok
}

func (v *TaskDetailView) current() (models.Task, models.Project, bool) {
	task, ok := v.copy.Task(v.taskID)
	if !ok {
		return models.Task{}, models.Project{}, false
	}
	project, ok := v.copy.Project(v.projectID)
	if !ok {
		return models.Task{}, models.Project{}, false
	}
	return task, project, true
}

// View renders the view
func (v *TaskDetailView) View() string {
	task, project, ok := v.current()
	if !ok {
		return v.styles.TitleMuted.Render("Task no longer exists")
	}

	var sections []string

	sections = append(sections, v.styles.Title.Render(task.Title))
	sections = append(sections, v.styles.TitleMuted.Render(project.Title))
	sections = append(sections, "")

	sections = append(sections, v.renderStatus(task))
	sections = append(sections, v.renderDates(task))

	if task.Description != "" {
		sections = append(sections, "", task.Description)
	}

	sections = append(sections, "", v.styles.Title.Render(fmt.Sprintf("Comments (%d)", len(task.Comments))))
	sections = append(sections, v.renderComments(task))

	if v.mode == detailComposing {
		sections = append(sections, "", v.comment.View(),
			v.styles.TitleMuted.Render("ctrl+s send • esc cancel"))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	popup := v.styles.Popup.Width(min(v.width-6, 76)).Render(body)

	out := popup + "\n" + v.renderFooter(project, task)
	if v.width > 0 && v.height > 0 {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, out)
	}
	return out
}

func (v *TaskDetailView) renderStatus(task models.Task) string {
	if v.mode == detailPickingStatus {
		var opts []string
		for i, s := range models.Statuses {
			badge := v.styles.Badge.Background(styles.StatusColor(s)).
				Foreground(styles.Current.Background).Render(s.Label())
			if i == v.statusIdx {
				badge = "▸" + badge
			} else {
				badge = " " + badge
			}
			opts = append(opts, badge)
		}
		return "Status: " + strings.Join(opts, " ")
	}

	badge := v.styles.Badge.Background(styles.StatusColor(task.Status)).
		Foreground(styles.Current.Background).Render(task.Status.Label())
	return "Status: " + badge
}

func (v *TaskDetailView) renderDates(task models.Task) string {
	if !task.Dated() {
		return v.styles.TitleMuted.Render("Unscheduled")
	}
	days := task.StartDate.DaysUntil(*task.EndDate) + 1
	return fmt.Sprintf("%s → %s  %s",
		task.StartDate.String(),
		task.EndDate.String(),
		v.styles.TitleMuted.Render(fmt.Sprintf("(%d days)", days)),
	)
}

func (v *TaskDetailView) renderComments(task models.Task) string {
	if len(task.Comments) == 0 {
		return v.styles.TitleMuted.Render("No comments yet")
	}

	var lines []string
	for _, c := range task.Comments {
		author := c.Author
		if author == "" {
			author = c.AuthorID
		}
		meta := fmt.Sprintf("%s • %s", author, c.CreatedAt.Format("Jan 2 15:04"))
		if strings.HasPrefix(c.ID, "pending-") {
			meta += " • sending..."
		}
		lines = append(lines, v.styles.TitleMuted.Render(meta))
		lines = append(lines, c.Text)
	}
	return strings.Join(lines, "\n")
}

func (v *TaskDetailView) renderFooter(project models.Project, task models.Task) string {
	if v.errMsg != "" {
		return v.styles.ErrorBanner.Render(" " + v.errMsg + " ")
	}
	if v.syncing {
		return v.styles.TitleMuted.Render("syncing...")
	}

	parts := []string{v.styles.HelpKey.Render("c") + " comment"}
	if timeline.CanChangeStatus(v.viewer, project, task) {
		parts = append(parts, v.styles.HelpKey.Render("s")+" status")
	}
	parts = append(parts, v.styles.HelpKey.Render("esc")+" back")
	return v.styles.Help.Render(strings.Join(parts, " • "))
}
