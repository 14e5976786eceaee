package views

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PlanD600/pland-tui/internal/models"
	"github.com/PlanD600/pland-tui/internal/timeline"
)

type stubCollaborator struct {
	updated []models.TaskPatch
}

func (s *stubCollaborator) UpdateTask(ctx context.Context, projectID, taskID string, patch models.TaskPatch) (*models.Task, error) {
	s.updated = append(s.updated, patch)
	task := models.Task{ID: taskID, ProjectID: projectID, StartDate: patch.StartDate, EndDate: patch.EndDate}
	return &task, nil
}

func (s *stubCollaborator) AddComment(ctx context.Context, projectID, taskID, text string) (*models.Comment, error) {
	return &models.Comment{ID: "c1", TaskID: taskID, Text: text}, nil
}

func (s *stubCollaborator) FetchProjectsSnapshot(ctx context.Context) ([]models.Project, error) {
	return nil, nil
}

func newTestTimeline(t *testing.T) (*TimelineView, *stubCollaborator) {
	t.Helper()

	start := models.NewDate(2024, 3, 10)
	end := models.NewDate(2024, 3, 14)
	projects := []models.Project{{
		ID:            "p1",
		Title:         "Launch",
		TeamLeaderIDs: []string{"lead"},
		Tasks: []models.Task{{
			ID:        "t1",
			ProjectID: "p1",
			Title:     "Ship it",
			Status:    models.StatusInProgress,
			StartDate: &start,
			EndDate:   &end,
		}},
	}}

	copy := timeline.NewWorkingCopy(projects)
	collab := &stubCollaborator{}
	coord := timeline.NewCoordinator(collab, copy, zerolog.Nop())

	viewer := models.User{ID: "lead", Role: models.RoleTeamLeader}
	v := NewTimelineView(copy, coord, nil, viewer, zerolog.Nop())
	v.policy = timeline.RangeAll
	v.ppd = 30
	v.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return v, collab
}

func TestBarColsMirrorsDirection(t *testing.T) {
	v, _ := newTestTimeline(t)
	bar := timeline.Bar{OffsetPx: 300, WidthPx: 150}

	c0, c1 := v.barCols(bar)
	assert.Equal(t, 30, c0)
	assert.Equal(t, 44, c1)

	v.rtl = true
	width := v.chartWidth()
	r0, r1 := v.barCols(bar)
	assert.Equal(t, width-1-44, r0)
	assert.Equal(t, width-1-30, r1)
	assert.Equal(t, c1-c0, r1-r0, "bar width survives mirroring")
}

func TestEdgeAtFollowsDirection(t *testing.T) {
	v, _ := newTestTimeline(t)

	assert.Equal(t, timeline.EdgeStart, v.edgeAt(false))
	assert.Equal(t, timeline.EdgeEnd, v.edgeAt(true))

	v.rtl = true
	assert.Equal(t, timeline.EdgeEnd, v.edgeAt(false))
	assert.Equal(t, timeline.EdgeStart, v.edgeAt(true))
}

func taskLayoutRow(t *testing.T, v *TimelineView) (int, layoutRow) {
	t.Helper()
	for i, row := range v.layout {
		if row.taskID != "" && row.startCol >= 0 {
			return i, row
		}
	}
	t.Fatal("no task row in layout")
	return 0, layoutRow{}
}

func TestClickOnBarOpensTask(t *testing.T) {
	v, _ := newTestTimeline(t)
	idx, row := taskLayoutRow(t, v)

	col := (row.startCol + row.endCol) / 2
	x := labelColWidth + col
	y := chartTopRows + idx

	v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, cmd := v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	require.NotNil(t, cmd)
	msg := cmd()
	activated, ok := msg.(TaskActivated)
	require.True(t, ok, "expected TaskActivated, got %T", msg)
	assert.Equal(t, "t1", activated.TaskID)
	assert.Equal(t, "p1", activated.ProjectID)
}

func TestDragMovesTaskAndPersists(t *testing.T) {
	v, collab := newTestTimeline(t)
	idx, row := taskLayoutRow(t, v)

	col := (row.startCol + row.endCol) / 2
	x := labelColWidth + col
	y := chartTopRows + idx

	// 9 cells rightward is 90px, three days at 30px/day.
	v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	v.Update(tea.MouseMsg{X: x + 9, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	_, cmd := v.Update(tea.MouseMsg{X: x + 9, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	task, ok := v.copy.Task("t1")
	require.True(t, ok)
	assert.Equal(t, "2024-03-13", task.StartDate.String())
	assert.Equal(t, "2024-03-17", task.EndDate.String())

	require.NotNil(t, cmd)
	out := cmd()
	_, ok = out.(persistDoneMsg)
	require.True(t, ok, "expected persistDoneMsg, got %T", out)
	require.Len(t, collab.updated, 1)
	assert.Equal(t, "2024-03-13", collab.updated[0].StartDate.String())
}

func TestDragAgainstReadingDirection(t *testing.T) {
	v, _ := newTestTimeline(t)
	v.rtl = true
	v.relayout()
	idx, row := taskLayoutRow(t, v)

	col := (row.startCol + row.endCol) / 2
	x := labelColWidth + col
	y := chartTopRows + idx

	// Leftward on a mirrored chart moves the task later.
	v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	v.Update(tea.MouseMsg{X: x - 9, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	v.Update(tea.MouseMsg{X: x - 9, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	task, ok := v.copy.Task("t1")
	require.True(t, ok)
	assert.Equal(t, "2024-03-13", task.StartDate.String())
	assert.Equal(t, "2024-03-17", task.EndDate.String())
}

func TestWheelIgnoredDuringDrag(t *testing.T) {
	v, _ := newTestTimeline(t)
	idx, row := taskLayoutRow(t, v)

	x := labelColWidth + (row.startCol+row.endCol)/2
	y := chartTopRows + idx

	v.pan(8)
	before := v.scroll

	v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, before, v.scroll, "wheel must not pan mid-gesture")

	v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	v.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Equal(t, before+panStepCells, v.scroll)
}

func TestTaskVisibleRespectsScope(t *testing.T) {
	v, _ := newTestTimeline(t)

	assert.True(t, v.taskVisible("p1", "t1"))
	assert.False(t, v.taskVisible("p1", "missing"))

	v.scope = "other"
	assert.False(t, v.taskVisible("p1", "t1"))
}
