package timeline

import (
	"github.com/PlanD600/pland-tui/internal/models"
)

// clickTolerancePx is the pointer travel (per axis) under which a gesture
// counts as a click rather than a drag.
const clickTolerancePx = 5

// SessionState is the gesture machine's current state.
type SessionState int

const (
	StateIdle SessionState = iota
	// StatePending tracks a pointer-down that was refused edit entry; it
	// can still resolve to a click.
	StatePending
	StateMoving
	StateResizing
)

// Edge names a resize handle.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// Guard is the selection-suppression resource engaged while a gesture is
// active. Release runs on every exit path, including cancellation.
type Guard interface {
	Acquire()
	Release()
}

// NopGuard is a Guard that does nothing.
type NopGuard struct{}

func (NopGuard) Acquire() {}
func (NopGuard) Release() {}

// Result is the outcome of a completed gesture.
type Result struct {
	TaskID    string
	ProjectID string

	// Clicked marks a gesture within the click tolerance; no dates were
	// changed and the task should be activated (detail view).
	Clicked bool

	// Changed marks a drag that actually produced new dates.
	Changed  bool
	NewStart models.Date
	NewEnd   models.Date
}

// Session tracks one pointer gesture over the timeline. At most one session
// is active at a time; Begin calls while active are ignored (pointer
// semantics deliver one down per up).
type Session struct {
	copy  *WorkingCopy
	guard Guard

	state  SessionState
	mapper Mapper

	taskID    string
	projectID string
	edge      Edge

	downX, downY int

	// Dates captured at pointer-down. Resize clamps against these, not the
	// live opposite edge; only one handle can be active per session.
	anchorStart models.Date
	anchorEnd   models.Date
}

// NewSession creates an idle gesture session over the working copy.
func NewSession(copy *WorkingCopy, guard Guard) *Session {
	if guard == nil {
		guard = NopGuard{}
	}
	return &Session{copy: copy, guard: guard}
}

// State returns the current machine state.
func (s *Session) State() SessionState { return s.state }

// Active reports whether a gesture is in progress.
func (s *Session) Active() bool { return s.state != StateIdle }

// BeginMove starts a move gesture on a task bar. Entry requires edit
// permission and a plottable task; otherwise the gesture degenerates to a
// click candidate.
func (s *Session) BeginMove(viewer models.User, project models.Project, task models.Task, m Mapper, x, y int) {
	s.begin(viewer, project, task, m, x, y, StateMoving, EdgeStart)
}

// BeginResize starts a resize gesture on one of the bar's handles.
func (s *Session) BeginResize(viewer models.User, project models.Project, task models.Task, m Mapper, edge Edge, x, y int) {
	s.begin(viewer, project, task, m, x, y, StateResizing, edge)
}

func (s *Session) begin(viewer models.User, project models.Project, task models.Task, m Mapper, x, y int, target SessionState, edge Edge) {
	if s.state != StateIdle {
		return
	}

	s.mapper = m
	s.taskID = task.ID
	s.projectID = project.ID
	s.edge = edge
	s.downX, s.downY = x, y

	if !task.Dated() || !CanEditTask(viewer, project) {
		s.state = StatePending
		return
	}

	s.anchorStart = *task.StartDate
	s.anchorEnd = *task.EndDate
	s.state = target
	s.guard.Acquire()
}

// Drag recomputes the dragged task's dates from the pointer position and
// writes them into the working copy. The change is preview only; nothing is
// persisted until End.
func (s *Session) Drag(x int) {
	deltaPx := float64(x - s.downX)

	switch s.state {
	case StateMoving:
		days := s.mapper.DeltaDays(deltaPx)
		start := s.anchorStart.AddDays(days)
		end := s.anchorEnd.AddDays(days)
		s.copy.ApplyPatch(s.taskID, models.TaskPatch{StartDate: &start, EndDate: &end})

	case StateResizing:
		days := s.mapper.DeltaDays(deltaPx)
		if s.edge == EdgeStart {
			start := s.anchorStart.AddDays(days)
			// The dragged edge may not cross the fixed end; the bar stops
			// one day short.
			if !start.Before(s.anchorEnd) {
				start = s.anchorEnd.AddDays(-1)
			}
			s.copy.ApplyPatch(s.taskID, models.TaskPatch{StartDate: &start})
		} else {
			end := s.anchorEnd.AddDays(days)
			if !end.After(s.anchorStart) {
				end = s.anchorStart.AddDays(1)
			}
			s.copy.ApplyPatch(s.taskID, models.TaskPatch{EndDate: &end})
		}
	}
}

// End finishes the gesture at the pointer-up position and returns what
// happened. A release within the click tolerance reverts any preview and
// reports a click, even if a move or resize session was entered.
func (s *Session) End(x, y int) Result {
	if s.state == StateIdle {
		return Result{}
	}

	res := Result{TaskID: s.taskID, ProjectID: s.projectID}
	state := s.state
	s.finish(state)

	dx, dy := x-s.downX, y-s.downY
	if abs(dx) <= clickTolerancePx && abs(dy) <= clickTolerancePx {
		if state == StateMoving || state == StateResizing {
			s.revertPreview()
		}
		res.Clicked = true
		return res
	}

	if state == StatePending {
		return res
	}

	task, ok := s.copy.Task(s.taskID)
	if !ok || !task.Dated() {
		return res
	}
	res.NewStart = *task.StartDate
	res.NewEnd = *task.EndDate
	res.Changed = !res.NewStart.Equal(s.anchorStart) || !res.NewEnd.Equal(s.anchorEnd)
	return res
}

// Cancel aborts an in-progress gesture, reverting any preview.
func (s *Session) Cancel() {
	if s.state == StateIdle {
		return
	}
	state := s.state
	s.finish(state)
	if state == StateMoving || state == StateResizing {
		s.revertPreview()
	}
}

// finish transitions to idle and releases the guard when one was held.
func (s *Session) finish(from SessionState) {
	s.state = StateIdle
	if from == StateMoving || from == StateResizing {
		s.guard.Release()
	}
}

func (s *Session) revertPreview() {
	start, end := s.anchorStart, s.anchorEnd
	s.copy.ApplyPatch(s.taskID, models.TaskPatch{StartDate: &start, EndDate: &end})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
