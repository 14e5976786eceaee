package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/PlanD600/pland-tui/internal/api"
	"github.com/PlanD600/pland-tui/internal/live"
	"github.com/PlanD600/pland-tui/internal/models"
	"github.com/PlanD600/pland-tui/internal/store"
	"github.com/PlanD600/pland-tui/internal/timeline"
	"github.com/PlanD600/pland-tui/internal/ui/styles"
	"github.com/PlanD600/pland-tui/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewTimeline
	ViewDetail
)

const loadTimeout = 30 * time.Second

type sessionLoadedMsg struct {
	viewer   *models.User
	projects []models.Project
	err      error
}

type liveEventMsg struct {
	event live.Event
	ok    bool
}

type App struct {
	api    *api.Client
	live   *live.Client
	store  *store.Store
	logger zerolog.Logger

	copy   *timeline.WorkingCopy
	coord  *timeline.Coordinator
	viewer models.User

	currentView  View
	projectList  *views.ProjectPickerView
	timelineView *views.TimelineView
	detailView   *views.TaskDetailView

	width   int
	height  int
	loadErr error
}

// Creates a new application
func NewApp(apiClient *api.Client, liveClient *live.Client, st *store.Store, logger zerolog.Logger) *App {
	return &App{
		api:         apiClient,
		live:        liveClient,
		store:       st,
		logger:      logger.With().Str("component", "ui").Logger(),
		currentView: ViewProjects,
		projectList: views.NewProjectPickerView(),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadSession, a.waitForEvent())
}

// loadSession resolves the signed-in user and the first snapshot.
func (a *App) loadSession() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		return sessionLoadedMsg{err: err}
	}
	projects, err := a.api.FetchProjectsSnapshot(ctx)
	if err != nil {
		return sessionLoadedMsg{err: err}
	}
	return sessionLoadedMsg{viewer: user, projects: projects}
}

func (a *App) fetchSnapshot() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	projects, err := a.api.FetchProjectsSnapshot(ctx)
	return views.SnapshotLoaded{Projects: projects, Err: err}
}

// waitForEvent blocks on the live channel and resumes after each event.
func (a *App) waitForEvent() tea.Cmd {
	if a.live == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-a.live.Events()
		return liveEventMsg{event: ev, ok: ok}
	}
}

func (a *App) openTimeline(scope string) tea.Cmd {
	a.currentView = ViewTimeline
	a.timelineView.SetScope(scope)
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Size every live view; only the current one paints.
		a.projectList.Update(msg)
		if a.timelineView != nil {
			a.timelineView.Update(msg)
		}
		if a.detailView != nil {
			a.detailView.Update(msg)
		}

	case sessionLoadedMsg:
		if msg.err != nil {
			a.loadErr = msg.err
			a.logger.Error().Err(msg.err).Msg("session load failed")
			return a, nil
		}
		a.loadErr = nil
		a.viewer = *msg.viewer
		a.copy = timeline.NewWorkingCopy(msg.projects)
		a.coord = timeline.NewCoordinator(a.api, a.copy, a.logger)
		a.projectList.SetProjects(a.copy.Projects(), a.viewer)
		a.timelineView = views.NewTimelineView(a.copy, a.coord, a.store, a.viewer, a.logger)

		if scope := a.lastScope(); scope != "" {
			return a, a.openTimeline(scope)
		}
		return a, nil

	case liveEventMsg:
		if !msg.ok {
			return a, nil
		}
		a.logger.Debug().
			Str("event", string(msg.event.Type)).
			Str("task", msg.event.TaskID).
			Msg("live event")
		if a.copy == nil {
			return a, a.waitForEvent()
		}
		return a, tea.Batch(a.fetchSnapshot, a.waitForEvent())

	case views.SnapshotLoaded:
		if msg.Err == nil && a.coord != nil {
			a.coord.AdoptSnapshot(msg.Projects)
			a.projectList.SetProjects(a.copy.Projects(), a.viewer)
		}
		// Fall through to the current view so it can relayout.

	case views.ScopeSelected:
		if a.timelineView == nil {
			return a, nil
		}
		return a, a.openTimeline(msg.ID)

	case views.TaskActivated:
		a.currentView = ViewDetail
		a.detailView = views.NewTaskDetailView(a.copy, a.coord, a.viewer, msg.ProjectID, msg.TaskID, a.logger)
		return a, func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		}

	case views.CloseDetail:
		a.currentView = ViewTimeline
		a.detailView = nil
		return a, func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		}

	case views.BackToProjects:
		a.currentView = ViewProjects
		if a.store != nil {
			a.store.SetSetting(store.KeyProjectScope, "")
		}
		return a, func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		}

	case tea.KeyMsg:
		if a.loadErr != nil {
			switch msg.String() {
			case "r":
				a.loadErr = nil
				return a, a.loadSession
			case "q", "ctrl+c":
				return a, tea.Quit
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTimeline:
		if a.timelineView != nil {
			_, cmd = a.timelineView.Update(msg)
		}
	case ViewDetail:
		if a.detailView != nil {
			_, cmd = a.detailView.Update(msg)
		}
	}

	return a, cmd
}

// lastScope restores the previously open timeline scope, if it still
// resolves against the snapshot.
func (a *App) lastScope() string {
	if a.store == nil {
		return ""
	}
	scope, err := a.store.GetSetting(store.KeyProjectScope)
	if err != nil || scope == "" {
		return ""
	}
	if scope == timeline.ScopeAll {
		return scope
	}
	if _, ok := a.copy.Project(scope); ok {
		return scope
	}
	return ""
}

func (a *App) View() string {
	if a.loadErr != nil {
		s := styles.NewStyles()
		return s.ErrorBanner.Render(" "+a.loadErr.Error()+" ") +
			"\n" + s.Help.Render("r retry • q quit")
	}

	switch a.currentView {
	case ViewTimeline:
		if a.timelineView != nil {
			return a.timelineView.View()
		}
	case ViewDetail:
		if a.detailView != nil {
			return a.detailView.View()
		}
	}
	return a.projectList.View()
}
