package views

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/PlanD600/pland-tui/internal/models"
	"github.com/PlanD600/pland-tui/internal/timeline"
	"github.com/PlanD600/pland-tui/internal/ui/keys"
	"github.com/PlanD600/pland-tui/internal/ui/styles"
)

// scopeItem is one entry in the project picker: a project, or the
// synthetic "All projects" scope.
type scopeItem struct {
	id       string
	title    string
	subtitle string
}

func (i scopeItem) Title() string       { return i.title }
func (i scopeItem) Description() string { return i.subtitle }
func (i scopeItem) FilterValue() string { return i.title }

type scopeDelegate struct {
	styles *styles.Styles
	width  int
}

func (d scopeDelegate) Height() int                               { return 2 }
func (d scopeDelegate) Spacing() int                              { return 1 }
func (d scopeDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d scopeDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(scopeItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(it.title), descStyle.Render(it.subtitle))
}

// ScopeSelected signals that the user picked a timeline scope.
type ScopeSelected struct {
	ID string // project id or timeline.ScopeAll
}

// ProjectPickerView lets the user choose which project the timeline shows.
type ProjectPickerView struct {
	list     list.Model
	delegate *scopeDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
}

// NewProjectPickerView creates the picker; projects arrive later via
// SetProjects once the snapshot is loaded.
func NewProjectPickerView() *ProjectPickerView {
	s := styles.NewStyles()
	delegate := &scopeDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectPickerView{
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
}

// SetProjects refreshes the picker from the visible project tree.
func (v *ProjectPickerView) SetProjects(projects []models.Project, viewer models.User) {
	rows := timeline.VisibleRows(projects, viewer, timeline.ScopeAll)

	items := make([]list.Item, 0, len(rows)+1)
	items = append(items, scopeItem{
		id:       timeline.ScopeAll,
		title:    "All projects",
		subtitle: fmt.Sprintf("%d projects on one timeline", len(rows)),
	})
	for _, row := range rows {
		subtitle := row.Project.Description
		if subtitle == "" {
			subtitle = fmt.Sprintf("%d tasks", len(row.Tasks))
		}
		items = append(items, scopeItem{id: row.Project.ID, title: row.Project.Title, subtitle: subtitle})
	}
	v.list.SetItems(items)
	v.loaded = true
}

func (v *ProjectPickerView) Init() tea.Cmd {
	return nil
}

func (v *ProjectPickerView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.delegate.width = msg.Width
		v.list.SetSize(msg.Width-4, msg.Height-6)
		return v, nil

	case tea.KeyMsg:
		// Let the list's filter input swallow keys while filtering.
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(scopeItem); ok {
				return v, func() tea.Msg {
					return ScopeSelected{ID: item.id}
				}
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *ProjectPickerView) View() string {
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading projects...")
	}

	if len(v.list.Items()) <= 1 {
		return lipgloss.Place(v.width, v.height,
			lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center,
				v.styles.Title.Render("No Projects"),
				"",
				v.styles.TitleMuted.Render("Projects you can see will show up here"),
			),
		)
	}

	return v.list.View() + "\n" + v.renderHelp()
}

func (v *ProjectPickerView) renderHelp() string {
	return v.styles.Help.Render(
		fmt.Sprintf("%s open timeline • %s filter • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("q"),
		),
	)
}
