package views

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/PlanD600/pland-tui/internal/models"
	"github.com/PlanD600/pland-tui/internal/store"
	"github.com/PlanD600/pland-tui/internal/timeline"
	"github.com/PlanD600/pland-tui/internal/ui/keys"
	"github.com/PlanD600/pland-tui/internal/ui/styles"
)

const (
	// pxPerCell maps a terminal cell onto the mapper's pixel space.
	pxPerCell = 10.0

	labelColWidth  = 26
	chartTopRows   = 2 // header + axis
	panStepCells   = 4
	persistTimeout = 10 * time.Second
)

// TaskActivated is emitted when a bar is clicked or selected with enter.
type TaskActivated struct {
	ProjectID string
	TaskID    string
}

// BackToProjects asks the shell to return to the project picker.
type BackToProjects struct{}

// SnapshotLoaded carries a fresh authoritative snapshot. The shell adopts
// it into the working copy before forwarding it here.
type SnapshotLoaded struct {
	Projects []models.Project
	Err      error
}

type persistDoneMsg struct {
	out timeline.Outcome
}

// dragGuard suspends wheel panning and cursor movement while a bar
// gesture is in flight.
type dragGuard struct {
	held bool
}

func (g *dragGuard) Acquire() { g.held = true }
func (g *dragGuard) Release() { g.held = false }

// layoutRow maps one drawn chart line back to what it shows, for mouse
// hit-testing. Bar rows carry the drawn column range.
type layoutRow struct {
	projectID string
	taskID    string // empty on project span rows
	bar       *timeline.Bar
	startCol  int
	endCol    int
	editable  bool
}

// TimelineView is the interactive chart: projects stacked as rows of task
// bars, draggable and resizable under the viewer's permissions.
type TimelineView struct {
	styles *styles.Styles
	keys   keys.KeyMap
	logger zerolog.Logger

	copy    *timeline.WorkingCopy
	coord   *timeline.Coordinator
	store   *store.Store
	viewer  models.User
	guard   *dragGuard
	session *timeline.Session

	scope       string
	policy      timeline.RangePolicy
	customStart models.Date
	customEnd   models.Date
	rtl         bool

	window timeline.Window
	mapper timeline.Mapper
	ppd    float64
	scroll int // leftmost visible logical cell
	cursor int // index into task rows of layout

	rows   []timeline.RenderRow
	layout []layoutRow

	width   int
	height  int
	errMsg  string
	syncing bool
}

// NewTimelineView builds the chart over a shared working copy. Zoom,
// range policy and direction come back from the settings store.
func NewTimelineView(copy *timeline.WorkingCopy, coord *timeline.Coordinator, st *store.Store, viewer models.User, logger zerolog.Logger) *TimelineView {
	guard := &dragGuard{}
	v := &TimelineView{
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		logger:  logger.With().Str("view", "timeline").Logger(),
		copy:    copy,
		coord:   coord,
		store:   st,
		viewer:  viewer,
		guard:   guard,
		session: timeline.NewSession(copy, guard),
		scope:   timeline.ScopeAll,
		policy:  timeline.RangeCurrentMonth,
		ppd:     30,
	}

	if st != nil {
		v.ppd = timeline.ClampZoom(st.GetFloat(store.KeyZoom, v.ppd))
		if raw, err := st.GetSetting(store.KeyRangePolicy); err == nil && raw != "" {
			v.policy = timeline.RangePolicy(raw)
		}
		if raw, err := st.GetSetting(store.KeyCustomStart); err == nil && raw != "" {
			if d, err := models.ParseDate(raw); err == nil {
				v.customStart = d
			}
		}
		if raw, err := st.GetSetting(store.KeyCustomEnd); err == nil && raw != "" {
			if d, err := models.ParseDate(raw); err == nil {
				v.customEnd = d
			}
		}
		if raw, err := st.GetSetting(store.KeyDirection); err == nil {
			v.rtl = raw == "rtl"
		}
	}

	v.relayout()
	return v
}

// SetScope switches the chart to one project or the "all" scope.
func (v *TimelineView) SetScope(id string) {
	v.scope = id
	v.scroll = 0
	v.cursor = 0
	if v.store != nil {
		if err := v.store.SetSetting(store.KeyProjectScope, id); err != nil {
			v.logger.Warn().Err(err).Msg("failed to save project scope")
		}
	}
	v.relayout()
}

func (v *TimelineView) Init() tea.Cmd {
	return nil
}

func (v *TimelineView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.relayout()
		return v, nil

	case tea.MouseMsg:
		return v.updateMouse(msg)

	case tea.KeyMsg:
		return v.updateKeys(msg)

	case persistDoneMsg:
		resync, userErr := v.coord.Reconcile(msg.out, v.taskVisible)
		if userErr != "" {
			v.errMsg = userErr
		}
		v.relayout()
		if resync {
			v.syncing = true
			return v, v.resyncCmd()
		}
		return v, nil

	case SnapshotLoaded:
		v.syncing = false
		if msg.Err != nil {
			v.errMsg = fmt.Sprintf("refresh failed: %v", msg.Err)
		}
		v.relayout()
		return v, nil
	}

	return v, nil
}

func (v *TimelineView) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.guard.held {
		// Only escape is honored mid-gesture.
		if key.Matches(msg, v.keys.Back) {
			v.session.Cancel()
			v.relayout()
		}
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Refresh):
		v.syncing = true
		return v, v.resyncCmd()

	case key.Matches(msg, v.keys.ZoomIn):
		v.setZoom(timeline.ZoomIn(v.ppd))

	case key.Matches(msg, v.keys.ZoomOut):
		v.setZoom(timeline.ZoomOut(v.ppd))

	case key.Matches(msg, v.keys.Fit):
		v.setZoom(timeline.FitZoom(v.chartWidth()*int(pxPerCell), v.window.TotalDays))
		v.scroll = 0

	case key.Matches(msg, v.keys.Range):
		v.cyclePolicy()

	case msg.String() == "d":
		v.rtl = !v.rtl
		dir := "ltr"
		if v.rtl {
			dir = "rtl"
		}
		if v.store != nil {
			if err := v.store.SetSetting(store.KeyDirection, dir); err != nil {
				v.logger.Warn().Err(err).Msg("failed to save direction")
			}
		}
		v.relayout()

	case key.Matches(msg, v.keys.Left):
		v.pan(-panStepCells)

	case key.Matches(msg, v.keys.Right):
		v.pan(panStepCells)

	case key.Matches(msg, v.keys.Up):
		v.moveCursor(-1)

	case key.Matches(msg, v.keys.Down):
		v.moveCursor(1)

	case key.Matches(msg, v.keys.Enter):
		if row, ok := v.cursorRow(); ok && row.taskID != "" {
			return v, activateTask(row.projectID, row.taskID)
		}
	}

	return v, nil
}

func (v *TimelineView) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	xPx := int(float64(msg.X) * pxPerCell)
	yPx := int(float64(msg.Y) * pxPerCell)

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if !v.guard.held {
				v.pan(-panStepCells)
			}
		case tea.MouseButtonWheelDown:
			if !v.guard.held {
				v.pan(panStepCells)
			}
		case tea.MouseButtonLeft:
			v.beginGesture(msg.X, msg.Y, xPx, yPx)
		}

	case tea.MouseActionMotion:
		if v.session.Active() {
			v.session.Drag(xPx)
			v.relayout()
		}

	case tea.MouseActionRelease:
		if v.session.Active() {
			res := v.session.End(xPx, yPx)
			v.relayout()
			if res.Clicked {
				return v, activateTask(res.ProjectID, res.TaskID)
			}
			if res.Changed {
				return v, v.persistDatesCmd(res)
			}
		}
	}

	return v, nil
}

// beginGesture hit-tests a left press against the drawn bars and opens a
// move or resize session. Presses on a bar's outermost cells grab the
// matching edge.
func (v *TimelineView) beginGesture(cellX, cellY, xPx, yPx int) {
	rowIdx := cellY - chartTopRows
	if rowIdx < 0 || rowIdx >= len(v.layout) {
		return
	}
	row := v.layout[rowIdx]
	if row.taskID == "" || row.bar == nil {
		return
	}

	col := cellX - labelColWidth
	if col < row.startCol || col > row.endCol {
		return
	}

	project, ok := v.copy.Project(row.projectID)
	if !ok {
		return
	}
	task, ok := v.copy.Task(row.taskID)
	if !ok {
		return
	}

	wide := row.endCol > row.startCol
	switch {
	case wide && col == row.startCol:
		v.session.BeginResize(v.viewer, project, task, v.mapper, v.edgeAt(false), xPx, yPx)
	case wide && col == row.endCol:
		v.session.BeginResize(v.viewer, project, task, v.mapper, v.edgeAt(true), xPx, yPx)
	default:
		v.session.BeginMove(v.viewer, project, task, v.mapper, xPx, yPx)
	}
}

// edgeAt names the schedule edge drawn at a bar's screen end. Bars run
// rightward in LTR and leftward in RTL, so the right end of an RTL bar is
// the task's start.
func (v *TimelineView) edgeAt(rightEnd bool) timeline.Edge {
	if rightEnd != v.rtl {
		return timeline.EdgeEnd
	}
	return timeline.EdgeStart
}

func activateTask(projectID, taskID string) tea.Cmd {
	return func() tea.Msg {
		return TaskActivated{ProjectID: projectID, TaskID: taskID}
	}
}

func (v *TimelineView) persistDatesCmd(res timeline.Result) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		return persistDoneMsg{out: v.coord.PersistDates(ctx, res.ProjectID, res.TaskID, res.NewStart, res.NewEnd)}
	}
}

func (v *TimelineView) resyncCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		projects, err := v.coord.Resync(ctx)
		return SnapshotLoaded{Projects: projects, Err: err}
	}
}

// taskVisible reports whether a persisted task still belongs on screen.
// Stale outcomes for tasks that scrolled out of scope are dropped.
func (v *TimelineView) taskVisible(projectID, taskID string) bool {
	if v.scope != timeline.ScopeAll && v.scope != projectID {
		return false
	}
	_, ok := v.copy.Task(taskID)
	return ok
}

func (v *TimelineView) setZoom(ppd float64) {
	v.ppd = ppd
	if v.store != nil {
		if err := v.store.SetFloat(store.KeyZoom, ppd); err != nil {
			v.logger.Warn().Err(err).Msg("failed to save zoom")
		}
	}
	v.relayout()
}

func (v *TimelineView) cyclePolicy() {
	idx := 0
	for i, p := range timeline.RangePolicies {
		if p == v.policy {
			idx = i
			break
		}
	}
	for {
		idx = (idx + 1) % len(timeline.RangePolicies)
		next := timeline.RangePolicies[idx]
		if next == timeline.RangeCustom && (v.customStart.IsZero() || v.customEnd.IsZero()) {
			continue
		}
		v.policy = next
		break
	}
	v.scroll = 0
	if v.store != nil {
		if err := v.store.SetSetting(store.KeyRangePolicy, string(v.policy)); err != nil {
			v.logger.Warn().Err(err).Msg("failed to save range policy")
		}
	}
	v.relayout()
}

func (v *TimelineView) pan(cells int) {
	v.scroll = clamp(v.scroll+cells, 0, max(0, v.totalCells()-1))
	v.relayout()
}

func (v *TimelineView) moveCursor(delta int) {
	taskRows := v.taskRowIndexes()
	if len(taskRows) == 0 {
		return
	}
	pos := 0
	for i, idx := range taskRows {
		if idx == v.cursor {
			pos = i
			break
		}
	}
	pos = clamp(pos+delta, 0, len(taskRows)-1)
	v.cursor = taskRows[pos]
}

func (v *TimelineView) cursorRow() (layoutRow, bool) {
	if v.cursor < 0 || v.cursor >= len(v.layout) {
		return layoutRow{}, false
	}
	return v.layout[v.cursor], true
}

func (v *TimelineView) taskRowIndexes() []int {
	var out []int
	for i, row := range v.layout {
		if row.taskID != "" {
			out = append(out, i)
		}
	}
	return out
}

// relayout recomputes the window, mapper, visible rows and the hit-test
// table from the current working copy. Runs after every state change that
// can move a bar.
func (v *TimelineView) relayout() {
	visible := timeline.VisibleRows(v.copy.Projects(), v.viewer, v.scope)

	var tasks []models.Task
	for _, row := range visible {
		tasks = append(tasks, row.Tasks...)
	}

	v.window = timeline.ResolveWindow(v.policy, v.customStart, v.customEnd, tasks, models.Today())
	v.mapper = timeline.NewMapper(v.window.Start, v.ppd, v.rtl)
	v.rows = timeline.Render(visible, v.mapper, v.viewer)

	v.layout = v.layout[:0]
	for _, rr := range v.rows {
		span := layoutRow{projectID: rr.Project.ID}
		if rr.SpanBar != nil {
			span.bar = rr.SpanBar
			span.startCol, span.endCol = v.barCols(*rr.SpanBar)
		}
		v.layout = append(v.layout, span)

		for i := range rr.Bars {
			bar := &rr.Bars[i]
			c0, c1 := v.barCols(*bar)
			v.layout = append(v.layout, layoutRow{
				projectID: rr.Project.ID,
				taskID:    bar.Task.ID,
				bar:       bar,
				startCol:  c0,
				endCol:    c1,
				editable:  bar.Editable,
			})
		}
		for _, t := range rr.Tasks {
			if !t.Dated() {
				v.layout = append(v.layout, layoutRow{
					projectID: rr.Project.ID,
					taskID:    t.ID,
					startCol:  -1,
					endCol:    -1,
				})
			}
		}
	}

	if v.cursor >= len(v.layout) {
		v.cursor = max(0, len(v.layout)-1)
	}
}

// barCols converts a bar's pixel offset and width to drawn screen columns
// within the chart area, mirrored when the timeline runs right-to-left.
func (v *TimelineView) barCols(bar timeline.Bar) (int, int) {
	offsetCell := int(math.Round(bar.OffsetPx / pxPerCell))
	widthCells := int(math.Round(bar.WidthPx / pxPerCell))
	if widthCells < 1 {
		widthCells = 1
	}

	if v.rtl {
		c1 := v.chartWidth() - 1 - (offsetCell - v.scroll)
		return c1 - widthCells + 1, c1
	}
	c0 := offsetCell - v.scroll
	return c0, c0 + widthCells - 1
}

// colFor is barCols for a single logical cell.
func (v *TimelineView) colFor(logicalCell int) int {
	if v.rtl {
		return v.chartWidth() - 1 - (logicalCell - v.scroll)
	}
	return logicalCell - v.scroll
}

func (v *TimelineView) chartWidth() int {
	return max(20, v.width-labelColWidth)
}

func (v *TimelineView) totalCells() int {
	return int(math.Ceil(float64(v.window.TotalDays) * v.ppd / pxPerCell))
}

// View renders the view
func (v *TimelineView) View() string {
	if v.width == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n")
	b.WriteString(v.renderAxis())
	b.WriteString("\n")

	li := 0
	for _, rr := range v.rows {
		b.WriteString(v.renderProjectRow(rr, li == v.cursor))
		b.WriteString("\n")
		li++
		for i := range rr.Bars {
			b.WriteString(v.renderTaskRow(rr.Bars[i].Task, &rr.Bars[i], li == v.cursor))
			b.WriteString("\n")
			li++
		}
		for _, t := range rr.Tasks {
			if !t.Dated() {
				b.WriteString(v.renderTaskRow(t, nil, li == v.cursor))
				b.WriteString("\n")
				li++
			}
		}
	}

	if len(v.rows) == 0 {
		b.WriteString(v.styles.TitleMuted.Render("  Nothing scheduled in this range"))
		b.WriteString("\n")
	}

	b.WriteString(v.renderFooter())
	return b.String()
}

func (v *TimelineView) renderHeader() string {
	scopeName := "All projects"
	if v.scope != timeline.ScopeAll {
		if p, ok := v.copy.Project(v.scope); ok {
			scopeName = p.Title
		}
	}

	dir := "LTR"
	if v.rtl {
		dir = "RTL"
	}
	meta := fmt.Sprintf("%s • %.0fpx/day • %s", v.policy.Label(), v.ppd, dir)
	if v.syncing {
		meta += " • syncing..."
	}

	left := v.styles.Title.Render(scopeName)
	right := v.styles.TitleMuted.Render(meta)
	gap := v.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderAxis draws month labels at each month boundary inside the window.
func (v *TimelineView) renderAxis() string {
	width := v.chartWidth()
	row := make([]rune, width)
	for i := range row {
		row[i] = ' '
	}

	cur := models.NewDate(v.window.Start.Year(), v.window.Start.Month(), 1)
	if cur.Before(v.window.Start) {
		cur = v.window.Start
	}
	end := v.window.End()
	for cur.Before(end) {
		logical := int(math.Round(v.mapper.Offset(cur) / pxPerCell))
		col := v.colFor(logical)
		label := []rune(cur.Format("Jan 06"))
		if v.rtl {
			col -= len(label) - 1
		}
		for i, r := range label {
			if col+i >= 0 && col+i < width {
				row[col+i] = r
			}
		}
		cur = models.NewDate(cur.Year(), cur.Month()+1, 1)
	}

	return strings.Repeat(" ", labelColWidth) + v.styles.AxisLabel.Render(string(row))
}

func (v *TimelineView) renderProjectRow(rr timeline.RenderRow, selected bool) string {
	label := truncate(rr.Project.Title, labelColWidth-2)
	if rr.Project.Archived {
		label = truncate(rr.Project.Title+" (archived)", labelColWidth-2)
	}

	style := v.styles.Title
	if selected {
		style = v.styles.ListSelected
	}
	labelCell := style.Render(padRight(label, labelColWidth))

	if rr.SpanBar == nil {
		return labelCell + v.emptyChartLine()
	}
	c0, c1 := v.barCols(*rr.SpanBar)
	return labelCell + v.chartLine(c0, c1, v.styles.SpanBar, '─', '┄')
}

func (v *TimelineView) renderTaskRow(task models.Task, bar *timeline.Bar, selected bool) string {
	label := "  " + truncate(task.Title, labelColWidth-4)
	style := v.styles.RowLabel
	if selected {
		style = v.styles.ListSelected
	}
	labelCell := style.Render(padRight(label, labelColWidth))

	if bar == nil {
		return labelCell + v.styles.GridLine.Render("(unscheduled)")
	}

	barStyle := lipgloss.NewStyle().Foreground(styles.StatusColor(task.Status))
	fill := '█'
	if !bar.Editable {
		fill = '▒'
	}
	c0, c1 := v.barCols(*bar)
	return labelCell + v.chartLine(c0, c1, barStyle, fill, fill)
}

// chartLine paints one chart row: a bar over [c0,c1] (screen columns, may
// be off-screen) with the today marker threaded through the gaps. The
// edge rune marks the outer cells so resize handles read differently from
// the body.
func (v *TimelineView) chartLine(c0, c1 int, barStyle lipgloss.Style, fill, edge rune) string {
	width := v.chartWidth()
	todayCol := v.todayCol()

	var b strings.Builder
	for col := 0; col < width; col++ {
		switch {
		case col >= c0 && col <= c1:
			r := fill
			if col == c0 || col == c1 {
				r = edge
			}
			b.WriteString(barStyle.Render(string(r)))
		case col == todayCol:
			b.WriteString(v.styles.TodayMarker.Render("┊"))
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func (v *TimelineView) emptyChartLine() string {
	width := v.chartWidth()
	todayCol := v.todayCol()

	var b strings.Builder
	for col := 0; col < width; col++ {
		if col == todayCol {
			b.WriteString(v.styles.TodayMarker.Render("┊"))
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func (v *TimelineView) todayCol() int {
	today := models.Today()
	if !v.window.Contains(today) {
		return -1
	}
	logical := int(math.Round(v.mapper.Offset(today) / pxPerCell))
	return v.colFor(logical)
}

func (v *TimelineView) renderFooter() string {
	if v.errMsg != "" {
		banner := v.styles.ErrorBanner.Render(" " + v.errMsg + " ")
		hint := v.styles.TitleMuted.Render(" press r to refresh")
		return "\n" + banner + hint
	}

	return v.styles.Help.Render(fmt.Sprintf(
		"%s open • %s pan • %s/%s zoom • %s fit • %s range • %s direction • %s refresh • %s back",
		v.styles.HelpKey.Render("↵"),
		v.styles.HelpKey.Render("←/→"),
		v.styles.HelpKey.Render("+"),
		v.styles.HelpKey.Render("-"),
		v.styles.HelpKey.Render("0"),
		v.styles.HelpKey.Render("w"),
		v.styles.HelpKey.Render("d"),
		v.styles.HelpKey.Render("r"),
		v.styles.HelpKey.Render("esc"),
	))
}

func truncate(s string, width int) string {
	if width < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}

func padRight(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

