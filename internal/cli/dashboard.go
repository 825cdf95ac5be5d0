package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

// Dashboard panel indices.
const (
	panelInventory = iota
	panelMetrics
	panelAlerts
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	root        string
	summary     *core.Summary
	metricsData *metricsSnapshot
	alerts      []alertSnapshot

	// State.
	loading bool
	err     error
}

type metricsSnapshot struct {
	builds         int
	buildFailures  int
	lastSubtasks   int
	avgBuildMillis float64
	eventCount     int
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	root    string
	summary *core.Summary
	metrics *metricsSnapshot
	alerts  []alertSnapshot
	err     error
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	stageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	commonStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	noneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	severityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	severityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	severityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelInventory,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.root = msg.root
		m.summary = msg.summary
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Subtask Inventory ")
	help := helpStyle.Render("tab: switch panel | r: rebuild | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Building inventory...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	inventoryPanel := m.renderInventoryPanel()
	metricsPanel := m.renderMetricsPanel()
	alertsPanel := m.renderAlertsPanel()

	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		inventoryPanel = m.applyPanelStyle(panelInventory, inventoryPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, inventoryPanel, metricsPanel, alertsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		inventoryPanel = m.applyPanelStyle(panelInventory, inventoryPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, inventoryPanel, metricsPanel, alertsPanel)
	}

	return fmt.Sprintf("%s %s\n\n%s\n\n%s", title, helpStyle.Render(m.root), body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderInventoryPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Subtasks by stage"))
	b.WriteString("\n")

	if m.summary == nil || m.summary.Total == 0 {
		b.WriteString("  No subtasks found.")
		return b.String()
	}

	// Pipeline order, then subtasks outside any stage.
	for _, stage := range taxonomy.Stages() {
		count := m.summary.ByStage[stage.String()]
		if count == 0 {
			continue
		}
		b.WriteString(stageStyle.Render(fmt.Sprintf("  %-14s %d", stage.String(), count)))
		b.WriteString("\n")
	}
	if n := m.summary.ByStage["none"] - m.summary.Common; n > 0 {
		b.WriteString(noneStyle.Render(fmt.Sprintf("  %-14s %d", "(no stage)", n)))
		b.WriteString("\n")
	}
	if m.summary.Common > 0 {
		b.WriteString(commonStyle.Render(fmt.Sprintf("  %-14s %d", "common", m.summary.Common)))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d", m.summary.Total))

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Builds (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Events", md.eventCount))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Builds", md.builds))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Failures", md.buildFailures))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Last count", md.lastSubtasks))
	b.WriteString(fmt.Sprintf("  %-14s %.0fms\n", "Avg build", md.avgBuildMillis))

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func styleForSeverity(severity string) lipgloss.Style {
	switch strings.ToLower(severity) {
	case "high":
		return severityHigh
	case "medium":
		return severityMedium
	case "low":
		return severityLow
	default:
		return lipgloss.NewStyle()
	}
}

// loadData rebuilds the inventory, which also records a build event, and
// then reads metrics and alerts so they include that build.
func loadData() tea.Msg {
	var result dataLoadedMsg

	inv, err := loadInventory()
	if err != nil {
		result.err = err
		return result
	}
	result.root = inv.BasePath()
	sum := inv.Summarize()
	result.summary = &sum

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			builds:         metrics.Builds,
			buildFailures:  metrics.BuildFailures,
			lastSubtasks:   metrics.LastSubtasks,
			avgBuildMillis: metrics.AvgBuildMillis,
			eventCount:     metrics.EventCount,
		}
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		sort.SliceStable(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the inventory, build metrics and alerts",
	Long: `Launch an interactive terminal dashboard showing subtask counts per stage,
recent build metrics and inventory health alerts.

Navigate between panels with Tab, rebuild with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if InventoryBuilder == nil {
			return fmt.Errorf("inventory builder not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
