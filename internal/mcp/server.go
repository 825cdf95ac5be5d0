// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the subtask inventory as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/subtask-manager/internal/core"
	"github.com/valter-silva-au/subtask-manager/internal/observability"
	"github.com/valter-silva-au/subtask-manager/internal/params"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

// Server wraps a built inventory and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	inventory   core.SubtaskManager
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
	renderStyle []models.ParamStyle

	// includeCommon applies to get_tasks calls that omit include_common.
	includeCommon bool
}

// NewServer creates an MCP server over inventory. metricsCalc and
// alertEngine may be nil when observability is disabled. styles restricts
// render_task to the given placeholder styles when the caller names none.
// includeCommon is the default for get_tasks calls without include_common.
func NewServer(inventory core.SubtaskManager, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, styles []models.ParamStyle, includeCommon bool, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		inventory:   inventory,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
		renderStyle: styles,

		includeCommon: includeCommon,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "stm", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type subtaskOutput struct {
	Key        string         `json:"key,omitempty"`
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Stage      string         `json:"stage,omitempty"`
	SystemType string         `json:"system_type,omitempty"`
	Entity     string         `json:"entity,omitempty"`
	TaskType   string         `json:"task_type,omitempty"`
	IsCommon   bool           `json:"is_common"`
	Params     []models.Param `json:"params,omitempty"`
	Command    string         `json:"command,omitempty"`
}

type getTasksInput struct {
	Stage          string `json:"stage,omitempty" jsonschema:"stage label or folder alias (e.g. LOAD, 03_load, l)"`
	Entity         string `json:"entity,omitempty" jsonschema:"exact entity folder name"`
	SystemType     string `json:"system_type,omitempty" jsonschema:"system type alias (e.g. pg, postgres, ch). Unknown aliases are rejected."`
	TaskType       string `json:"task_type,omitempty" jsonschema:"task type label or file extension (e.g. SQL, py)"`
	IsCommon       *bool  `json:"is_common,omitempty" jsonschema:"only common (true) or only non-common (false) tasks"`
	IncludeCommon  *bool  `json:"include_common,omitempty" jsonschema:"append common tasks to the result. Defaults to the query.include_common setting."`
	IncludeCommand bool   `json:"include_command,omitempty" jsonschema:"include each task's command text"`
}

type getTasksOutput struct {
	Tasks []subtaskOutput `json:"tasks"`
	Count int             `json:"count"`
}

type getTaskInput struct {
	Name   string `json:"name" jsonschema:"required,task name (file name without extension)"`
	Entity string `json:"entity,omitempty" jsonschema:"exact entity the task must belong to"`
}

type classifyPathInput struct {
	Path string `json:"path" jsonschema:"required,file path relative to the inventory root (e.g. 01_extract/pg/customers/load.sql)"`
}

type listTaxonomyInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"stage, system_type or task_type. Empty lists every kind."`
}

type listTaxonomyOutput struct {
	Entries []taxonomy.Descriptor `json:"entries"`
	Count   int                   `json:"count"`
}

type renderTaskInput struct {
	Name   string            `json:"name" jsonschema:"required,task name (file name without extension)"`
	Entity string            `json:"entity,omitempty" jsonschema:"exact entity the task must belong to"`
	Values map[string]string `json:"values,omitempty" jsonschema:"placeholder values keyed by name"`
	Styles []string          `json:"styles,omitempty" jsonschema:"placeholder styles to substitute (curly, double_curly, dollar, dollar_brace, double_underscore, percent, angle)"`
}

type renderTaskOutput struct {
	Task       subtaskOutput `json:"task"`
	Unresolved []string      `json:"unresolved,omitempty"`
}

type summarizeInput struct{}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	Builds          int            `json:"builds"`
	BuildFailures   int            `json:"build_failures"`
	BuildsByRoot    map[string]int `json:"builds_by_root"`
	LastSubtasks    int            `json:"last_subtask_count"`
	AvgBuildMillis  float64        `json:"avg_build_ms"`
	MaxBuildMillis  int64          `json:"max_build_ms"`
	LastBuildFailed bool           `json:"last_build_failed"`
	LastError       string         `json:"last_error,omitempty"`
	EventCount      int            `json:"event_count"`
	OldestEvent     string         `json:"oldest_event,omitempty"`
	NewestEvent     string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_tasks",
		Description: "List subtasks matching every given filter. Common tasks are appended unless include_common is false.",
	}, s.handleGetTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get the first subtask with the given name, optionally restricted to an entity. Includes the command text.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "classify_path",
		Description: "Classify a path relative to the inventory root into stage, system type, entity and task type without reading the file.",
	}, s.handleClassifyPath)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_taxonomy",
		Description: "List stages, system types and task types with their ids, aliases and extensions.",
	}, s.handleListTaxonomy)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "render_task",
		Description: "Substitute placeholder values into a subtask's command and report placeholders left unresolved.",
	}, s.handleRenderTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "summarize",
		Description: "Count subtasks by stage, system type, task type and entity.",
	}, s.handleSummarize)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get inventory build metrics from the event log.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate inventory health alerts (failing, stale and slow builds).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleGetTasks(_ context.Context, _ *gomcp.CallToolRequest, input getTasksInput) (*gomcp.CallToolResult, getTasksOutput, error) {
	include := input.IncludeCommon
	if include == nil {
		include = models.Ptr(s.includeCommon)
	}
	tasks, err := s.inventory.GetTasks(models.TaskFilter{
		Stage:         strings.TrimSpace(input.Stage),
		Entity:        input.Entity,
		SystemType:    strings.TrimSpace(input.SystemType),
		TaskType:      strings.TrimSpace(input.TaskType),
		IsCommon:      input.IsCommon,
		IncludeCommon: include,
	})
	if err != nil {
		return errorResult(err.Error()), getTasksOutput{Tasks: []subtaskOutput{}}, nil
	}

	keys := keysByTask(tasks)
	out := getTasksOutput{Tasks: make([]subtaskOutput, len(tasks)), Count: len(tasks)}
	for i, t := range tasks {
		o := subtaskToOutput(t, input.IncludeCommand)
		o.Key = keys[t]
		out.Tasks[i] = o
	}
	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, subtaskOutput, error) {
	if input.Name == "" {
		return errorResult("name is required"), subtaskOutput{}, nil
	}
	task, err := s.inventory.GetTask(input.Name, input.Entity)
	if err != nil {
		return errorResult(err.Error()), subtaskOutput{}, nil
	}
	return nil, subtaskToOutput(task, true), nil
}

func (s *Server) handleClassifyPath(_ context.Context, _ *gomcp.CallToolRequest, input classifyPathInput) (*gomcp.CallToolResult, subtaskOutput, error) {
	if input.Path == "" {
		return errorResult("path is required"), subtaskOutput{}, nil
	}
	if filepath.IsAbs(input.Path) {
		return errorResult("path must be relative to the inventory root"), subtaskOutput{}, nil
	}
	root := s.inventory.BasePath()
	sub, err := core.Classify(root, filepath.Join(root, filepath.FromSlash(input.Path)))
	if err != nil {
		return errorResult(err.Error()), subtaskOutput{}, nil
	}
	return nil, subtaskToOutput(sub, false), nil
}

func (s *Server) handleListTaxonomy(_ context.Context, _ *gomcp.CallToolRequest, input listTaxonomyInput) (*gomcp.CallToolResult, listTaxonomyOutput, error) {
	entries, err := taxonomy.Catalog(input.Kind)
	if err != nil {
		return errorResult(err.Error()), listTaxonomyOutput{Entries: []taxonomy.Descriptor{}}, nil
	}
	return nil, listTaxonomyOutput{Entries: entries, Count: len(entries)}, nil
}

func (s *Server) handleRenderTask(_ context.Context, _ *gomcp.CallToolRequest, input renderTaskInput) (*gomcp.CallToolResult, renderTaskOutput, error) {
	if input.Name == "" {
		return errorResult("name is required"), renderTaskOutput{}, nil
	}

	styles := s.renderStyle
	if len(input.Styles) > 0 {
		styles = make([]models.ParamStyle, 0, len(input.Styles))
		for _, name := range input.Styles {
			st, err := params.ParseStyle(name)
			if err != nil {
				return errorResult(err.Error()), renderTaskOutput{}, nil
			}
			styles = append(styles, st)
		}
	}

	task, err := s.inventory.GetTask(input.Name, input.Entity)
	if err != nil {
		return errorResult(err.Error()), renderTaskOutput{}, nil
	}

	rendered := core.RenderSubtask(task, input.Values, styles)
	return nil, renderTaskOutput{
		Task:       subtaskToOutput(&rendered.Subtask, true),
		Unresolved: rendered.Unresolved,
	}, nil
}

func (s *Server) handleSummarize(_ context.Context, _ *gomcp.CallToolRequest, _ summarizeInput) (*gomcp.CallToolResult, core.Summary, error) {
	return nil, s.inventory.Summarize(), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	empty := metricsOutput{BuildsByRoot: map[string]int{}}
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), empty, nil
	}

	since := input.Since
	if since == "" {
		since = "7d"
	}
	sinceTime, err := ParseSince(since, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), empty, nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), empty, nil
	}

	out := metricsOutput{
		Builds:          metrics.Builds,
		BuildFailures:   metrics.BuildFailures,
		BuildsByRoot:    metrics.BuildsByRoot,
		LastSubtasks:    metrics.LastSubtasks,
		AvgBuildMillis:  metrics.AvgBuildMillis,
		MaxBuildMillis:  metrics.MaxBuildMillis,
		LastBuildFailed: metrics.LastBuildFailed,
		LastError:       metrics.LastError,
		EventCount:      metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	out := getAlertsOutput{Alerts: make([]alertOutput, len(alerts)), Count: len(alerts)}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func subtaskToOutput(t *models.Subtask, withCommand bool) subtaskOutput {
	out := subtaskOutput{
		ID:       t.ID,
		Name:     t.Name,
		Path:     t.Path,
		Entity:   t.EntityName(),
		IsCommon: t.IsCommon,
		Params:   t.Params,
	}
	if t.Stage != nil {
		out.Stage = t.Stage.String()
	}
	if t.SystemType != nil {
		out.SystemType = t.SystemType.String()
	}
	if t.TaskType != nil {
		out.TaskType = t.TaskType.String()
	}
	if withCommand {
		out.Command = t.Command
	}
	return out
}

// keysByTask inverts core.KeyByStem so each task can carry its key.
func keysByTask(tasks []*models.Subtask) map[*models.Subtask]string {
	keys := make(map[*models.Subtask]string, len(tasks))
	for key, t := range core.KeyByStem(tasks) {
		keys[t] = key
	}
	return keys
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince parses a human-friendly duration like "7d" or "24h" into the
// corresponding instant before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	var num int
	if _, err := fmt.Sscanf(s[:len(s)-1], "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q: must not be negative", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
