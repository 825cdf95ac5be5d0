package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

// --- Fakes ---

type fakeScanner struct {
	files []string
	err   error
	calls int
}

func (f *fakeScanner) ScanFiles(root string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(f.files))
	for i, rel := range f.files {
		out[i] = filepath.Join(root, filepath.FromSlash(rel))
	}
	return out, nil
}

type fakeLoader struct {
	failOn string
	loaded []string
}

func (f *fakeLoader) Load(s *models.Subtask) (*models.Subtask, error) {
	if f.failOn != "" && filepath.Base(s.Path) == f.failOn {
		return nil, fmt.Errorf("cannot read %s", s.Path)
	}
	f.loaded = append(f.loaded, s.Path)
	out := s.Clone()
	out.Command = "-- " + s.Name
	return out, nil
}

type recordedEvent struct {
	Type string
	Data map[string]any
}

type fakeEvents struct {
	events []recordedEvent
}

func (f *fakeEvents) LogEvent(eventType string, data map[string]any) error {
	f.events = append(f.events, recordedEvent{Type: eventType, Data: data})
	return nil
}

// pipelineFiles is a small but representative pipeline tree.
var pipelineFiles = []string{
	"bootstrap.sql",
	"00_setup/create_schema.sql",
	"01_extract/pg/customers/orders.sql",
	"01_extract/pg/products/orders.sql",
	"extract/mysql/items.py",
	"03_load/ch/customers/merge.sql",
	"load/vertica/orders.sql",
	"04_cleanup/drop_tmp.sh",
	"teardown.sh",
}

func newTestInventory(t *testing.T, files []string) (SubtaskManager, string) {
	t.Helper()
	root := filepath.Join("srv", "pipeline")
	mgr, err := NewSubtaskManager(root, &fakeScanner{files: files}, &fakeLoader{}, nil)
	if err != nil {
		t.Fatalf("building inventory: %v", err)
	}
	return mgr, root
}

func names(tasks []*models.Subtask) []string {
	out := make([]string, len(tasks))
	for i, s := range tasks {
		out[i] = s.Name
	}
	return out
}

// --- Construction ---

func TestNewSubtaskManager_ClassifiesAndLoads(t *testing.T) {
	loader := &fakeLoader{}
	events := &fakeEvents{}
	root := "root"
	mgr, err := NewSubtaskManager(root, &fakeScanner{files: pipelineFiles}, loader, events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subs := mgr.Subtasks()
	if len(subs) != len(pipelineFiles) {
		t.Fatalf("got %d subtasks, want %d", len(subs), len(pipelineFiles))
	}
	if len(loader.loaded) != len(pipelineFiles) {
		t.Errorf("loader called %d times, want %d", len(loader.loaded), len(pipelineFiles))
	}
	if subs[0].Command != "-- bootstrap" {
		t.Errorf("Command = %q, want loaded content", subs[0].Command)
	}
	if mgr.BasePath() != root {
		t.Errorf("BasePath = %q, want %q", mgr.BasePath(), root)
	}

	if len(events.events) != 1 || events.events[0].Type != "inventory.built" {
		t.Fatalf("events = %+v, want one inventory.built", events.events)
	}
	if got := events.events[0].Data["count"]; got != len(pipelineFiles) {
		t.Errorf("event count = %v, want %d", got, len(pipelineFiles))
	}
}

func TestNewSubtaskManager_NilLoaderKeepsClassification(t *testing.T) {
	mgr, err := NewSubtaskManager("root", &fakeScanner{files: []string{"load/x.sql"}}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	subs := mgr.Subtasks()
	if len(subs) != 1 || subs[0].Command != "" || *subs[0].Stage != taxonomy.Load {
		t.Errorf("unexpected subtasks: %+v", subs)
	}
}

func TestNewSubtaskManager_NilScanner(t *testing.T) {
	if _, err := NewSubtaskManager("root", nil, nil, nil); err == nil {
		t.Fatal("expected error for nil scanner")
	}
}

func TestNewSubtaskManager_FailsFastOnMalformedPath(t *testing.T) {
	events := &fakeEvents{}
	loader := &fakeLoader{}
	files := []string{"load/x.sql", "extract/a/b/c/deep.sql", "load/y.sql"}
	_, err := NewSubtaskManager("root", &fakeScanner{files: files}, loader, events)
	if !errors.Is(err, ErrMalformedStructure) {
		t.Fatalf("expected ErrMalformedStructure, got %v", err)
	}
	for _, p := range loader.loaded {
		if filepath.Base(p) == "y.sql" {
			t.Error("build continued after the first failure")
		}
	}
	if len(events.events) != 1 || events.events[0].Type != "inventory.build_failed" {
		t.Errorf("events = %+v, want one inventory.build_failed", events.events)
	}
}

func TestNewSubtaskManager_FailsOnUnknownExtension(t *testing.T) {
	_, err := NewSubtaskManager("root", &fakeScanner{files: []string{"load/x.txt"}}, nil, nil)
	if !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("expected ErrUnknownTaskType, got %v", err)
	}
}

func TestNewSubtaskManager_FailsOnLoadError(t *testing.T) {
	_, err := NewSubtaskManager("root", &fakeScanner{files: pipelineFiles}, &fakeLoader{failOn: "merge.sql"}, nil)
	if err == nil {
		t.Fatal("expected load failure to abort the build")
	}
}

func TestNewSubtaskManager_FailsOnScanError(t *testing.T) {
	scanErr := errors.New("permission denied")
	_, err := NewSubtaskManager("root", &fakeScanner{err: scanErr}, nil, nil)
	if !errors.Is(err, scanErr) {
		t.Fatalf("expected wrapped scan error, got %v", err)
	}
}

func TestNewSubtaskManager_Idempotent(t *testing.T) {
	a, _ := newTestInventory(t, pipelineFiles)
	b, _ := newTestInventory(t, pipelineFiles)
	if !reflect.DeepEqual(a.Subtasks(), b.Subtasks()) {
		t.Error("two builds of the same tree differ")
	}
}

// --- GetTasks ---

func TestGetTasks_StageWithCommonAppended(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)

	tasks, err := mgr.GetTasks(models.TaskFilter{Stage: "LOAD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"merge", "orders", "bootstrap", "teardown"}
	if got := names(tasks); !reflect.DeepEqual(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
	if tasks[2].Stage != nil {
		t.Error("appended common task should have no stage")
	}
}

func TestGetTasks_ExcludeCommon(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, err := mgr.GetTasks(models.TaskFilter{Stage: "load", IncludeCommon: models.Ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(tasks); !reflect.DeepEqual(got, []string{"merge", "orders"}) {
		t.Errorf("names = %v", got)
	}
}

func TestGetTasks_EmptyFilterReturnsAllWithoutDuplicates(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, err := mgr.GetTasks(models.TaskFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != len(pipelineFiles) {
		t.Errorf("got %d tasks, want %d", len(tasks), len(pipelineFiles))
	}
}

func TestGetTasks_SystemTypeAlias(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, err := mgr.GetTasks(models.TaskFilter{SystemType: "postgres_db", IncludeCommon: models.Ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	for _, s := range tasks {
		if *s.SystemType != taxonomy.PostgreSQL {
			t.Errorf("unexpected system %v", *s.SystemType)
		}
	}
}

func TestGetTasks_UnknownSystemAlias(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, err := mgr.GetTasks(models.TaskFilter{SystemType: "not_a_real_db"})
	if !errors.Is(err, ErrUnknownAlias) {
		t.Fatalf("expected ErrUnknownAlias, got %v", err)
	}
	if tasks != nil {
		t.Errorf("expected no tasks, got %v", names(tasks))
	}

	// The inventory stays usable after a failed query.
	if _, err := mgr.GetTasks(models.TaskFilter{}); err != nil {
		t.Errorf("follow-up query failed: %v", err)
	}
}

func TestGetTasks_CombinedFilter(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, err := mgr.GetTasks(models.TaskFilter{
		Stage:         "e",
		SystemType:    "pg",
		Entity:        "products",
		TaskType:      "sql",
		IncludeCommon: models.Ptr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].EntityName() != "products" {
		t.Errorf("got %v", names(tasks))
	}
}

func TestGetTasks_TaskTypeLabel(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, err := mgr.GetTasks(models.TaskFilter{TaskType: "SHELL", IncludeCommon: models.Ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(tasks); !reflect.DeepEqual(got, []string{"drop_tmp", "teardown"}) {
		t.Errorf("names = %v", got)
	}
}

func TestGetTasks_IsCommonFilter(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)

	common, err := mgr.GetTasks(models.TaskFilter{IsCommon: models.Ptr(true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := names(common); !reflect.DeepEqual(got, []string{"bootstrap", "teardown"}) {
		t.Errorf("common = %v", got)
	}

	notCommon, err := mgr.GetTasks(models.TaskFilter{IsCommon: models.Ptr(false), IncludeCommon: models.Ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notCommon) != len(pipelineFiles)-2 {
		t.Errorf("got %d non-common tasks", len(notCommon))
	}
}

func TestGetTasks_UnknownStageMatchesNothing(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, err := mgr.GetTasks(models.TaskFilter{Stage: "not_a_stage", IncludeCommon: models.Ptr(false)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil result, got %v", tasks)
	}
}

func TestGetTasks_ReturnsCopies(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	tasks, _ := mgr.GetTasks(models.TaskFilter{})
	tasks[0].Name = "mutated"
	again, _ := mgr.GetTasks(models.TaskFilter{})
	if again[0].Name == "mutated" {
		t.Error("mutating a query result changed the inventory")
	}
}

// --- GetTask ---

func TestGetTask_ByNameAndEntity(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)

	s, err := mgr.GetTask("orders", "products")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.EntityName() != "products" {
		t.Errorf("Entity = %q, want products", s.EntityName())
	}

	first, err := mgr.GetTask("orders", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.EntityName() != "customers" {
		t.Errorf("first orders has entity %q, want customers", first.EntityName())
	}
}

func TestGetTask_EntityExcludesEntityLess(t *testing.T) {
	mgr, _ := newTestInventory(t, []string{"load/vertica/orders.sql"})
	_, err := mgr.GetTask("orders", "customers")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	_, err := mgr.GetTask("missing", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "task with name 'missing' not found: task not found" {
		t.Errorf("error = %q", err.Error())
	}
}

// --- KeyByStem / Summarize ---

func TestKeyByStem_SuffixesDuplicates(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	keyed := KeyByStem(mgr.Subtasks())

	if len(keyed) != len(pipelineFiles) {
		t.Fatalf("got %d keys, want %d", len(keyed), len(pipelineFiles))
	}
	for _, key := range []string{"orders", "orders#2", "orders#3", "bootstrap"} {
		if _, ok := keyed[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if keyed["orders"].EntityName() != "customers" {
		t.Error("the first occurrence should keep the bare stem")
	}
}

func TestSummarize_Counts(t *testing.T) {
	mgr, _ := newTestInventory(t, pipelineFiles)
	sum := mgr.Summarize()

	if sum.Total != len(pipelineFiles) {
		t.Errorf("Total = %d", sum.Total)
	}
	if sum.Common != 2 {
		t.Errorf("Common = %d, want 2", sum.Common)
	}
	if sum.ByStage["EXTRACT"] != 3 || sum.ByStage["LOAD"] != 2 || sum.ByStage["none"] != 2 {
		t.Errorf("ByStage = %v", sum.ByStage)
	}
	if sum.BySystem["POSTGRESQL"] != 2 {
		t.Errorf("BySystem = %v", sum.BySystem)
	}
	if sum.ByTaskType["SQL"] != 6 || sum.ByTaskType["SHELL"] != 2 || sum.ByTaskType["PYTHON"] != 1 {
		t.Errorf("ByTaskType = %v", sum.ByTaskType)
	}
	if sum.ByEntity["customers"] != 2 {
		t.Errorf("ByEntity = %v", sum.ByEntity)
	}
}
