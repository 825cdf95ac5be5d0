package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/valter-silva-au/subtask-manager/pkg/models"
	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
	"pgregory.net/rapid"
)

func genStage() *rapid.Generator[taxonomy.Stage] {
	return rapid.SampledFrom([]taxonomy.Stage{
		taxonomy.Setup, taxonomy.Extract, taxonomy.Transform,
		taxonomy.Load, taxonomy.Cleanup, taxonomy.Postprocessing,
	})
}

func genSystem() *rapid.Generator[taxonomy.SystemType] {
	return rapid.SampledFrom([]taxonomy.SystemType{
		taxonomy.Clickhouse, taxonomy.Duckdb, taxonomy.MySQL, taxonomy.OracleDB,
		taxonomy.PostgreSQL, taxonomy.SQLite, taxonomy.SqlServer, taxonomy.Vertica,
	})
}

// genEntity draws folder names that are never a stage or system alias.
func genEntity() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z]{3,8}_entity`)
}

// Property: a stage folder, a system folder and an entity folder in any
// order classify to exactly those three values.
func TestProperty_ClassifyRecoversFolderRoles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		stage := genStage().Draw(rt, "stage")
		system := genSystem().Draw(rt, "system")
		entity := genEntity().Draw(rt, "entity")

		stageAlias := rapid.SampledFrom(stage.Aliases()).Draw(rt, "stageAlias")
		systemAlias := rapid.SampledFrom(system.Aliases()).Draw(rt, "systemAlias")
		segments := rapid.Permutation([]string{stageAlias, systemAlias, entity}).Draw(rt, "segments")

		root := "root"
		file := filepath.Join(append(append([]string{root}, segments...), "task.sql")...)
		sub, err := Classify(root, file)
		if err != nil {
			t.Fatalf("Classify(%q) failed: %v", file, err)
		}
		if sub.Stage == nil || *sub.Stage != stage {
			t.Fatalf("stage = %v, want %v", sub.Stage, stage)
		}
		if sub.SystemType == nil || *sub.SystemType != system {
			t.Fatalf("system = %v, want %v", sub.SystemType, system)
		}
		if sub.EntityName() != entity {
			t.Fatalf("entity = %q, want %q", sub.EntityName(), entity)
		}
		if sub.IsCommon {
			t.Fatal("nested task classified as common")
		}
	})
}

// Property: nesting deeper than stage/system/entity is always rejected.
func TestProperty_ClassifyRejectsDeepNesting(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z0-9_]{1,10}`), 4, 8).Draw(rt, "segments")
		root := "root"
		file := filepath.Join(append(append([]string{root}, segments...), "task.sql")...)
		if _, err := Classify(root, file); !errors.Is(err, ErrMalformedStructure) {
			t.Fatalf("Classify(%q) = %v, want ErrMalformedStructure", file, err)
		}
	})
}

// Property: with include_common, every common task appears exactly once,
// and every other result satisfies the stage filter.
func TestProperty_GetTasksIncludesCommonOnce(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "n")
		var files []string
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("%s_%d.sql", rapid.StringMatching(`[a-z]{1,6}`).Draw(rt, "name"), i)
			if rapid.Bool().Draw(rt, "common") {
				files = append(files, name)
				continue
			}
			stage := genStage().Draw(rt, "stage")
			files = append(files, stage.CanonicalName()+"/"+genEntity().Draw(rt, "entity")+"/"+name)
		}

		mgr, err := NewSubtaskManager("root", &fakeScanner{files: files}, nil, nil)
		if err != nil {
			t.Fatalf("building inventory: %v", err)
		}

		want := genStage().Draw(rt, "filterStage")
		tasks, err := mgr.GetTasks(models.TaskFilter{Stage: want.CanonicalName()})
		if err != nil {
			t.Fatalf("GetTasks failed: %v", err)
		}

		seen := make(map[string]int)
		for _, s := range tasks {
			seen[s.Path]++
			if s.IsCommon {
				continue
			}
			if s.Stage == nil || *s.Stage != want {
				t.Fatalf("task %s has stage %v, want %v", s.Path, s.Stage, want)
			}
		}
		for _, s := range mgr.Subtasks() {
			if s.IsCommon && seen[s.Path] == 0 {
				t.Fatalf("common task %s missing from result", s.Path)
			}
		}
		for path, count := range seen {
			if count > 1 {
				t.Fatalf("task %s returned %d times", path, count)
			}
		}
	})
}
