package core

import "github.com/valter-silva-au/subtask-manager/pkg/models"

// Summary counts the subtasks of an inventory along each classification
// axis. Subtasks without a value on an axis are counted under "none".
type Summary struct {
	Total      int            `yaml:"total" json:"total"`
	Common     int            `yaml:"common" json:"common"`
	ByStage    map[string]int `yaml:"by_stage" json:"by_stage"`
	BySystem   map[string]int `yaml:"by_system" json:"by_system"`
	ByTaskType map[string]int `yaml:"by_task_type" json:"by_task_type"`
	ByEntity   map[string]int `yaml:"by_entity" json:"by_entity"`
}

const noneLabel = "none"

// Summarize aggregates subtasks into a Summary.
func Summarize(subtasks []*models.Subtask) Summary {
	sum := Summary{
		ByStage:    make(map[string]int),
		BySystem:   make(map[string]int),
		ByTaskType: make(map[string]int),
		ByEntity:   make(map[string]int),
	}
	for _, s := range subtasks {
		sum.Total++
		if s.IsCommon {
			sum.Common++
		}

		stage := noneLabel
		if s.Stage != nil {
			stage = s.Stage.String()
		}
		sum.ByStage[stage]++

		system := noneLabel
		if s.SystemType != nil {
			system = s.SystemType.String()
		}
		sum.BySystem[system]++

		taskType := noneLabel
		if s.TaskType != nil {
			taskType = s.TaskType.String()
		}
		sum.ByTaskType[taskType]++

		entity := noneLabel
		if s.Entity != nil {
			entity = *s.Entity
		}
		sum.ByEntity[entity]++
	}
	return sum
}

func (m *subtaskManager) Summarize() Summary {
	return Summarize(m.subtasks)
}
