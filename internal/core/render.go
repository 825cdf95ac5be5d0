package core

import (
	"github.com/valter-silva-au/subtask-manager/internal/params"
	"github.com/valter-silva-au/subtask-manager/pkg/models"
)

// RenderSubtask applies values to the subtask's command for the given
// placeholder styles (all styles when none are given). The subtask itself
// is left untouched; the returned value carries a rendered copy.
func RenderSubtask(subtask *models.Subtask, values map[string]string, styles []models.ParamStyle) models.RenderedSubtask {
	clone := subtask.Clone()
	command, unresolved := params.Render(clone.Command, values, styles)
	clone.Command = command
	clone.Params = params.Detect(command)
	return models.RenderedSubtask{
		Subtask:    *clone,
		Unresolved: unresolved,
	}
}
