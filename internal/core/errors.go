package core

import (
	"errors"

	"github.com/valter-silva-au/subtask-manager/pkg/taxonomy"
)

var (
	// ErrMalformedStructure means a path nests deeper than stage/system/entity
	// or leaves more than one folder segment unclaimed.
	ErrMalformedStructure = errors.New("incorrect folder structure")

	// ErrUnknownTaskType means a file extension maps to no task type.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrNotFound means a name/entity lookup matched no subtask.
	ErrNotFound = errors.New("task not found")

	// ErrUnknownAlias means a query-time system type token is not recognized.
	ErrUnknownAlias = taxonomy.ErrUnknownAlias
)
