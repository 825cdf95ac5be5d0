package taxonomy

import (
	"fmt"
	"strings"
)

// Stage is the pipeline phase a subtask belongs to.
type Stage int

const (
	Setup Stage = iota
	Extract
	Transform
	Load
	Cleanup
	Postprocessing
	Other
)

var stageEntries = [...]Entry{
	Setup:          {CanonicalName: "setup", ID: 0, Aliases: []string{"00_setup", "setup", "s", "00"}},
	Extract:        {CanonicalName: "extract", ID: 1, Aliases: []string{"01_extract", "extract", "e", "01"}},
	Transform:      {CanonicalName: "transform", ID: 2, Aliases: []string{"02_transform", "transform", "t", "02"}},
	Load:           {CanonicalName: "load", ID: 3, Aliases: []string{"03_load", "load", "l", "03"}},
	Cleanup:        {CanonicalName: "cleanup", ID: 4, Aliases: []string{"04_cleanup", "cleanup", "c", "04"}},
	Postprocessing: {CanonicalName: "post_processing", ID: 5, Aliases: []string{"05_post_processing", "post_processing", "pp", "05"}},
	Other:          {CanonicalName: "other", ID: 6, Aliases: []string{"other", "misc", "unknown", "oth"}},
}

var stageLabels = [...]string{
	Setup:          "SETUP",
	Extract:        "EXTRACT",
	Transform:      "TRANSFORM",
	Load:           "LOAD",
	Cleanup:        "CLEANUP",
	Postprocessing: "POSTPROCESSING",
	Other:          "OTHER",
}

var stageIndex = buildIndex("stage", stageEntries[:])

// Stages returns every stage in id order.
func Stages() []Stage {
	out := make([]Stage, len(stageEntries))
	for i := range stageEntries {
		out[i] = Stage(i)
	}
	return out
}

func (s Stage) valid() bool {
	return s >= 0 && int(s) < len(stageEntries)
}

// Entry returns the taxonomy payload of the stage. Out-of-range values
// report the Other entry.
func (s Stage) Entry() Entry {
	if !s.valid() {
		s = Other
	}
	e := stageEntries[s]
	e.Aliases = copyAliases(e.Aliases)
	return e
}

// CanonicalName returns the lowercase canonical name, e.g. "post_processing".
func (s Stage) CanonicalName() string { return s.Entry().CanonicalName }

// ID returns the numeric id of the stage.
func (s Stage) ID() int { return s.Entry().ID }

// Aliases returns a copy of the stage's folder-name aliases.
func (s Stage) Aliases() []string { return s.Entry().Aliases }

// String returns the display label, e.g. "POSTPROCESSING".
func (s Stage) String() string {
	if !s.valid() {
		return stageLabels[Other]
	}
	return stageLabels[s]
}

// MarshalText encodes the stage as its display label.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts a display label or any alias.
func (s *Stage) UnmarshalText(text []byte) error {
	parsed, err := ParseStageLabel(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ResolveStage maps a folder token to its stage. Unrecognized tokens
// resolve to Other.
func ResolveStage(token string) Stage {
	if i, ok := stageIndex[fold(token)]; ok {
		return Stage(i)
	}
	return Other
}

// StageFromAlias maps a token to its stage, failing with ErrUnknownAlias
// when the token is not a canonical name or alias.
func StageFromAlias(token string) (Stage, error) {
	if i, ok := stageIndex[fold(token)]; ok {
		return Stage(i), nil
	}
	return Other, &AliasError{Kind: "stage", Token: token}
}

// ParseStageLabel accepts either a display label ("LOAD",
// "POSTPROCESSING") or an alias ("03_load", "pp").
func ParseStageLabel(token string) (Stage, error) {
	for i, label := range stageLabels {
		if strings.EqualFold(token, label) {
			return Stage(i), nil
		}
	}
	s, err := StageFromAlias(token)
	if err != nil {
		return Other, fmt.Errorf("parsing stage: %w", err)
	}
	return s, nil
}
