// Package taxonomy holds the fixed catalogs used to classify ETL subtasks:
// pipeline stages, target system types and script task types.
//
// Each catalog is a constant table indexed by its variant tag. Stage and
// SystemType variants carry a canonical name, a numeric id and a set of
// folder-name aliases; TaskType variants are keyed by file extension only.
// All lookups are case-insensitive exact matches. The tables are built once
// at package initialisation and never mutated.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAlias is returned by the strict resolvers when a token is not a
// recognized canonical name or alias.
var ErrUnknownAlias = errors.New("unknown alias")

// Entry is the immutable payload attached to a taxonomy variant.
type Entry struct {
	CanonicalName string
	ID            int
	Aliases       []string
}

// Names returns the canonical name followed by every alias that differs
// from it.
func (e Entry) Names() []string {
	names := []string{e.CanonicalName}
	for _, a := range e.Aliases {
		if a != e.CanonicalName {
			names = append(names, a)
		}
	}
	return names
}

// AliasError reports a token that the strict resolver of a taxonomy did not
// recognize. It matches ErrUnknownAlias under errors.Is.
type AliasError struct {
	Kind  string
	Token string
}

func (e *AliasError) Error() string {
	return fmt.Sprintf("unknown %s alias: %s", e.Kind, e.Token)
}

// Is makes errors.Is(err, ErrUnknownAlias) hold for any AliasError.
func (e *AliasError) Is(target error) bool {
	return target == ErrUnknownAlias
}

// fold normalizes a folder or filter token for lookup. Only case is
// folded; surrounding whitespace is part of the token.
func fold(token string) string {
	return strings.ToLower(token)
}

// buildIndex maps every folded canonical name and alias to its variant
// index. It panics on a collision between two variants, which would make
// the taxonomy ambiguous.
func buildIndex(kind string, entries []Entry) map[string]int {
	index := make(map[string]int)
	for i, e := range entries {
		for _, name := range e.Names() {
			key := fold(name)
			if prev, ok := index[key]; ok && prev != i {
				panic(fmt.Sprintf("taxonomy: %s alias %q claimed by %s and %s",
					kind, key, entries[prev].CanonicalName, e.CanonicalName))
			}
			index[key] = i
		}
	}
	return index
}

func copyAliases(aliases []string) []string {
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}
