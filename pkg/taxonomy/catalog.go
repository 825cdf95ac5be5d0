package taxonomy

import (
	"fmt"
	"strings"
)

// Catalog kinds.
const (
	KindStage      = "stage"
	KindSystemType = "system_type"
	KindTaskType   = "task_type"
)

// Descriptor is a flat, serializable view of one taxonomy variant.
type Descriptor struct {
	Kind          string   `yaml:"kind" json:"kind"`
	Label         string   `yaml:"label" json:"label"`
	CanonicalName string   `yaml:"canonical_name" json:"canonical_name"`
	ID            int      `yaml:"id" json:"id"`
	Aliases       []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Extensions    []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
}

// Kinds lists the catalog kinds in display order.
func Kinds() []string {
	return []string{KindStage, KindSystemType, KindTaskType}
}

// Catalog describes every variant of kind, or of every kind when kind is
// empty. Variants appear in id order.
func Catalog(kind string) ([]Descriptor, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "":
		var all []Descriptor
		for _, k := range Kinds() {
			d, _ := Catalog(k)
			all = append(all, d...)
		}
		return all, nil
	case KindStage:
		out := make([]Descriptor, 0, len(stageEntries))
		for _, s := range Stages() {
			e := s.Entry()
			out = append(out, Descriptor{
				Kind: KindStage, Label: s.String(),
				CanonicalName: e.CanonicalName, ID: e.ID, Aliases: e.Aliases,
			})
		}
		return out, nil
	case KindSystemType:
		out := make([]Descriptor, 0, len(systemEntries))
		for _, t := range SystemTypes() {
			e := t.Entry()
			out = append(out, Descriptor{
				Kind: KindSystemType, Label: t.String(),
				CanonicalName: e.CanonicalName, ID: e.ID, Aliases: e.Aliases,
			})
		}
		return out, nil
	case KindTaskType:
		var out []Descriptor
		for _, t := range TaskTypes() {
			out = append(out, Descriptor{
				Kind: KindTaskType, Label: t.String(),
				CanonicalName: strings.ToLower(t.String()), ID: t.ID(), Extensions: t.Extensions(),
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown taxonomy kind %q, must be one of: %s", kind, strings.Join(Kinds(), ", "))
}
