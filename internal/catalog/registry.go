// Package catalog is the read-only registry of stat and status effect kinds.
// A Registry is built once and passed to whatever needs lookups; it is never
// mutated after construction.
package catalog

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"sync"

	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

// Registry maps stat and status effect ids to their descriptors
type Registry struct {
	stats         map[string]StatDescriptor
	statOrder     []string
	statusEffects map[string]StatusEffectDescriptor
	statusOrder   []string
}

type catalogFile struct {
	Stats         []StatDescriptor         `yaml:"stats"`
	StatusEffects []StatusEffectDescriptor `yaml:"statusEffects"`
}

// New builds a registry. Ids must be non-empty and unique per kind.
func New(stats []StatDescriptor, statusEffects []StatusEffectDescriptor) (*Registry, error) {
	r := &Registry{
		stats:         make(map[string]StatDescriptor, len(stats)),
		statusEffects: make(map[string]StatusEffectDescriptor, len(statusEffects)),
	}

	for i, stat := range stats {
		if stat.ID == "" {
			return nil, dnderr.Validationf("stat at index %d has no id", i)
		}
		if _, exists := r.stats[stat.ID]; exists {
			return nil, dnderr.AlreadyExistsf("stat %q defined twice", stat.ID)
		}
		r.stats[stat.ID] = stat
		r.statOrder = append(r.statOrder, stat.ID)
	}

	for i, effect := range statusEffects {
		if effect.ID == "" {
			return nil, dnderr.Validationf("status effect at index %d has no id", i)
		}
		if _, exists := r.statusEffects[effect.ID]; exists {
			return nil, dnderr.AlreadyExistsf("status effect %q defined twice", effect.ID)
		}
		for level := range effect.Intensity {
			if !level.Valid() {
				return nil, dnderr.Validationf("status effect %q has unknown intensity level %q", effect.ID, level)
			}
		}
		r.statusEffects[effect.ID] = effect.clone()
		r.statusOrder = append(r.statusOrder, effect.ID)
	}

	return r, nil
}

// LoadYAML builds a registry from a YAML document with stats and
// statusEffects lists
func LoadYAML(reader io.Reader) (*Registry, error) {
	var file catalogFile
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "failed to decode catalog")
	}
	return New(file.Stats, file.StatusEffects)
}

// LoadFile builds a registry from a YAML file on disk
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to open catalog %s", path)
	}
	defer f.Close()
	return LoadYAML(f)
}

var loadDefault = sync.OnceValues(func() (*Registry, error) {
	return LoadYAML(bytes.NewReader(defaultCatalog))
})

// Default returns the built-in catalog
func Default() (*Registry, error) {
	return loadDefault()
}

// MustDefault returns the built-in catalog and panics if it does not load
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// LookupStat returns the descriptor for a stat id
func (r *Registry) LookupStat(id string) (*StatDescriptor, error) {
	stat, ok := r.stats[id]
	if !ok {
		return nil, dnderr.UnknownCatalogIDf("stat %q not found in catalog", id).WithMeta("id", id)
	}
	return &stat, nil
}

// LookupStatusEffect returns the descriptor for a status effect id
func (r *Registry) LookupStatusEffect(id string) (*StatusEffectDescriptor, error) {
	effect, ok := r.statusEffects[id]
	if !ok {
		return nil, dnderr.UnknownCatalogIDf("status effect %q not found in catalog", id).WithMeta("id", id)
	}
	copied := effect.clone()
	return &copied, nil
}

// HasStat reports whether the stat id is known
func (r *Registry) HasStat(id string) bool {
	_, ok := r.stats[id]
	return ok
}

// HasStatusEffect reports whether the status effect id is known
func (r *Registry) HasStatusEffect(id string) bool {
	_, ok := r.statusEffects[id]
	return ok
}

// Stats lists stats in catalog order
func (r *Registry) Stats() []StatDescriptor {
	out := make([]StatDescriptor, 0, len(r.statOrder))
	for _, id := range r.statOrder {
		out = append(out, r.stats[id])
	}
	return out
}

// StatsByCategory lists the stats in one category
func (r *Registry) StatsByCategory(category Category) []StatDescriptor {
	var out []StatDescriptor
	for _, id := range r.statOrder {
		if stat := r.stats[id]; stat.Category == category {
			out = append(out, stat)
		}
	}
	return out
}

// StatusEffects lists status effects in catalog order
func (r *Registry) StatusEffects() []StatusEffectDescriptor {
	out := make([]StatusEffectDescriptor, 0, len(r.statusOrder))
	for _, id := range r.statusOrder {
		out = append(out, r.statusEffects[id].clone())
	}
	return out
}

// StatusEffectsByPolarity lists buffs or debuffs
func (r *Registry) StatusEffectsByPolarity(polarity Polarity) []StatusEffectDescriptor {
	var out []StatusEffectDescriptor
	for _, id := range r.statusOrder {
		if effect := r.statusEffects[id]; effect.Polarity == polarity {
			out = append(out, effect.clone())
		}
	}
	return out
}

// DescribeIntensity returns the canned text for a status effect option at a
// severity level, falling back to the effect description. Unknown ids
// yield an empty string.
func (r *Registry) DescribeIntensity(id, optionID string, level Level) string {
	effect, ok := r.statusEffects[id]
	if !ok {
		return ""
	}
	if text, ok := effect.Intensity[level][optionID]; ok && text != "" {
		return text
	}
	return effect.Description
}

// DefaultSaveType returns the save a status effect calls for
func (r *Registry) DefaultSaveType(id string) string {
	if effect, ok := r.statusEffects[id]; ok && effect.SaveType != "" {
		return effect.SaveType
	}
	return DefaultSaveType
}
