package effects

import (
	"context"
	"encoding/json"
	"log"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	"github.com/KirkDiggler/spell-effects/internal/dice"
	"github.com/KirkDiggler/spell-effects/internal/effect"
	"github.com/KirkDiggler/spell-effects/internal/events"
	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/formula"
	"github.com/KirkDiggler/spell-effects/internal/magnitude"
	"github.com/KirkDiggler/spell-effects/internal/normalize"
	effectsrepo "github.com/KirkDiggler/spell-effects/internal/repositories/effects"
	"github.com/KirkDiggler/spell-effects/internal/uuid"
)

// DefaultMigrateWorkers bounds MigrateAll when no worker count is given
const DefaultMigrateWorkers = 4

// Service loads, validates and stores effect specifications
type Service interface {
	// Load reads a stored record, repairs it and decodes it. Validation
	// issues are returned alongside the instance, never as an error.
	Load(ctx context.Context, spellID string) (*effect.Instance, []dnderr.Issue, error)

	// Save validates and stores the instance. Issues do not block storage.
	Save(ctx context.Context, spellID string, inst *effect.Instance) ([]dnderr.Issue, error)

	// Delete removes the stored record
	Delete(ctx context.Context, spellID string) error

	// Create stores a new default instance under a generated spell id
	Create(ctx context.Context) (string, *effect.Instance, error)

	// Preview classifies raw author input and resolves it once
	Preview(raw string, input *PreviewInput) (*Preview, error)

	// MigrateAll repairs every stored record, rewriting the ones that change
	MigrateAll(ctx context.Context, workers int) (*MigrationReport, error)
}

// PreviewInput holds the variables and dice source for a preview
type PreviewInput struct {
	SourceAmount float64
	PerAmount    float64
	Seed         *uint64 // replaces the service roller when set
}

// Preview is a resolved magnitude
type Preview struct {
	Kind      magnitude.Kind
	Canonical string
	Value     float64
	Percent   bool
	Random    bool
	Variables []string
}

// MigrationReport summarises a MigrateAll run
type MigrationReport struct {
	Scanned  int
	Upgraded []string
	Failed   map[string]string // spell id -> reason
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    effectsrepo.Repository
	Catalog       *catalog.Registry
	Normalizer    *normalize.Normalizer
	Roller        dice.Roller
	UUIDGenerator uuid.Generator
	Events        events.Publisher // optional
}

type service struct {
	repository    effectsrepo.Repository
	catalog       *catalog.Registry
	normalizer    *normalize.Normalizer
	roller        dice.Roller
	uuidGenerator uuid.Generator
	events        events.Publisher
}

// NewService creates a new effect service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.Catalog == nil {
		panic("catalog is required")
	}

	svc := &service{
		repository:    cfg.Repository,
		catalog:       cfg.Catalog,
		normalizer:    cfg.Normalizer,
		roller:        cfg.Roller,
		uuidGenerator: cfg.UUIDGenerator,
		events:        cfg.Events,
	}

	if svc.normalizer == nil {
		svc.normalizer = normalize.New(cfg.Catalog)
	}
	if svc.roller == nil {
		svc.roller = dice.NewRandomRoller()
	}
	if svc.uuidGenerator == nil {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	return svc
}

func (s *service) Load(ctx context.Context, spellID string) (*effect.Instance, []dnderr.Issue, error) {
	raw, err := s.repository.Get(ctx, spellID)
	if err != nil {
		return nil, nil, dnderr.Wrapf(err, "failed to load effect for spell %s", spellID)
	}

	normalized, changed, err := s.normalizeRecord(raw)
	if err != nil {
		return nil, nil, dnderr.Wrapf(err, "stored effect for spell %s is not a record", spellID).
			WithMeta("spell_id", spellID)
	}
	if changed {
		log.Printf("Upgraded stored effect record for spell %s on load", spellID)
		s.emit(&events.EffectUpgradedEvent{
			BaseEvent: events.BaseEvent{Type: events.EventTypeEffectUpgraded, SpellID: spellID},
		})
	}

	inst, err := effect.Decode(normalized, s.catalog)
	if err != nil {
		return nil, nil, dnderr.Wrapf(err, "failed to decode effect for spell %s", spellID).
			WithMeta("spell_id", spellID)
	}

	return inst, inst.Validate(s.catalog), nil
}

func (s *service) Save(ctx context.Context, spellID string, inst *effect.Instance) ([]dnderr.Issue, error) {
	if spellID == "" {
		return nil, dnderr.InvalidArgument("spell id is required")
	}
	if inst == nil {
		return nil, dnderr.InvalidArgument("effect instance is required")
	}

	issues := inst.Validate(s.catalog)

	data, err := json.Marshal(inst)
	if err != nil {
		return issues, dnderr.Wrapf(err, "failed to encode effect for spell %s", spellID)
	}
	// stored records are always in repaired form, so Load only upgrades
	// records written by older versions
	data, _, err = s.normalizeRecord(data)
	if err != nil {
		return issues, dnderr.Wrapf(err, "failed to encode effect for spell %s", spellID)
	}
	if err := s.repository.Put(ctx, spellID, data); err != nil {
		return issues, dnderr.Wrapf(err, "failed to save effect for spell %s", spellID)
	}

	if len(issues) > 0 {
		log.Printf("Saved effect for spell %s with %d validation issue(s)", spellID, len(issues))
	}
	s.emit(&events.EffectSavedEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeEffectSaved, SpellID: spellID},
		Issues:    issues,
	})
	return issues, nil
}

func (s *service) Delete(ctx context.Context, spellID string) error {
	if err := s.repository.Delete(ctx, spellID); err != nil {
		return dnderr.Wrapf(err, "failed to delete effect for spell %s", spellID)
	}
	s.emit(events.NewEffectEvent(events.EventTypeEffectDeleted, spellID))
	return nil
}

func (s *service) Create(ctx context.Context) (string, *effect.Instance, error) {
	spellID := s.uuidGenerator.New()
	inst := effect.New()

	if _, err := s.Save(ctx, spellID, inst); err != nil {
		return "", nil, err
	}
	s.emit(events.NewEffectEvent(events.EventTypeEffectCreated, spellID))
	return spellID, inst, nil
}

func (s *service) Preview(raw string, input *PreviewInput) (*Preview, error) {
	if input == nil {
		input = &PreviewInput{}
	}

	v, err := magnitude.Classify(raw, magnitude.Options{AllowFormula: true})
	if err != nil {
		return nil, err
	}

	roller := s.roller
	if input.Seed != nil {
		roller = dice.NewSeededRoller(*input.Seed)
	}

	total, err := v.Resolve(formula.NewContext(input.SourceAmount, input.PerAmount, roller))
	if err != nil {
		return nil, err
	}

	out := &Preview{
		Kind:      v.Kind(),
		Canonical: v.String(),
		Value:     total,
		Percent:   v.Percent(),
	}
	switch v.Kind() {
	case magnitude.KindDice:
		out.Random = true
	case magnitude.KindFormula:
		expr, _ := v.AsFormula()
		out.Random = expr.IsRandom()
		out.Variables = expr.Variables()
	}
	return out, nil
}

func (s *service) MigrateAll(ctx context.Context, workers int) (*MigrationReport, error) {
	if workers < 1 {
		workers = DefaultMigrateWorkers
	}

	ids, err := s.repository.ListSpellIDs(ctx)
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to list stored effects")
	}
	log.Printf("Migrating %d stored effect record(s) with %d worker(s)", len(ids), workers)

	report := &MigrationReport{
		Scanned:  len(ids),
		Upgraded: []string{},
		Failed:   map[string]string{},
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			raw, err := s.repository.Get(gctx, id)
			if err != nil {
				if dnderr.IsNotFound(err) {
					return nil
				}
				return dnderr.Wrapf(err, "failed to read effect for spell %s", id)
			}

			normalized, changed, err := s.normalizeRecord(raw)
			if err == nil {
				_, err = effect.Decode(normalized, s.catalog)
			}
			if err != nil {
				mu.Lock()
				report.Failed[id] = err.Error()
				mu.Unlock()
				return nil
			}
			if !changed {
				return nil
			}

			if err := s.repository.Put(gctx, id, normalized); err != nil {
				return dnderr.Wrapf(err, "failed to rewrite effect for spell %s", id)
			}
			mu.Lock()
			report.Upgraded = append(report.Upgraded, id)
			mu.Unlock()
			s.emit(&events.EffectUpgradedEvent{
				BaseEvent: events.BaseEvent{Type: events.EventTypeEffectUpgraded, SpellID: id},
				Rewritten: true,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(report.Upgraded)
	log.Printf("Migration finished: %d scanned, %d upgraded, %d failed",
		report.Scanned, len(report.Upgraded), len(report.Failed))
	return report, nil
}

// emit publishes to the optional event bus. Listener failures are logged
// and never undo a completed store operation.
func (s *service) emit(event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(event); err != nil {
		log.Printf("Failed to publish %s for spell %s: %v", event.GetType(), event.GetSpellID(), err)
	}
}

// normalizeRecord repairs a stored record and reports whether it changed
func (s *service) normalizeRecord(raw []byte) ([]byte, bool, error) {
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "record is not a JSON object")
	}
	if record == nil {
		return nil, false, dnderr.InvalidArgument("record is null")
	}

	normalized := s.normalizer.NormalizeRecord(record)
	if reflect.DeepEqual(record, normalized) {
		return raw, false, nil
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, false, dnderr.Wrap(err, "failed to encode normalized record")
	}
	return data, true, nil
}
