package events_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
	"github.com/KirkDiggler/spell-effects/internal/events"
)

func recorder(id string, priority int, order *[]string) events.ListenerFunc {
	return events.ListenerFunc{
		Name:  id,
		Order: priority,
		Fn: func(events.Event) error {
			*order = append(*order, id)
			return nil
		},
	}
}

func TestEventBus_Priority(t *testing.T) {
	bus := events.NewBus()
	var order []string

	bus.Subscribe(events.EventTypeEffectSaved, recorder("low", 300, &order))
	bus.Subscribe(events.EventTypeEffectSaved, recorder("high", 100, &order))
	bus.Subscribe(events.EventTypeEffectSaved, recorder("medium", 200, &order))
	bus.Subscribe(events.EventTypeEffectSaved, recorder("medium-2", 200, &order))

	require.NoError(t, bus.Emit(&events.EffectSavedEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeEffectSaved, SpellID: "fireball"},
	}))

	assert.Equal(t, []string{"high", "medium", "medium-2", "low"}, order)
}

func TestEventBus_OnlyMatchingType(t *testing.T) {
	bus := events.NewBus()
	var order []string

	bus.Subscribe(events.EventTypeEffectDeleted, recorder("deleted", 1, &order))

	require.NoError(t, bus.Emit(events.NewEffectEvent(events.EventTypeEffectCreated, "fireball")))
	assert.Empty(t, order)

	require.NoError(t, bus.Emit(events.NewEffectEvent(events.EventTypeEffectDeleted, "fireball")))
	assert.Equal(t, []string{"deleted"}, order)
}

func TestEventBus_Cancellation(t *testing.T) {
	bus := events.NewBus()
	var order []string

	bus.Subscribe(events.EventTypeEffectUpgraded, events.ListenerFunc{
		Name:  "canceller",
		Order: 1,
		Fn: func(e events.Event) error {
			order = append(order, "canceller")
			e.Cancel()
			return nil
		},
	})
	bus.Subscribe(events.EventTypeEffectUpgraded, recorder("after", 2, &order))

	event := &events.EffectUpgradedEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeEffectUpgraded, SpellID: "venom"},
		Rewritten: true,
	}
	require.NoError(t, bus.Emit(event))

	assert.True(t, event.IsCancelled())
	assert.Equal(t, []string{"canceller"}, order)
}

func TestEventBus_ListenerError(t *testing.T) {
	bus := events.NewBus()
	boom := errors.New("boom")

	bus.Subscribe(events.EventTypeEffectSaved, events.ListenerFunc{
		Name: "failing",
		Fn:   func(events.Event) error { return boom },
	})

	err := bus.Emit(&events.EffectSavedEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeEffectSaved, SpellID: "fireball"},
		Issues:    []dnderr.Issue{dnderr.NewIssue(dnderr.CodeValidation, "difficultyClass", "out of range")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fireball")
}

func TestEventBus_UnsubscribeAndClear(t *testing.T) {
	bus := events.NewBus()
	var order []string

	bus.Subscribe(events.EventTypeEffectCreated, recorder("a", 1, &order))
	bus.Subscribe(events.EventTypeEffectCreated, recorder("b", 2, &order))
	bus.Subscribe(events.EventTypeEffectCreated, recorder("c", 3, &order))
	bus.Unsubscribe(events.EventTypeEffectCreated, "b")
	bus.Unsubscribe(events.EventTypeEffectCreated, "missing")

	require.NoError(t, bus.Emit(events.NewEffectEvent(events.EventTypeEffectCreated, "x")))
	assert.Equal(t, []string{"a", "c"}, order)

	bus.Clear()
	order = nil
	require.NoError(t, bus.Emit(events.NewEffectEvent(events.EventTypeEffectCreated, "x")))
	assert.Empty(t, order)
}

func TestEventBus_ConcurrentEmit(t *testing.T) {
	bus := events.NewBus()
	var mu sync.Mutex
	seen := map[string]bool{}

	bus.Subscribe(events.EventTypeEffectUpgraded, events.ListenerFunc{
		Name: "collector",
		Fn: func(e events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			seen[e.GetSpellID()] = true
			return nil
		},
	})

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = bus.Emit(events.NewEffectEvent(events.EventTypeEffectUpgraded, id))
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 4)
}
