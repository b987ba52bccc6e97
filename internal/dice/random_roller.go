package dice

import (
	"math/rand/v2"
	"sync"

	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

// randomRoller implements Roller on top of a PCG source
type randomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller creates a new random dice roller seeded from the runtime
func NewRandomRoller() Roller {
	return &randomRoller{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSeededRoller creates a roller whose draws are reproducible for a seed
func NewSeededRoller(seed uint64) Roller {
	return &randomRoller{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, dnderr.InvalidArgumentf("invalid dice count %d", count)
	}
	if sides < 1 {
		return nil, dnderr.InvalidArgumentf("invalid dice size %d", sides)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rolls := make([]int, count)
	rawTotal := 0
	for i := range rolls {
		rolls[i] = r.rng.IntN(sides) + 1
		rawTotal += rolls[i]
	}

	return &RollResult{
		Total:    rawTotal + bonus,
		Rolls:    rolls,
		Kept:     rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
		RawTotal: rawTotal,
	}, nil
}
