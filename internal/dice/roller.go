package dice

//go:generate mockgen -destination=mock/mock_roller.go -package=mockdice -source=roller.go

// Roller provides an interface for rolling dice
// Every random draw made while resolving a magnitude or formula goes through
// a Roller, so a fixed sequence of draws gives a fixed result.
type Roller interface {
	// Roll rolls a number of dice with the given sides and adds a bonus
	Roll(count, sides, bonus int) (*RollResult, error)
}

// RollResult contains detailed information about a dice roll
type RollResult struct {
	Expression string // Canonical notation when rolled from a Notation
	Total      int    // Signed total after keep filtering and bonus
	Rolls      []int  // Every die drawn, in draw order
	Kept       []int  // Dice that counted toward the total
	Bonus      int    // Modifier applied
	Count      int    // Number of dice rolled
	Sides      int    // Number of sides on each die
	RawTotal   int    // Sum of kept dice before the modifier
}
