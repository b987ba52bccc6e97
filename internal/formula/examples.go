package formula

// DefaultConversion is the formula a lifelink effect starts with
const DefaultConversion = "SOURCE_AMOUNT * 0.25"

// Example is a sample conversion formula offered to authors
type Example struct {
	Label   string
	Formula string
}

// Examples returns the sample formulas shown next to the conversion editor
func Examples() []Example {
	return []Example{
		{Label: "Quarter of the source", Formula: DefaultConversion},
		{Label: "Half, rounded down", Formula: "Math.floor(SOURCE_AMOUNT / 2)"},
		{Label: "One d6 per chunk", Formula: "Math.floor(SOURCE_AMOUNT / PER_AMOUNT) * ROLL_1D6"},
		{Label: "Capped by a d8", Formula: "Math.min(ROLL_1D8, SOURCE_AMOUNT / 2)"},
		{Label: "Big hits heal more", Formula: "SOURCE_AMOUNT > 20 ? SOURCE_AMOUNT * 0.5 : SOURCE_AMOUNT * 0.25"},
		{Label: "Coin flip doubles", Formula: "FLIP_COIN ? SOURCE_AMOUNT : SOURCE_AMOUNT / 2"},
		{Label: "Face cards drain", Formula: "DRAW_CARD >= 11 ? ROLL_1D12 + PER_AMOUNT : 0"},
		{Label: "At least one", Formula: "Math.max(1, Math.ceil(SOURCE_AMOUNT / 10))"},
	}
}
