package effect

// DurationType represents how an effect's duration is measured
type DurationType string

const (
	DurationTurns     DurationType = "turns"
	DurationTime      DurationType = "time"
	DurationRest      DurationType = "rest"
	DurationPermanent DurationType = "permanent"
)

// Valid reports whether d is a known duration type
func (d DurationType) Valid() bool {
	switch d {
	case DurationTurns, DurationTime, DurationRest, DurationPermanent:
		return true
	}
	return false
}

// TimeUnit is the unit for time-based durations
type TimeUnit string

const (
	UnitRounds  TimeUnit = "rounds"
	UnitMinutes TimeUnit = "minutes"
	UnitHours   TimeUnit = "hours"
	UnitDays    TimeUnit = "days"
)

// RestType ends a rest-based duration
type RestType string

const (
	RestShort RestType = "short"
	RestLong  RestType = "long"
)

// Duration describes how long an effect lasts. Fields that do not apply to
// Type are kept as-is so they survive a round trip.
type Duration struct {
	Type                  DurationType
	Value                 int
	Unit                  TimeUnit
	RestType              RestType
	CanBeDispelled        bool
	ConcentrationRequired bool
}

// Bounded reports whether stages must fit within Value
func (d Duration) Bounded() bool {
	return (d.Type == DurationTurns || d.Type == DurationTime) && d.Value > 0
}

// StackingRule determines how repeated applications combine
type StackingRule string

const (
	StackingReplace      StackingRule = "replace"
	StackingHighest      StackingRule = "highest"
	StackingCumulative   StackingRule = "cumulative"
	StackingSelfStacking StackingRule = "selfStacking"
	StackingProgressive  StackingRule = "progressive"
)

// Valid reports whether r is a known stacking rule
func (r StackingRule) Valid() bool {
	switch r {
	case StackingReplace, StackingHighest, StackingCumulative, StackingSelfStacking, StackingProgressive:
		return true
	}
	return false
}

// UsesMaxStacks reports whether MaxStacks means anything for the rule
func (r StackingRule) UsesMaxStacks() bool {
	return r == StackingSelfStacking || r == StackingCumulative
}

// Stacking holds the stacking rule. MaxStacks is ignored but kept for rules
// that do not stack.
type Stacking struct {
	Rule          StackingRule
	MaxStacks     int
	IsProgressive bool
}

// SaveOutcome is what a successful saving throw does
type SaveOutcome string

const (
	SaveNegates SaveOutcome = "negates"
	SaveHalves  SaveOutcome = "halves"
	SavePartial SaveOutcome = "partial"
)

// Saving throw bounds
const (
	MinDifficultyClass = 1
	MaxDifficultyClass = 30
)

// Defaults for a freshly configured effect
const (
	DefaultDurationValue   = 1
	DefaultMaxStacks       = 1
	DefaultDifficultyClass = 15
	DefaultSavingThrow     = "constitution"
	DefaultMagnitude       = 2
	DefaultPerAmount       = 10
)
