package pipeline

// Config carries the stage tunables.
type Config struct {
	BasicBatchSize int
	BasicRetention float64

	NonBasicBatchSize int
	NonBasicRetention float64

	CreatureBatchSize int
	CreatureRetention float64

	SpellBatchSize int
	SpellRetention float64

	// Land totals by primary archetype.
	AggroLandTarget   int
	DefaultLandTarget int

	// Creature counts by primary archetype.
	AggroCreatures   int
	DefaultCreatures int

	// BasicShare is the basic-land share of the fallback mana base.
	BasicShare float64

	// BatchConcurrency bounds parallel reduce batches per stage.
	BatchConcurrency int
}

// DefaultConfig returns the standard stage tunables.
func DefaultConfig() *Config {
	return &Config{
		BasicBatchSize:    20,
		BasicRetention:    0.80,
		NonBasicBatchSize: 30,
		NonBasicRetention: 0.25,
		CreatureBatchSize: 30,
		CreatureRetention: 0.30,
		SpellBatchSize:    30,
		SpellRetention:    0.35,
		AggroLandTarget:   35,
		DefaultLandTarget: 37,
		AggroCreatures:    30,
		DefaultCreatures:  26,
		BasicShare:        0.60,
		BatchConcurrency:  3,
	}
}
