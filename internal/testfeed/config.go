// Package testfeed generates synthetic score feeds and checks that a
// leaderboard built from them holds its invariants.
package testfeed

// Formats.
const (
	FormatLine = "line"
	FormatJSON = "json"
)

// Config holds generator settings.
type Config struct {
	Teams   int    // Distinct teams
	Records int    // Records to emit, spread across teams
	Seed    uint64 // Same seed, same feed
	Format  string // FormatLine or FormatJSON

	// Rates in [0,1] of records that are deliberately damaged.
	MalformedRate float64 // unparsable line
	GapNoiseRate  float64 // inconsistent gap, repaired on merge
	CaseNoiseRate float64 // team name in a different case
}

// DefaultConfig returns a small mixed feed.
func DefaultConfig() Config {
	return Config{
		Teams:         20,
		Records:       200,
		Seed:          1,
		Format:        FormatLine,
		MalformedRate: 0.02,
		GapNoiseRate:  0.05,
		CaseNoiseRate: 0.1,
	}
}
