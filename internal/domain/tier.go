package domain

// Tier is the badge derived from a period score.
type Tier string

const (
	TierBronze Tier = "Bronze"
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
)

// Tier thresholds. Both the leaderboard display and the periodic reset go
// through TierFor; there is no second copy of these numbers.
const (
	goldThreshold   = 300
	silverThreshold = 150
)

// TierFor maps a score to its tier badge.
func TierFor(score int) Tier {
	switch {
	case score >= goldThreshold:
		return TierGold
	case score >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// Medal returns the emoji shorthand used in chat messages.
func (t Tier) Medal() string {
	switch t {
	case TierGold:
		return "🥇"
	case TierSilver:
		return "🥈"
	default:
		return "🥉"
	}
}
