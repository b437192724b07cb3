package loyalty

import "serenity/pkg/model"

// Tier thresholds in lifetime points. Tiers only ever move up.
const (
	silverThreshold   = 5000
	goldThreshold     = 15000
	platinumThreshold = 30000
)

// earnDivisor converts a final amount into earned points: one point per
// 1,000 currency units spent, truncated.
const earnDivisor = 1000

var tierRank = map[model.MembershipTier]int{
	model.TierBronze:   0,
	model.TierSilver:   1,
	model.TierGold:     2,
	model.TierPlatinum: 3,
}

// TierForPoints maps a lifetime point balance to its membership tier.
func TierForPoints(points int64) model.MembershipTier {
	switch {
	case points >= platinumThreshold:
		return model.TierPlatinum
	case points >= goldThreshold:
		return model.TierGold
	case points >= silverThreshold:
		return model.TierSilver
	default:
		return model.TierBronze
	}
}

// Outranks reports whether tier a is above tier b.
func Outranks(a, b model.MembershipTier) bool {
	return tierRank[a] > tierRank[b]
}

// EarnedPoints returns the points a completed booking awards.
func EarnedPoints(finalAmount int64) int64 {
	if finalAmount <= 0 {
		return 0
	}
	return finalAmount / earnDivisor
}
