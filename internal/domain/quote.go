package domain

import "math"

// TierQuote is the final fee for one service tier.
type TierQuote struct {
	Tier       ServiceTier `json:"tier"`
	Multiplier float64     `json:"multiplier"`
	FinalFee   float64     `json:"finalFee"`
}

// Quote is a full fee breakdown for one shipment. DegradedRoute marks totals
// computed from a straight-line distance estimate instead of a road route.
type Quote struct {
	BaseFee       float64           `json:"baseFee"`
	DistanceKm    float64           `json:"distanceKm"`
	Distance      DistanceFeeResult `json:"distance"`
	DegradedRoute bool              `json:"degradedRoute"`
	Tiers         []TierQuote       `json:"tiers"`
}

// FinalFee combines base fee, tier multiplier and distance fee. Rounding is
// applied exactly once, at the total; intermediate values stay unrounded so
// tier comparisons do not drift.
func FinalFee(baseFee float64, tier ServiceTier, distanceFee float64) float64 {
	return math.Round(baseFee*tier.Multiplier() + distanceFee)
}

// QuoteTier evaluates a single tier against a shared base and distance fee.
func QuoteTier(baseFee float64, tier ServiceTier, distance DistanceFeeResult) TierQuote {
	return TierQuote{
		Tier:       tier,
		Multiplier: tier.Multiplier(),
		FinalFee:   FinalFee(baseFee, tier, distance.FeeAmount),
	}
}

// QuoteAllTiers evaluates every tier against the same base and distance fee,
// computed once, so the comparison table is consistent by construction.
func QuoteAllTiers(baseFee float64, distanceKm float64, distance DistanceFeeResult, degraded bool) Quote {
	tiers := make([]TierQuote, 0, len(AllTiers()))
	for _, tier := range AllTiers() {
		tiers = append(tiers, QuoteTier(baseFee, tier, distance))
	}

	return Quote{
		BaseFee:       baseFee,
		DistanceKm:    distanceKm,
		Distance:      distance,
		DegradedRoute: degraded,
		Tiers:         tiers,
	}
}

// TierFee returns the quoted fee for one tier out of a Quote.
func (q Quote) TierFee(tier ServiceTier) (float64, bool) {
	for _, t := range q.Tiers {
		if t.Tier == tier {
			return t.FinalFee, true
		}
	}
	return 0, false
}
