package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownServiceTier is returned when parsing an unrecognized tier name.
var ErrUnknownServiceTier = errors.New("unknown service tier")

// ServiceTier is a named shipping speed level with a fixed price multiplier.
type ServiceTier string

const (
	TierSecondClass ServiceTier = "SECOND_CLASS"
	TierStandard    ServiceTier = "STANDARD"
	TierFirstClass  ServiceTier = "FIRST_CLASS"
	TierExpress     ServiceTier = "EXPRESS"
	TierPriority    ServiceTier = "PRIORITY"
)

// tierMultipliers is a process-wide constant table, immutable after startup.
var tierMultipliers = map[ServiceTier]float64{
	TierSecondClass: 0.8,
	TierStandard:    1.0,
	TierFirstClass:  1.3,
	TierExpress:     1.8,
	TierPriority:    2.0,
}

// AllTiers lists every service tier in ascending multiplier order. STANDARD
// is the default presented to users.
func AllTiers() []ServiceTier {
	return []ServiceTier{TierSecondClass, TierStandard, TierFirstClass, TierExpress, TierPriority}
}

// Multiplier returns the fixed price multiplier for the tier.
func (t ServiceTier) Multiplier() float64 {
	return tierMultipliers[t]
}

// Valid reports whether the tier is one of the known constants.
func (t ServiceTier) Valid() bool {
	_, ok := tierMultipliers[t]
	return ok
}

// ParseServiceTier converts a string into a ServiceTier.
func ParseServiceTier(s string) (ServiceTier, error) {
	tier := ServiceTier(s)
	if !tier.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownServiceTier, s)
	}
	return tier, nil
}
