package domain

// VolumetricDivisor converts a package volume in cm³ to volumetric weight in kg.
const VolumetricDivisor = 5000.0

// DistanceBand is one pricing band of the tiered distance fee. UpperKm is the
// inclusive upper bound; a zero UpperKm marks the unbounded last band.
type DistanceBand struct {
	UpperKm     float64 `json:"upperKm" yaml:"upperKm"`
	BaseCharge  float64 `json:"baseCharge" yaml:"baseCharge"`
	PerKmRate   float64 `json:"perKmRate" yaml:"perKmRate"`
	RegionLabel string  `json:"regionLabel" yaml:"regionLabel"`
}

// Tariff carries every pricing constant the fee formulas depend on. Both the
// estimate flow and the order saga compute from the same Tariff value, so the
// quoted and persisted amounts cannot drift.
type Tariff struct {
	RatePerBillableKg float64        `json:"ratePerBillableKg" yaml:"ratePerBillableKg"`
	FragileMultiplier float64        `json:"fragileMultiplier" yaml:"fragileMultiplier"`
	DistanceBands     []DistanceBand `json:"distanceBands" yaml:"distanceBands"`
}

// DefaultTariff returns the standard tariff.
func DefaultTariff() Tariff {
	return Tariff{
		RatePerBillableKg: 6500,
		FragileMultiplier: 1.3,
		DistanceBands: []DistanceBand{
			{UpperKm: 50, BaseCharge: 15000, PerKmRate: 1800, RegionLabel: "inner-city (0–50km)"},
			{UpperKm: 150, BaseCharge: 25000, PerKmRate: 1500, RegionLabel: "suburban (50–150km)"},
			{UpperKm: 0, BaseCharge: 40000, PerKmRate: 500, RegionLabel: "inter-provincial (>150km)"},
		},
	}
}

// BillableWeight returns the greater of actual and volumetric weight for one
// unit of the item.
func (t Tariff) BillableWeight(item ShipmentItem) float64 {
	volumeCm3 := item.HeightCm * item.WidthCm * item.LengthCm
	volumetric := volumeCm3 / VolumetricDivisor
	if item.WeightKg > volumetric {
		return item.WeightKg
	}
	return volumetric
}

// ItemFee returns the unrounded base fee for one item line, fragility and
// quantity applied. Invalid items contribute zero.
func (t Tariff) ItemFee(item ShipmentItem) float64 {
	if !item.Valid() {
		return 0
	}

	fragility := 1.0
	if item.Fragile {
		fragility = t.FragileMultiplier
	}

	itemBase := t.BillableWeight(item) * t.RatePerBillableKg
	return itemBase * fragility * float64(item.Quantity)
}

// BaseFee aggregates ItemFee across all valid items. Invalid items are
// skipped silently.
func (t Tariff) BaseFee(items []ShipmentItem) float64 {
	var total float64
	for _, item := range items {
		total += t.ItemFee(item)
	}
	return total
}

// DistanceFeeResult is a pure value, recomputed per request and never cached
// across coordinate pairs.
type DistanceFeeResult struct {
	FeeAmount   float64 `json:"feeAmount"`
	RegionLabel string  `json:"regionLabel"`
	BaseCharge  float64 `json:"baseCharge"`
	PerKmRate   float64 `json:"perKmRate"`
}

// DistanceFee maps a non-negative distance in kilometers onto the tariff's
// pricing bands. Distance zero still pays the first band's base charge.
// Callers must clamp negative distances before calling.
func (t Tariff) DistanceFee(distanceKm float64) DistanceFeeResult {
	for _, band := range t.DistanceBands {
		if band.UpperKm > 0 && distanceKm <= band.UpperKm {
			return bandFee(band, distanceKm)
		}
	}

	last := t.DistanceBands[len(t.DistanceBands)-1]
	return bandFee(last, distanceKm)
}

func bandFee(band DistanceBand, distanceKm float64) DistanceFeeResult {
	return DistanceFeeResult{
		FeeAmount:   band.BaseCharge + distanceKm*band.PerKmRate,
		RegionLabel: band.RegionLabel,
		BaseCharge:  band.BaseCharge,
		PerKmRate:   band.PerKmRate,
	}
}
