package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestItem() ShipmentItem {
	return ShipmentItem{
		ProductName: "Ceramic vase",
		Quantity:    2,
		WeightKg:    1.5,
		HeightCm:    30,
		WidthCm:     20,
		LengthCm:    40,
		Fragile:     false,
		UnitPrice:   120000,
	}
}

func TestBillableWeight(t *testing.T) {
	tariff := DefaultTariff()

	t.Run("volumetric weight wins for bulky light items", func(t *testing.T) {
		item := createTestItem()
		// 30*20*40 = 24000 cm3 -> 4.8 kg volumetric vs 1.5 kg actual
		assert.InDelta(t, 4.8, tariff.BillableWeight(item), 1e-9)
	})

	t.Run("actual weight wins for dense items", func(t *testing.T) {
		item := createTestItem()
		item.WeightKg = 10
		assert.InDelta(t, 10, tariff.BillableWeight(item), 1e-9)
	})
}

func TestItemFee(t *testing.T) {
	tariff := DefaultTariff()

	t.Run("worked example", func(t *testing.T) {
		item := createTestItem()
		// billable 4.8 kg * 6500 = 31200 per unit, qty 2
		assert.InDelta(t, 62400, tariff.ItemFee(item), 1e-9)
	})

	t.Run("fragile items cost 1.3x", func(t *testing.T) {
		plain := createTestItem()
		fragile := createTestItem()
		fragile.Fragile = true

		assert.InDelta(t, tariff.ItemFee(plain)*1.3, tariff.ItemFee(fragile), 1e-9)
	})

	t.Run("invalid items contribute zero", func(t *testing.T) {
		item := createTestItem()
		item.Quantity = 0
		assert.Zero(t, tariff.ItemFee(item))

		item = createTestItem()
		item.WeightKg = 0
		assert.Zero(t, tariff.ItemFee(item))

		item = createTestItem()
		item.ProductName = ""
		assert.Zero(t, tariff.ItemFee(item))
	})
}

func TestBaseFee(t *testing.T) {
	tariff := DefaultTariff()

	t.Run("aggregates valid items and skips invalid ones", func(t *testing.T) {
		valid := createTestItem()
		invalid := createTestItem()
		invalid.Quantity = -1

		total := tariff.BaseFee([]ShipmentItem{valid, invalid, valid})
		assert.InDelta(t, 2*tariff.ItemFee(valid), total, 1e-9)
	})

	t.Run("monotonic in weight and dimensions", func(t *testing.T) {
		item := createTestItem()
		base := tariff.ItemFee(item)

		heavier := item
		heavier.WeightKg = item.WeightKg + 5
		assert.GreaterOrEqual(t, tariff.ItemFee(heavier), base)

		taller := item
		taller.HeightCm = item.HeightCm + 10
		assert.GreaterOrEqual(t, tariff.ItemFee(taller), base)
	})

	t.Run("idempotent for identical inputs", func(t *testing.T) {
		items := []ShipmentItem{createTestItem(), createTestItem()}
		assert.Equal(t, tariff.BaseFee(items), tariff.BaseFee(items))
	})
}

func TestDistanceFee(t *testing.T) {
	tariff := DefaultTariff()

	t.Run("inner-city band", func(t *testing.T) {
		result := tariff.DistanceFee(40)
		assert.InDelta(t, 15000+40*1800, result.FeeAmount, 1e-9)
		assert.Equal(t, "inner-city (0–50km)", result.RegionLabel)
	})

	t.Run("zero distance still pays the first band base charge", func(t *testing.T) {
		result := tariff.DistanceFee(0)
		assert.InDelta(t, 15000, result.FeeAmount, 1e-9)
	})

	t.Run("band boundary is inclusive on the left band", func(t *testing.T) {
		at50 := tariff.DistanceFee(50)
		just := tariff.DistanceFee(50.0001)

		assert.InDelta(t, 1800, at50.PerKmRate, 1e-9)
		assert.InDelta(t, 1500, just.PerKmRate, 1e-9)
	})

	t.Run("suburban band", func(t *testing.T) {
		result := tariff.DistanceFee(100)
		assert.InDelta(t, 25000+100*1500, result.FeeAmount, 1e-9)
		assert.Equal(t, "suburban (50–150km)", result.RegionLabel)
	})

	t.Run("inter-provincial band is unbounded", func(t *testing.T) {
		result := tariff.DistanceFee(200)
		assert.InDelta(t, 40000+200*500, result.FeeAmount, 1e-9)
		assert.Equal(t, "inter-provincial (>150km)", result.RegionLabel)
	})

	t.Run("strictly increasing within each band", func(t *testing.T) {
		bands := [][]float64{
			{0, 1, 10, 49.9, 50},
			{50.1, 75, 100, 149, 150},
			{150.1, 200, 300, 1000},
		}
		for _, distances := range bands {
			prev := tariff.DistanceFee(distances[0]).FeeAmount
			for _, d := range distances[1:] {
				fee := tariff.DistanceFee(d).FeeAmount
				require.Greater(t, fee, prev, "fee must increase at %v km", d)
				prev = fee
			}
		}
	})
}
