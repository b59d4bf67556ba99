package domain

// ShipmentItem is the unit of fee calculation. It is built from form input and
// never persisted directly; backend Product records are created from it during
// order submission.
type ShipmentItem struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	WeightKg    float64 `json:"weightKg"`
	HeightCm    float64 `json:"heightCm"`
	WidthCm     float64 `json:"widthCm"`
	LengthCm    float64 `json:"lengthCm"`
	Fragile     bool    `json:"fragile"`
	UnitPrice   float64 `json:"unitPrice"`
}

// Valid reports whether the item participates in fee aggregation and order
// submission. Invalid items are skipped silently, never rejected.
func (i ShipmentItem) Valid() bool {
	return i.ProductName != "" && i.Quantity > 0 && i.WeightKg > 0
}

// ValidItems filters a slice down to the items that count toward fees.
func ValidItems(items []ShipmentItem) []ShipmentItem {
	valid := make([]ShipmentItem, 0, len(items))
	for _, item := range items {
		if item.Valid() {
			valid = append(valid, item)
		}
	}
	return valid
}
