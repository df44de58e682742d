package cart

// Stats are derived from the cart on every change and never persisted.
type Stats struct {
	ItemCount          int     `json:"itemCount"`
	UniqueProductCount int     `json:"uniqueProductCount"`
	TotalValue         float64 `json:"totalValue"`
}

// ComputeStats recomputes the derived totals. Malformed prices count as zero
// rather than poisoning the total.
func ComputeStats(c Cart) Stats {
	s := Stats{UniqueProductCount: len(c)}
	for _, it := range c {
		s.ItemCount += it.Quantity
		s.TotalValue += it.Price.Value() * float64(it.Quantity)
	}
	return s
}
