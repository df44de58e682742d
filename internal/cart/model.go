package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Origin tags where a line item came from during a merge. It only matters
// while a merge is running; the last tag is kept on persisted items for
// debugging.
type Origin string

const (
	OriginLocal         Origin = "local"
	OriginAPI           Origin = "api"
	OriginLocalOverride Origin = "local-override"
)

// PlaceholderTitle is used for lines whose product lookup failed.
const PlaceholderTitle = "Unknown Product"

// Price tolerates malformed catalog data: anything that does not decode as a
// number becomes zero instead of failing the whole cart.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		*p = 0
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*p = Price(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*p = 0
			return nil
		}
		*p = Price(f)
	default:
		*p = 0
	}
	return nil
}

// Value returns the price as a float64, coercing NaN/Inf to zero so derived
// stats never produce garbage.
func (p Price) Value() float64 {
	f := float64(p)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Rating is the catalog rating summary copied onto a line at hydration time.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// ProductInfo is the catalog data needed to open a new cart line.
type ProductInfo struct {
	ProductID string
	Title     string
	Price     Price
	Image     string
	Category  string
	Rating    Rating
}

// LineItem is a product denormalized into the cart. Display fields are copied
// once (at add or hydration time) and are not refreshed when the catalog
// changes. Quantity is always >= 1; a line that would drop to zero is removed
// from the cart instead.
type LineItem struct {
	ProductID string    `json:"productId"`
	Title     string    `json:"title"`
	Price     Price     `json:"price"`
	Image     string    `json:"image,omitempty"`
	Category  string    `json:"category,omitempty"`
	Rating    Rating    `json:"rating"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Origin    Origin    `json:"origin,omitempty"`
}

// NewLine opens a fresh local line for a product.
func NewLine(p ProductInfo, quantity int, now time.Time) LineItem {
	return LineItem{
		ProductID: p.ProductID,
		Title:     p.Title,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Rating:    p.Rating,
		Quantity:  quantity,
		AddedAt:   now,
		UpdatedAt: now,
		Origin:    OriginLocal,
	}
}

// PlaceholderLine stands in for a remote cart entry whose product lookup
// failed. Partial hydration is preferred over dropping the entry.
func PlaceholderLine(productID string, quantity int, now time.Time) LineItem {
	return LineItem{
		ProductID: productID,
		Title:     PlaceholderTitle,
		Price:     0,
		Quantity:  quantity,
		AddedAt:   now,
		UpdatedAt: now,
		Origin:    OriginAPI,
	}
}

// Cart is an ordered collection of line items, unique by productId.
type Cart []LineItem

// IndexOf returns the position of productID in the cart, or -1.
func (c Cart) IndexOf(productID string) int {
	for i := range c {
		if c[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy safe to hand to subscribers and background syncs.
func (c Cart) Clone() Cart {
	if c == nil {
		return nil
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Dedupe collapses duplicate productIds by accumulating quantities, keeping
// first-seen order. Carts read back from storage go through this so a
// tampered or buggy entry can never introduce duplicate lines.
func Dedupe(c Cart) Cart {
	if len(c) < 2 {
		return c
	}
	out := make(Cart, 0, len(c))
	idx := make(map[string]int, len(c))
	for _, it := range c {
		if i, ok := idx[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			if it.UpdatedAt.After(out[i].UpdatedAt) {
				out[i].UpdatedAt = it.UpdatedAt
			}
			continue
		}
		idx[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}
