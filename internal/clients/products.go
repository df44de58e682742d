package clients

import (
	"context"
	"net/http"

	"github.com/pankajkarki11/swoo-cart-sync/internal/cart"
)

// Product is the catalog detail used to hydrate remote cart entries.
type Product struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Price    cart.Price  `json:"price"`
	Image    string      `json:"image"`
	Category string      `json:"category"`
	Rating   cart.Rating `json:"rating"`
}

// Info converts the catalog record into the shape the cart store consumes.
func (p *Product) Info() cart.ProductInfo {
	return cart.ProductInfo{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Rating:    p.Rating,
	}
}

type ProductClient struct{ c *Client }

func NewProductClient(c *Client) *ProductClient { return &ProductClient{c: c} }

func (pc *ProductClient) Get(ctx context.Context, productID string) (*Product, error) {
	var p Product
	if err := pc.c.doJSON(ctx, http.MethodGet, "/products/"+productID, "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
