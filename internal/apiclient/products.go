package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

type Product struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Image       string   `json:"image,omitempty"`
	Images      []string `json:"images,omitempty"`
	Category    string   `json:"categoria,omitempty"`
	Description string   `json:"description,omitempty"`
	Stock       int      `json:"stock,omitempty"`
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.do(ctx, http.MethodGet, "/api/products", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Product(ctx context.Context, code string) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(code), "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
