package catalog

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Static is an in-memory catalog.
type Static struct {
	products map[string]Product
}

func NewStatic(products ...Product) *Static {
	s := &Static{products: make(map[string]Product, len(products))}
	for _, p := range products {
		if valid(p) {
			s.products[p.ID] = p
		}
	}
	return s
}

func (s *Static) Resolve(ctx context.Context, ids []string) (map[string]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("static", err)
	}

	out := make(map[string]Product)
	for _, id := range distinct(ids) {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type catalogFile struct {
	Products []Product `yaml:"products"`
}

// LoadFile reads a YAML product list:
//
//	products:
//	  - id: ring-1
//	    name: Gold ring
//	    price: 500
//	    image: https://images.example.com/ring-1.jpg
func LoadFile(path string) (*Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", path, err)
	}
	for i, p := range f.Products {
		if !valid(p) {
			return nil, fmt.Errorf("catalog file %s: product %d (%q) needs an id and a non-negative price", path, i, p.ID)
		}
	}
	return NewStatic(f.Products...), nil
}
