package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnavailable marks a lookup that failed as a whole. Unknown ids are not an
// error and never produce it.
var ErrUnavailable = errors.New("catalog unavailable")

type Product struct {
	ID        string          `json:"productId" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice" yaml:"price"`
	ImageRef  string          `json:"imageRef,omitempty" yaml:"image"`
}

// Lookup resolves product ids to their current records in one batched call.
// Ids the catalog does not know are omitted from the result.
type Lookup interface {
	Resolve(ctx context.Context, ids []string) (map[string]Product, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, ids []string) (map[string]Product, error)

func (f LookupFunc) Resolve(ctx context.Context, ids []string) (map[string]Product, error) {
	return f(ctx, ids)
}

func unavailable(backend string, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, backend, err)
}

// distinct trims ids and drops blanks and repeats, keeping first-seen order.
func distinct(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func valid(p Product) bool {
	return p.ID != "" && !p.UnitPrice.IsNegative()
}
