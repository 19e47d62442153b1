package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/ogozo/service-storefront/internal/catalog"
	"github.com/ogozo/service-storefront/internal/ledger"
)

var tracer = otel.Tracer("github.com/ogozo/service-storefront/internal/cart")

type LineItem struct {
	Product   catalog.Product `json:"product"`
	Count     int             `json:"count"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Materialized is a ledger resolved against the catalog. It is derived on
// every read and never persisted.
type Materialized struct {
	LineItems  []LineItem      `json:"lineItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	TotalCount int             `json:"totalCount"`
}

func (m Materialized) IsEmpty() bool { return len(m.LineItems) == 0 }

// Materialize resolves every product of l with a single lookup call. Entries
// the catalog no longer knows are dropped; line items keep ledger order. A
// failed lookup returns an error wrapping catalog.ErrUnavailable.
func Materialize(ctx context.Context, lookup catalog.Lookup, l ledger.Ledger) (Materialized, error) {
	out := Materialized{LineItems: []LineItem{}, TotalPrice: decimal.Zero}
	if l.IsEmpty() {
		return out, nil
	}

	ctx, span := tracer.Start(ctx, "cart.Materialize")
	defer span.End()

	ids := l.ProductIDs()
	span.SetAttributes(attribute.Int("cart.requested", len(ids)))

	products, err := lookup.Resolve(ctx, ids)
	if err != nil {
		if !errors.Is(err, catalog.ErrUnavailable) {
			err = fmt.Errorf("%w: %w", catalog.ErrUnavailable, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog lookup failed")
		return Materialized{}, err
	}

	for _, e := range l.Entries() {
		p, ok := products[e.ProductID]
		if !ok {
			continue
		}
		lineTotal := p.UnitPrice.Mul(decimal.NewFromInt(int64(e.Count)))
		out.LineItems = append(out.LineItems, LineItem{
			Product:   p,
			Count:     e.Count,
			LineTotal: lineTotal,
		})
		out.TotalPrice = out.TotalPrice.Add(lineTotal)
		out.TotalCount += e.Count
	}

	span.SetAttributes(
		attribute.Int("cart.resolved", len(out.LineItems)),
		attribute.Int("cart.dropped", len(ids)-len(out.LineItems)),
	)
	return out, nil
}
