package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchbase/gocb/v2"
	"github.com/shopspring/decimal"
)

// couchbaseQuerier is satisfied by *gocb.Cluster and *gocb.Scope.
type couchbaseQuerier interface {
	Query(statement string, opts *gocb.QueryOptions) (*gocb.QueryResult, error)
}

// productDocument is the stored shape of a product, keyed by its slug.
type productDocument struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageRef string          `json:"imageRef"`
}

// Couchbase resolves products stored as documents keyed by product id.
type Couchbase struct {
	querier   couchbaseQuerier
	statement string
}

func NewCouchbase(querier couchbaseQuerier, keyspace string) (*Couchbase, error) {
	keyspace = strings.TrimSpace(keyspace)
	if keyspace == "" || strings.Contains(keyspace, "`") {
		return nil, fmt.Errorf("couchbase catalog: invalid keyspace %q", keyspace)
	}
	return &Couchbase{
		querier: querier,
		statement: "SELECT META(p).id AS id, p.name, p.price, p.imageRef " +
			"FROM `" + keyspace + "` AS p USE KEYS $ids",
	}, nil
}

func (c *Couchbase) Resolve(ctx context.Context, ids []string) (map[string]Product, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return map[string]Product{}, nil
	}

	result, err := c.querier.Query(c.statement, &gocb.QueryOptions{
		Context:         ctx,
		ParentSpan:      parentSpan(ctx),
		Readonly:        true,
		NamedParameters: map[string]interface{}{"ids": ids},
	})
	if err != nil {
		return nil, unavailable("couchbase", err)
	}
	defer result.Close()

	out := make(map[string]Product, len(ids))
	for result.Next() {
		var doc productDocument
		if err := result.Row(&doc); err != nil {
			return nil, unavailable("couchbase", fmt.Errorf("decode row: %w", err))
		}
		if p := doc.product(); valid(p) {
			out[p.ID] = p
		}
	}
	if err := result.Err(); err != nil {
		return nil, unavailable("couchbase", err)
	}
	return out, nil
}

func (d productDocument) product() Product {
	return Product{
		ID:        d.ID,
		Name:      d.Name,
		UnitPrice: d.Price,
		ImageRef:  d.ImageRef,
	}
}
