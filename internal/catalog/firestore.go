package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
)

type firestoreProduct struct {
	Name     string  `firestore:"name"`
	Price    float64 `firestore:"price"`
	ImageRef string  `firestore:"imageRef"`
}

// Firestore resolves products from a collection whose document ids are the
// product ids.
type Firestore struct {
	client     *firestore.Client
	collection string
}

func NewFirestore(client *firestore.Client, collection string) *Firestore {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = "products"
	}
	return &Firestore{client: client, collection: collection}
}

func (f *Firestore) Resolve(ctx context.Context, ids []string) (map[string]Product, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range distinct(ids) {
		if validDocumentID(id) {
			keys = append(keys, id)
		}
	}
	if len(keys) == 0 {
		return map[string]Product{}, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(keys))
	for _, id := range keys {
		refs = append(refs, f.client.Collection(f.collection).Doc(id))
	}

	snaps, err := f.client.GetAll(ctx, refs)
	if err != nil {
		return nil, unavailable("firestore", err)
	}

	out := make(map[string]Product, len(snaps))
	for i, snap := range snaps {
		if snap == nil || !snap.Exists() || i >= len(keys) {
			continue
		}
		var doc firestoreProduct
		if err := snap.DataTo(&doc); err != nil {
			continue
		}
		p := Product{
			ID:        keys[i],
			Name:      doc.Name,
			UnitPrice: decimal.NewFromFloat(doc.Price),
			ImageRef:  doc.ImageRef,
		}
		if valid(p) {
			out[p.ID] = p
		}
	}
	return out, nil
}

const maxDocumentIDBytes = 1500

// validDocumentID reports whether Firestore accepts id as a document id. One
// invalid ref fails the whole GetAll batch, so such ids are never sent.
func validDocumentID(id string) bool {
	switch {
	case id == "", id == ".", id == "..":
		return false
	case len(id) > maxDocumentIDBytes, !utf8.ValidString(id):
		return false
	case strings.Contains(id, "/"):
		return false
	case len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"):
		return false
	}
	return true
}
