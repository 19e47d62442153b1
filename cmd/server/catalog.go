package main

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/couchbase/gocb/v2"
	"go.uber.org/zap"

	"github.com/ogozo/service-storefront/internal/catalog"
	"github.com/ogozo/service-storefront/internal/config"
)

// newCatalog connects the configured catalog backend. The returned func
// releases its connections.
func newCatalog(ctx context.Context, cfg config.CartConfig, logger *zap.Logger) (catalog.Lookup, func(), error) {
	noop := func() {}

	switch cfg.CatalogBackend {
	case config.BackendContentful:
		return catalog.NewContentful(catalog.ContentfulConfig{
			BaseURL:     cfg.ContentfulBaseURL,
			SpaceID:     cfg.ContentfulSpaceID,
			AccessToken: cfg.ContentfulAccessToken,
			Environment: cfg.ContentfulEnvironment,
			ContentType: cfg.ContentfulContentType,
		}), noop, nil

	case config.BackendCouchbase:
		cluster, err := gocb.Connect(cfg.CouchbaseConnStr, gocb.ClusterOptions{
			Authenticator: gocb.PasswordAuthenticator{
				Username: cfg.CouchbaseUser,
				Password: cfg.CouchbasePass,
			},
		})
		if err != nil {
			return nil, noop, fmt.Errorf("could not connect to Couchbase: %w", err)
		}
		closeCluster := func() {
			if err := cluster.Close(nil); err != nil {
				logger.Warn("error closing Couchbase cluster", zap.Error(err))
			}
		}

		bucket := cluster.Bucket(cfg.CouchbaseBucket)
		if err := bucket.WaitUntilReady(5*time.Second, nil); err != nil {
			closeCluster()
			return nil, noop, fmt.Errorf("could not get bucket %s: %w", cfg.CouchbaseBucket, err)
		}

		lookup, err := catalog.NewCouchbase(cluster, cfg.CouchbaseBucket)
		if err != nil {
			closeCluster()
			return nil, noop, err
		}
		return lookup, closeCluster, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, noop, fmt.Errorf("could not create Firestore client: %w", err)
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				logger.Warn("error closing Firestore client", zap.Error(err))
			}
		}
		return catalog.NewFirestore(client, cfg.FirestoreCollection), closeClient, nil

	case config.BackendFile:
		lookup, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, noop, err
		}
		return lookup, noop, nil
	}

	return nil, noop, fmt.Errorf("unknown catalog backend %q", cfg.CatalogBackend)
}
