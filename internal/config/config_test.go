package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("CONTENTFUL_SPACE_ID", "space1")
	t.Setenv("CONTENTFUL_ACCESS_TOKEN", "token")
	t.Setenv("CART_COOKIE_SECURE", "true")
	t.Setenv("CATALOG_TIMEOUT", "750ms")

	cfg, err := Load(viper.New(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, BackendContentful, cfg.CatalogBackend)
	assert.Equal(t, "space1", cfg.ContentfulSpaceID)
	assert.Equal(t, "master", cfg.ContentfulEnvironment)
	assert.Equal(t, 750*time.Millisecond, cfg.CatalogTimeout)
	assert.Equal(t, 720*time.Hour, cfg.CartCookieMaxAge)
	assert.True(t, cfg.CartCookieSecure)
	assert.Equal(t, 4096, cfg.CartTokenMaxBytes)
	assert.Equal(t, "cart", cfg.CartCookieName)
	assert.Equal(t, ":8080", cfg.HTTPPort)
}

func TestLoadFileBackend(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", " FILE ")
	t.Setenv("CATALOG_FILE", "catalog.yaml")

	cfg, err := Load(viper.New(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.CatalogBackend)
}

func TestValidate(t *testing.T) {
	base := CartConfig{CatalogTimeout: time.Second, CartTokenMaxBytes: 4096}

	cases := map[string]struct {
		mutate func(*CartConfig)
		ok     bool
	}{
		"contentful missing token": {func(c *CartConfig) {
			c.CatalogBackend = BackendContentful
			c.ContentfulSpaceID = "s"
		}, false},
		"couchbase complete": {func(c *CartConfig) {
			c.CatalogBackend = BackendCouchbase
			c.CouchbaseConnStr = "couchbase://localhost"
			c.CouchbaseBucket = "catalog"
		}, true},
		"firestore missing project": {func(c *CartConfig) {
			c.CatalogBackend = BackendFirestore
		}, false},
		"unknown backend": {func(c *CartConfig) {
			c.CatalogBackend = "postgres"
		}, false},
		"zero timeout": {func(c *CartConfig) {
			c.CatalogBackend = BackendFile
			c.CatalogFile = "x.yaml"
			c.CatalogTimeout = 0
		}, false},
		"zero token bound": {func(c *CartConfig) {
			c.CatalogBackend = BackendFile
			c.CatalogFile = "x.yaml"
			c.CartTokenMaxBytes = 0
		}, false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
