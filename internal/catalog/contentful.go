package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// contentfulPageLimit is the largest page the delivery API serves.
const contentfulPageLimit = 1000

type ContentfulConfig struct {
	BaseURL     string
	SpaceID     string
	AccessToken string
	Environment string
	ContentType string

	// HTTPClient defaults to a client with an OpenTelemetry transport.
	HTTPClient *http.Client
}

// Contentful resolves products from the Contentful Content Delivery API. A
// product is an entry of ContentType whose slug field is the product id.
type Contentful struct {
	cfg    ContentfulConfig
	client *http.Client
}

func NewContentful(cfg ContentfulConfig) *Contentful {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://cdn.contentful.com"
	}
	if cfg.Environment == "" {
		cfg.Environment = "master"
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "product"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return &Contentful{cfg: cfg, client: client}
}

type contentfulLink struct {
	Sys struct {
		ID string `json:"id"`
	} `json:"sys"`
}

type contentfulEntries struct {
	Items []struct {
		Fields struct {
			Slug   string           `json:"slug"`
			Name   string           `json:"name"`
			Price  *decimal.Decimal `json:"price"`
			Images []contentfulLink `json:"images"`
		} `json:"fields"`
	} `json:"items"`
	Includes struct {
		Asset []struct {
			Sys struct {
				ID string `json:"id"`
			} `json:"sys"`
			Fields struct {
				File struct {
					URL string `json:"url"`
				} `json:"file"`
			} `json:"fields"`
		} `json:"Asset"`
	} `json:"includes"`
}

func (c *Contentful) Resolve(ctx context.Context, ids []string) (map[string]Product, error) {
	wanted := make([]string, 0, len(ids))
	for _, id := range distinct(ids) {
		// the [in] operator is comma separated
		if !strings.Contains(id, ",") {
			wanted = append(wanted, id)
		}
	}
	if len(wanted) == 0 {
		return map[string]Product{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.entriesURL(wanted), nil)
	if err != nil {
		return nil, unavailable("contentful", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, unavailable("contentful", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, unavailable("contentful", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var page contentfulEntries
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, unavailable("contentful", fmt.Errorf("decode entries: %w", err))
	}

	assets := make(map[string]string, len(page.Includes.Asset))
	for _, a := range page.Includes.Asset {
		assets[a.Sys.ID] = assetURL(a.Fields.File.URL)
	}

	want := make(map[string]struct{}, len(wanted))
	for _, id := range wanted {
		want[id] = struct{}{}
	}

	out := make(map[string]Product, len(page.Items))
	for _, item := range page.Items {
		f := item.Fields
		if _, ok := want[f.Slug]; !ok || f.Price == nil {
			continue
		}
		p := Product{ID: f.Slug, Name: f.Name, UnitPrice: *f.Price}
		if len(f.Images) > 0 {
			p.ImageRef = assets[f.Images[0].Sys.ID]
		}
		if valid(p) {
			out[p.ID] = p
		}
	}
	return out, nil
}

func (c *Contentful) entriesURL(slugs []string) string {
	q := url.Values{}
	q.Set("content_type", c.cfg.ContentType)
	q.Set("fields.slug[in]", strings.Join(slugs, ","))
	q.Set("include", "1")
	q.Set("limit", strconv.Itoa(contentfulPageLimit))

	return fmt.Sprintf("%s/spaces/%s/environments/%s/entries?%s",
		strings.TrimRight(c.cfg.BaseURL, "/"),
		url.PathEscape(c.cfg.SpaceID),
		url.PathEscape(c.cfg.Environment),
		q.Encode(),
	)
}

// Asset URLs come back protocol-relative ("//images.ctfassets.net/...").
func assetURL(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}
