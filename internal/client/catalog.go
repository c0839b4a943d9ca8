package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/web/internal/config"
	"storefront/web/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// CatalogClient fetches the storefront taxonomy from the backend. Every call
// returns a keyed collection; an empty body yields an empty collection.
type CatalogClient interface {
	FetchCategories(ctx context.Context) (domain.Categories, error)
	FetchSubcategories(ctx context.Context) (domain.Subcategories, error)
	FetchProductTypes(ctx context.Context) (domain.ProductTypes, error)
	FetchProducts(ctx context.Context) (domain.Products, error)
}

type catalogClient struct {
	rl         ratelimit.Limiter
	config     config.BackendConfig
	httpClient *resty.Client
}

func NewCatalogClient(cfg config.BackendConfig) CatalogClient {
	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	return &catalogClient{
		rl:         ratelimit.New(rps),
		config:     cfg,
		httpClient: client,
	}
}

func (c *catalogClient) FetchCategories(ctx context.Context) (domain.Categories, error) {
	items, err := fetchCollection(ctx, c, c.config.CategoriesPath, func(v domain.Category) string { return v.ID })
	return domain.Categories(items), err
}

func (c *catalogClient) FetchSubcategories(ctx context.Context) (domain.Subcategories, error) {
	items, err := fetchCollection(ctx, c, c.config.SubcategoriesPath, func(v domain.Subcategory) string { return v.ID })
	return domain.Subcategories(items), err
}

func (c *catalogClient) FetchProductTypes(ctx context.Context) (domain.ProductTypes, error) {
	items, err := fetchCollection(ctx, c, c.config.ProductTypesPath, func(v domain.ProductType) string { return v.ID })
	return domain.ProductTypes(items), err
}

func (c *catalogClient) FetchProducts(ctx context.Context) (domain.Products, error) {
	items, err := fetchCollection(ctx, c, c.config.ProductsPath, func(v domain.Product) string { return v.ID })
	return domain.Products(items), err
}

func (c *catalogClient) fetchJSON(ctx context.Context, path string) ([]byte, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	if resp.StatusCode() == http.StatusNoContent || resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, &StatusError{Path: path, Code: resp.StatusCode()}
	}

	return resp.Bytes(), nil
}

// fetchCollection decodes either a JSON array of entities or an object keyed
// by id. Entities without an id fall back to their object key.
func fetchCollection[T any](ctx context.Context, c *catalogClient, path string, id func(T) string) (map[string]T, error) {
	body, err := c.fetchJSON(ctx, path)
	if err != nil {
		return nil, err
	}

	items, err := decodeCollection(body, id)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	log.Debugf("Fetched %d entries from %s", len(items), path)
	return items, nil
}

func decodeCollection[T any](body []byte, id func(T) string) (map[string]T, error) {
	items := make(map[string]T)

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return items, nil
	}

	if body[0] == '[' {
		var list []T
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		for _, v := range list {
			if key := id(v); key != "" {
				items[key] = v
			}
		}
		return items, nil
	}

	var keyed map[string]T
	if err := json.Unmarshal(body, &keyed); err != nil {
		return nil, err
	}
	for key, v := range keyed {
		if vid := id(v); vid != "" {
			key = vid
		}
		items[key] = v
	}
	return items, nil
}
