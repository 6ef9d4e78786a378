package client

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"catalog/selector/internal/catalog"
	"catalog/selector/internal/domain"
)

// CatalogClient downloads the catalog document from a remote URL.
// It implements catalog.Source.
type CatalogClient struct {
	httpClient *resty.Client
	url        string
}

func NewCatalogClient(url string, timeout time.Duration, maxRetries int) *CatalogClient {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(maxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json, application/yaml;q=0.9")

	return &CatalogClient{
		httpClient: client,
		url:        url,
	}
}

func (c *CatalogClient) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch catalog from %s: %w", c.url, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch catalog from %s: HTTP %d", c.url, resp.StatusCode())
	}

	categories, err := catalog.Decode(resp.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog from %s: %w", c.url, err)
	}

	log.Debugf("Fetched %d categories from %s", len(categories), c.url)
	return categories, nil
}

// Close releases the underlying HTTP client.
func (c *CatalogClient) Close() error {
	return c.httpClient.Close()
}
