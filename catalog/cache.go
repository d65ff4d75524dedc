package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Source provides raw catalog data. *Client implements it.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Cache loads the catalog once and shares it.
//
// Concurrent loads collapse into a single pair of requests.
type Cache struct {
	source Source
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.RWMutex
	current *Catalog
}

// NewCache creates a cache over source.
func NewCache(source Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{source: source, logger: logger}
}

// Get returns the cached catalog, loading it on first use.
func (c *Cache) Get(ctx context.Context) (*Catalog, error) {
	if cat := c.Peek(); cat != nil {
		return cat, nil
	}
	return c.load(ctx)
}

// Refresh reloads the catalog from the source.
func (c *Cache) Refresh(ctx context.Context) (*Catalog, error) {
	return c.load(ctx)
}

// Peek returns the cached catalog without loading. It is nil before the
// first successful load.
func (c *Cache) Peek() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Product looks up id in the cached catalog.
func (c *Cache) Product(id int) (Product, bool) {
	return c.Peek().Product(id)
}

func (c *Cache) load(ctx context.Context) (*Catalog, error) {
	v, err, shared := c.group.Do("catalog", func() (any, error) {
		var products []Product
		var categories []string

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			products, err = c.source.Products(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			categories, err = c.source.Categories(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		cat := New(products, categories)
		c.mu.Lock()
		c.current = cat
		c.mu.Unlock()
		return cat, nil
	})
	if err != nil {
		c.logger.Warn("catalog load failed", zap.Error(err))
		return nil, err
	}
	c.logger.Debug("catalog loaded", zap.Bool("shared", shared))
	return v.(*Catalog), nil
}
