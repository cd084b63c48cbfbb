package catalog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/allegro/bigcache/v3"
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/shailum17/BazaarBuddy-sub000/internal/config"
	"github.com/shailum17/BazaarBuddy-sub000/internal/model"
	"github.com/shailum17/BazaarBuddy-sub000/internal/repository"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/log"
	"github.com/shailum17/BazaarBuddy-sub000/pkg/utils"
)

// Service read side of the product catalog. Browse traffic is served
// through a local cache with a bloom filter in front to short-circuit
// lookups of IDs that were never created. Order creation never reads
// through here: reservations hit the database directly so the cache can
// only ever be stale for display, not for stock accounting.
type Service struct {
	productRepo repository.ProductRepository

	cache *bigcache.BigCache

	mu    sync.RWMutex
	known *bloom.BloomFilter
}

// NewService creates the catalog service and seeds the bloom filter with
// every known product ID
func NewService(productRepo repository.ProductRepository, cfg config.CatalogConfig) (*Service, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(cfg.CacheTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	s := &Service{
		productRepo: productRepo,
		cache:       cache,
		known:       bloom.NewWithEstimates(cfg.BloomExpectedKeys, cfg.BloomFalsePositiveRate),
	}

	if err := s.seedKnownIDs(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) seedKnownIDs(ctx context.Context) error {
	ids, err := s.productRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed product filter: %w", err)
	}
	s.mu.Lock()
	for _, id := range ids {
		s.known.Add(idKey(id))
	}
	s.mu.Unlock()

	log.Infof("Catalog filter seeded with %d products", len(ids))
	return nil
}

func idKey(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

// GetProduct returns a product for display. Unknown IDs fail fast on the
// bloom filter without touching cache or database.
func (s *Service) GetProduct(ctx context.Context, id uint64) (*model.Product, error) {
	s.mu.RLock()
	mayExist := s.known.Test(idKey(id))
	s.mu.RUnlock()
	if !mayExist {
		return nil, utils.ErrProductNotFound
	}

	cacheKey := fmt.Sprintf("product:%d", id)
	if data, err := s.cache.Get(cacheKey); err == nil {
		var p model.Product
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		// undecodable entry, fall through to the database
		s.cache.Delete(cacheKey)
	}

	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := s.cache.Set(cacheKey, data); err != nil {
			log.Warnf("Failed to cache product %d: %v", id, err)
		}
	}
	return p, nil
}

// ListBySupplier lists a supplier's products for storefront browsing
func (s *Service) ListBySupplier(ctx context.Context, supplierID uint64, page, pageSize int) ([]*model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.productRepo.ListBySupplier(ctx, supplierID, page, pageSize)
}

// CreateProduct registers a supplier's product and admits it into the
// known-ID filter
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) error {
	if err := s.productRepo.Create(ctx, p); err != nil {
		return err
	}
	s.mu.Lock()
	s.known.Add(idKey(p.ID))
	s.mu.Unlock()
	return nil
}

// InvalidateProduct evicts a product from the display cache, called after
// a write changed its fields
func (s *Service) InvalidateProduct(id uint64) {
	s.cache.Delete(fmt.Sprintf("product:%d", id))
}
