package cache

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Domain identifies an independent cache invalidation scope. Each domain has
// its own monotonic version counter embedded in every cache key it owns, so
// bumping the counter invalidates all of the domain's entries at once
// without enumerating them.
type Domain string

const (
	// DomainProductList covers cached catalog list responses.
	DomainProductList Domain = "products_list"
	// DomainOrderDetail covers cached per-order detail payloads.
	DomainOrderDetail Domain = "order_detail"
)

func (d Domain) counterKey() string {
	return string(d) + "_version"
}

// VersionRegistry manages the per-domain version counters.
type VersionRegistry struct {
	store  Store
	logger *log.Entry
}

// NewVersionRegistry creates a registry over the given store.
func NewVersionRegistry(store Store) *VersionRegistry {
	return &VersionRegistry{
		store:  store,
		logger: log.WithField("component", "cache-versions"),
	}
}

// GetVersion returns the current version for a domain, atomically
// initializing a missing counter to 1. Concurrent initializers all observe 1.
func (r *VersionRegistry) GetVersion(ctx context.Context, domain Domain) (int64, error) {
	key := domain.counterKey()

	v, ok, err := r.store.GetInt64(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok {
		return v, nil
	}

	created, err := r.store.SetInt64NX(ctx, key, 1)
	if err != nil {
		return 0, err
	}
	if created {
		return 1, nil
	}

	// Lost the init race; a writer or another reader got there first.
	v, ok, err = r.store.GetInt64(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 1, nil
	}
	return v, nil
}

// Bump increments a domain's version, invalidating every key that embeds the
// previous value. A missing counter is set to 2: the bump is treated as if a
// prior version 1 existed and is now stale, which covers the race against a
// reader initializing to 1 concurrently.
func (r *VersionRegistry) Bump(ctx context.Context, domain Domain) error {
	key := domain.counterKey()

	v, err := r.store.Increment(ctx, key)
	if errors.Is(err, ErrCounterNotInitialized) {
		return r.store.SetInt64(ctx, key, 2)
	}
	if err != nil {
		return err
	}

	r.logger.WithFields(log.Fields{"domain": domain, "version": v}).Debug("Cache version bumped")
	return nil
}

// ProductListKey builds the versioned cache key for a catalog list response.
func ProductListKey(version int64, discriminator string) string {
	return fmt.Sprintf("%s_v%d_%s", DomainProductList, version, discriminator)
}

// OrderDetailKey builds the versioned cache key for an order detail payload.
func OrderDetailKey(version int64, orderID int64) string {
	return fmt.Sprintf("%s_v%d_%d", DomainOrderDetail, version, orderID)
}
