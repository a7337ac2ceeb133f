package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/iamwavecut/chatwarden/internal/db"
)

const (
	policyCacheTTL  = 3 * time.Second
	policyCacheSize = 1024
)

type policyReader interface {
	policyStore
	settingsStore
}

// PolicyCache fronts the policy and settings reads with a short-TTL cache.
// Locks, exemptions, allowlists and settings are consulted on every event;
// edits become visible within the TTL, which is acceptable for chat
// configuration. Concurrent misses for the same key collapse into one
// store read.
type PolicyCache struct {
	inner      policyReader
	locks      *expirable.LRU[int64, []*db.LockConfig]
	exemptions *expirable.LRU[int64, []*db.Exemption]
	allowlist  *expirable.LRU[string, []string]
	settings   *expirable.LRU[int64, *db.Settings]
	group      singleflight.Group
}

func NewPolicyCache(inner policyReader) *PolicyCache {
	return &PolicyCache{
		inner:      inner,
		locks:      expirable.NewLRU[int64, []*db.LockConfig](policyCacheSize, nil, policyCacheTTL),
		exemptions: expirable.NewLRU[int64, []*db.Exemption](policyCacheSize, nil, policyCacheTTL),
		allowlist:  expirable.NewLRU[string, []string](policyCacheSize, nil, policyCacheTTL),
		settings:   expirable.NewLRU[int64, *db.Settings](policyCacheSize, nil, policyCacheTTL),
	}
}

func (c *PolicyCache) GetLocks(ctx context.Context, chatID int64) ([]*db.LockConfig, error) {
	if locks, ok := c.locks.Get(chatID); ok {
		return locks, nil
	}
	result, err, _ := c.group.Do(fmt.Sprintf("locks/%d", chatID), func() (interface{}, error) {
		locks, err := c.inner.GetLocks(ctx, chatID)
		if err != nil {
			return nil, err
		}
		c.locks.Add(chatID, locks)
		return locks, nil
	})
	if err != nil {
		return nil, err
	}
	locks, _ := result.([]*db.LockConfig)
	return locks, nil
}

func (c *PolicyCache) GetExemptions(ctx context.Context, chatID int64) ([]*db.Exemption, error) {
	if exemptions, ok := c.exemptions.Get(chatID); ok {
		return exemptions, nil
	}
	result, err, _ := c.group.Do(fmt.Sprintf("exemptions/%d", chatID), func() (interface{}, error) {
		exemptions, err := c.inner.GetExemptions(ctx, chatID)
		if err != nil {
			return nil, err
		}
		c.exemptions.Add(chatID, exemptions)
		return exemptions, nil
	})
	if err != nil {
		return nil, err
	}
	exemptions, _ := result.([]*db.Exemption)
	return exemptions, nil
}

func (c *PolicyCache) GetAllowlist(ctx context.Context, chatID int64, kind string) ([]string, error) {
	key := fmt.Sprintf("%d/%s", chatID, kind)
	if values, ok := c.allowlist.Get(key); ok {
		return values, nil
	}
	result, err, _ := c.group.Do("allowlist/"+key, func() (interface{}, error) {
		values, err := c.inner.GetAllowlist(ctx, chatID, kind)
		if err != nil {
			return nil, err
		}
		c.allowlist.Add(key, values)
		return values, nil
	})
	if err != nil {
		return nil, err
	}
	values, _ := result.([]string)
	return values, nil
}

// GetSettings caches hits only; ErrNotFound passes through uncached so a
// freshly created settings row is picked up on the next read.
func (c *PolicyCache) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	if settings, ok := c.settings.Get(chatID); ok {
		return settings, nil
	}
	result, err, _ := c.group.Do(fmt.Sprintf("settings/%d", chatID), func() (interface{}, error) {
		settings, err := c.inner.GetSettings(ctx, chatID)
		if err != nil {
			return nil, err
		}
		c.settings.Add(chatID, settings)
		return settings, nil
	})
	if err != nil {
		return nil, err
	}
	settings, _ := result.(*db.Settings)
	return settings, nil
}
