package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/utils"
)

// Category-by-name lookups happen on every search and every property write, so
// resolved categories are kept in redis for a short window. Any category edit
// evicts the tenant's whole set; a stale schema must not outlive an
// administrator's update by more than the TTL.
const categoryCacheTTL = 5 * time.Minute

func categoryCacheKey(tenantID, name string) string {
	return fmt.Sprintf("category:%s:%s", tenantID, name)
}

func categoryFromCache(tenantID, name string) (*models.Category, bool) {
	if !utils.CacheAvailable() {
		return nil, false
	}
	data, err := utils.CacheGet(categoryCacheKey(tenantID, name))
	if err != nil {
		return nil, false
	}
	var category models.Category
	if err := json.Unmarshal([]byte(data), &category); err != nil {
		return nil, false
	}
	return &category, true
}

func cacheCategory(category *models.Category) {
	if !utils.CacheAvailable() {
		return
	}
	data, err := json.Marshal(category)
	if err != nil {
		return
	}
	// Cache failures only cost a database round trip.
	_ = utils.CacheSet(categoryCacheKey(category.TenantID, category.Name), string(data), categoryCacheTTL)
}

func evictTenantCategories(tenantID string) {
	if !utils.CacheAvailable() {
		return
	}
	_ = utils.CacheDeletePattern(categoryCacheKey(tenantID, "*"))
}
