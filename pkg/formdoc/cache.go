package formdoc

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the template cache
type CacheConfig struct {
	// MaxSize is the maximum number of templates to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached templates. 0 means no expiration.
	TTL time.Duration
}

// TemplateCache is an LRU cache of parsed templates keyed by source.
// Cached templates are shared; callers must not modify them.
type TemplateCache struct {
	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
	now    func() time.Time
}

type cacheEntry struct {
	key      string
	template *Template
	expiry   time.Time
	element  *list.Element
}

// NewTemplateCache creates a new template cache with the given configuration
func NewTemplateCache(config CacheConfig) *TemplateCache {
	return &TemplateCache{
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
		now:    time.Now,
	}
}

// Load returns the cached template for key, or calls load and caches its
// result. Load errors are not cached.
func (tc *TemplateCache) Load(key string, load func() (*Template, error)) (*Template, error) {
	if tmpl, ok := tc.Get(key); ok {
		return tmpl, nil
	}
	tmpl, err := load()
	if err != nil {
		return nil, err
	}
	tc.Set(key, tmpl)
	return tmpl, nil
}

// Get retrieves a template from cache
func (tc *TemplateCache) Get(key string) (*Template, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	entry, exists := tc.cache[key]
	if !exists {
		return nil, false
	}
	if tc.expired(entry) {
		tc.removeLocked(entry)
		return nil, false
	}
	tc.lru.MoveToFront(entry.element)
	return entry.template, true
}

// Set adds a template to the cache
func (tc *TemplateCache) Set(key string, template *Template) {
	if tc.config.MaxSize <= 0 {
		return
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	var expiry time.Time
	if tc.config.TTL > 0 {
		expiry = tc.now().Add(tc.config.TTL)
	}

	if existing, exists := tc.cache[key]; exists {
		existing.template = template
		existing.expiry = expiry
		tc.lru.MoveToFront(existing.element)
		return
	}

	for tc.lru.Len() >= tc.config.MaxSize {
		tc.removeLocked(tc.lru.Back().Value.(*cacheEntry))
	}

	entry := &cacheEntry{key: key, template: template, expiry: expiry}
	entry.element = tc.lru.PushFront(entry)
	tc.cache[key] = entry
}

// Remove removes a template from the cache
func (tc *TemplateCache) Remove(key string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if entry, exists := tc.cache[key]; exists {
		tc.removeLocked(entry)
	}
}

// Clear removes all templates from the cache
func (tc *TemplateCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cache = make(map[string]*cacheEntry)
	tc.lru = list.New()
}

// Size returns the current number of cached templates
func (tc *TemplateCache) Size() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.cache)
}

func (tc *TemplateCache) expired(entry *cacheEntry) bool {
	return tc.config.TTL > 0 && tc.now().After(entry.expiry)
}

func (tc *TemplateCache) removeLocked(entry *cacheEntry) {
	delete(tc.cache, entry.key)
	tc.lru.Remove(entry.element)
}
