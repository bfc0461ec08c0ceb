package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/natalis-app/natalis-backend/internal/geocoding/domain"
	"github.com/natalis-app/natalis-backend/internal/geocoding/nominatim"
	"github.com/natalis-app/natalis-backend/internal/geocoding/tz"
	"github.com/natalis-app/natalis-backend/internal/platform/logger"
	"github.com/natalis-app/natalis-backend/internal/platform/metrics"
)

const (
	MinQueryLength = 2
	DefaultTimeout = 6 * time.Second
)

// PlaceSearcher is the remote geocoding capability.
type PlaceSearcher interface {
	Search(ctx context.Context, query string) ([]nominatim.Place, error)
}

// Cache remembers the candidate list of a normalised query.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.Candidate, bool, error)
	Set(ctx context.Context, key string, items []domain.Candidate) error
}

type ResolverOptions struct {
	Timeout       time.Duration
	RatePerSecond float64
}

// Resolver turns free text into place candidates. It never reports an error:
// any failure yields an empty list.
type Resolver struct {
	searcher PlaceSearcher
	cache    Cache
	locator  tz.Locator
	limiter  *rate.Limiter
	timeout  time.Duration
	group    singleflight.Group
}

// NewResolver wires a resolver. A nil cache falls back to an in-process cache.
func NewResolver(searcher PlaceSearcher, cache Cache, locator tz.Locator, opts ResolverOptions) *Resolver {
	if cache == nil {
		cache = NewMemoryCache(24 * time.Hour)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	return &Resolver{
		searcher: searcher,
		cache:    cache,
		locator:  locator,
		limiter:  rate.NewLimiter(limit, 1),
		timeout:  opts.Timeout,
	}
}

func (r *Resolver) Search(ctx context.Context, query string) []domain.Candidate {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		metrics.RecordGeocode("short_query")
		return []domain.Candidate{}
	}
	key := normalizeQuery(q)
	log := logger.NewLogger(ctx)

	items, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		log.LogWarnf("geo_search", "cache read failed key=%q err=%v", key, err)
	}
	if ok {
		metrics.RecordGeocode("cache_hit")
		return items
	}

	v, _, _ := r.group.Do(key, func() (any, error) {
		return r.lookup(ctx, key, q), nil
	})
	return v.([]domain.Candidate)
}

// lookup runs detached from the caller's cancellation so callers sharing the
// flight are not cut short by one of them going away.
func (r *Resolver) lookup(parent context.Context, key, q string) []domain.Candidate {
	log := logger.NewLogger(parent)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		metrics.RecordGeocode("error")
		log.LogWarnf("geo_search", "rate limiter wait failed query=%q err=%v", q, err)
		return []domain.Candidate{}
	}

	places, err := r.searcher.Search(ctx, q)
	if err != nil {
		metrics.RecordGeocode("error")
		log.LogWarnf("geo_search", "lookup failed query=%q err=%v", q, err)
		return []domain.Candidate{}
	}
	metrics.RecordGeocode("remote")

	items := make([]domain.Candidate, 0, len(places))
	for _, p := range places {
		if c, ok := r.toCandidate(p); ok {
			items = append(items, c)
		}
	}

	if err := r.cache.Set(ctx, key, items); err != nil {
		log.LogWarnf("geo_search", "cache write failed key=%q err=%v", key, err)
	}
	return items
}

func (r *Resolver) toCandidate(p nominatim.Place) (domain.Candidate, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	if err != nil {
		return domain.Candidate{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if err != nil {
		return domain.Candidate{}, false
	}

	city := firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village, p.Address.Hamlet)
	if city == "" {
		first, _, _ := strings.Cut(p.DisplayName, ",")
		city = strings.TrimSpace(first)
	}

	c := domain.Candidate{
		ID:          candidateID(p, lat, lng),
		City:        city,
		Lat:         lat,
		Lng:         lng,
		DisplayName: displayName(city, p.Address.State, p.Address.Country),
	}
	if code := strings.TrimSpace(p.Address.CountryCode); len(code) == 2 {
		upper := strings.ToUpper(code)
		c.Nation = &upper
	}
	if r.locator != nil {
		if name, err := r.locator.Locate(lat, lng); err == nil && name != "" {
			c.TZ = &name
		}
	}
	return c, true
}

func candidateID(p nominatim.Place, lat, lng float64) string {
	if p.PlaceID != 0 {
		return strconv.FormatInt(p.PlaceID, 10)
	}
	if p.OSMID != 0 {
		return fmt.Sprintf("%s:%d", p.OSMType, p.OSMID)
	}
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)
}

func displayName(city, state, country string) string {
	parts := []string{city}
	for _, extra := range []string{state, country} {
		extra = strings.TrimSpace(extra)
		if extra != "" && !strings.EqualFold(extra, city) {
			parts = append(parts, extra)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// MemoryCache is the in-process Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	items   []domain.Candidate
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]domain.Candidate, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.items, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, items []domain.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{items: items, expires: m.now().Add(m.ttl)}
	return nil
}
