package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmap/plant-service/internal/application/common"
	"github.com/greenmap/plant-service/internal/application/query"
	"github.com/greenmap/plant-service/internal/domain/geo"
	"github.com/greenmap/plant-service/internal/infrastructure"
	"github.com/greenmap/plant-service/internal/infrastructure/metrics"
)

// maxCandidates caps the bounding-box prefilter before the exact distance check.
// Rows come back nearest first, so the cap drops the farthest candidates.
const maxCandidates = 5000

// cellPadKm covers the largest distance between a center and its key rounded
// to 3 decimals (half a millidegree on both axes is under 80 m).
const cellPadKm = 0.1

// nearbyCache holds raw candidate lists in Redis, keyed by a rounded center and
// radius. Entries are never filtered or truncated for one caller; each request
// runs its own exact distance filter over them.
type nearbyCache struct {
	prefix string // "nearby:plants" or "nearby:gardens"
	redis  *infrastructure.RedisService
	ttl    time.Duration
	metric *metrics.Metrics
	logger *zap.Logger
}

// cell returns the cache key for q and the rounded center it stands for.
func (c *nearbyCache) cell(q query.NearbyQuery) (string, geo.Point) {
	center := geo.Point{Lat: roundDeg(q.Lat), Lng: roundDeg(q.Lng)}
	return fmt.Sprintf("%s:%.3f:%.3f:%g", c.prefix, center.Lat, center.Lng, q.RadiusKm), center
}

func (c *nearbyCache) get(ctx context.Context, key string, dst any) bool {
	err := c.redis.GetJSON(ctx, key, dst)
	if err == nil {
		c.metric.CacheHit(c.prefix)
		return true
	}
	if !errors.Is(err, infrastructure.ErrCacheMiss) {
		c.logger.Warn("Nearby cache read failed", zap.String("cache", c.prefix), zap.Error(err))
	}
	c.metric.CacheMiss(c.prefix)
	return false
}

func (c *nearbyCache) set(ctx context.Context, key string, v any) {
	if err := c.redis.SetJSON(ctx, key, v, c.ttl); err != nil {
		c.logger.Warn("Nearby cache write failed", zap.String("cache", c.prefix), zap.Error(err))
	}
}

func (c *nearbyCache) invalidate(ctx context.Context) {
	if err := c.redis.DeletePattern(ctx, c.prefix+":*"); err != nil {
		c.logger.Warn("Nearby cache invalidation failed", zap.String("cache", c.prefix), zap.Error(err))
	}
}

// nearbyCandidates returns every candidate that may lie within q.RadiusKm of
// q's exact center, from the cache when possible. load returns the rows inside
// a box nearest its center first.
func nearbyCandidates[T any](ctx context.Context, c *nearbyCache, q query.NearbyQuery, load func(context.Context, geo.Box, geo.Point, int) ([]T, error)) ([]T, error) {
	key, center := c.cell(q)
	var candidates []T
	if c.get(ctx, key, &candidates) {
		return candidates, nil
	}
	candidates, err := load(ctx, geo.BoundingBox(center, q.RadiusKm+cellPadKm), center, maxCandidates)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, candidates)
	return candidates, nil
}

func roundDeg(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func validateNearby(q query.NearbyQuery) (query.NearbyQuery, geo.Point, error) {
	q = q.Normalize()
	center := geo.Point{Lat: q.Lat, Lng: q.Lng}
	if err := center.Validate(); err != nil {
		return q, center, common.InvalidInput(err.Error())
	}
	return q, center, nil
}

// withinRadius keeps items no further than radiusKm from center, sorted by
// distance then id, truncated to limit.
func withinRadius[T any](items []T, center geo.Point, radiusKm float64, limit int, point func(T) geo.Point, id func(T) uuid.UUID) ([]T, []float64) {
	type scored struct {
		item T
		dist float64
	}
	kept := make([]scored, 0, len(items))
	for _, it := range items {
		d := geo.DistanceKm(center, point(it))
		if d <= radiusKm {
			kept = append(kept, scored{item: it, dist: d})
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].dist != kept[j].dist {
			return kept[i].dist < kept[j].dist
		}
		return id(kept[i].item).String() < id(kept[j].item).String()
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]T, len(kept))
	dists := make([]float64, len(kept))
	for i, k := range kept {
		out[i] = k.item
		dists[i] = k.dist
	}
	return out, dists
}

func roundKm(d float64) *float64 {
	r := float64(int64(d*1000+0.5)) / 1000
	return &r
}
