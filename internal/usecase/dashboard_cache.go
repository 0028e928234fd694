package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func dashboardVersionKey(userID string) string {
	return "dashboard:" + userID + ":version"
}

// dashboardCache stores computed dashboards under a per-user version. Writes
// bump the version, so stale entries stop matching and expire on their own.
type dashboardCache struct {
	cache    Cache
	ttl      time.Duration
	recorder Recorder
	logger   zerolog.Logger
}

func (c dashboardCache) enabled() bool {
	return c.cache != nil
}

func (c dashboardCache) key(ctx context.Context, userID string, parts ...string) (string, bool) {
	if !c.enabled() {
		return "", false
	}

	version := "0"
	raw, err := c.cache.Get(ctx, dashboardVersionKey(userID))
	switch {
	case err == nil:
		version = string(raw)
	case errors.Is(err, ErrCacheMiss):
	default:
		c.logger.Warn().Err(err).Str("user_id", userID).Msg("reading dashboard cache version")
		return "", false
	}

	return "dashboard:" + userID + ":v" + version + ":" + strings.Join(parts, ":"), true
}

// load decodes the cached value at key into dst and reports a hit.
func (c dashboardCache) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("reading dashboard cache")
		}
		c.recorder.RecordCache(false)
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("decoding cached dashboard")
		c.recorder.RecordCache(false)
		return false
	}

	c.recorder.RecordCache(true)
	return true
}

func (c dashboardCache) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("encoding dashboard")
		return
	}

	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("writing dashboard cache")
	}
}

// invalidate bumps the dashboard version of every given user.
func (c dashboardCache) invalidate(ctx context.Context, userIDs ...string) {
	if !c.enabled() {
		return
	}

	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if _, err := c.cache.Incr(ctx, dashboardVersionKey(id)); err != nil {
			c.logger.Warn().Err(err).Str("user_id", id).Msg("invalidating dashboard cache")
		}
	}
}

func formatKeyTime(t time.Time) string {
	return strconv.FormatInt(t.UTC().Unix(), 10)
}

type noopRecorder struct{}

func (noopRecorder) RecordExpansion(int, int)             {}
func (noopRecorder) RecordCache(bool)                     {}
func (noopRecorder) ObserveAggregation(string, time.Time) {}
func (noopRecorder) RecordAccountCreated()                {}
func (noopRecorder) RecordTransactionCreated(string)      {}
func (noopRecorder) RecordTransactionDeleted()            {}
