package usecase

import (
	"errors"
	"time"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultDashboardCacheTTL applies when no TTL is configured.
	DefaultDashboardCacheTTL = 5 * time.Minute

	// DefaultMaxParallel bounds concurrent per-account work in dashboards.
	DefaultMaxParallel = 4

	// UpcomingDefaultDays is the horizon of the upcoming payments list when
	// no window is given.
	UpcomingDefaultDays = 30
)

// ErrCacheMiss is returned by Cache.Get for absent keys.
var ErrCacheMiss = errors.New("cache miss")
