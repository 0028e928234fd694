package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/famledger/internal/analytics"
	"github.com/iho/famledger/internal/domain"
)

// DashboardConfig tunes DashboardUseCase.
type DashboardConfig struct {
	CacheTTL    time.Duration
	MaxParallel int
	// Categories are always listed in category breakdowns.
	Categories []string
}

// DashboardUseCase answers the read-side questions of the app: what is due
// soon, how money moved per period, and what an account held or will hold.
// It loads records through the repositories and leaves the math to the
// analytics package.
type DashboardUseCase struct {
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	clock           Clock
	recorder        Recorder
	dashboards      dashboardCache
	categories      domain.CategorySet
	maxParallel     int
	logger          zerolog.Logger
}

// NewDashboardUseCase creates a new DashboardUseCase. cache and recorder may
// be nil.
func NewDashboardUseCase(
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	clock Clock,
	cache Cache,
	recorder Recorder,
	logger zerolog.Logger,
	cfg DashboardConfig,
) *DashboardUseCase {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultDashboardCacheTTL
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}

	return &DashboardUseCase{
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		clock:           clock,
		recorder:        recorder,
		dashboards:      dashboardCache{cache: cache, ttl: cfg.CacheTTL, recorder: recorder, logger: logger},
		categories:      domain.NewCategorySet(cfg.Categories...),
		maxParallel:     cfg.MaxParallel,
		logger:          logger,
	}
}

// UpcomingInput selects the recurring payments to project. A nil From means
// today; a nil To means UpcomingDefaultDays after From.
type UpcomingInput struct {
	UserID    string
	AccountID string
	From      *time.Time
	To        *time.Time
}

// Upcoming returns the virtual occurrences of the user's recurring
// transactions inside the window, ordered by date.
func (uc *DashboardUseCase) Upcoming(ctx context.Context, input UpcomingInput) ([]domain.Transaction, error) {
	defer uc.recorder.ObserveAggregation("upcoming", time.Now())

	from := uc.clock.Now()
	if input.From != nil {
		from = *input.From
	}
	to := from.AddDate(0, 0, UpcomingDefaultDays)
	if input.To != nil {
		to = *input.To
	}

	window, err := analytics.NewWindow(from, to)
	if err != nil {
		return nil, err
	}

	exp, err := uc.expand(ctx, input.UserID, input.AccountID, window)
	if err != nil {
		return nil, err
	}

	return exp.Occurrences, nil
}

// SeriesInput selects a period series.
type SeriesInput struct {
	UserID    string
	AccountID string
	From      time.Time
	To        time.Time
	Bucketing analytics.Bucketing
	Dimension analytics.Dimension
}

// Series aggregates the stored transactions of the window together with the
// projected occurrences of recurring ones.
func (uc *DashboardUseCase) Series(ctx context.Context, input SeriesInput) (*analytics.Series, error) {
	defer uc.recorder.ObserveAggregation("series", time.Now())

	window, err := analytics.NewWindow(input.From, input.To)
	if err != nil {
		return nil, err
	}
	start, end := window.Bounds()

	key, cached := uc.dashboards.key(ctx, input.UserID,
		"series", input.AccountID, formatKeyTime(start), formatKeyTime(end),
		string(input.Bucketing), string(input.Dimension))
	if cached {
		var series analytics.Series
		if uc.dashboards.load(ctx, key, &series) {
			return &series, nil
		}
	}

	persisted, err := uc.transactionRepo.List(ctx, TransactionFilter{
		UserID:    input.UserID,
		AccountID: input.AccountID,
		From:      &start,
		To:        &end,
	})
	if err != nil {
		return nil, err
	}

	exp, err := uc.expand(ctx, input.UserID, input.AccountID, window)
	if err != nil {
		return nil, err
	}

	combined := make([]domain.Transaction, 0, len(persisted)+len(exp.Occurrences))
	combined = append(combined, persisted...)
	combined = append(combined, exp.Occurrences...)

	series := analytics.Aggregate(combined, analytics.AggregateOptions{
		Bucketing:  input.Bucketing,
		Dimension:  input.Dimension,
		Categories: uc.categories,
	})

	if cached {
		uc.dashboards.store(ctx, key, series)
	}

	return &series, nil
}

// BalanceResult is the balance of one account at one moment.
type BalanceResult struct {
	Account *domain.Account
	AsOf    time.Time
	Balance decimal.Decimal
}

// Balance projects the balance of an account at asOf; nil means now.
func (uc *DashboardUseCase) Balance(ctx context.Context, accountID string, asOf *time.Time) (*BalanceResult, error) {
	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	at := now
	if asOf != nil {
		at = *asOf
	}

	balance, err := uc.projectAt(ctx, acc, at, now)
	if err != nil {
		return nil, err
	}

	return &BalanceResult{Account: acc, AsOf: at, Balance: balance}, nil
}

// Balances projects every account of the user at asOf; nil means now.
// Accounts are loaded concurrently, at most MaxParallel at a time.
func (uc *DashboardUseCase) Balances(ctx context.Context, userID string, asOf *time.Time) ([]BalanceResult, error) {
	defer uc.recorder.ObserveAggregation("balances", time.Now())

	accounts, err := uc.accountRepo.ListByUser(ctx, userID, 1000, 0)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	at := now
	if asOf != nil {
		at = *asOf
	}

	results := make([]BalanceResult, len(accounts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.maxParallel)

	for i, acc := range accounts {
		g.Go(func() error {
			balance, err := uc.projectAt(gctx, acc, at, now)
			if err != nil {
				return err
			}
			results[i] = BalanceResult{Account: acc, AsOf: at, Balance: balance}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// HistoryInput selects a balance history.
type HistoryInput struct {
	AccountID string
	From      time.Time
	To        time.Time
}

// History returns the balance of an account at the end of every month of the
// window. The last point is capped at now.
func (uc *DashboardUseCase) History(ctx context.Context, input HistoryInput) ([]analytics.BalancePoint, error) {
	defer uc.recorder.ObserveAggregation("history", time.Now())

	window, err := analytics.NewWindow(input.From, input.To)
	if err != nil {
		return nil, err
	}

	acc, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	points := analytics.MonthEnds(window, now)
	if len(points) == 0 {
		return []analytics.BalancePoint{}, nil
	}

	start, end := window.Bounds()
	key, cached := uc.dashboards.key(ctx, acc.UserID,
		"history", acc.ID, formatKeyTime(start), formatKeyTime(end), formatKeyTime(points[len(points)-1]))
	if cached {
		var history []analytics.BalancePoint
		if uc.dashboards.load(ctx, key, &history) {
			return history, nil
		}
	}

	settled, txs, err := uc.settle(ctx, acc, points[0], now)
	if err != nil {
		return nil, err
	}

	history := analytics.BalanceHistory(settled, txs, points, now)

	if cached {
		uc.dashboards.store(ctx, key, history)
	}

	return history, nil
}

// Forecast estimates the balance of an account at until. Future dates add
// the projected occurrences of recurring transactions; past dates fall back
// to the historical projection.
func (uc *DashboardUseCase) Forecast(ctx context.Context, accountID string, until time.Time) (*BalanceResult, error) {
	defer uc.recorder.ObserveAggregation("forecast", time.Now())

	acc, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := uc.clock.Now()
	if !until.After(now) {
		balance, err := uc.projectAt(ctx, acc, until, now)
		if err != nil {
			return nil, err
		}
		return &BalanceResult{Account: acc, AsOf: until, Balance: balance}, nil
	}

	window, err := analytics.NewWindow(now, until.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	settled, stored, err := uc.settle(ctx, acc, now, now)
	if err != nil {
		return nil, err
	}

	exp, err := uc.expand(ctx, acc.UserID, acc.ID, window)
	if err != nil {
		return nil, err
	}

	return &BalanceResult{
		Account: acc,
		AsOf:    until,
		Balance: analytics.ForecastBalance(settled, append(stored, exp.Occurrences...), until, now),
	}, nil
}

func (uc *DashboardUseCase) projectAt(ctx context.Context, acc *domain.Account, at, now time.Time) (decimal.Decimal, error) {
	settled, txs, err := uc.settle(ctx, acc, at, now)
	if err != nil {
		return decimal.Zero, err
	}
	if !at.Before(now) {
		return settled.Balance, nil
	}

	return analytics.ProjectBalance(settled, txs, at, now), nil
}

// settle loads the stored transactions of acc dated from min(from, now) on
// and returns a copy of acc whose balance leaves out those dated after now.
func (uc *DashboardUseCase) settle(ctx context.Context, acc *domain.Account, from, now time.Time) (domain.Account, []domain.Transaction, error) {
	if from.After(now) {
		from = now
	}

	txs, err := uc.transactionRepo.List(ctx, TransactionFilter{AccountID: acc.ID, From: &from})
	if err != nil {
		return domain.Account{}, nil, err
	}

	settled := *acc
	settled.Balance = analytics.SettledBalance(settled, txs, now)

	return settled, txs, nil
}

// expand projects the user's recurring transactions onto window, optionally
// keeping only those that touch accountID. Invalid rules are logged and
// skipped.
func (uc *DashboardUseCase) expand(ctx context.Context, userID, accountID string, window analytics.Window) (analytics.Expansion, error) {
	recurring, err := uc.transactionRepo.ListRecurring(ctx, userID)
	if err != nil {
		return analytics.Expansion{}, err
	}

	if accountID != "" {
		recurring = touching(recurring, accountID)
	}

	exp := analytics.Expand(recurring, window)

	for _, skipped := range exp.Skipped {
		uc.logger.Warn().
			Err(skipped.Err).
			Str("transaction_id", skipped.TransactionID).
			Str("user_id", userID).
			Msg("skipping recurring transaction with invalid rule")
	}
	uc.recorder.RecordExpansion(len(exp.Occurrences), len(exp.Skipped))

	return exp, nil
}

func touching(txs []domain.Transaction, accountID string) []domain.Transaction {
	out := txs[:0:0]
	for _, t := range txs {
		if t.AccountID == accountID || t.ToAccountID == accountID {
			out = append(out, t)
		}
	}
	return out
}
