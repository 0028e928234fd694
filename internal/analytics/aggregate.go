package analytics

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/iho/famledger/internal/domain"
)

// Bucketing selects the time granularity of a series.
type Bucketing string

const (
	// BucketDay groups by day of month (1-31), across months.
	BucketDay Bucketing = "day"
	// BucketMonth groups by calendar month, labelled "Jan 2006".
	BucketMonth Bucketing = "month"
)

// Dimension optionally splits every time bucket further.
type Dimension string

const (
	DimensionNone     Dimension = ""
	DimensionAccount  Dimension = "account"
	DimensionCategory Dimension = "category"
	DimensionUser     Dimension = "user"
)

// MonthLabelLayout is the time layout of month bucket keys.
const MonthLabelLayout = "Jan 2006"

var (
	ErrUnknownBucketing = errors.New("unknown bucketing")
	ErrUnknownDimension = errors.New("unknown dimension")
)

// ParseBucketing parses "day" or "month"; empty means month.
func ParseBucketing(s string) (Bucketing, error) {
	switch Bucketing(s) {
	case "":
		return BucketMonth, nil
	case BucketDay, BucketMonth:
		return Bucketing(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBucketing, s)
}

// ParseDimension parses "", "none", "account", "category" or "user".
func ParseDimension(s string) (Dimension, error) {
	switch Dimension(s) {
	case DimensionNone, "none":
		return DimensionNone, nil
	case DimensionAccount, DimensionCategory, DimensionUser:
		return Dimension(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// AggregateOptions configures Aggregate.
type AggregateOptions struct {
	Bucketing Bucketing
	Dimension Dimension
	// Categories are always reported for the category dimension, even when
	// no transaction uses them.
	Categories domain.CategorySet
}

// Bucket holds the sums of one time period and, optionally, one dimension key.
type Bucket struct {
	Key       string
	Dimension string
	Income    Cents
	Expense   Cents
	// Transfers is the signed transfer flow; only filled for DimensionAccount.
	Transfers Cents
	Count     int

	order int
}

// Net returns income minus expense plus the transfer flow.
func (b Bucket) Net() Cents {
	return b.Income - b.Expense + b.Transfers
}

// Series is the ordered output of Aggregate.
type Series struct {
	Bucketing  Bucketing
	Dimension  Dimension
	Buckets    []Bucket
	Dimensions []string
}

// Totals sums income and expense over all buckets.
func (s Series) Totals() (income, expense Cents) {
	for _, b := range s.Buckets {
		income += b.Income
		expense += b.Expense
	}
	return income, expense
}

type bucketKey struct {
	order int
	dim   string
}

// Aggregate folds persisted and virtual transactions into time buckets.
// Records without a date are skipped; a missing category counts as
// "Uncategorized". Transfers never count as income or expense; with
// DimensionAccount they move money from the source to the destination bucket.
func Aggregate(txs []domain.Transaction, opts AggregateOptions) Series {
	if opts.Bucketing == "" {
		opts.Bucketing = BucketMonth
	}

	series := Series{Bucketing: opts.Bucketing, Dimension: opts.Dimension}
	buckets := make(map[bucketKey]*Bucket)
	seen := make(map[string]struct{})

	get := func(t time.Time, dim string) *Bucket {
		order, label := bucketOf(t, opts.Bucketing)
		k := bucketKey{order: order, dim: dim}
		b, ok := buckets[k]
		if !ok {
			b = &Bucket{Key: label, Dimension: dim, order: order}
			buckets[k] = b
		}
		if opts.Dimension != DimensionNone {
			seen[dim] = struct{}{}
		}
		return b
	}

	for i := range txs {
		tx := &txs[i]
		if tx.Date.IsZero() {
			continue
		}
		amount := amountCents(tx.Amount)

		switch tx.Type {
		case domain.TransactionTypeIncome:
			b := get(tx.Date, dimensionKey(tx, opts.Dimension))
			b.Income += amount
			b.Count++

		case domain.TransactionTypeExpense:
			b := get(tx.Date, dimensionKey(tx, opts.Dimension))
			b.Expense += amount
			b.Count++

		case domain.TransactionTypeTransfer:
			if opts.Dimension != DimensionAccount {
				continue
			}
			if tx.ToAccountID == "" || tx.ToAccountID == tx.AccountID {
				continue
			}
			from := get(tx.Date, tx.AccountID)
			from.Transfers -= amount
			from.Count++
			to := get(tx.Date, tx.ToAccountID)
			to.Transfers += amount
			to.Count++
		}
	}

	series.Buckets = make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		series.Buckets = append(series.Buckets, *b)
	}
	sort.Slice(series.Buckets, func(i, j int) bool {
		a, b := series.Buckets[i], series.Buckets[j]
		if a.order != b.order {
			return a.order < b.order
		}
		return a.Dimension < b.Dimension
	})

	series.Dimensions = dimensionKeys(seen, opts)

	return series
}

func bucketOf(t time.Time, bucketing Bucketing) (int, string) {
	if bucketing == BucketDay {
		return t.Day(), strconv.Itoa(t.Day())
	}
	return t.Year()*12 + int(t.Month()) - 1, t.Format(MonthLabelLayout)
}

func dimensionKey(tx *domain.Transaction, dim Dimension) string {
	switch dim {
	case DimensionAccount:
		return tx.AccountID
	case DimensionCategory:
		return tx.CategoryOrDefault()
	case DimensionUser:
		return tx.UserID
	}
	return ""
}

// dimensionKeys lists the dimension keys of a series. For categories the
// known set comes first in its own order, followed by unknown ones sorted.
func dimensionKeys(seen map[string]struct{}, opts AggregateOptions) []string {
	if opts.Dimension == DimensionNone {
		return nil
	}

	var extra []string
	for k := range seen {
		if opts.Dimension == DimensionCategory && opts.Categories.Contains(k) {
			continue
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)

	if opts.Dimension != DimensionCategory {
		return extra
	}

	return opts.Categories.Union(extra...).Names()
}
