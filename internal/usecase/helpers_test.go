package usecase_test

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/famledger/internal/infrastructure/clock"
	"github.com/iho/famledger/internal/usecase/mocks"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func fixedClock() *clock.Fixed {
	return clock.NewFixed(testNow)
}

func nopLogger() zerolog.Logger {
	return zerolog.Nop()
}

type decimalMatcher struct {
	want decimal.Decimal
}

// decimalEq matches decimals by value rather than by representation.
func decimalEq(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string {
	return fmt.Sprintf("is decimal %s", m.want)
}

// passThroughRetrier runs the operation once.
func passThroughRetrier(ctrl *gomock.Controller) *mocks.MockRetrier {
	r := mocks.NewMockRetrier(ctrl)
	r.EXPECT().Retry(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op func() error) error { return op() }).
		AnyTimes()
	return r
}
