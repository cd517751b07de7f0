package services

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateCache is a time-bounded cache of resolved rates.
// Implementations must be safe for concurrent use. A miss and a backend failure look the same.
type RateCache interface {
	Get(ctx context.Context, key string) (decimal.Decimal, bool)
	Set(ctx context.Context, key string, rate decimal.Decimal)
}
