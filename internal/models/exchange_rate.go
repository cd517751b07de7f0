package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the row shape of the exchange_rates table.
type ExchangeRate struct {
	ExchangeRateID string          `json:"exchangeRateID"` // Primary Key (UUID)
	RateDate       time.Time       `json:"rateDate"`       // DATE, unique with TargetCurrency
	BaseCurrency   string          `json:"baseCurrency"`
	TargetCurrency string          `json:"targetCurrency"`
	Rate           decimal.Decimal `json:"rate"`   // NUMERIC(20,10)
	Source         string          `json:"source"` // RECENT_FEED | HISTORICAL_FEED
	IngestedAt     time.Time       `json:"ingestedAt"`
}
