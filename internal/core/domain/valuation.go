package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyAmount is an amount in a single currency, e.g. an account balance.
type MoneyAmount struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// Valuation is the sum of several amounts expressed in one currency.
// Amounts that could not be converted are listed in Unconverted and left out of Total.
type Valuation struct {
	Currency    string             `json:"currency"`
	Date        time.Time          `json:"date"`
	Total       decimal.Decimal    `json:"total"`
	Converted   []ConversionResult `json:"converted"`
	Unconverted []MoneyAmount      `json:"unconverted"`
}

// Complete reports whether every amount made it into the total.
func (v Valuation) Complete() bool {
	return len(v.Unconverted) == 0
}
