package dto

import (
	"github.com/SscSPs/mma_currency/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ConversionQuery binds GET /conversions.
type ConversionQuery struct {
	Amount string `form:"amount" binding:"required,numeric"`
	From   string `form:"from" binding:"required,currency"`
	To     string `form:"to" binding:"required,currency"`
	Date   string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ConversionResponse is the result of converting an amount.
type ConversionResponse struct {
	OriginalAmount   decimal.Decimal `json:"originalAmount"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	ConvertedAmount  decimal.Decimal `json:"convertedAmount"`
	RateUsed         decimal.Decimal `json:"rateUsed"`
	Date             string          `json:"date"`
}

// ToConversionResponse converts a domain.ConversionResult to its DTO.
func ToConversionResponse(result domain.ConversionResult) ConversionResponse {
	return ConversionResponse{
		OriginalAmount:   result.OriginalAmount,
		FromCurrencyCode: result.FromCurrency,
		ToCurrencyCode:   result.ToCurrency,
		ConvertedAmount:  result.ConvertedAmount,
		RateUsed:         result.RateUsed,
		Date:             domain.FormatDate(result.Date),
	}
}

// HoldingRequest is one amount of a valuation request.
type HoldingRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode" binding:"required,currency"`
}

// ValuationRequest is the body of POST /conversions/total.
type ValuationRequest struct {
	Holdings           []HoldingRequest `json:"holdings" binding:"required,min=1,dive"`
	TargetCurrencyCode string           `json:"targetCurrencyCode" binding:"required,currency"`
	Date               string           `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ToMoneyAmounts converts the request holdings to domain amounts.
func (r ValuationRequest) ToMoneyAmounts() []domain.MoneyAmount {
	amounts := make([]domain.MoneyAmount, len(r.Holdings))
	for i, h := range r.Holdings {
		amounts[i] = domain.MoneyAmount{Amount: h.Amount, CurrencyCode: domain.NormalizeCurrencyCode(h.CurrencyCode)}
	}
	return amounts
}

// ValuationResponse is the total of several amounts in one currency.
type ValuationResponse struct {
	CurrencyCode string               `json:"currencyCode"`
	Date         string               `json:"date,omitempty"`
	Total        decimal.Decimal      `json:"total"`
	Complete     bool                 `json:"complete"`
	Converted    []ConversionResponse `json:"converted"`
	Unconverted  []domain.MoneyAmount `json:"unconverted"`
}

// ToValuationResponse converts a domain.Valuation to its DTO.
func ToValuationResponse(v domain.Valuation) ValuationResponse {
	converted := make([]ConversionResponse, len(v.Converted))
	for i, c := range v.Converted {
		converted[i] = ToConversionResponse(c)
	}
	resp := ValuationResponse{
		CurrencyCode: v.Currency,
		Total:        v.Total,
		Complete:     v.Complete(),
		Converted:    converted,
		Unconverted:  v.Unconverted,
	}
	if resp.Unconverted == nil {
		resp.Unconverted = []domain.MoneyAmount{}
	}
	if !v.Date.IsZero() {
		resp.Date = domain.FormatDate(v.Date)
	}
	return resp
}
