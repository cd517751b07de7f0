package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portssvc "github.com/SscSPs/mma_currency/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

type valuationService struct {
	BaseService
	conversion portssvc.ExchangeRateReaderSvc
}

// NewValuationService creates a valuation service on top of the conversion service.
func NewValuationService(conversion portssvc.ExchangeRateReaderSvc) portssvc.ValuationSvc {
	return &valuationService{conversion: conversion}
}

var _ portssvc.ValuationSvc = (*valuationService)(nil)

// TotalIn sums holdings in the target currency. Holdings without a usable rate
// are reported in Unconverted instead of failing the whole valuation.
func (s *valuationService) TotalIn(ctx context.Context, holdings []domain.MoneyAmount, target string, date *time.Time) (domain.Valuation, error) {
	target = domain.NormalizeCurrencyCode(target)
	if !domain.IsCurrencyCode(target) {
		return domain.Valuation{}, apperrors.NewValidationError("invalid target currency code")
	}

	// All holdings are valued on one date, even if a sync lands mid-request.
	effective, err := s.conversion.ResolveDate(ctx, date)
	if err != nil {
		return domain.Valuation{}, err
	}

	valuation := domain.Valuation{
		Currency:    target,
		Date:        effective,
		Total:       decimal.Zero,
		Converted:   make([]domain.ConversionResult, 0, len(holdings)),
		Unconverted: make([]domain.MoneyAmount, 0),
	}

	for _, holding := range holdings {
		// Liabilities are converted by magnitude and keep their sign.
		result, ok, err := s.conversion.Convert(ctx, holding.Amount.Abs(), holding.CurrencyCode, target, &effective)
		if err != nil {
			s.LogError(ctx, err, "Failed to convert holding",
				slog.String("currency", holding.CurrencyCode),
				slog.String("target", target))
			return domain.Valuation{}, err
		}
		if !ok {
			valuation.Unconverted = append(valuation.Unconverted, holding)
			continue
		}
		if holding.Amount.IsNegative() {
			result.OriginalAmount = holding.Amount
			result.ConvertedAmount = result.ConvertedAmount.Neg()
		}
		valuation.Total = valuation.Total.Add(result.ConvertedAmount)
		valuation.Converted = append(valuation.Converted, result)
	}

	if !valuation.Complete() {
		s.LogWarn(ctx, "Valuation is missing rates for some holdings",
			slog.String("target", target),
			slog.Int("unconverted", len(valuation.Unconverted)))
	}
	return valuation, nil
}
