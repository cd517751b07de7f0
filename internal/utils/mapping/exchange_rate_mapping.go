package mapping

import (
	"github.com/SscSPs/mma_currency/internal/core/domain"
	"github.com/SscSPs/mma_currency/internal/models"
)

// ToModelExchangeRate converts a domain ExchangeRate to a model ExchangeRate
func ToModelExchangeRate(d domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		ExchangeRateID: d.ExchangeRateID,
		RateDate:       d.Date,
		BaseCurrency:   d.BaseCurrency,
		TargetCurrency: d.TargetCurrency,
		Rate:           d.Rate,
		Source:         d.Source.String(),
		IngestedAt:     d.IngestedAt,
	}
}

// ToDomainExchangeRate converts a model ExchangeRate to a domain ExchangeRate.
// It fails when the stored source is not a known RateSource.
func ToDomainExchangeRate(m models.ExchangeRate) (domain.ExchangeRate, error) {
	source, err := domain.ParseRateSource(m.Source)
	if err != nil {
		return domain.ExchangeRate{}, err
	}
	return domain.ExchangeRate{
		ExchangeRateID: m.ExchangeRateID,
		Date:           domain.DateOf(m.RateDate),
		BaseCurrency:   m.BaseCurrency,
		TargetCurrency: m.TargetCurrency,
		Rate:           m.Rate,
		Source:         source,
		IngestedAt:     m.IngestedAt,
	}, nil
}
