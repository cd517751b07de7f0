package memory

import (
	portsrepo "github.com/SscSPs/mma_currency/internal/core/ports/repositories"
)

// NewRepositoryProvider returns repositories that keep everything in process memory.
func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ExchangeRateRepo: NewExchangeRateRepository(),
	}
}
