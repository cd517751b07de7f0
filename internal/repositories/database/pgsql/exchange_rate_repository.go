package pgsql

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/SscSPs/mma_currency/internal/apperrors"
	"github.com/SscSPs/mma_currency/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_currency/internal/core/ports/repositories"
	"github.com/SscSPs/mma_currency/internal/models"
	"github.com/SscSPs/mma_currency/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgxExchangeRateRepository implements the exchange rate store using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// newPgxExchangeRateRepository creates a new PgxExchangeRateRepository.
func newPgxExchangeRateRepository(pool PgxPool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

// UpsertRate inserts a rate or updates rate and source in place for an existing (date, currency).
// The row is left untouched when the stored value is already identical.
func (r *PgxExchangeRateRepository) UpsertRate(ctx context.Context, rate domain.ExchangeRate) error {
	modelRate := mapping.ToModelExchangeRate(rate)
	if modelRate.ExchangeRateID == "" {
		modelRate.ExchangeRateID = uuid.NewString()
	}
	if modelRate.IngestedAt.IsZero() {
		modelRate.IngestedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO exchange_rates (
			exchange_rate_id, rate_date, base_currency, target_currency, rate, source, ingested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (rate_date, target_currency) DO UPDATE SET
			rate = EXCLUDED.rate,
			source = EXCLUDED.source,
			ingested_at = EXCLUDED.ingested_at
		WHERE exchange_rates.rate <> EXCLUDED.rate
			OR exchange_rates.source <> EXCLUDED.source;
	`
	_, err := r.Pool.Exec(ctx, query,
		modelRate.ExchangeRateID,
		modelRate.RateDate,
		modelRate.BaseCurrency,
		modelRate.TargetCurrency,
		modelRate.Rate,
		modelRate.Source,
		modelRate.IngestedAt,
	)
	if err != nil {
		return apperrors.NewStorageError("upsert rate "+modelRate.TargetCurrency+" "+domain.FormatDate(modelRate.RateDate), err)
	}
	return nil
}

// FindRate retrieves the rate stored for exactly this date and target currency.
func (r *PgxExchangeRateRepository) FindRate(ctx context.Context, date time.Time, targetCurrency string) (*domain.ExchangeRate, error) {
	query := `
		SELECT exchange_rate_id, rate_date, base_currency, target_currency, rate, source, ingested_at
		FROM exchange_rates
		WHERE rate_date = $1 AND target_currency = $2;
	`

	var modelRate models.ExchangeRate
	err := r.Pool.QueryRow(ctx, query, domain.DateOf(date), domain.NormalizeCurrencyCode(targetCurrency)).Scan(
		&modelRate.ExchangeRateID,
		&modelRate.RateDate,
		&modelRate.BaseCurrency,
		&modelRate.TargetCurrency,
		&modelRate.Rate,
		&modelRate.Source,
		&modelRate.IngestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exchange rate not found")
		}
		return nil, apperrors.NewStorageError("find rate", err)
	}

	domainRate, err := mapping.ToDomainExchangeRate(modelRate)
	if err != nil {
		return nil, apperrors.NewStorageError("decode rate", err)
	}
	return &domainRate, nil
}

// LatestDate returns the most recent rate date.
func (r *PgxExchangeRateRepository) LatestDate(ctx context.Context) (time.Time, bool, error) {
	var latest *time.Time
	if err := r.Pool.QueryRow(ctx, `SELECT MAX(rate_date) FROM exchange_rates;`).Scan(&latest); err != nil {
		return time.Time{}, false, apperrors.NewStorageError("latest date", err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return domain.DateOf(*latest), true, nil
}

// DatesInRange returns the distinct dates in [from, to] with at least one stored rate.
func (r *PgxExchangeRateRepository) DatesInRange(ctx context.Context, from, to time.Time) (map[time.Time]struct{}, error) {
	query := `
		SELECT DISTINCT rate_date
		FROM exchange_rates
		WHERE rate_date BETWEEN $1 AND $2;
	`
	rows, err := r.Pool.Query(ctx, query, domain.DateOf(from), domain.DateOf(to))
	if err != nil {
		return nil, apperrors.NewStorageError("dates in range", err)
	}
	defer rows.Close()

	dates := make(map[time.Time]struct{})
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, apperrors.NewStorageError("scan rate date", err)
		}
		dates[domain.DateOf(d)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate rate dates", err)
	}
	return dates, nil
}

// SupportedCurrencies returns the distinct target currencies plus the base currency.
func (r *PgxExchangeRateRepository) SupportedCurrencies(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `SELECT DISTINCT target_currency FROM exchange_rates;`)
	if err != nil {
		return nil, apperrors.NewStorageError("supported currencies", err)
	}
	defer rows.Close()

	codes := []string{domain.BaseCurrency}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, apperrors.NewStorageError("scan currency", err)
		}
		if code != domain.BaseCurrency {
			codes = append(codes, code)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate currencies", err)
	}
	sort.Strings(codes)
	return codes, nil
}

// LastIngestedAt returns the newest ingestion timestamp.
func (r *PgxExchangeRateRepository) LastIngestedAt(ctx context.Context) (time.Time, bool, error) {
	var last *time.Time
	if err := r.Pool.QueryRow(ctx, `SELECT MAX(ingested_at) FROM exchange_rates;`).Scan(&last); err != nil {
		return time.Time{}, false, apperrors.NewStorageError("last ingested at", err)
	}
	if last == nil {
		return time.Time{}, false, nil
	}
	return *last, true, nil
}
