package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"country_refresher/internal/domain"
)

const countryColumns = `id, name, capital, region, population, currency_code, exchange_rate, estimated_gdp, flag_url, last_refreshed_at`

type CountryStore struct {
	db *sqlx.DB
}

func NewCountryStore(db *sqlx.DB) *CountryStore {
	return &CountryStore{db: db}
}

// FindByName looks up a country by case-insensitive exact name. Returns
// (nil, nil) when no row matches. Uniqueness of LOWER(name) is enforced by
// the schema, so at most one row can match.
func (s *CountryStore) FindByName(ctx context.Context, name string) (*domain.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE LOWER(name) = LOWER($1)`

	var country domain.Country
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &country, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &country, nil
}

// Insert creates a new row and fills in the store-assigned id.
func (s *CountryStore) Insert(ctx context.Context, country *domain.Country) (int64, error) {
	query := `
		INSERT INTO countries (
			name, capital, region, population, currency_code,
			exchange_rate, estimated_gdp, flag_url, last_refreshed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		country.Name,
		country.Capital,
		country.Region,
		country.Population,
		country.CurrencyCode,
		country.ExchangeRate,
		country.EstimatedGDP,
		country.FlagURL,
		country.LastRefreshedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	country.ID = id
	return id, nil
}

// Update overwrites every mutable field of an existing row, nulls included.
func (s *CountryStore) Update(ctx context.Context, country *domain.Country) error {
	query := `
		UPDATE countries SET
			name = $2,
			capital = $3,
			region = $4,
			population = $5,
			currency_code = $6,
			exchange_rate = $7,
			estimated_gdp = $8,
			flag_url = $9,
			last_refreshed_at = $10
		WHERE id = $1`

	result, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		country.ID,
		country.Name,
		country.Capital,
		country.Region,
		country.Population,
		country.CurrencyCode,
		country.ExchangeRate,
		country.EstimatedGDP,
		country.FlagURL,
		country.LastRefreshedAt,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListFilter narrows List results. Nil fields mean no filter; only the
// gdp-descending sort is supported.
type ListFilter struct {
	Region    *string
	Currency  *string
	SortByGDP bool
}

func (s *CountryStore) List(ctx context.Context, filter ListFilter) ([]domain.Country, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + countryColumns + ` FROM countries`)

	var args []interface{}
	var conds []string
	if filter.Region != nil {
		args = append(args, *filter.Region)
		conds = append(conds, "LOWER(region) = LOWER($1)")
	}
	if filter.Currency != nil {
		args = append(args, *filter.Currency)
		if len(args) == 1 {
			conds = append(conds, "LOWER(currency_code) = LOWER($1)")
		} else {
			conds = append(conds, "LOWER(currency_code) = LOWER($2)")
		}
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	if filter.SortByGDP {
		sb.WriteString(" ORDER BY estimated_gdp DESC NULLS LAST")
	} else {
		sb.WriteString(" ORDER BY name ASC")
	}

	countries := []domain.Country{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &countries, sb.String(), args...)
	return countries, err
}

// DeleteByName removes a row by case-insensitive name. Returns false when
// nothing matched. Deletion is administrative; the refresh pipeline never
// deletes.
func (s *CountryStore) DeleteByName(ctx context.Context, name string) (bool, error) {
	result, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`DELETE FROM countries WHERE LOWER(name) = LOWER($1)`, name)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *CountryStore) Count(ctx context.Context) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, `SELECT COUNT(*) FROM countries`)
	return count, err
}

// LatestRefreshedAt returns the newest refresh timestamp in the store, or
// nil when no refresh has happened yet.
func (s *CountryStore) LatestRefreshedAt(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &latest,
		`SELECT MAX(last_refreshed_at) FROM countries`)
	if err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time
	return &t, nil
}
