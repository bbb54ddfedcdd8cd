package domain

import "time"

// Country is the persisted per-country record. Name is the natural key,
// unique case-insensitively. Pointer fields are nullable in the store and
// are overwritten wholesale on every refresh, nulls included.
type Country struct {
	ID              int64      `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Capital         *string    `db:"capital" json:"capital"`
	Region          *string    `db:"region" json:"region"`
	Population      *int64     `db:"population" json:"population"`
	CurrencyCode    *string    `db:"currency_code" json:"currency_code"`
	ExchangeRate    *float64   `db:"exchange_rate" json:"exchange_rate"`
	EstimatedGDP    *float64   `db:"estimated_gdp" json:"estimated_gdp"`
	FlagURL         *string    `db:"flag_url" json:"flag_url"`
	LastRefreshedAt *time.Time `db:"last_refreshed_at" json:"last_refreshed_at"`
}

// GDPEntry is one ranked line of the summary report.
type GDPEntry struct {
	Name string
	GDP  float64
}

// Summary is the ephemeral report consumed once by the renderer.
type Summary struct {
	TotalCountries int
	TopGDP         []GDPEntry
	RefreshedAt    time.Time
}
