package service

import (
	"strings"
	"time"

	"country_refresher/internal/domain"
	"country_refresher/internal/source/restcountries"
)

type skipReason string

const (
	skipMissingName       skipReason = "missing name"
	skipMissingPopulation skipReason = "missing or zero population"
	skipMissingCurrency   skipReason = "missing currency code"
)

// normalize turns one raw feed record into a reconcilable country, or
// returns a skip reason. Records missing name, population, or currency code
// cannot produce a meaningful estimate downstream and are dropped rather
// than stored with synthetic defaults.
func normalize(raw restcountries.RawCountry, rates map[string]float64, refreshedAt time.Time) (*domain.Country, skipReason) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return nil, skipMissingName
	}

	if raw.Population == nil || *raw.Population <= 0 {
		return nil, skipMissingPopulation
	}
	population := *raw.Population

	code := ""
	if len(raw.Currencies) > 0 {
		code = strings.TrimSpace(raw.Currencies[0].Code)
	}
	if code == "" {
		return nil, skipMissingCurrency
	}

	country := &domain.Country{
		Name:            name,
		Population:      &population,
		CurrencyCode:    &code,
		LastRefreshedAt: &refreshedAt,
	}

	if capital := raw.Capital.First(); capital != "" {
		country.Capital = &capital
	}
	if raw.Region != "" {
		region := raw.Region
		country.Region = &region
	}
	if raw.Flag != "" {
		flag := raw.Flag
		country.FlagURL = &flag
	}
	if rate, ok := rates[code]; ok && rate > 0 {
		country.ExchangeRate = &rate
	}

	return country, ""
}
