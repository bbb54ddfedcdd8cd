package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"country_refresher/internal/domain"
	"country_refresher/internal/source/restcountries"
)

type CountrySource interface {
	Name() string
	FetchCountries(ctx context.Context) ([]restcountries.RawCountry, error)
}

type RateSource interface {
	Name() string
	FetchRates(ctx context.Context) (map[string]float64, error)
}

type CountryStore interface {
	FindByName(ctx context.Context, name string) (*domain.Country, error)
	Insert(ctx context.Context, country *domain.Country) (int64, error)
	Update(ctx context.Context, country *domain.Country) error
	Count(ctx context.Context) (int, error)
	LatestRefreshedAt(ctx context.Context) (*time.Time, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Renderer interface {
	Render(ctx context.Context, summary domain.Summary) error
}

type Publisher interface {
	Publish(ctx context.Context, stats *domain.RefreshStats) error
	Close() error
}

// Rand supplies the estimator's multiplier draw. Injected so tests can pin
// the value.
type Rand interface {
	IntBetween(min, max int) int
}
