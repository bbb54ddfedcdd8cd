package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"country_refresher/internal/domain"
	"country_refresher/internal/source/restcountries"
)

const topGDPCount = 5

type RefreshService struct {
	countries CountrySource
	rates     RateSource
	store     CountryStore
	txManager TransactionManager
	renderer  Renderer
	publisher Publisher
	rng       Rand
	logger    *slog.Logger
}

func NewRefreshService(
	countries CountrySource,
	rates RateSource,
	store CountryStore,
	txManager TransactionManager,
	renderer Renderer,
	publisher Publisher,
	rng Rand,
	logger *slog.Logger,
) *RefreshService {
	return &RefreshService{
		countries: countries,
		rates:     rates,
		store:     store,
		txManager: txManager,
		renderer:  renderer,
		publisher: publisher,
		rng:       rng,
		logger:    logger,
	}
}

// Refresh runs one fetch-normalize-estimate-reconcile-render pass. On
// failure it returns a *domain.RefreshError; the store is only ever touched
// by the single reconciliation transaction.
func (s *RefreshService) Refresh(ctx context.Context) (*domain.RefreshStats, error) {
	startTime := time.Now()
	s.logger.Info("starting refresh",
		"country_source", s.countries.Name(),
		"rate_source", s.rates.Name(),
	)

	rawCountries, rateTable, err := s.fetchAll(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetched upstream data",
		"countries", len(rawCountries),
		"rates", len(rateTable),
	)

	refreshedAt := time.Now().UTC()
	batch, skipped := s.normalizeBatch(rawCountries, rateTable, refreshedAt)

	stats := &domain.RefreshStats{
		Fetched:     len(rawCountries),
		Skipped:     skipped,
		RefreshedAt: refreshedAt,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, country := range batch {
			inserted, err := s.reconcile(txCtx, country)
			if err != nil {
				return err
			}
			if inserted {
				stats.Inserted++
			} else {
				stats.Updated++
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("reconciliation failed, batch rolled back", "error", err)
		return nil, domain.NewPersistenceError(err)
	}
	stats.Reconciled = len(batch)

	summary := domain.Summary{
		TotalCountries: stats.Reconciled,
		TopGDP:         topByGDP(batch, topGDPCount),
		RefreshedAt:    refreshedAt,
	}
	// Rendering is best-effort: the data is already committed and a stale
	// image is repaired by the next refresh.
	if err := s.renderer.Render(ctx, summary); err != nil {
		s.logger.Warn("summary render failed", "error", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, stats); err != nil {
			s.logger.Warn("publish refresh event failed", "error", err)
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("refresh completed",
		"fetched", stats.Fetched,
		"reconciled", stats.Reconciled,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"skipped", stats.Skipped,
		"duration", stats.Duration,
	)

	return stats, nil
}

// Status reports the current store totals for the /status endpoint.
func (s *RefreshService) Status(ctx context.Context) (*domain.Status, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, err
	}

	latest, err := s.store.LatestRefreshedAt(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Status{
		TotalCountries:  total,
		LastRefreshedAt: latest,
	}, nil
}

// fetchAll issues both upstream fetches concurrently and waits for both.
// Either failure classifies the refresh as upstream-unavailable, naming the
// source that failed.
func (s *RefreshService) fetchAll(ctx context.Context) ([]restcountries.RawCountry, map[string]float64, error) {
	var (
		rawCountries []restcountries.RawCountry
		rateTable    map[string]float64
		countriesErr error
		ratesErr     error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rawCountries, countriesErr = s.countries.FetchCountries(ctx)
	}()
	go func() {
		defer wg.Done()
		rateTable, ratesErr = s.rates.FetchRates(ctx)
	}()
	wg.Wait()

	if countriesErr != nil {
		return nil, nil, domain.NewUpstreamError(s.countries.Name(), countriesErr)
	}
	if ratesErr != nil {
		return nil, nil, domain.NewUpstreamError(s.rates.Name(), ratesErr)
	}

	return rawCountries, rateTable, nil
}

func (s *RefreshService) normalizeBatch(raw []restcountries.RawCountry, rates map[string]float64, refreshedAt time.Time) ([]*domain.Country, int) {
	batch := make([]*domain.Country, 0, len(raw))
	skipped := 0

	for _, rc := range raw {
		country, reason := normalize(rc, rates, refreshedAt)
		if reason != "" {
			skipped++
			s.logger.Warn("skipping record", "name", rc.Name, "reason", string(reason))
			continue
		}
		country.EstimatedGDP = estimateGDP(*country.Population, country.ExchangeRate, s.rng)
		batch = append(batch, country)
	}

	return batch, skipped
}

// reconcile applies one record inside the batch transaction. Lookup is by
// case-insensitive name; an existing row is overwritten field for field,
// nulls included.
func (s *RefreshService) reconcile(ctx context.Context, country *domain.Country) (inserted bool, err error) {
	existing, err := s.store.FindByName(ctx, country.Name)
	if err != nil {
		return false, err
	}

	if existing == nil {
		if _, err := s.store.Insert(ctx, country); err != nil {
			return false, err
		}
		return true, nil
	}

	country.ID = existing.ID
	if err := s.store.Update(ctx, country); err != nil {
		return false, err
	}
	return false, nil
}

// topByGDP ranks the batch by estimated GDP descending and keeps the first
// n. Records without a usable estimate are excluded.
func topByGDP(batch []*domain.Country, n int) []domain.GDPEntry {
	entries := make([]domain.GDPEntry, 0, len(batch))
	for _, c := range batch {
		if c.EstimatedGDP == nil {
			continue
		}
		entries = append(entries, domain.GDPEntry{Name: c.Name, GDP: *c.EstimatedGDP})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].GDP > entries[j].GDP
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
