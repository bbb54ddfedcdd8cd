//go:build integration

package postgres

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"country_refresher/internal/domain"
)

func ptr[T any](v T) *T { return &v }

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_countries.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM countries")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) newCountry(name string) *domain.Country {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Country{
		Name:            name,
		Capital:         ptr("Birnin"),
		Region:          ptr("Africa"),
		Population:      ptr(int64(1000)),
		CurrencyCode:    ptr("WKD"),
		ExchangeRate:    ptr(2.0),
		EstimatedGDP:    ptr(750000.0),
		FlagURL:         ptr("https://flags.example/wk.png"),
		LastRefreshedAt: &now,
	}
}

func (s *PostgresIntegrationSuite) TestInsertAndFindByName() {
	store := NewCountryStore(s.db)

	id, err := store.Insert(s.ctx, s.newCountry("Wakanda"))
	s.NoError(err)
	s.Greater(id, int64(0))

	found, err := store.FindByName(s.ctx, "Wakanda")
	s.NoError(err)
	s.Require().NotNil(found)
	s.Equal("Wakanda", found.Name)
	s.Require().NotNil(found.EstimatedGDP)
	s.Equal(750000.0, *found.EstimatedGDP)
}

func (s *PostgresIntegrationSuite) TestFindByName_CaseInsensitive() {
	store := NewCountryStore(s.db)

	_, err := store.Insert(s.ctx, s.newCountry("Wakanda"))
	s.NoError(err)

	for _, name := range []string{"wakanda", "WAKANDA", "WaKaNdA"} {
		found, err := store.FindByName(s.ctx, name)
		s.NoError(err)
		s.Require().NotNil(found, "lookup %q", name)
		s.Equal("Wakanda", found.Name)
	}
}

func (s *PostgresIntegrationSuite) TestFindByName_Missing() {
	store := NewCountryStore(s.db)

	found, err := store.FindByName(s.ctx, "Nowhere")
	s.NoError(err)
	s.Nil(found)
}

func (s *PostgresIntegrationSuite) TestInsert_DuplicateNameDiffersOnlyInCase() {
	store := NewCountryStore(s.db)

	_, err := store.Insert(s.ctx, s.newCountry("Wakanda"))
	s.NoError(err)

	_, err = store.Insert(s.ctx, s.newCountry("WAKANDA"))
	s.Error(err)
}

func (s *PostgresIntegrationSuite) TestUpdate_OverwritesWithNulls() {
	store := NewCountryStore(s.db)

	country := s.newCountry("Wakanda")
	_, err := store.Insert(s.ctx, country)
	s.NoError(err)

	later := time.Now().UTC().Truncate(time.Microsecond)
	country.Capital = nil
	country.ExchangeRate = nil
	country.EstimatedGDP = nil
	country.LastRefreshedAt = &later
	s.NoError(store.Update(s.ctx, country))

	found, err := store.FindByName(s.ctx, "Wakanda")
	s.NoError(err)
	s.Require().NotNil(found)
	s.Nil(found.Capital)
	s.Nil(found.ExchangeRate)
	s.Nil(found.EstimatedGDP)
	s.Require().NotNil(found.LastRefreshedAt)
	s.WithinDuration(later, *found.LastRefreshedAt, time.Millisecond)
}

func (s *PostgresIntegrationSuite) TestRefreshTwice_SingleRowPerName() {
	store := NewCountryStore(s.db)

	country := s.newCountry("Wakanda")
	_, err := store.Insert(s.ctx, country)
	s.NoError(err)

	// Second refresh finds the row under a different case and updates it.
	found, err := store.FindByName(s.ctx, "wakanda")
	s.NoError(err)
	s.Require().NotNil(found)

	country.ID = found.ID
	country.EstimatedGDP = ptr(900000.0)
	s.NoError(store.Update(s.ctx, country))

	count, err := store.Count(s.ctx)
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestTransaction_RollsBackWholeBatch() {
	store := NewCountryStore(s.db)
	txManager := NewTransactionManager(s.db)

	_, err := store.Insert(s.ctx, s.newCountry("Preexisting"))
	s.NoError(err)

	before, err := store.Count(s.ctx)
	s.NoError(err)

	err = txManager.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if _, err := store.Insert(txCtx, s.newCountry("Wakanda")); err != nil {
			return err
		}
		if _, err := store.Insert(txCtx, s.newCountry("Latveria")); err != nil {
			return err
		}
		return errors.New("simulated failure on record 3")
	})
	s.Error(err)

	after, err := store.Count(s.ctx)
	s.NoError(err)
	s.Equal(before, after)

	found, err := store.FindByName(s.ctx, "Wakanda")
	s.NoError(err)
	s.Nil(found)
}

func (s *PostgresIntegrationSuite) TestTransaction_CommitsWholeBatch() {
	store := NewCountryStore(s.db)
	txManager := NewTransactionManager(s.db)

	err := txManager.WithTransaction(s.ctx, func(txCtx context.Context) error {
		if _, err := store.Insert(txCtx, s.newCountry("Wakanda")); err != nil {
			return err
		}
		_, err := store.Insert(txCtx, s.newCountry("Latveria"))
		return err
	})
	s.NoError(err)

	count, err := store.Count(s.ctx)
	s.NoError(err)
	s.Equal(2, count)
}

func (s *PostgresIntegrationSuite) TestList_FiltersAndSort() {
	store := NewCountryStore(s.db)

	a := s.newCountry("Alpha")
	a.Region = ptr("Europe")
	a.CurrencyCode = ptr("EUR")
	a.EstimatedGDP = ptr(10.0)
	b := s.newCountry("Beta")
	b.Region = ptr("Europe")
	b.CurrencyCode = ptr("EUR")
	b.EstimatedGDP = ptr(50.0)
	c := s.newCountry("Gamma")
	c.Region = ptr("Asia")
	c.CurrencyCode = ptr("JPY")
	c.EstimatedGDP = nil

	for _, country := range []*domain.Country{a, b, c} {
		_, err := store.Insert(s.ctx, country)
		s.NoError(err)
	}

	europe, err := store.List(s.ctx, ListFilter{Region: ptr("europe")})
	s.NoError(err)
	s.Len(europe, 2)

	eur, err := store.List(s.ctx, ListFilter{Region: ptr("Europe"), Currency: ptr("eur")})
	s.NoError(err)
	s.Len(eur, 2)

	sorted, err := store.List(s.ctx, ListFilter{SortByGDP: true})
	s.NoError(err)
	s.Require().Len(sorted, 3)
	s.Equal("Beta", sorted[0].Name)
	s.Equal("Alpha", sorted[1].Name)
	s.Equal("Gamma", sorted[2].Name) // null gdp sorts last
}

func (s *PostgresIntegrationSuite) TestDeleteByName() {
	store := NewCountryStore(s.db)

	_, err := store.Insert(s.ctx, s.newCountry("Wakanda"))
	s.NoError(err)

	deleted, err := store.DeleteByName(s.ctx, "WAKANDA")
	s.NoError(err)
	s.True(deleted)

	deleted, err = store.DeleteByName(s.ctx, "Wakanda")
	s.NoError(err)
	s.False(deleted)
}

func (s *PostgresIntegrationSuite) TestLatestRefreshedAt() {
	store := NewCountryStore(s.db)

	latest, err := store.LatestRefreshedAt(s.ctx)
	s.NoError(err)
	s.Nil(latest)

	older := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	newer := time.Now().UTC().Truncate(time.Microsecond)

	a := s.newCountry("Alpha")
	a.LastRefreshedAt = &older
	b := s.newCountry("Beta")
	b.LastRefreshedAt = &newer

	for _, country := range []*domain.Country{a, b} {
		_, err := store.Insert(s.ctx, country)
		s.NoError(err)
	}

	latest, err = store.LatestRefreshedAt(s.ctx)
	s.NoError(err)
	s.Require().NotNil(latest)
	s.WithinDuration(newer, *latest, time.Millisecond)
}
