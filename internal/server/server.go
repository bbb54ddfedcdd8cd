// Package server is the HTTP layer over the refresh pipeline and the
// country store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"country_refresher/internal/domain"
	"country_refresher/internal/storage/postgres"
)

type RefreshService interface {
	Refresh(ctx context.Context) (*domain.RefreshStats, error)
	Status(ctx context.Context) (*domain.Status, error)
}

type CountryStore interface {
	List(ctx context.Context, filter postgres.ListFilter) ([]domain.Country, error)
	FindByName(ctx context.Context, name string) (*domain.Country, error)
	DeleteByName(ctx context.Context, name string) (bool, error)
}

type Server struct {
	refresh   RefreshService
	countries CountryStore
	imagePath string
	logger    *slog.Logger
}

func New(refresh RefreshService, countries CountryStore, imagePath string, logger *slog.Logger) *Server {
	return &Server{
		refresh:   refresh,
		countries: countries,
		imagePath: imagePath,
		logger:    logger.With("component", "http"),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/countries/refresh", s.handleRefresh)
	r.Get("/countries", s.handleListCountries)
	r.Get("/countries/image", s.handleSummaryImage)
	r.Get("/countries/{name}", s.handleGetCountry)
	r.Delete("/countries/{name}", s.handleDeleteCountry)
	r.Get("/status", s.handleStatus)
	return r
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	stats, err := s.refresh.Refresh(r.Context())
	if err != nil {
		var refreshErr *domain.RefreshError
		if errors.As(err, &refreshErr) {
			s.writeError(w, refreshErr.Status, string(refreshErr.Kind), refreshErr.Detail)
			return
		}
		s.writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Countries refreshed successfully",
		"totalCountries": stats.Reconciled,
	})
}

func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	filter := postgres.ListFilter{
		SortByGDP: r.URL.Query().Get("sort") == "gdp_desc",
	}
	if region := r.URL.Query().Get("region"); region != "" {
		filter.Region = &region
	}
	if currency := r.URL.Query().Get("currency"); currency != "" {
		filter.Currency = &currency
	}

	countries, err := s.countries.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, countries)
}

func (s *Server) handleGetCountry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	country, err := s.countries.FindByName(r.Context(), name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}
	if country == nil {
		s.writeError(w, http.StatusNotFound, "Country not found", "")
		return
	}

	s.writeJSON(w, http.StatusOK, country)
}

func (s *Server) handleDeleteCountry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	deleted, err := s.countries.DeleteByName(r.Context(), name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "Country not found", "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.refresh.Status(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal server error", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleSummaryImage(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.imagePath); err != nil {
		s.writeError(w, http.StatusNotFound, "Summary image not found", "")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, s.imagePath)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, errMsg, details string) {
	body := map[string]string{"error": errMsg}
	if details != "" {
		body["details"] = details
	}
	s.writeJSON(w, status, body)
}
