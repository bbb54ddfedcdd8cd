package render

import (
	"context"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"country_refresher/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSummary() domain.Summary {
	return domain.Summary{
		TotalCountries: 6,
		TopGDP: []domain.GDPEntry{
			{Name: "D", GDP: 100},
			{Name: "B", GDP: 50},
			{Name: "F", GDP: 30},
			{Name: "E", GDP: 20},
			{Name: "A", GDP: 10},
		},
		RefreshedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRender_WritesPNGWithFixedDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "summary.png")
	g := NewGenerator(path, testLogger())

	require.NoError(t, g.Render(context.Background(), testSummary()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, 1200, bounds.Dx())
	assert.Equal(t, 800, bounds.Dy())
}

func TestRender_CreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "summary.png")
	g := NewGenerator(path, testLogger())

	require.NoError(t, g.Render(context.Background(), testSummary()))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRender_OverwritesPreviousArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.png")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	g := NewGenerator(path, testLogger())
	require.NoError(t, g.Render(context.Background(), testSummary()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = png.Decode(f)
	assert.NoError(t, err)
}

func TestImagePath(t *testing.T) {
	g := NewGenerator("cache/summary.png", testLogger())
	assert.Equal(t, "cache/summary.png", g.ImagePath())
}

func TestFormatGDP(t *testing.T) {
	assert.Equal(t, "750000.00", formatGDP(750000))
	assert.Equal(t, "0.33", formatGDP(1.0/3))
	assert.Equal(t, "N/A", formatGDP(math.Inf(1)))
	assert.Equal(t, "N/A", formatGDP(math.NaN()))
}
