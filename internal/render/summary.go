// Package render produces the PNG summary artifact for the most recent
// refresh. The image is a fixed 1200x800 layout overwritten on every run;
// no history is kept.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"country_refresher/internal/domain"
)

const (
	imageWidth  = 1200
	imageHeight = 800

	marginX     = 40
	titleY      = 60
	totalY      = 110
	headerY     = 160
	rankedX     = 60
	rankedY     = 200
	rankedStep  = 36
	refreshedY  = imageHeight - 80
)

type Generator struct {
	path   string
	logger *slog.Logger
}

func NewGenerator(path string, logger *slog.Logger) *Generator {
	return &Generator{path: path, logger: logger}
}

// ImagePath returns the fixed artifact location for the HTTP layer.
func (g *Generator) ImagePath() string {
	return g.path
}

// Render draws the summary and writes it to the configured path, creating
// the parent directory when absent and overwriting any previous artifact.
func (g *Generator) Render(_ context.Context, summary domain.Summary) error {
	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawText(img, marginX, titleY, "Countries Summary")
	drawText(img, marginX, totalY, fmt.Sprintf("Total countries: %d", summary.TotalCountries))
	drawText(img, marginX, headerY, "Top 5 by estimated GDP:")

	for i, entry := range summary.TopGDP {
		y := rankedY + i*rankedStep
		drawText(img, rankedX, y, fmt.Sprintf("%d. %s — %s", i+1, entry.Name, formatGDP(entry.GDP)))
	}

	drawText(img, marginX, refreshedY,
		fmt.Sprintf("Last refreshed: %s", summary.RefreshedAt.Format(time.RFC3339)))

	if dir := filepath.Dir(g.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	out, err := os.Create(g.path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("encode summary png: %w", err)
	}

	g.logger.Debug("summary image written", "path", g.path)
	return nil
}

func drawText(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func formatGDP(gdp float64) string {
	if math.IsNaN(gdp) || math.IsInf(gdp, 0) {
		return "N/A"
	}
	return strconv.FormatFloat(gdp, 'f', 2, 64)
}
