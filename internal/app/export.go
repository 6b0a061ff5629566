package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"marketdesk/internal/history"
	"marketdesk/internal/indicator"
)

// Export writes one symbol's recorded price history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Symbol == "" {
		return errors.New("--symbol is required")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	hist := history.NewStore(store, history.Options{
		MaxPoints:    a.Config.History.MaxPoints,
		SaveDebounce: a.Config.History.SaveDebounce,
	}, a.Logger)
	hist.Load(ctx)

	points := hist.Points(opts.Symbol)
	points = filterWindow(points, opts.From, opts.To)
	if len(points) == 0 {
		a.Logger.Info().Str("symbol", opts.Symbol).Msg("no samples found for export window")
		return nil
	}

	downsampled := downsamplePoints(points, opts.MaxPoints)
	a.Logger.Info().
		Str("symbol", opts.Symbol).
		Int("total", len(points)).
		Int("exported", len(downsampled)).
		Msg("exporting samples")

	if opts.CSVPath != "" {
		if err := writePointsCSV(opts.CSVPath, opts.Symbol, downsampled); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writePointsPNG(opts.PNGPath, opts.Symbol, downsampled); err != nil {
			return err
		}
	}
	return nil
}

func filterWindow(points []history.PricePoint, from, to *time.Time) []history.PricePoint {
	kept := points[:0:0]
	for _, p := range points {
		ts := time.UnixMilli(p.TimestampMs)
		if from != nil && ts.Before(*from) {
			continue
		}
		if to != nil && !ts.Before(*to) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func downsamplePoints(points []history.PricePoint, max int) []history.PricePoint {
	if max <= 0 || len(points) <= max {
		return points
	}

	result := make([]history.PricePoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func writePointsCSV(path, symbol string, points []history.PricePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"timestamp", "symbol", "price", "rsi", "macd"}); err != nil {
		return err
	}

	// Indicator columns reflect the series as of each row.
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		prices = append(prices, p.Price)
		snap := indicator.Compute(prices)
		record := []string{
			time.UnixMilli(p.TimestampMs).UTC().Format(time.RFC3339),
			symbol,
			strconv.FormatFloat(p.Price, 'f', -1, 64),
			csvIndicator(snap.RSI),
			csvIndicator(snap.MACD),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}

func csvIndicator(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

func writePointsPNG(path, symbol string, points []history.PricePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = time.UnixMilli(p.TimestampMs)
		y[i] = p.Price
	}

	priceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           fmt.Sprintf("%s price", symbol),
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    symbol,
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
