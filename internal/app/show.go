package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"marketdesk/internal/history"
	"marketdesk/internal/indicator"
)

// Show prints the most recent recorded samples for a symbol together with
// the indicator snapshot derived from the full stored series.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
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

	if opts.Symbol == "" {
		symbols := hist.Symbols()
		if len(symbols) == 0 {
			fmt.Fprintln(os.Stdout, "no recorded history")
			return nil
		}
		fmt.Fprintln(os.Stdout, "recorded symbols:", strings.Join(symbols, ", "))
		return nil
	}

	points := hist.Points(opts.Symbol)
	if len(points) == 0 {
		fmt.Fprintf(os.Stdout, "no samples found for %s\n", opts.Symbol)
		return nil
	}
	if len(points) > opts.Limit {
		points = points[len(points)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tPrice")
	for _, p := range points {
		fmt.Fprintf(writer, "%s\t%.4f\n",
			time.UnixMilli(p.TimestampMs).UTC().Format(time.RFC3339),
			p.Price,
		)
	}
	writer.Flush()

	snap := indicator.Compute(hist.Series(opts.Symbol))
	fmt.Fprintf(os.Stdout, "rsi: %s  macd: %s  signal: %s\n",
		formatIndicator(snap.RSI),
		formatIndicator(snap.MACD),
		formatIndicator(snap.Signal),
	)
	return nil
}

func formatIndicator(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
