package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"marketdesk/internal/alert"
)

// AddAlert creates and persists a new price alert.
func (a *App) AddAlert(ctx context.Context, symbol string, level float64, direction string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := alert.NewEngine(store, a.Logger)
	engine.Load(ctx)

	created, err := engine.Add(ctx, symbol, level, alert.Side(direction))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "created %s: %s %s %.4f\n", created.ID, created.Symbol, created.Direction, created.Level)
	return nil
}

// ListAlerts prints all alerts in display order.
func (a *App) ListAlerts(ctx context.Context) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := alert.NewEngine(store, a.Logger)
	engine.Load(ctx)

	alerts := engine.List()
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stdout, "no alerts configured")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tSymbol\tDirection\tLevel\tCreated (UTC)\tTriggered (UTC)")
	for _, item := range alerts {
		triggered := "-"
		if item.TriggeredAt != nil {
			triggered = time.UnixMilli(*item.TriggeredAt).UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%.4f\t%s\t%s\n",
			item.ID,
			item.Symbol,
			item.Direction,
			item.Level,
			time.UnixMilli(item.CreatedAt).UTC().Format(time.RFC3339),
			triggered,
		)
	}
	writer.Flush()
	return nil
}

// RemoveAlert deletes an alert by id.
func (a *App) RemoveAlert(ctx context.Context, id string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := alert.NewEngine(store, a.Logger)
	engine.Load(ctx)

	if !engine.Remove(ctx, id) {
		return fmt.Errorf("alert %q not found", id)
	}
	fmt.Fprintf(os.Stdout, "removed %s\n", id)
	return nil
}

// ResetAlert rearms a triggered alert by id.
func (a *App) ResetAlert(ctx context.Context, id string) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	engine := alert.NewEngine(store, a.Logger)
	engine.Load(ctx)

	if !engine.Reset(ctx, id) {
		return fmt.Errorf("alert %q not found", id)
	}
	fmt.Fprintf(os.Stdout, "reset %s\n", id)
	return nil
}
