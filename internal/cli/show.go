package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketdesk/internal/app"
)

var (
	showSymbol string
	showLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recorded price samples and indicators",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		opts := app.ShowOptions{
			Symbol: showSymbol,
			Limit:  showLimit,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showSymbol, "symbol", "", "Symbol to display (lists symbols when omitted)")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of samples to display")
}
