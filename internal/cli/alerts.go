package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var alertDirection string

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage price alerts",
}

var alertsAddCmd = &cobra.Command{
	Use:   "add <symbol> <level>",
	Short: "Create a price alert",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid level %q: %w", args[1], err)
		}
		return getApp().AddAlert(cmd.Context(), args[0], level, alertDirection)
	},
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListAlerts(cmd.Context())
	},
}

var alertsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete an alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RemoveAlert(cmd.Context(), args[0])
	},
}

var alertsResetCmd = &cobra.Command{
	Use:   "reset <id>",
	Short: "Rearm a triggered alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ResetAlert(cmd.Context(), args[0])
	},
}

func init() {
	alertsAddCmd.Flags().StringVar(&alertDirection, "direction", "above", "Trigger direction: above or below")

	alertsCmd.AddCommand(alertsAddCmd)
	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsRemoveCmd)
	alertsCmd.AddCommand(alertsResetCmd)
}
