package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"marketdesk/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "marketdesk %s (commit %s, built %s)\n", version.Version, version.Commit, version.BuildDate)
	},
}
