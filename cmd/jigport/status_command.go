package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jigport/internal/config"
	"jigport/internal/ledger"
)

func newStatusCommand(configFlag *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the migration ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			// Opened dry-run: status must never rewrite the ledger.
			led, err := ledger.Open(cfg.Paths.LedgerCSV, true)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			stats := led.Summarize()

			for _, line := range renderSectionHeader("Migration ledger", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Games", statusInfo, fmt.Sprintf("%d", stats.Total), colorize))
			fmt.Fprintln(out, renderStatusLine("With JIG", statusOK, fmt.Sprintf("%d", stats.WithJig), colorize))
			fmt.Fprintln(out, renderStatusLine("Newly created", statusOK, fmt.Sprintf("%d", stats.New), colorize))
			failKind := statusOK
			if stats.Failed > 0 {
				failKind = statusError
			}
			fmt.Fprintln(out, renderStatusLine("Failed", failKind, fmt.Sprintf("%d", stats.Failed), colorize))

			records := led.Records()
			if !all {
				var failed []ledger.Record
				for _, record := range records {
					if record.LastError != "" {
						failed = append(failed, record)
					}
				}
				records = failed
			}
			if len(records) == 0 {
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					record.GameID, record.JigID, record.JigNew, record.LastStage, record.LastError,
				})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(
				[]string{"GAME", "JIG", "NEW", "STAGE", "ERROR"},
				rows,
				0,
			))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every game, not only failures")
	return cmd
}
