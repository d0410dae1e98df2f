package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/baldhumanity/ipd-go/ipd/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the stored generation reports of a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			runID, _ := cmd.Flags().GetString("run-id")
			if dbPath == "" || runID == "" {
				return errors.New("--db and --run-id are required")
			}

			db, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			reports, err := db.ListReports(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				return fmt.Errorf("no reports stored for run %s", runID)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "GEN\tROUNDS\tCOOPERATE\tDEFECT\tTOTAL\tMEAN\tARCHITECTURES")
			for _, r := range reports {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%.1f\t%d\n",
					r.Generation, r.Rounds, r.Cooperators, r.Defectors,
					humanize.Comma(int64(r.TotalScore)), r.MeanScore, len(r.Architectures))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("db", "", "sqlite database written by run --db")
	cmd.Flags().String("run-id", "", "Run identity")
	return cmd
}
