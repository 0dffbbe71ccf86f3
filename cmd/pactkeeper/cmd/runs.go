package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/solatis/pactkeeper/internal/core/db"
	"github.com/solatis/pactkeeper/internal/types"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded consumer test runs",
	RunE:  runListRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show the full result of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.Flags().Int("limit", db.DefaultRunLimit, "maximum number of runs to list")
	runsCmd.Flags().String("consumer", "", "only runs of this consumer (requires --provider)")
	runsCmd.Flags().String("provider", "", "only runs against this provider (requires --consumer)")
}

func openRunStore() (*db.RunStore, func() error, error) {
	database, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return db.NewRunStore(queries), database.Close, nil
}

func runListRuns(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	consumerName, _ := cmd.Flags().GetString("consumer")
	providerName, _ := cmd.Flags().GetString("provider")
	if (consumerName == "") != (providerName == "") {
		return fmt.Errorf("--consumer and --provider must be given together")
	}

	store, closeDB, err := openRunStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var runs []types.RunRecord
	if consumerName != "" {
		runs, err = store.ListFor(cmd.Context(), consumerName, providerName, limit)
	} else {
		runs, err = store.List(cmd.Context(), limit)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tCONSUMER\tPROVIDER\tOUTCOME\tMISMATCHES\tSTARTED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Consumer, r.Provider, r.Outcome, r.Mismatches,
			r.StartedAt.UTC().Format(time.RFC3339), r.Duration().Round(time.Millisecond))
	}
	return w.Flush()
}

func runShowRun(cmd *cobra.Command, args []string) error {
	id, err := types.ParseRunID(args[0])
	if err != nil {
		return fmt.Errorf("invalid run ID %q: %w", args[0], err)
	}

	store, closeDB, err := openRunStore()
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "Pact:       %s -> %s\n", run.Consumer, run.Provider)
	fmt.Fprintf(out, "Outcome:    %s (%d mismatches)\n", run.Outcome, run.Mismatches)
	fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration:   %s\n\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintln(out, run.Description)
	return nil
}
