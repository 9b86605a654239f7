package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casechain/internal/store"
)

var (
	runsDB    string
	runsLimit int
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List evaluate and analyze runs stored in a database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db := runsDB
		if db == "" {
			db = cfg.Store.Path
		}
		if db == "" {
			return fmt.Errorf("no database: pass --db or set store.path")
		}

		s, err := store.Open(db)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		runs, err := s.Runs(context.Background(), runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tKIND\tCREATED\tSTRATEGY\tRECORDS\tSOURCE")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				r.ID, r.Kind, r.CreatedAt.Format("2006-01-02 15:04"), r.Strategy, r.Records, r.Source)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().StringVar(&runsDB, "db", "", "SQLite database (default: store.path)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
}
