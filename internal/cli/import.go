package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/casechain/internal/pipeline"
)

var importDB string

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <records>...",
	Short: "Load record files into a SQLite database",
	Long: `Import normalizes CSV and JSON record files into the records table of a
SQLite database, upserting by record id. The database can then be passed to
evaluate and analyze like any other record source.

Example:
  casechain import trt2.json trt15.json tst.json --db records.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := pipeline.NewPipeline(cfg, logger)
		if err != nil {
			return err
		}
		db := p.StorePath(importDB)
		if db == "" {
			return fmt.Errorf("no database: pass --db or set store.path")
		}

		total := 0
		for _, path := range args {
			records, err := p.Load(ctx, path)
			if err != nil {
				return err
			}
			n, err := p.Import(ctx, db, records)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			total += n
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d records\n", path, n)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d records into %s\n", total, db)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importDB, "db", "", "target SQLite database (default: store.path)")
}
