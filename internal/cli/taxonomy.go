package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/casechain/internal/pipeline"
)

var taxonomyJSON bool

// taxonomyCmd represents the taxonomy command
var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the active movement-code table",
	Long: `Print the movement-code table in effect after applying taxonomy.extra_codes
from the configuration. The YAML output can be pasted back under taxonomy:
in the config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := pipeline.NewPipeline(cfg, logger)
		if err != nil {
			return err
		}

		table := p.Taxonomy().Export()
		if taxonomyJSON {
			return p.Renderer().WriteJSON(cmd.OutOrStdout(), table)
		}
		return p.Renderer().WriteYAML(cmd.OutOrStdout(), table)
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
	taxonomyCmd.Flags().BoolVar(&taxonomyJSON, "json", false, "print as JSON instead of YAML")
}
