package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/askiada/gen192/internal/config"
	"github.com/askiada/gen192/pkg/combination"
)

func newListCmd(a *app) *cobra.Command {
	var (
		catalogFile string
		all         bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the derived configurations without writing them",
		Long: `Print the identifier and parameters of every derived configuration.

Examples:
  gen192 list
  gen192 list --all    # include the combinations merging a pipeline into itself`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd, func(cfg *config.Config) {
				if cmd.Flags().Changed("catalog") {
					cfg.CatalogFile = catalogFile
				}
			})
			if err != nil {
				return err
			}
			catalog, err := a.catalog(cfg)
			if err != nil {
				return err
			}

			combis := combination.EnumerateDistinct(catalog)
			if all {
				combis = combination.Enumerate(catalog)
			}

			return printCombinations(cmd, combination.DefaultNamer(), combination.Number(combis))
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML catalog replacing the built-in one")
	cmd.Flags().BoolVar(&all, "all", false, "Include the combinations of a pipeline with itself")

	return cmd
}

func printCombinations(cmd *cobra.Command, namer combination.Namer, combis []combination.Indexed) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tBASE\tPERTURB\tSTEP\tCONN\tNUISANCE\tFILE")
	for _, c := range combis {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Index,
			c.Combination.Base.Label,
			c.Combination.Perturb.Label,
			c.Combination.Step.Name,
			c.Combination.ConnectivityMethod,
			strconv.FormatBool(c.Combination.NuisanceCorrection),
			namer.Filename(c.Index, c.Combination),
		)
	}

	return w.Flush()
}
