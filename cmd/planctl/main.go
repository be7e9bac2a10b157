package main

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ripixel/fitglue-planner/pkg/bootstrap"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
)

const version = "0.3.0"

var outputFormat string

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "planctl",
		Short: "FitGlue planner CLI",
		Long: `planctl generates weekly plans from fixture files or stored users, checks
exercise catalogs, simulates phase blueprints and inspects exported FIT workouts.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: json, table")

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newCatalogCommand())
	rootCmd.AddCommand(newPhaseCommand())
	rootCmd.AddCommand(newInspectCommand())
	return rootCmd
}

func main() {
	bootstrap.InitLogger(bootstrap.ParseLevel(os.Getenv("LOG_LEVEL")))
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func sortedReasons(m map[clinical.Reason]int) []clinical.Reason {
	out := make([]clinical.Reason, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
