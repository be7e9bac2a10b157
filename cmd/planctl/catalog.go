package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Check an exercise catalog",
	}
	cmd.AddCommand(newCatalogValidateCommand())
	cmd.AddCommand(newCatalogFilterCommand())
	return cmd
}

func newCatalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog-file>",
		Short: "Normalize every row and list the rejected ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []catalog.RawExercise
			if err := loadFile(args[0], &rows); err != nil {
				return err
			}
			accepted, rejected := catalog.NormalizeAll(rows)
			return reportValidation(cmd.OutOrStdout(), len(accepted), rejected)
		},
	}
}

func reportValidation(w io.Writer, accepted int, rejected []catalog.Rejection) error {
	if outputFormat == "json" {
		return printJSON(w, map[string]interface{}{
			"accepted": accepted,
			"rejected": rejected,
		})
	}
	fmt.Fprintf(w, "%d accepted, %d rejected\n", accepted, len(rejected))
	if len(rejected) > 0 {
		printCatalogRejections(w, rejected)
	}
	return nil
}

func newCatalogFilterCommand() *cobra.Command {
	var (
		profilePath string
		strict      bool
	)
	cmd := &cobra.Command{
		Use:   "filter <catalog-file>",
		Short: "Run the safety gates for a profile and show why exercises are excluded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []catalog.RawExercise
			if err := loadFile(args[0], &rows); err != nil {
				return err
			}
			var p profile.UserProfile
			if err := loadFile(profilePath, &p); err != nil {
				return err
			}
			exercises, _ := catalog.NormalizeAll(rows)
			ctx := clinical.BuildUserContext(&p)
			opts := clinical.Options{StrictSeverity: strict}

			w := cmd.OutOrStdout()
			results := make(map[string]clinical.Result, len(exercises))
			for _, ex := range exercises {
				results[ex.ID] = clinical.CheckExerciseAvailability(ex, ctx, opts)
			}
			if outputFormat == "json" {
				return printJSON(w, map[string]interface{}{"context": ctx, "results": results})
			}
			fmt.Fprintf(w, "Severity %.1f (severe=%t)  Difficulty cap %d\n", ctx.Severity, ctx.IsSevere, ctx.DifficultyCap)
			for _, ex := range exercises {
				res := results[ex.ID]
				mark := "ok"
				if !res.Allowed {
					mark = string(res.Reason)
				}
				fmt.Fprintf(w, "  %-28s %s\n", ex.ID, mark)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&profilePath, "profile", "", "User profile file")
	cmd.Flags().BoolVar(&strict, "strict-severity", false, "Enable the severe-user gates")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
