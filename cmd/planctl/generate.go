package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripixel/fitglue-planner/pkg/bootstrap"
	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/clinical"
	"github.com/ripixel/fitglue-planner/pkg/domain/fatigue"
	"github.com/ripixel/fitglue-planner/pkg/domain/file_generators"
	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
	"github.com/ripixel/fitglue-planner/pkg/domain/profile"
	"github.com/ripixel/fitglue-planner/pkg/domain/schedule"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
	"github.com/ripixel/fitglue-planner/pkg/execution"
	"github.com/ripixel/fitglue-planner/pkg/export/spreadsheet"
	"github.com/ripixel/fitglue-planner/pkg/planner"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

type generateOptions struct {
	catalogPath   string
	profilePath   string
	historyPath   string
	statsPath     string
	blacklistPath string
	phasePath     string

	userID           string
	start            string
	seed             uint64
	minSafe          int
	ignoreEquipment  bool
	ignoreDifficulty bool
	strictSeverity   bool

	fitDir   string
	xlsxPath string
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a weekly plan",
		Long: `Generate a weekly plan from local fixture files (JSON or YAML), or with --user
against the configured Firestore project, storing and publishing the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.userID != "" {
				return runRemoteGenerate(cmd.Context(), cmd.OutOrStdout(), opts)
			}
			return runLocalGenerate(cmd.OutOrStdout(), opts, time.Now().UTC())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.catalogPath, "catalog", "", "Exercise catalog file")
	f.StringVar(&opts.profilePath, "profile", "", "User profile file")
	f.StringVar(&opts.historyPath, "history", "", "Session history file")
	f.StringVar(&opts.statsPath, "stats", "", "Exercise stats file (id -> stats)")
	f.StringVar(&opts.blacklistPath, "blacklist", "", "Blacklisted exercise ids file")
	f.StringVar(&opts.phasePath, "phase", "", "Stored phase state file")
	f.StringVar(&opts.userID, "user", "", "Generate for a stored user instead of fixture files")
	f.StringVar(&opts.start, "start", "", "Start date YYYY-MM-DD (default today)")
	f.Uint64Var(&opts.seed, "seed", 0, "Random seed (0 seeds from the clock)")
	f.IntVar(&opts.minSafe, "min-safe", planner.DefaultMinSafeCandidates, "Minimum safe candidates")
	f.BoolVar(&opts.ignoreEquipment, "ignore-equipment", false, "Skip the equipment gate")
	f.BoolVar(&opts.ignoreDifficulty, "ignore-difficulty", false, "Skip the difficulty gate")
	f.BoolVar(&opts.strictSeverity, "strict-severity", false, "Enable the severe-user gates")
	f.StringVar(&opts.fitDir, "fit-dir", "", "Write one FIT workout per training day into this directory")
	f.StringVar(&opts.xlsxPath, "xlsx", "", "Write the plan spreadsheet to this path")
	return cmd
}

func runLocalGenerate(w io.Writer, opts *generateOptions, now time.Time) error {
	if opts.catalogPath == "" || opts.profilePath == "" {
		return fmt.Errorf("--catalog and --profile are required without --user")
	}
	in, err := loadInputs(opts)
	if err != nil {
		return err
	}
	start, err := planner.ParseStartDate(opts.start, now)
	if err != nil {
		return err
	}

	plan, err := planner.Compute(in, planner.Params{
		Start:             start,
		Now:               now,
		Seed:              opts.seed,
		MinSafeCandidates: opts.minSafe,
		Filter: clinical.Options{
			IgnoreEquipment:  opts.ignoreEquipment,
			IgnoreDifficulty: opts.ignoreDifficulty,
			StrictSeverity:   opts.strictSeverity,
		},
	})
	if err != nil {
		if plan != nil {
			printRejections(w, plan.GateRejections)
		}
		return err
	}

	if err := writeLocalArtifacts(plan, in.Profile.UserID, opts, now); err != nil {
		return err
	}
	if outputFormat == "json" {
		return printJSON(w, plan)
	}
	printPlan(w, plan)
	return nil
}

func loadInputs(opts *generateOptions) (planner.Inputs, error) {
	var in planner.Inputs
	if err := loadFile(opts.catalogPath, &in.Catalog); err != nil {
		return in, err
	}
	var p profile.UserProfile
	if err := loadFile(opts.profilePath, &p); err != nil {
		return in, err
	}
	in.Profile = &p

	if opts.historyPath != "" {
		var history []fatigue.SessionRecord
		if err := loadFile(opts.historyPath, &history); err != nil {
			return in, err
		}
		in.History = history
	}
	if opts.statsPath != "" {
		stats := map[string]selection.ExerciseStats{}
		if err := loadFile(opts.statsPath, &stats); err != nil {
			return in, err
		}
		in.Stats = stats
	}
	if opts.blacklistPath != "" {
		if err := loadFile(opts.blacklistPath, &in.Blacklist); err != nil {
			return in, err
		}
	}
	if opts.phasePath != "" {
		var rec phase.Record
		if err := loadFile(opts.phasePath, &rec); err != nil {
			return in, err
		}
		in.Phase = &rec
	}
	return in, nil
}

func writeLocalArtifacts(plan *planner.Plan, userID string, opts *generateOptions, now time.Time) error {
	if opts.fitDir != "" {
		if err := os.MkdirAll(opts.fitDir, 0o755); err != nil {
			return err
		}
		n := 0
		for _, day := range plan.Weekly.Days {
			if day.Rest || day.Session == nil {
				continue
			}
			n++
			name := fmt.Sprintf("%s %s", plan.Weekly.PhaseID, day.Date.Format("01-02"))
			data, err := file_generators.GenerateWorkoutFile(name, now, &day.Session.Session)
			if err != nil {
				return fmt.Errorf("day %d: %w", n, err)
			}
			if err := os.WriteFile(filepath.Join(opts.fitDir, fmt.Sprintf("day-%d.fit", n)), data, 0o644); err != nil {
				return err
			}
		}
	}
	if opts.xlsxPath != "" {
		data, err := spreadsheet.Export(plan.Weekly, spreadsheet.Meta{
			UserID:       userID,
			PlanID:       "local",
			FatigueState: plan.Fatigue.State().String(),
			TrendLabel:   plan.Trend.Label,
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.xlsxPath, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func runRemoteGenerate(ctx context.Context, w io.Writer, opts *generateOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		return err
	}
	req := &types.GeneratePlanRequest{
		UserID:           opts.userID,
		StartDate:        opts.start,
		Seed:             opts.seed,
		IgnoreEquipment:  opts.ignoreEquipment,
		IgnoreDifficulty: opts.ignoreDifficulty,
		StrictSeverity:   opts.strictSeverity,
	}

	execID, _ := execution.LogPending(ctx, svc.DB, "planctl", execution.ExecutionOptions{
		UserID:      opts.userID,
		TriggerType: types.TriggerCLI,
	})
	_ = execution.LogStart(ctx, svc.DB, execID, req, nil)

	orchestrator := planner.NewOrchestrator(svc.DB, svc.Store, svc.Pub, planner.Config{
		MinSafeCandidates: svc.Config.MinSafeCandidates,
		Bucket:            svc.Config.GCSArtifactBucket,
		ExportArtifacts:   svc.Config.ExportArtifacts,
	})
	res, err := orchestrator.Generate(ctx, req, execID)
	if err != nil {
		_ = execution.LogFailure(ctx, svc.DB, execID, err, nil)
		return err
	}
	_ = execution.LogSuccess(ctx, svc.DB, execID, res.Event)

	if outputFormat == "json" {
		return printJSON(w, res.Record)
	}
	fmt.Fprintf(w, "Plan %s stored for %s\n", res.Record.PlanID, res.Record.UserID)
	for _, uri := range res.Record.ArtifactURIs {
		fmt.Fprintf(w, "  %s\n", uri)
	}
	printPlan(w, res.Plan)
	return nil
}

func printPlan(w io.Writer, plan *planner.Plan) {
	fmt.Fprintf(w, "Phase: %s  Fatigue: %s (%.1f)  Trend: %s  Candidates: %d  Seed: %d\n\n",
		plan.Weekly.PhaseID, plan.Fatigue.State(), plan.Fatigue.CurrentScore, plan.Trend.Label, plan.Candidates, plan.Seed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tDay\tSection\tExercise\tPrescription\tRest")
	for _, day := range plan.Weekly.Days {
		date := day.Date.Format("2006-01-02")
		if day.Rest {
			fmt.Fprintf(tw, "%s\t%s\trest\t\t\t\n", date, day.Weekday)
			continue
		}
		printSession(tw, date, day)
	}
	tw.Flush()
}

func printSession(tw *tabwriter.Writer, date string, day schedule.Day) {
	for _, it := range day.Session.Items() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%ds\n", date, day.Weekday, it.Section, it.Name, it.Display(), it.RestSeconds)
	}
	fmt.Fprintf(tw, "%s\t%s\ttotal\t\t~%d min\t\n", date, day.Weekday, (day.Session.EstimatedSeconds+59)/60)
}

func printRejections(w io.Writer, rejections map[clinical.Reason]int) {
	if len(rejections) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Gate rejection\tCount")
	for _, reason := range sortedReasons(rejections) {
		fmt.Fprintf(tw, "%s\t%d\n", reason, rejections[reason])
	}
	tw.Flush()
}

func printCatalogRejections(w io.Writer, rejections []catalog.Rejection) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Exercise\tReason")
	for _, r := range rejections {
		fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Reason)
	}
	tw.Flush()
}
