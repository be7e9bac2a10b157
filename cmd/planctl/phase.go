package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ripixel/fitglue-planner/pkg/domain/phase"
)

func newPhaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Work with phase blueprints",
	}
	cmd.AddCommand(newPhaseSimulateCommand())
	return cmd
}

type simulatedStep struct {
	Session    int               `json:"session"`
	PhaseID    string            `json:"phase_id"`
	Overridden bool              `json:"overridden"`
	Count      int               `json:"count"`
	Target     int               `json:"target"`
	Transition *phase.Transition `json:"transition,omitempty"`
}

func newPhaseSimulateCommand() *cobra.Command {
	var (
		blueprint string
		band      string
		sessions  int
		file      string
		deloadAt  int
		rehabAt   int
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Count sessions through a blueprint and print every transition",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if err := phase.Load(data); err != nil {
					return err
				}
			}
			st, err := phase.NewState(blueprint, band)
			if err != nil {
				return err
			}

			at := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
			var steps []simulatedStep
			for i := 1; i <= sessions; i++ {
				var tr *phase.Transition
				switch i {
				case deloadAt:
					st, tr, err = st.TriggerOverride(phase.PhaseDeload, phase.ReasonFatigue, at)
				case rehabAt:
					st, tr, err = st.TriggerOverride(phase.PhaseRehab, phase.ReasonSeverePain, at)
				}
				if err != nil {
					return err
				}
				if tr != nil {
					steps = append(steps, step(i, st, tr))
				}
				st, tr, err = st.RecordSession(at)
				if err != nil {
					return err
				}
				steps = append(steps, step(i, st, tr))
				at = at.AddDate(0, 0, 2)
			}

			w := cmd.OutOrStdout()
			if outputFormat == "json" {
				return printJSON(w, steps)
			}
			for _, s := range steps {
				line := fmt.Sprintf("#%-3d %-13s %d/%d", s.Session, s.PhaseID, s.Count, s.Target)
				if s.Overridden {
					line += " (override)"
				}
				if s.Transition != nil {
					line += fmt.Sprintf("  %s %s -> %s", s.Transition.Kind, s.Transition.From, s.Transition.To)
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&blueprint, "blueprint", phase.BlueprintStrength, "Blueprint id")
	f.StringVar(&band, "band", phase.BandBeginner, "Experience band: beginner, intermediate, advanced")
	f.IntVar(&sessions, "sessions", 30, "Sessions to count")
	f.StringVar(&file, "blueprints", "", "Extra blueprint YAML to load first")
	f.IntVar(&deloadAt, "deload-at", 0, "Start a fatigue DELOAD before this session")
	f.IntVar(&rehabAt, "rehab-at", 0, "Start a REHAB override before this session")
	return cmd
}

func step(i int, st phase.State, tr *phase.Transition) simulatedStep {
	res := st.Resolve()
	return simulatedStep{
		Session:    i,
		PhaseID:    res.PhaseID,
		Overridden: res.Overridden,
		Count:      res.Count,
		Target:     res.Target,
		Transition: tr,
	}
}
