package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/spf13/cobra"
)

// workoutSummary is what inspect reports for a FIT workout file.
type workoutSummary struct {
	Name  string        `json:"name"`
	Sport string        `json:"sport"`
	Steps []stepSummary `json:"steps"`
}

type stepSummary struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Intensity string `json:"intensity"`
	Duration  string `json:"duration"`
	Category  string `json:"category,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func newInspectCommand() *cobra.Command {
	var detailed bool
	cmd := &cobra.Command{
		Use:   "inspect-fit <file.fit>",
		Short: "Decode a FIT workout file and list its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			summary, err := inspectWorkout(data, detailed, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if outputFormat == "json" {
				return printJSON(w, summary)
			}
			printWorkout(w, summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&detailed, "detailed-dump", false, "Print every decoded field")
	return cmd
}

func inspectWorkout(data []byte, detailed bool, dump io.Writer) (*workoutSummary, error) {
	fit, err := decoder.New(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode FIT file: %w", err)
	}

	summary := &workoutSummary{}
	for i := range fit.Messages {
		msg := fit.Messages[i]
		if detailed {
			for _, field := range msg.Fields {
				fmt.Fprintf(dump, "Mesg %d: %q (Num: %d) = %v\n", msg.Num, field.Name, field.Num, field.Value.Any())
			}
		}
		switch msg.Num {
		case typedef.MesgNumWorkout:
			wkt := mesgdef.NewWorkout(&msg)
			summary.Name = wkt.WktName
			summary.Sport = wkt.Sport.String()
		case typedef.MesgNumWorkoutStep:
			s := mesgdef.NewWorkoutStep(&msg)
			step := stepSummary{
				Index:     int(s.MessageIndex),
				Name:      s.WktStepName,
				Intensity: s.Intensity.String(),
				Duration:  describeDuration(s),
				Notes:     s.Notes,
			}
			if s.ExerciseCategory != typedef.ExerciseCategoryInvalid {
				step.Category = s.ExerciseCategory.String()
			}
			summary.Steps = append(summary.Steps, step)
		}
	}
	if summary.Name == "" && len(summary.Steps) == 0 {
		return nil, fmt.Errorf("not a workout file")
	}
	return summary, nil
}

func describeDuration(s *mesgdef.WorkoutStep) string {
	switch s.DurationType {
	case typedef.WktStepDurationTime:
		return fmt.Sprintf("%ds", s.DurationValue/1000)
	case typedef.WktStepDurationReps:
		return fmt.Sprintf("%d reps", s.DurationValue)
	case typedef.WktStepDurationRepeatUntilStepsCmplt:
		return fmt.Sprintf("repeat from #%d x%d", s.DurationValue, s.TargetValue)
	case typedef.WktStepDurationOpen:
		return "open"
	}
	return s.DurationType.String()
}

func printWorkout(w io.Writer, summary *workoutSummary) {
	fmt.Fprintf(w, "Workout: %s (%s), %d steps\n\n", summary.Name, summary.Sport, len(summary.Steps))
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "#\tStep\tIntensity\tDuration\tCategory\tNotes")
	fmt.Fprintln(tw, "-\t----\t---------\t--------\t--------\t-----")
	for _, s := range summary.Steps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", s.Index, s.Name, s.Intensity, s.Duration, s.Category, s.Notes)
	}
	tw.Flush()
}
