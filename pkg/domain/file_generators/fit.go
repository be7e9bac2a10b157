package file_generators

import (
	"bytes"
	"fmt"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"

	"github.com/ripixel/fitglue-planner/pkg/domain/budget"
	"github.com/ripixel/fitglue-planner/pkg/domain/catalog"
	"github.com/ripixel/fitglue-planner/pkg/domain/prescription"
	"github.com/ripixel/fitglue-planner/pkg/domain/selection"
)

// FIT workout names are capped by most devices.
const maxNameLen = 15

var categoryMap = map[string]typedef.ExerciseCategory{
	catalog.CategoryBreathing:              typedef.ExerciseCategoryWarmUp,
	catalog.CategorySpineMobility:          typedef.ExerciseCategoryWarmUp,
	catalog.CategoryHipMobility:            typedef.ExerciseCategoryHipStability,
	catalog.CategoryThoracicMobility:       typedef.ExerciseCategoryWarmUp,
	catalog.CategoryNerveFlossing:          typedef.ExerciseCategoryWarmUp,
	catalog.CategoryStretching:             typedef.ExerciseCategoryWarmUp,
	catalog.CategoryCoreAntiExtension:      typedef.ExerciseCategoryPlank,
	catalog.CategoryCoreAntiRotation:       typedef.ExerciseCategoryCore,
	catalog.CategoryCoreAntiLateralFlexion: typedef.ExerciseCategoryCore,
	catalog.CategoryGluteActivation:        typedef.ExerciseCategoryHipRaise,
	catalog.CategoryLowerBodyStrength:      typedef.ExerciseCategorySquat,
	catalog.CategoryUpperBodyStrength:      typedef.ExerciseCategoryPushUp,
	catalog.CategoryBalance:                typedef.ExerciseCategoryHipStability,
	catalog.CategoryConditioningLowImpact:  typedef.ExerciseCategoryCardio,
	catalog.CategoryConditioningIntervals:  typedef.ExerciseCategoryTotalBody,
}

// MapCategory maps a catalog category to the closest FIT exercise category.
func MapCategory(category string) typedef.ExerciseCategory {
	if c, ok := categoryMap[category]; ok {
		return c
	}
	return typedef.ExerciseCategoryUnknown
}

func intensityFor(section selection.Section) typedef.Intensity {
	switch section {
	case selection.SectionWarmup:
		return typedef.IntensityWarmup
	case selection.SectionCooldown:
		return typedef.IntensityCooldown
	default:
		return typedef.IntensityActive
	}
}

// GenerateWorkoutFile encodes one session as a FIT workout file. Each item
// becomes a work step; multi-set items add a rest step and a repeat step
// pointing back at the work step.
func GenerateWorkoutFile(name string, created time.Time, sess *budget.Session) ([]byte, error) {
	if sess == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	items := sess.Items()
	if len(items) == 0 {
		return nil, fmt.Errorf("session must have at least one exercise")
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	fit := &proto.FIT{Messages: []proto.Message{}}

	fileID := mesgdef.NewFileId(nil).
		SetType(typedef.FileWorkout).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(created)
	fit.Messages = append(fit.Messages, fileID.ToMesg(nil))

	var steps []proto.Message
	for _, it := range items {
		steps = appendItemSteps(steps, it)
	}

	workout := mesgdef.NewWorkout(nil).
		SetWktName(name).
		SetSport(typedef.SportTraining).
		SetSubSport(typedef.SubSportStrengthTraining).
		SetNumValidSteps(uint16(len(steps)))
	fit.Messages = append(fit.Messages, workout.ToMesg(nil))
	fit.Messages = append(fit.Messages, steps...)

	var buf bytes.Buffer
	if err := encoder.New(&buf).Encode(fit); err != nil {
		return nil, fmt.Errorf("failed to encode FIT file: %w", err)
	}
	return buf.Bytes(), nil
}

func appendItemSteps(steps []proto.Message, it *prescription.Item) []proto.Message {
	first := len(steps)

	work := mesgdef.NewWorkoutStep(nil).
		SetMessageIndex(typedef.MessageIndex(first)).
		SetWktStepName(it.Name).
		SetIntensity(intensityFor(it.Section)).
		SetTargetType(typedef.WktStepTargetOpen).
		SetExerciseCategory(MapCategory(it.Category)).
		SetNotes(it.Display())
	if it.Timed() {
		work.SetDurationType(typedef.WktStepDurationTime).
			SetDurationValue(uint32(it.WorkSeconds()) * 1000)
	} else {
		reps := it.Reps
		if it.PerSide {
			reps *= 2
		}
		work.SetDurationType(typedef.WktStepDurationReps).
			SetDurationValue(uint32(reps))
	}
	steps = append(steps, work.ToMesg(nil))

	if it.Sets <= 1 {
		return steps
	}
	if it.RestSeconds > 0 {
		rest := mesgdef.NewWorkoutStep(nil).
			SetMessageIndex(typedef.MessageIndex(len(steps))).
			SetIntensity(typedef.IntensityRest).
			SetTargetType(typedef.WktStepTargetOpen).
			SetDurationType(typedef.WktStepDurationTime).
			SetDurationValue(uint32(it.RestSeconds) * 1000)
		steps = append(steps, rest.ToMesg(nil))
	}
	repeat := mesgdef.NewWorkoutStep(nil).
		SetMessageIndex(typedef.MessageIndex(len(steps))).
		SetDurationType(typedef.WktStepDurationRepeatUntilStepsCmplt).
		SetDurationValue(uint32(first)).
		SetTargetValue(uint32(it.Sets))
	return append(steps, repeat.ToMesg(nil))
}
