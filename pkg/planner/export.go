package planner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ripixel/fitglue-planner/pkg/domain/file_generators"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	"github.com/ripixel/fitglue-planner/pkg/execution"
	"github.com/ripixel/fitglue-planner/pkg/export/spreadsheet"
	"github.com/ripixel/fitglue-planner/pkg/infrastructure/storage"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// ArtifactPrefix is the object prefix of a plan's artifacts.
func ArtifactPrefix(userID, planID string) string {
	return fmt.Sprintf("plans/%s/%s", userID, planID)
}

// exportArtifacts writes one FIT workout per training day and the plan
// spreadsheet. Failures are logged and skipped; a plan without artifacts is
// still a plan. With a parent execution the export is recorded as a child
// execution of it.
func (o *Orchestrator) exportArtifacts(ctx context.Context, record *types.PlanRecord, plan *Plan, parentExecID string) []string {
	if !o.cfg.ExportArtifacts || o.storage == nil || o.cfg.Bucket == "" {
		return nil
	}

	childID := ""
	if parentExecID != "" {
		id, err := execution.LogChildExecutionStart(ctx, o.database, "plan-export", parentExecID, execution.ExecutionOptions{
			UserID: record.UserID,
			Inputs: map[string]string{"plan_id": record.PlanID},
		})
		if err != nil {
			slog.Warn("Failed to log export execution", "error", err)
		} else {
			childID = id
		}
	}

	uris, failed := o.writeArtifacts(ctx, record, plan)
	if childID != "" {
		outputs := map[string]interface{}{"artifact_uris": uris, "failed": failed}
		if failed > 0 {
			_ = execution.LogFailure(ctx, o.database, childID, fmt.Errorf("%d artifacts not written", failed), outputs)
		} else {
			_ = execution.LogSuccess(ctx, o.database, childID, outputs)
		}
	}
	return uris
}

func (o *Orchestrator) writeArtifacts(ctx context.Context, record *types.PlanRecord, plan *Plan) ([]string, int) {
	prefix := ArtifactPrefix(record.UserID, record.PlanID)
	var uris []string
	failed := 0

	write := func(object string, data []byte) {
		if err := o.storage.Write(ctx, o.cfg.Bucket, object, data); err != nil {
			slog.Error("Failed to write plan artifact", "object", object, "error", err)
			failed++
			return
		}
		uris = append(uris, storage.URI(o.cfg.Bucket, object))
	}

	n := 0
	for _, day := range plan.Weekly.Days {
		if day.Rest || day.Session == nil {
			continue
		}
		n++
		name := fmt.Sprintf("%s %s", record.PhaseID, day.Date.Format("01-02"))
		data, err := file_generators.GenerateWorkoutFile(name, record.CreatedAt, &day.Session.Session)
		if err != nil {
			slog.Warn("Skipping FIT export", "day", n, "error", apperrors.ErrExportError.WithCause(err))
			failed++
			continue
		}
		write(fmt.Sprintf("%s/day-%d.fit", prefix, n), data)
	}

	xlsx, err := spreadsheet.Export(plan.Weekly, spreadsheet.Meta{
		UserID:       record.UserID,
		PlanID:       record.PlanID,
		FatigueState: record.FatigueState,
		TrendLabel:   record.TrendLabel,
	})
	if err != nil {
		slog.Warn("Skipping spreadsheet export", "error", apperrors.ErrExportError.WithCause(err))
		return uris, failed + 1
	}
	write(prefix+"/plan.xlsx", xlsx)
	return uris, failed
}
