package progression

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/ripixel/fitglue-planner/pkg/bootstrap"
	"github.com/ripixel/fitglue-planner/pkg/framework"
	"github.com/ripixel/fitglue-planner/pkg/planner"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

const serviceName = "progression"

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	// CloudEvent handler for Eventarc triggers (session-completed topic)
	functions.CloudEvent("RecordSession", RecordSession)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
		if svcErr != nil {
			slog.Error("Failed to initialize service", "error", svcErr)
		}
	})
	return svc, svcErr
}

// RecordSession advances the user's phase after a completed session.
func RecordSession(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent(serviceName, svc, progressHandler)(ctx, e)
}

func progressHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var ev types.SessionCompletedEvent
	if err := framework.Decode(e, &ev); err != nil {
		return nil, err
	}
	if ev.UserID == "" {
		ev.UserID = e.Subject()
	}
	if ev.SessionID == "" && ev.CompletedAt.IsZero() {
		fwCtx.Logger.Info("Empty session event, nothing to record", "user_id", ev.UserID)
		return nil, framework.ErrSkipped
	}

	cfg := fwCtx.Service.Config
	orchestrator := planner.NewOrchestrator(fwCtx.Service.DB, fwCtx.Service.Store, fwCtx.Service.Pub, planner.Config{
		MinSafeCandidates: cfg.MinSafeCandidates,
	})

	progress, err := orchestrator.RecordSession(ctx, &ev)
	if err != nil {
		return nil, err
	}

	fwCtx.Logger.Info("Session recorded",
		"user_id", ev.UserID,
		"session_id", ev.SessionID,
		"phase", progress.Event.PhaseID,
		"overridden", progress.Event.Overridden,
		"pain", string(progress.Pain))

	return map[string]interface{}{
		"phase_id":    progress.Event.PhaseID,
		"overridden":  progress.Event.Overridden,
		"count":       progress.Event.Count,
		"target":      progress.Event.Target,
		"pain":        string(progress.Pain),
		"transitions": progress.Event.Transitions,
	}, nil
}
