package plangenerator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	shared "github.com/ripixel/fitglue-planner/pkg"
	"github.com/ripixel/fitglue-planner/pkg/bootstrap"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	"github.com/ripixel/fitglue-planner/pkg/framework"
	infrapubsub "github.com/ripixel/fitglue-planner/pkg/infrastructure/pubsub"
	"github.com/ripixel/fitglue-planner/pkg/planner"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

const serviceName = "plan-generator"

// eventTypeGeneratePlan types requests posted directly over HTTP.
const eventTypeGeneratePlan = "com.fitglue.plan.requested"

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	// CloudEvent handler for Eventarc triggers (generate-plan topic)
	functions.CloudEvent("GeneratePlan", GeneratePlan)

	// HTTP handler for push subscriptions and direct requests
	functions.HTTP("GeneratePlanHTTP", GeneratePlanHTTP)
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

// GeneratePlan is the entry point for Eventarc triggers.
func GeneratePlan(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent(serviceName, svc, generateHandler)(ctx, e)
}

// GeneratePlanHTTP accepts a CloudEvent or a bare GeneratePlanRequest body.
// Retryable failures return 500 so Pub/Sub push redelivers.
func GeneratePlanHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	svc, err := initService(ctx)
	if err != nil {
		slog.Error("Service init failed", "error", err)
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}

	e, err := cehttp.NewEventFromHTTPRequest(r)
	if err != nil {
		e, err = eventFromBody(r)
		if err != nil {
			slog.Error("Failed to parse request", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if handlerErr := framework.WrapCloudEvent(serviceName, svc, generateHandler)(ctx, *e); handlerErr != nil {
		slog.Error("Handler failed, returning 500 for retry", "error", handlerErr)
		http.Error(w, handlerErr.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func eventFromBody(r *http.Request) (*cloudevents.Event, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	var req types.GeneratePlanRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	e, err := infrapubsub.NewCloudEvent(shared.EventSourcePlanner, eventTypeGeneratePlan, req.UserID, req)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// generateHandler contains the business logic
func generateHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var req types.GeneratePlanRequest
	if err := framework.Decode(e, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		req.UserID = e.Subject()
	}

	fwCtx.Logger.Info("Generating plan", "user_id", req.UserID, "start_date", req.StartDate, "seed", req.Seed)

	cfg := fwCtx.Service.Config
	orchestrator := planner.NewOrchestrator(fwCtx.Service.DB, fwCtx.Service.Store, fwCtx.Service.Pub, planner.Config{
		MinSafeCandidates: cfg.MinSafeCandidates,
		Bucket:            cfg.GCSArtifactBucket,
		ExportArtifacts:   cfg.ExportArtifacts,
	})

	res, err := orchestrator.Generate(ctx, &req, fwCtx.ExecutionID)
	if err != nil {
		return map[string]interface{}{
			"user_id": req.UserID,
			"code":    string(apperrors.GetCode(err)),
		}, err
	}

	fwCtx.Logger.Info("Plan generated", "plan_id", res.Record.PlanID, "phase", res.Record.PhaseID)
	return map[string]interface{}{
		"plan_id":       res.Record.PlanID,
		"phase_id":      res.Record.PhaseID,
		"training_days": res.Event.TrainingDays,
		"fatigue_state": res.Record.FatigueState,
		"trend":         res.Record.TrendLabel,
		"artifact_uris": res.Record.ArtifactURIs,
	}, nil
}
