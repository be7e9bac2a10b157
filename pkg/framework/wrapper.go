// Package framework wraps Cloud Function handlers with execution logging,
// Pub/Sub envelope unwrapping and retry classification.
package framework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/fitglue-planner/pkg/bootstrap"
	apperrors "github.com/ripixel/fitglue-planner/pkg/errors"
	"github.com/ripixel/fitglue-planner/pkg/execution"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

// PubSubEventType is the envelope type Eventarc uses for Pub/Sub pushes.
const PubSubEventType = "google.cloud.pubsub.topic.v1.messagePublished"

// FrameworkContext is what a handler gets besides the event.
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc returns outputs (recorded on the execution) and an error.
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// ErrSkipped tells the wrapper the event needed no work.
var ErrSkipped = errors.New("skipped")

// WrapCloudEvent wraps a handler with execution logging. Retryable errors
// are returned so Pub/Sub redelivers; other failures are recorded and
// acknowledged.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) (err error) {
		logger := slog.Default().With("service", serviceName)

		execID, logErr := execution.LogPending(ctx, svc.DB, serviceName, execution.ExecutionOptions{
			TriggerType: types.TriggerPubSub,
		})
		if logErr != nil {
			// Logging failures never fail the function
			logger.Error("Failed to log execution pending", "error", logErr)
		}
		logger = logger.With("execution_id", execID)

		inner, unwrapErr := Unwrap(e)
		if unwrapErr != nil {
			logger.Error("Undecodable event", "error", unwrapErr, "event_id", e.ID())
			_ = execution.LogFailure(ctx, svc.DB, execID, unwrapErr, nil)
			return nil
		}

		var inputs interface{}
		if len(inner.Data()) > 0 {
			inputs = json.RawMessage(inner.Data())
		}
		if logErr := execution.LogStart(ctx, svc.DB, execID, inputs, nil); logErr != nil {
			logger.Warn("Failed to log execution start", "error", logErr)
		}
		logger.Info("Function started", "event_type", inner.Type(), "event_id", inner.ID())

		defer func() {
			if r := recover(); r != nil {
				perr := apperrors.ErrInternal.WithMessage(fmt.Sprintf("panic: %v", r))
				logger.Error("Function panicked", "error", perr)
				_ = execution.LogFailure(ctx, svc.DB, execID, perr, nil)
				err = nil
			}
		}()

		outputs, handlerErr := handler(ctx, inner, &FrameworkContext{Service: svc, Logger: logger, ExecutionID: execID})

		switch {
		case errors.Is(handlerErr, ErrSkipped):
			logger.Info("Function skipped")
			if logErr := execution.LogExecutionStatus(ctx, svc.DB, execID, types.ExecutionStatusSkipped, outputs); logErr != nil {
				logger.Warn("Failed to log execution skip", "error", logErr)
			}
			return nil

		case handlerErr != nil:
			retry := apperrors.IsRetryable(handlerErr)
			logger.Error("Function failed", "error", handlerErr, "code", apperrors.GetCode(handlerErr), "retryable", retry)
			if logErr := execution.LogFailure(ctx, svc.DB, execID, handlerErr, outputs); logErr != nil {
				logger.Warn("Failed to log execution failure", "error", logErr)
			}
			if retry {
				return handlerErr
			}
			return nil
		}

		logger.Info("Function completed successfully")
		if logErr := execution.LogSuccess(ctx, svc.DB, execID, outputs); logErr != nil {
			logger.Warn("Failed to log execution success", "error", logErr)
		}
		return nil
	}
}

// Unwrap returns the event carried by a Pub/Sub envelope. A payload that is
// itself a CloudEvent is returned as is; a plain JSON payload is wrapped in
// an event typed from the message's ce-type attribute. Events that are not
// envelopes pass through.
func Unwrap(e event.Event) (event.Event, error) {
	if e.Type() != PubSubEventType {
		return e, nil
	}
	var msg types.PubSubMessage
	if err := json.Unmarshal(e.Data(), &msg); err != nil {
		return e, apperrors.ErrValidation.WithMessage("invalid pubsub envelope").WithCause(err)
	}

	var inner event.Event
	if err := json.Unmarshal(msg.Message.Data, &inner); err == nil && inner.Validate() == nil {
		return inner, nil
	}

	plain := event.New()
	plain.SetID(e.ID())
	plain.SetSource(e.Source())
	plain.SetType(PubSubEventType)
	if t := msg.Message.Attr("ce-type"); t != "" {
		plain.SetType(t)
	}
	if s := msg.Message.Attr("ce-subject"); s != "" {
		plain.SetSubject(s)
	}
	if err := plain.SetData(event.ApplicationJSON, json.RawMessage(msg.Message.Data)); err != nil {
		return e, apperrors.ErrValidation.WithMessage("invalid pubsub payload").WithCause(err)
	}
	return plain, nil
}

// Decode unmarshals the event payload into v.
func Decode(e event.Event, v interface{}) error {
	if err := json.Unmarshal(e.Data(), v); err != nil {
		return apperrors.ErrValidation.WithMessage("invalid event payload").WithCause(err)
	}
	return nil
}
