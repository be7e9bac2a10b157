// Package execution writes an audit record for every function run.
package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ripixel/fitglue-planner/pkg/types"
)

// Database is the subset of the store the logger needs.
type Database interface {
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error
}

// ExecutionOptions contains optional fields for execution logging
type ExecutionOptions struct {
	UserID      string
	TestRunID   string
	TriggerType string
	Inputs      interface{}
}

// now is swapped in tests.
var now = time.Now

func newID(service string) string {
	return fmt.Sprintf("%s-%d", service, now().UnixNano())
}

func encode(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// LogPending creates an execution record with PENDING status and captured inputs
func LogPending(ctx context.Context, db Database, service string, opts ExecutionOptions) (string, error) {
	execID := newID(service)
	ts := now()

	record := &types.ExecutionRecord{
		ExecutionID: execID,
		Service:     service,
		Status:      types.ExecutionStatusPending,
		Timestamp:   ts,
		StartTime:   ts,
		UserID:      opts.UserID,
		TestRunID:   opts.TestRunID,
		TriggerType: opts.TriggerType,
		InputsJSON:  encode(opts.Inputs),
	}

	if err := db.SetExecution(ctx, record); err != nil {
		return execID, fmt.Errorf("failed to log execution pending: %w", err)
	}
	return execID, nil
}

// LogStart moves a pending record to STARTED and fills in metadata that was
// not known when it was created.
func LogStart(ctx context.Context, db Database, execID string, inputs interface{}, opts *ExecutionOptions) error {
	updates := map[string]interface{}{
		"status":     int32(types.ExecutionStatusStarted),
		"start_time": now(),
	}

	if opts != nil {
		if opts.UserID != "" {
			updates["user_id"] = opts.UserID
		}
		if opts.TestRunID != "" {
			updates["test_run_id"] = opts.TestRunID
		}
		if opts.TriggerType != "" {
			updates["trigger_type"] = opts.TriggerType
		}
	}
	if s := encode(inputs); s != "" {
		updates["inputs_json"] = s
	}

	if err := db.UpdateExecution(ctx, execID, updates); err != nil {
		return fmt.Errorf("failed to log execution start: %w", err)
	}
	return nil
}

// LogChildExecutionStart creates a STARTED record linked to a parent run.
func LogChildExecutionStart(ctx context.Context, db Database, service string, parentExecutionID string, opts ExecutionOptions) (string, error) {
	execID := newID(service)
	ts := now()

	record := &types.ExecutionRecord{
		ExecutionID:       execID,
		Service:           service,
		Status:            types.ExecutionStatusStarted,
		Timestamp:         ts,
		StartTime:         ts,
		UserID:            opts.UserID,
		TestRunID:         opts.TestRunID,
		TriggerType:       opts.TriggerType,
		ParentExecutionID: parentExecutionID,
		InputsJSON:        encode(opts.Inputs),
	}

	if err := db.SetExecution(ctx, record); err != nil {
		return execID, fmt.Errorf("failed to log child execution start: %w", err)
	}
	return execID, nil
}

// LogSuccess updates an execution record with SUCCESS status
func LogSuccess(ctx context.Context, db Database, execID string, outputs interface{}) error {
	return LogExecutionStatus(ctx, db, execID, types.ExecutionStatusSuccess, outputs)
}

// LogFailure updates an execution record with FAILED status
func LogFailure(ctx context.Context, db Database, execID string, err error, outputs interface{}) error {
	ts := now()
	updates := map[string]interface{}{
		"status":        int32(types.ExecutionStatusFailed),
		"timestamp":     ts,
		"end_time":      ts,
		"error_message": err.Error(),
	}
	if s := encode(outputs); s != "" {
		updates["outputs_json"] = s
	}

	if updateErr := db.UpdateExecution(ctx, execID, updates); updateErr != nil {
		return fmt.Errorf("failed to log execution failure: %w", updateErr)
	}
	return nil
}

// LogExecutionStatus closes an execution record with the given status.
func LogExecutionStatus(ctx context.Context, db Database, execID string, status types.ExecutionStatus, outputs interface{}) error {
	ts := now()
	updates := map[string]interface{}{
		"status":    int32(status),
		"timestamp": ts,
		"end_time":  ts,
	}
	if s := encode(outputs); s != "" {
		updates["outputs_json"] = s
	}

	if err := db.UpdateExecution(ctx, execID, updates); err != nil {
		return fmt.Errorf("failed to log execution status %v: %w", status, err)
	}
	return nil
}
