package execution_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ripixel/fitglue-planner/pkg/execution"
	"github.com/ripixel/fitglue-planner/pkg/types"
)

type MockDB struct {
	SetExecutionFunc    func(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionFunc func(ctx context.Context, id string, data map[string]interface{}) error
}

func (m *MockDB) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}

func (m *MockDB) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, id, data)
	}
	return nil
}

func statusOf(t *testing.T, data map[string]interface{}) types.ExecutionStatus {
	t.Helper()
	s, ok := data["status"].(int32)
	if !ok {
		t.Fatalf("status is %T, want int32", data["status"])
	}
	return types.ExecutionStatus(s)
}

func TestLogPending(t *testing.T) {
	var got *types.ExecutionRecord
	mockDB := &MockDB{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			got = record
			return nil
		},
	}

	id, err := execution.LogPending(context.Background(), mockDB, "plan-generator", execution.ExecutionOptions{
		UserID:      "user-1",
		TriggerType: types.TriggerPubSub,
	})
	if err != nil {
		t.Fatalf("LogPending failed: %v", err)
	}
	if !strings.HasPrefix(id, "plan-generator-") {
		t.Errorf("Expected ID prefixed with service, got %s", id)
	}
	if got.Status != types.ExecutionStatusPending {
		t.Errorf("Expected PENDING, got %v", got.Status)
	}
	if got.InputsJSON != "" {
		t.Errorf("Expected empty inputs JSON, got %q", got.InputsJSON)
	}
	if got.UserID != "user-1" || got.TriggerType != types.TriggerPubSub {
		t.Errorf("Unexpected metadata: %+v", got)
	}
}

func TestLogPending_StoreError(t *testing.T) {
	mockDB := &MockDB{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			return errors.New("unavailable")
		},
	}
	id, err := execution.LogPending(context.Background(), mockDB, "svc", execution.ExecutionOptions{})
	if err == nil {
		t.Fatal("Expected error")
	}
	if id == "" {
		t.Error("Expected execution ID even on failure")
	}
}

func TestLogStart(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if statusOf(t, data) != types.ExecutionStatusStarted {
				t.Errorf("Expected STARTED, got %v", data["status"])
			}
			if data["inputs_json"] != `{"user_id":"u1"}` {
				t.Errorf("Unexpected inputs_json %v", data["inputs_json"])
			}
			if data["user_id"] != "user-updated" {
				t.Errorf("Expected user_id 'user-updated', got %v", data["user_id"])
			}
			if _, ok := data["test_run_id"]; ok {
				t.Error("Empty test run id should not be written")
			}
			return nil
		},
	}

	inputs := types.GeneratePlanRequest{UserID: "u1"}
	err := execution.LogStart(context.Background(), mockDB, "exec-1", inputs, &execution.ExecutionOptions{UserID: "user-updated"})
	if err != nil {
		t.Fatalf("LogStart failed: %v", err)
	}
}

func TestLogSuccess(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if statusOf(t, data) != types.ExecutionStatusSuccess {
				t.Errorf("Expected SUCCESS, got %v", data["status"])
			}
			if _, ok := data["outputs_json"]; ok {
				t.Error("nil outputs should not be written")
			}
			return nil
		},
	}

	if err := execution.LogSuccess(context.Background(), mockDB, "exec-1", nil); err != nil {
		t.Fatalf("LogSuccess failed: %v", err)
	}
}

func TestLogFailureWithOutputs(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if statusOf(t, data) != types.ExecutionStatusFailed {
				t.Errorf("Expected FAILED, got %v", data["status"])
			}
			if data["error_message"] != "oops" {
				t.Errorf("Expected oops, got %v", data["error_message"])
			}
			if data["outputs_json"] != `{"stage":"filter"}` {
				t.Errorf("Unexpected outputs_json %v", data["outputs_json"])
			}
			return nil
		},
	}

	outputs := map[string]string{"stage": "filter"}
	if err := execution.LogFailure(context.Background(), mockDB, "exec-1", errors.New("oops"), outputs); err != nil {
		t.Fatalf("LogFailure failed: %v", err)
	}
}

func TestLogExecutionStatus_Skipped(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if statusOf(t, data) != types.ExecutionStatusSkipped {
				t.Errorf("Expected SKIPPED, got %v", data["status"])
			}
			return errors.New("write failed")
		},
	}

	err := execution.LogExecutionStatus(context.Background(), mockDB, "exec-1", types.ExecutionStatusSkipped, nil)
	if err == nil || !strings.Contains(err.Error(), "SKIPPED") {
		t.Errorf("Expected wrapped error naming the status, got %v", err)
	}
}

func TestLogChildExecutionStart(t *testing.T) {
	mockDB := &MockDB{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			if record.Status != types.ExecutionStatusStarted {
				t.Errorf("Expected STARTED, got %v", record.Status)
			}
			if record.ParentExecutionID != "parent-exec-123" {
				t.Errorf("Expected parent 'parent-exec-123', got %q", record.ParentExecutionID)
			}
			if record.UserID != "user-1" {
				t.Errorf("Expected user-1, got %q", record.UserID)
			}
			return nil
		},
	}

	id, err := execution.LogChildExecutionStart(context.Background(), mockDB, "plan-export", "parent-exec-123", execution.ExecutionOptions{UserID: "user-1"})
	if err != nil {
		t.Fatalf("LogChildExecutionStart failed: %v", err)
	}
	if !strings.Contains(id, "plan-export-") {
		t.Errorf("Expected ID to contain 'plan-export-', got %s", id)
	}
}
