package types

import "time"

// ExecutionStatus is the lifecycle state of a function execution.
type ExecutionStatus int32

const (
	ExecutionStatusUnspecified ExecutionStatus = iota
	ExecutionStatusPending
	ExecutionStatusStarted
	ExecutionStatusSuccess
	ExecutionStatusFailed
	// ExecutionStatusSkipped marks a run that had nothing to do, e.g. a
	// duplicate completion event.
	ExecutionStatusSkipped
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionStatusPending:
		return "PENDING"
	case ExecutionStatusStarted:
		return "STARTED"
	case ExecutionStatusSuccess:
		return "SUCCESS"
	case ExecutionStatusFailed:
		return "FAILED"
	case ExecutionStatusSkipped:
		return "SKIPPED"
	default:
		return "UNSPECIFIED"
	}
}

// ExecutionRecord is the audit document written for each function run.
type ExecutionRecord struct {
	ExecutionID       string          `json:"execution_id" firestore:"execution_id"`
	Service           string          `json:"service" firestore:"service"`
	Status            ExecutionStatus `json:"status" firestore:"status"`
	Timestamp         time.Time       `json:"timestamp" firestore:"timestamp"`
	StartTime         time.Time       `json:"start_time" firestore:"start_time"`
	EndTime           *time.Time      `json:"end_time,omitempty" firestore:"end_time,omitempty"`
	UserID            string          `json:"user_id,omitempty" firestore:"user_id,omitempty"`
	TestRunID         string          `json:"test_run_id,omitempty" firestore:"test_run_id,omitempty"`
	TriggerType       string          `json:"trigger_type" firestore:"trigger_type"`
	ParentExecutionID string          `json:"parent_execution_id,omitempty" firestore:"parent_execution_id,omitempty"`
	InputsJSON        string          `json:"inputs_json,omitempty" firestore:"inputs_json,omitempty"`
	OutputsJSON       string          `json:"outputs_json,omitempty" firestore:"outputs_json,omitempty"`
	ErrorMessage      string          `json:"error_message,omitempty" firestore:"error_message,omitempty"`
}
