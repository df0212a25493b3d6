package models

// ProcessingStage 管道阶段（固定顺序执行）
type ProcessingStage string

const (
	StageValidation   ProcessingStage = "validation"
	StageEncryption   ProcessingStage = "encryption"
	StageSigning      ProcessingStage = "signing"
	StageStorage      ProcessingStage = "storage"
	StageIndexing     ProcessingStage = "indexing"
	StageNotification ProcessingStage = "notification"
)

// StageStatus 单个阶段的状态
type StageStatus string

const (
	StageStatusPending    StageStatus = "pending"
	StageStatusProcessing StageStatus = "processing"
	StageStatusCompleted  StageStatus = "completed"
	StageStatusError      StageStatus = "error"
)

// PipelineState 整个管道运行的状态
type PipelineState string

const (
	PipelinePending   PipelineState = "pending"
	PipelineRunning   PipelineState = "running"
	PipelineCompleted PipelineState = "completed"
	PipelineAborted   PipelineState = "aborted"
)

// StageUpdate 进度通知（每个阶段至少回调两次：processing 和 completed）
type StageUpdate struct {
	Stage    ProcessingStage `json:"stage"`
	Status   StageStatus     `json:"status"`
	Progress float64         `json:"progress"` // 0-100，单调不减
	Message  string          `json:"message,omitempty"`
}
