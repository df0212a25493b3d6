// Package pipeline 实现固定顺序的记录处理管道。
//
// 阶段严格串行执行（线性的用户可见进度是产品需求，不是实现限制），
// 每个阶段带有非确定性的模拟延迟，通过回调向调用方汇报进度。
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"privemr-record-service/internal/assembler"
	"privemr-record-service/internal/fileingest"
	"privemr-record-service/internal/models"
	"privemr-record-service/internal/repository"
)

// stageOrder 固定的阶段顺序
var stageOrder = []models.ProcessingStage{
	models.StageValidation,
	models.StageEncryption,
	models.StageSigning,
	models.StageStorage,
	models.StageIndexing,
	models.StageNotification,
}

// ProgressFunc 进度回调：每个阶段至少回调两次（processing、completed），
// 出错时可能再回调一次（error）
type ProgressFunc func(models.StageUpdate)

// Sleeper 阶段延迟（可注入，测试中替换为零延迟实现）
type Sleeper interface {
	Sleep(ctx context.Context) error
}

// randomSleeper 在 [min, max] 区间内随机延迟，尊重 ctx 取消
type randomSleeper struct {
	min, max time.Duration
	rnd      *rand.Rand
}

// NewRandomSleeper 创建随机延迟器
func NewRandomSleeper(min, max time.Duration) Sleeper {
	if max < min {
		max = min
	}
	return &randomSleeper{
		min: min,
		max: max,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *randomSleeper) Sleep(ctx context.Context) error {
	d := s.min
	if s.max > s.min {
		d += time.Duration(s.rnd.Int63n(int64(s.max - s.min)))
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pipeline 记录处理管道
type Pipeline struct {
	assembler *assembler.Assembler
	repo      *repository.RecordRepository
	sleeper   Sleeper
	stageHook func(models.ProcessingStage) error // 故障注入钩子（测试用）
	logger    *zap.Logger
	state     models.PipelineState
}

// NewPipeline 创建处理管道
func NewPipeline(asm *assembler.Assembler, repo *repository.RecordRepository, sleeper Sleeper, logger *zap.Logger) *Pipeline {
	if sleeper == nil {
		sleeper = NewRandomSleeper(200*time.Millisecond, 600*time.Millisecond)
	}
	return &Pipeline{
		assembler: asm,
		repo:      repo,
		sleeper:   sleeper,
		logger:    logger,
		state:     models.PipelinePending,
	}
}

// SetStageHook 设置阶段钩子：返回非 nil 错误时该阶段标记为 error，管道中止
func (p *Pipeline) SetStageHook(hook func(models.ProcessingStage) error) {
	p.stageHook = hook
}

// State 返回最近一次运行的管道状态
func (p *Pipeline) State() models.PipelineState {
	return p.state
}

// Run 执行完整的管道：六个阶段串行 → 组装记录 → 持久化
// 任一阶段出错立即中止：后续阶段不再执行，不持久化任何记录
func (p *Pipeline) Run(ctx context.Context, form *models.SubmissionForm, onProgress ProgressFunc) (*models.EMRRecord, error) {
	runID := uuid.NewString()

	emit := func(update models.StageUpdate) {
		if onProgress != nil {
			onProgress(update)
		}
	}

	// 同步校验在任何延迟之前完成，保证失败时没有部分副作用
	if form.TextData == "" && form.File == nil {
		return nil, assembler.ErrNoContent
	}
	if form.File != nil {
		if result := fileingest.Validate(form.File); !result.Valid {
			return nil, fmt.Errorf("%w: %s", assembler.ErrInvalidFile, result.Error)
		}
	}

	p.state = models.PipelineRunning
	p.logger.Info("Pipeline run started",
		zap.String("run_id", runID),
		zap.String("type", form.Type),
	)

	total := len(stageOrder)
	for i, stage := range stageOrder {
		progress := float64(i+1) / float64(total) * 100

		emit(models.StageUpdate{
			Stage:    stage,
			Status:   models.StageStatusProcessing,
			Progress: progress,
			Message:  fmt.Sprintf("Processing %s...", stage),
		})

		// 模拟阶段处理延迟（尊重 ctx 取消，在阶段边界中止）
		if err := p.sleeper.Sleep(ctx); err != nil {
			return nil, p.abort(runID, stage, progress, err, emit)
		}

		if p.stageHook != nil {
			if err := p.stageHook(stage); err != nil {
				return nil, p.abort(runID, stage, progress, err, emit)
			}
		}

		emit(models.StageUpdate{
			Stage:    stage,
			Status:   models.StageStatusCompleted,
			Progress: progress,
			Message:  fmt.Sprintf("%s completed successfully", stage),
		})
	}

	// 最后阶段完成后：组装并持久化
	record, err := p.assembler.Assemble(form)
	if err != nil {
		p.state = models.PipelineAborted
		return nil, fmt.Errorf("failed to assemble record: %w", err)
	}

	if err := p.repo.Save(ctx, record); err != nil {
		p.state = models.PipelineAborted
		return nil, fmt.Errorf("failed to persist record: %w", err)
	}

	p.state = models.PipelineCompleted
	p.logger.Info("Pipeline run completed",
		zap.String("run_id", runID),
		zap.String("record_id", record.ID),
	)

	return record, nil
}

// abort 标记当前阶段出错并中止整个运行
func (p *Pipeline) abort(runID string, stage models.ProcessingStage, progress float64, cause error, emit func(models.StageUpdate)) error {
	p.state = models.PipelineAborted
	emit(models.StageUpdate{
		Stage:    stage,
		Status:   models.StageStatusError,
		Progress: progress,
		Message:  fmt.Sprintf("%s failed: %v", stage, cause),
	})
	p.logger.Error("Pipeline run aborted",
		zap.String("run_id", runID),
		zap.String("stage", string(stage)),
		zap.Error(cause),
	)
	return fmt.Errorf("stage %s failed: %w", stage, cause)
}
