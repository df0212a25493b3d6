package pipeline_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"privemr-record-service/internal/assembler"
	"privemr-record-service/internal/models"
	"privemr-record-service/internal/pipeline"
	"privemr-record-service/internal/repository"
)

// fakeKVStore 仅用于单元测试（内存 KV）
type fakeKVStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{data: make(map[string]string)}
}

func (f *fakeKVStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	val, ok := f.data[key]
	if !ok {
		return "", repository.ErrKeyMiss
	}
	return val, nil
}

func (f *fakeKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKVStore) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

// zeroSleeper 无延迟（测试不得断言具体时长）
type zeroSleeper struct{}

func (zeroSleeper) Sleep(ctx context.Context) error {
	return ctx.Err()
}

func newTestPipeline(t *testing.T) (*pipeline.Pipeline, *repository.RecordRepository) {
	t.Helper()
	logger := zap.NewNop()
	repo := repository.NewRecordRepository("test", newFakeKVStore(), logger)
	asm := assembler.NewAssembler(logger)
	return pipeline.NewPipeline(asm, repo, zeroSleeper{}, logger), repo
}

func labForm() *models.SubmissionForm {
	return &models.SubmissionForm{
		PatientEmail: "patient@example.com",
		Title:        "CBC Panel",
		Description:  "Routine blood work",
		Type:         models.RecordTypeLab,
		Priority:     models.PriorityMedium,
		Tags:         []string{"routine"},
		TextData:     "Hemoglobin: 14.2 g/dL",
		ProviderName: "Dr. Rao",
		HospitalName: "City Hospital",
	}
}

func TestPipeline_Run_EmitsTwoUpdatesPerStage(t *testing.T) {
	p, _ := newTestPipeline(t)

	var updates []models.StageUpdate
	record, err := p.Run(context.Background(), labForm(), func(u models.StageUpdate) {
		updates = append(updates, u)
	})
	require.NoError(t, err)
	require.NotNil(t, record)

	// 六个阶段，每阶段恰好两次通知
	require.Len(t, updates, 12)
	for i := 0; i < len(updates); i += 2 {
		require.Equal(t, models.StageStatusProcessing, updates[i].Status)
		require.Equal(t, models.StageStatusCompleted, updates[i+1].Status)
		require.Equal(t, updates[i].Stage, updates[i+1].Stage)
	}

	// 进度单调不减，最终 100
	prev := 0.0
	for _, u := range updates {
		require.GreaterOrEqual(t, u.Progress, prev)
		prev = u.Progress
	}
	require.Equal(t, 100.0, updates[len(updates)-1].Progress)

	require.Equal(t, models.PipelineCompleted, p.State())
}

func TestPipeline_Run_StageOrderIsFixed(t *testing.T) {
	p, _ := newTestPipeline(t)

	var stages []models.ProcessingStage
	_, err := p.Run(context.Background(), labForm(), func(u models.StageUpdate) {
		if u.Status == models.StageStatusProcessing {
			stages = append(stages, u.Stage)
		}
	})
	require.NoError(t, err)
	require.Equal(t, []models.ProcessingStage{
		models.StageValidation,
		models.StageEncryption,
		models.StageSigning,
		models.StageStorage,
		models.StageIndexing,
		models.StageNotification,
	}, stages)
}

func TestPipeline_Run_PersistsRecord(t *testing.T) {
	p, repo := newTestPipeline(t)
	ctx := context.Background()

	record, err := p.Run(ctx, labForm(), nil)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^EMR-[A-Z0-9]+-[A-Z0-9]{6}$`), record.ID)

	stored := repo.GetAll(ctx)
	require.Len(t, stored, 1)
	require.Equal(t, record.ID, stored[0].ID)
}

func TestPipeline_Run_NoContentFailsBeforeAnyStage(t *testing.T) {
	p, repo := newTestPipeline(t)

	form := labForm()
	form.TextData = ""

	calls := 0
	_, err := p.Run(context.Background(), form, func(models.StageUpdate) { calls++ })
	require.ErrorIs(t, err, assembler.ErrNoContent)
	// 同步校验失败：无任何进度通知，无部分副作用
	require.Zero(t, calls)
	require.Empty(t, repo.GetAll(context.Background()))
}

func TestPipeline_Run_OversizedFileFailsBeforeAnyStage(t *testing.T) {
	p, repo := newTestPipeline(t)

	form := labForm()
	form.TextData = ""
	form.File = &models.FileUpload{
		Name:     "large.pdf",
		MimeType: "application/pdf",
		Size:     60 * 1024 * 1024,
	}

	_, err := p.Run(context.Background(), form, nil)
	require.ErrorIs(t, err, assembler.ErrInvalidFile)
	require.Empty(t, repo.GetAll(context.Background()))
}

func TestPipeline_Run_StageErrorAbortsImmediately(t *testing.T) {
	p, repo := newTestPipeline(t)

	injected := errors.New("signing backend unavailable")
	p.SetStageHook(func(stage models.ProcessingStage) error {
		if stage == models.StageSigning {
			return injected
		}
		return nil
	})

	var updates []models.StageUpdate
	_, err := p.Run(context.Background(), labForm(), func(u models.StageUpdate) {
		updates = append(updates, u)
	})
	require.Error(t, err)
	require.ErrorIs(t, err, injected)

	// validation、encryption 各两次，signing 的 processing 与 error 各一次
	require.Len(t, updates, 6)
	last := updates[len(updates)-1]
	require.Equal(t, models.StageSigning, last.Stage)
	require.Equal(t, models.StageStatusError, last.Status)

	// 后续阶段不再执行，记录不持久化
	require.Equal(t, models.PipelineAborted, p.State())
	require.Empty(t, repo.GetAll(context.Background()))
}

func TestPipeline_Run_ContextCancellationAborts(t *testing.T) {
	p, repo := newTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, labForm(), nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, models.PipelineAborted, p.State())
	require.Empty(t, repo.GetAll(context.Background()))
}
