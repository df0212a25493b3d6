// Package service 组装记录处理核心的各个部件并向上层暴露统一入口。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"privemr-record-service/internal/assembler"
	"privemr-record-service/internal/config"
	"privemr-record-service/internal/emrcrypto"
	"privemr-record-service/internal/models"
	"privemr-record-service/internal/pipeline"
	"privemr-record-service/internal/repository"
)

// RecordService 记录处理服务
type RecordService struct {
	config      *config.Config
	logger      *zap.Logger
	redisClient *redis.Client
	repo        *repository.RecordRepository
	assembler   *assembler.Assembler
	pipeline    *pipeline.Pipeline
}

// NewRecordService 创建记录处理服务
func NewRecordService(cfg *config.Config, logger *zap.Logger) (*RecordService, error) {
	// 初始化 Redis（记录集合的持久化存储）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	svc := NewRecordServiceWithStore(cfg, logger, repository.NewRedisKVStore(redisClient))
	svc.redisClient = redisClient
	return svc, nil
}

// NewRecordServiceWithStore 使用注入的 KV 存储创建服务（测试或嵌入场景）
func NewRecordServiceWithStore(cfg *config.Config, logger *zap.Logger, kv repository.KVStore) *RecordService {
	repo := repository.NewRecordRepository(cfg.Storage.Namespace, kv, logger)

	// 创建组装器与管道
	asm := assembler.NewAssembler(logger)
	sleeper := pipeline.NewRandomSleeper(
		time.Duration(cfg.Pipeline.StageDelayMinMs)*time.Millisecond,
		time.Duration(cfg.Pipeline.StageDelayMaxMs)*time.Millisecond,
	)
	pl := pipeline.NewPipeline(asm, repo, sleeper, logger)

	return &RecordService{
		config:    cfg,
		logger:    logger,
		repo:      repo,
		assembler: asm,
		pipeline:  pl,
	}
}

// ProcessSubmission 处理一次表单提交：运行管道并返回持久化后的记录
// 这是上层界面创建记录的唯一入口
func (s *RecordService) ProcessSubmission(ctx context.Context, form *models.SubmissionForm, onProgress pipeline.ProgressFunc) (*models.EMRRecord, error) {
	return s.pipeline.Run(ctx, form, onProgress)
}

// Records 返回全部记录
func (s *RecordService) Records(ctx context.Context) []models.EMRRecord {
	return s.repo.GetAll(ctx)
}

// Summaries 返回全部记录的摘要投影
func (s *RecordService) Summaries(ctx context.Context) []models.EMRSummary {
	return s.repo.Summaries(ctx)
}

// Get 按 ID 返回记录；不存在时返回 nil
func (s *RecordService) Get(ctx context.Context, id string) *models.EMRRecord {
	return s.repo.GetByID(ctx, id)
}

// Update 部分更新记录（按块浅合并）
func (s *RecordService) Update(ctx context.Context, id string, patch *models.RecordPatch) error {
	return s.repo.Update(ctx, id, patch)
}

// Delete 删除记录
func (s *RecordService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Clear 清空整个集合
func (s *RecordService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

// Export 导出整个集合为缩进 JSON
func (s *RecordService) Export(ctx context.Context) (string, error) {
	return s.repo.Export(ctx)
}

// Import 解析并整体替换集合（载荷非法时现有数据保持不变）
func (s *RecordService) Import(ctx context.Context, jsonData string) error {
	return s.repo.Import(ctx, jsonData)
}

// LogAccess 追加一条访问日志条目
func (s *RecordService) LogAccess(ctx context.Context, id, accessedBy, action string) error {
	return s.repo.AppendAccessEntry(ctx, id, models.AccessEntry{
		AccessedBy: accessedBy,
		AccessedAt: time.Now().UTC().Format(time.RFC3339),
		Action:     action,
	})
}

// Share 向记录追加一条共享授权
func (s *RecordService) Share(ctx context.Context, id, email, role string, permissions []string, expiresAt string) error {
	grant := models.ShareGrant{
		GrantID:     uuid.NewString(),
		Email:       email,
		Role:        role,
		Permissions: permissions,
		SharedAt:    time.Now().UTC().Format(time.RFC3339),
		ExpiresAt:   expiresAt,
	}
	if err := s.repo.AddShare(ctx, id, grant); err != nil {
		return err
	}
	s.logger.Info("Shared EMR record",
		zap.String("record_id", id),
		zap.String("email", email),
		zap.String("role", role),
	)
	return nil
}

// VerifyRecord 重新计算记录的内容摘要并与存储的完整摘要比对，
// 更新验证状态并追加审计事件
func (s *RecordService) VerifyRecord(ctx context.Context, id string) (bool, error) {
	record := s.repo.GetByID(ctx, id)
	if record == nil {
		return false, fmt.Errorf("record not found: %s", id)
	}

	canonical, err := assembler.CanonicalContent(record)
	if err != nil {
		return false, err
	}

	verified := emrcrypto.Digest(string(canonical)) == record.Security.ContentDigest

	security := record.Security
	if verified {
		security.VerificationStatus = models.VerificationVerified
	} else {
		security.VerificationStatus = models.VerificationFailed
	}

	compliance := record.Compliance
	compliance.AuditTrail = append(compliance.AuditTrail, models.AuditEvent{
		Action:    "verified",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UserID:    "system",
		Details:   fmt.Sprintf("integrity check result: %s", security.VerificationStatus),
	})

	err = s.repo.Update(ctx, id, &models.RecordPatch{
		Security:   &security,
		Compliance: &compliance,
	})
	if err != nil {
		return verified, err
	}

	s.logger.Info("Verified EMR record",
		zap.String("record_id", id),
		zap.Bool("verified", verified),
	)
	return verified, nil
}

// Close 释放底层连接
func (s *RecordService) Close() error {
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Error closing redis connection", zap.Error(err))
			return err
		}
	}
	return nil
}
