// Package repository 提供基于 KV 存储的本地病历记录仓库。
//
// 整个集合序列化为一个 JSON 数组，存放在固定命名空间键下。
// 写操作遵循"读整个集合 → 修改 → 写回整个集合"的模式，不加锁；
// 仅适用于单用户单进程场景（多进程访问需要显式事务或乐观并发机制）。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"privemr-record-service/internal/fileingest"
	"privemr-record-service/internal/models"
)

// ErrInvalidFormat 表示导入载荷不是合法的记录集合
var ErrInvalidFormat = errors.New("invalid record collection format")

// DefaultNamespace 默认存储命名空间
const DefaultNamespace = "privemr"

// RecordRepository 病历记录仓库
type RecordRepository struct {
	namespace string
	kv        KVStore
	logger    *zap.Logger
}

// NewRecordRepository 创建记录仓库
// namespace 为空时使用 DefaultNamespace
func NewRecordRepository(namespace string, kv KVStore, logger *zap.Logger) *RecordRepository {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RecordRepository{
		namespace: namespace,
		kv:        kv,
		logger:    logger,
	}
}

// collectionKey 集合在 KV 存储中的键
func (r *RecordRepository) collectionKey() string {
	return fmt.Sprintf("%s:records", r.namespace)
}

// persist 将整个集合写回存储（写失败向调用方传播）
func (r *RecordRepository) persist(ctx context.Context, records []models.EMRRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := r.kv.Set(ctx, r.collectionKey(), string(data), 0); err != nil {
		return fmt.Errorf("failed to persist records: %w", err)
	}
	return nil
}

// Save 追加一条记录并持久化整个集合
func (r *RecordRepository) Save(ctx context.Context, record *models.EMRRecord) error {
	records := r.GetAll(ctx)
	records = append(records, *record)

	if err := r.persist(ctx, records); err != nil {
		return err
	}

	r.logger.Info("Saved EMR record",
		zap.String("record_id", record.ID),
		zap.String("title", record.Metadata.Title),
		zap.Int("total_records", len(records)),
	)
	return nil
}

// GetAll 返回全部记录
// 读取或解析失败时记录日志并返回空列表，不向上传播错误
func (r *RecordRepository) GetAll(ctx context.Context) []models.EMRRecord {
	val, err := r.kv.Get(ctx, r.collectionKey())
	if err != nil {
		if err != ErrKeyMiss {
			r.logger.Error("Failed to read records from store", zap.Error(err))
		}
		return []models.EMRRecord{}
	}

	var records []models.EMRRecord
	if err := json.Unmarshal([]byte(val), &records); err != nil {
		r.logger.Error("Failed to unmarshal stored records", zap.Error(err))
		return []models.EMRRecord{}
	}
	return records
}

// GetByID 按 ID 查找记录；不存在时返回 nil
func (r *RecordRepository) GetByID(ctx context.Context, id string) *models.EMRRecord {
	for _, record := range r.GetAll(ctx) {
		if record.ID == id {
			rec := record
			return &rec
		}
	}
	return nil
}

// Update 将补丁按块浅合并到匹配的记录上并持久化
// ID 不存在时是空操作
func (r *RecordRepository) Update(ctx context.Context, id string, patch *models.RecordPatch) error {
	records := r.GetAll(ctx)
	for i := range records {
		if records[i].ID != id {
			continue
		}
		applyPatch(&records[i], patch)
		return r.persist(ctx, records)
	}
	return nil
}

// applyPatch 非 nil 的块整体替换对应字段
func applyPatch(record *models.EMRRecord, patch *models.RecordPatch) {
	if patch.Version != nil {
		record.Version = *patch.Version
	}
	if patch.Patient != nil {
		record.Patient = *patch.Patient
	}
	if patch.Provider != nil {
		record.Provider = *patch.Provider
	}
	if patch.Metadata != nil {
		record.Metadata = *patch.Metadata
	}
	if patch.Content != nil {
		record.Content = *patch.Content
	}
	if patch.Security != nil {
		record.Security = *patch.Security
	}
	if patch.Timestamps != nil {
		record.Timestamps = *patch.Timestamps
	}
	if patch.Access != nil {
		record.Access = *patch.Access
	}
	if patch.Compliance != nil {
		record.Compliance = *patch.Compliance
	}
}

// Delete 删除匹配的记录并持久化剩余集合
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	records := r.GetAll(ctx)
	filtered := make([]models.EMRRecord, 0, len(records))
	for _, record := range records {
		if record.ID != id {
			filtered = append(filtered, record)
		}
	}
	return r.persist(ctx, filtered)
}

// Clear 删除整个集合条目
func (r *RecordRepository) Clear(ctx context.Context) error {
	if err := r.kv.Del(ctx, r.collectionKey()); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// Summaries 将每条记录映射为摘要投影
func (r *RecordRepository) Summaries(ctx context.Context) []models.EMRSummary {
	records := r.GetAll(ctx)
	summaries := make([]models.EMRSummary, 0, len(records))
	for i := range records {
		summaries = append(summaries, ToSummary(&records[i]))
	}
	return summaries
}

// ToSummary 从完整记录计算摘要投影（摘要永不单独存储）
func ToSummary(record *models.EMRRecord) models.EMRSummary {
	summary := models.EMRSummary{
		ID:           record.ID,
		Title:        record.Metadata.Title,
		Description:  record.Metadata.Description,
		Type:         record.Metadata.Type,
		SubType:      record.Metadata.SubType,
		DateCreated:  record.Timestamps.CreatedAt,
		Provider:     record.Provider.Name,
		Hospital:     record.Provider.HospitalName,
		Verified:     record.Security.VerificationStatus == models.VerificationVerified,
		Priority:     record.Metadata.Priority,
		LastAccessed: record.Timestamps.LastAccessedAt,
		Tags:         record.Metadata.Tags,
	}
	if record.Content.FileData != nil {
		summary.FileSize = fileingest.FormatSize(record.Content.FileData.Size)
	}
	return summary
}

// Export 导出整个集合（缩进 JSON 文本）
func (r *RecordRepository) Export(ctx context.Context) (string, error) {
	records := r.GetAll(ctx)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export records: %w", err)
	}
	return string(data), nil
}

// Import 解析并整体替换集合
// 先解析后写入：载荷非法时返回 ErrInvalidFormat，现有集合保持不变
func (r *RecordRepository) Import(ctx context.Context, jsonData string) error {
	var records []models.EMRRecord
	if err := json.Unmarshal([]byte(jsonData), &records); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return r.persist(ctx, records)
}

// AppendAccessEntry 向访问日志追加一条条目（只增不删）并更新最后访问时间
// ID 不存在时是空操作
func (r *RecordRepository) AppendAccessEntry(ctx context.Context, id string, entry models.AccessEntry) error {
	records := r.GetAll(ctx)
	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].Access.AccessLog = append(records[i].Access.AccessLog, entry)
		records[i].Timestamps.LastAccessedAt = entry.AccessedAt
		return r.persist(ctx, records)
	}
	return nil
}

// AddShare 向共享列表追加一条授权（只增不删），同时记录审计事件
// ID 不存在时是空操作
func (r *RecordRepository) AddShare(ctx context.Context, id string, grant models.ShareGrant) error {
	records := r.GetAll(ctx)
	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].Access.SharedWith = append(records[i].Access.SharedWith, grant)
		records[i].Compliance.AuditTrail = append(records[i].Compliance.AuditTrail, models.AuditEvent{
			Action:    "shared",
			Timestamp: grant.SharedAt,
			UserID:    grant.Email,
			Details:   fmt.Sprintf("shared with %s as %s", grant.Email, grant.Role),
		})
		return r.persist(ctx, records)
	}
	return nil
}
